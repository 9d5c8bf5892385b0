package repository

import (
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SectionRepository interface {
	Create(section *model.Section) error
	Update(section *model.Section) error
	FindByID(id uint) (*model.Section, error)
	FindByIDWithMenu(id uint) (*model.Section, error)
	FindByMenuID(menuID uint) ([]model.Section, error)
	NextOrder(menuID uint) (int, error)
	Reorder(menuID uint, items []OrderItem) error
	// Delete removes the section's dishes then the section, returning the
	// image paths of the deleted dishes.
	Delete(id uint) ([]string, error)
}

type sectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) SectionRepository {
	return &sectionRepository{db: db}
}

func (r *sectionRepository) Create(section *model.Section) error {
	if err := r.db.Omit(clause.Associations).Create(section).Error; err != nil {
		logger.Error("Failed to create section in database", err, map[string]interface{}{
			"menu_id": section.MenuID,
			"name":    section.Name,
		})
		return err
	}

	logger.Debug("Section created in database", map[string]interface{}{
		"section_id": section.ID,
		"menu_id":    section.MenuID,
	})
	return nil
}

func (r *sectionRepository) Update(section *model.Section) error {
	if err := r.db.Omit(clause.Associations).Save(section).Error; err != nil {
		logger.Error("Failed to update section in database", err, map[string]interface{}{
			"section_id": section.ID,
		})
		return err
	}
	return nil
}

func (r *sectionRepository) FindByID(id uint) (*model.Section, error) {
	var section model.Section
	if err := r.db.First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepository) FindByIDWithMenu(id uint) (*model.Section, error) {
	var section model.Section
	if err := r.db.Preload("Menu").First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepository) FindByMenuID(menuID uint) ([]model.Section, error) {
	var sections []model.Section
	if err := r.db.Where("menu_id = ?", menuID).Order(orderClause).Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepository) NextOrder(menuID uint) (int, error) {
	return nextOrder(r.db, &model.Section{}, "menu_id", menuID)
}

func (r *sectionRepository) Reorder(menuID uint, items []OrderItem) error {
	logger.Debug("Reordering sections", map[string]interface{}{
		"menu_id": menuID,
		"items":   len(items),
	})
	return reorder(r.db, &model.Section{}, "menu_id", menuID, items)
}

func (r *sectionRepository) Delete(id uint) ([]string, error) {
	var paths []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model.Section{}, id).Error; err != nil {
			return err
		}

		var err error
		paths, err = imagePaths(tx.Model(&model.Dish{}).Where("section_id = ?", id))
		if err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", id).Delete(&model.Dish{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Section{}, id).Error
	})
	if err != nil {
		logger.Error("Failed to delete section", err, map[string]interface{}{
			"section_id": id,
		})
		return nil, err
	}

	logger.Debug("Section deleted with dishes", map[string]interface{}{
		"section_id": id,
		"images":     len(paths),
	})
	return paths, nil
}
