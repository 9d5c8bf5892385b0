package repository

import (
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderClause = "sort_order ASC, id ASC"

type MenuRepository interface {
	Create(menu *model.Menu) error
	Update(menu *model.Menu) error
	FindByID(id uint) (*model.Menu, error)
	FindBySlug(slug string) (*model.Menu, error)
	// FindBySlugWithContent loads sections and dishes. With visibleOnly, only
	// active sections and active, available dishes are loaded.
	FindBySlugWithContent(slug string, visibleOnly bool) (*model.Menu, error)
	FindByStoreID(storeID uint) ([]model.Menu, error)
	SlugExists(slug string) (bool, error)
	NextOrder(storeID uint) (int, error)
	Reorder(storeID uint, items []OrderItem) error
	CountCreatedSince(storeID uint, since time.Time) (int64, error)
	// Delete removes dishes, then sections, then the menu, returning the
	// image paths of the deleted dishes.
	Delete(id uint) ([]string, error)
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) Create(menu *model.Menu) error {
	logger.Debug("Creating menu in database", map[string]interface{}{
		"store_id": menu.StoreID,
		"name":     menu.Name,
	})

	if err := r.db.Omit(clause.Associations).Create(menu).Error; err != nil {
		logger.Error("Failed to create menu in database", err, map[string]interface{}{
			"store_id": menu.StoreID,
			"name":     menu.Name,
		})
		return err
	}

	logger.Debug("Menu created in database", map[string]interface{}{
		"menu_id": menu.ID,
		"slug":    menu.Slug,
	})
	return nil
}

func (r *menuRepository) Update(menu *model.Menu) error {
	if err := r.db.Omit(clause.Associations).Save(menu).Error; err != nil {
		logger.Error("Failed to update menu in database", err, map[string]interface{}{
			"menu_id": menu.ID,
		})
		return err
	}
	return nil
}

func (r *menuRepository) FindByID(id uint) (*model.Menu, error) {
	var menu model.Menu
	if err := r.db.First(&menu, id).Error; err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *menuRepository) FindBySlug(slug string) (*model.Menu, error) {
	var menu model.Menu
	if err := r.db.Where("slug = ?", slug).First(&menu).Error; err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *menuRepository) FindBySlugWithContent(slug string, visibleOnly bool) (*model.Menu, error) {
	logger.Debug("Finding menu with content", map[string]interface{}{
		"slug":         slug,
		"visible_only": visibleOnly,
	})

	var menu model.Menu
	err := r.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			if visibleOnly {
				db = db.Where("is_active = ?", true)
			}
			return db.Order(orderClause)
		}).
		Preload("Sections.Dishes", func(db *gorm.DB) *gorm.DB {
			if visibleOnly {
				db = db.Where("is_active = ? AND is_available = ?", true, true)
			}
			return db.Order(orderClause)
		}).
		Where("slug = ?", slug).
		First(&menu).Error
	if err != nil {
		return nil, err
	}

	return &menu, nil
}

func (r *menuRepository) FindByStoreID(storeID uint) ([]model.Menu, error) {
	var menus []model.Menu
	if err := r.db.Where("store_id = ?", storeID).Order(orderClause).Find(&menus).Error; err != nil {
		logger.Error("Failed to list menus", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, err
	}
	return menus, nil
}

func (r *menuRepository) SlugExists(slug string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Menu{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *menuRepository) NextOrder(storeID uint) (int, error) {
	return nextOrder(r.db, &model.Menu{}, "store_id", storeID)
}

func (r *menuRepository) Reorder(storeID uint, items []OrderItem) error {
	logger.Debug("Reordering menus", map[string]interface{}{
		"store_id": storeID,
		"items":    len(items),
	})
	return reorder(r.db, &model.Menu{}, "store_id", storeID, items)
}

func (r *menuRepository) CountCreatedSince(storeID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Menu{}).
		Where("store_id = ? AND created_at > ?", storeID, since).
		Count(&count).Error
	return count, err
}

func (r *menuRepository) Delete(id uint) ([]string, error) {
	logger.Debug("Deleting menu with sections and dishes", map[string]interface{}{
		"menu_id": id,
	})

	var paths []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model.Menu{}, id).Error; err != nil {
			return err
		}

		sectionIDs := tx.Model(&model.Section{}).Select("id").Where("menu_id = ?", id)

		var err error
		paths, err = imagePaths(tx.Model(&model.Dish{}).Where("section_id IN (?)", sectionIDs))
		if err != nil {
			return err
		}
		if err := tx.Where("section_id IN (?)", sectionIDs).Delete(&model.Dish{}).Error; err != nil {
			return err
		}
		if err := tx.Where("menu_id = ?", id).Delete(&model.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Menu{}, id).Error
	})
	if err != nil {
		logger.Error("Failed to delete menu", err, map[string]interface{}{
			"menu_id": id,
		})
		return nil, err
	}

	return paths, nil
}
