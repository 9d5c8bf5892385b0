package repository

import (
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DishRepository interface {
	Create(dish *model.Dish) error
	Update(dish *model.Dish) error
	FindByID(id uint) (*model.Dish, error)
	FindBySectionID(sectionID uint) ([]model.Dish, error)
	NextOrder(sectionID uint) (int, error)
	Reorder(sectionID uint, items []OrderItem) error
	Delete(id uint) error
	CountActive(storeID uint) (int64, error)
	// LastUpdate returns the most recent dish update of the store, nil without dishes.
	LastUpdate(storeID uint) (*time.Time, error)
}

type dishRepository struct {
	db *gorm.DB
}

func NewDishRepository(db *gorm.DB) DishRepository {
	return &dishRepository{db: db}
}

func (r *dishRepository) Create(dish *model.Dish) error {
	if err := r.db.Omit(clause.Associations).Create(dish).Error; err != nil {
		logger.Error("Failed to create dish in database", err, map[string]interface{}{
			"section_id": dish.SectionID,
			"name":       dish.Name,
		})
		return err
	}

	logger.Debug("Dish created in database", map[string]interface{}{
		"dish_id":    dish.ID,
		"section_id": dish.SectionID,
	})
	return nil
}

func (r *dishRepository) Update(dish *model.Dish) error {
	if err := r.db.Omit(clause.Associations).Save(dish).Error; err != nil {
		logger.Error("Failed to update dish in database", err, map[string]interface{}{
			"dish_id": dish.ID,
		})
		return err
	}
	return nil
}

func (r *dishRepository) FindByID(id uint) (*model.Dish, error) {
	var dish model.Dish
	if err := r.db.First(&dish, id).Error; err != nil {
		return nil, err
	}
	return &dish, nil
}

func (r *dishRepository) FindBySectionID(sectionID uint) ([]model.Dish, error) {
	var dishes []model.Dish
	if err := r.db.Where("section_id = ?", sectionID).Order(orderClause).Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *dishRepository) NextOrder(sectionID uint) (int, error) {
	return nextOrder(r.db, &model.Dish{}, "section_id", sectionID)
}

func (r *dishRepository) Reorder(sectionID uint, items []OrderItem) error {
	logger.Debug("Reordering dishes", map[string]interface{}{
		"section_id": sectionID,
		"items":      len(items),
	})
	return reorder(r.db, &model.Dish{}, "section_id", sectionID, items)
}

func (r *dishRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Dish{}, id).Error; err != nil {
		logger.Error("Failed to delete dish", err, map[string]interface{}{
			"dish_id": id,
		})
		return err
	}
	return nil
}

func (r *dishRepository) CountActive(storeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Dish{}).
		Where("store_id = ? AND is_active = ?", storeID, true).
		Count(&count).Error
	return count, err
}

func (r *dishRepository) LastUpdate(storeID uint) (*time.Time, error) {
	var dish model.Dish
	err := r.db.Select("updated_at").
		Where("store_id = ?", storeID).
		Order("updated_at DESC").
		Limit(1).
		Find(&dish).Error
	if err != nil {
		return nil, err
	}
	if dish.UpdatedAt.IsZero() {
		return nil, nil
	}
	return &dish.UpdatedAt, nil
}
