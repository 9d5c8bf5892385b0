package repository

import (
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
)

// DishVisitCount is a dish ranked by the number of visits that referenced it.
type DishVisitCount struct {
	DishID uint   `json:"dish_id"`
	Name   string `json:"name"`
	Visits int64  `gorm:"column:visit_count" json:"visits"`
}

type VisitRepository interface {
	Create(visit *model.Visit) error
	CreateBatch(visits []model.Visit) error
	CountSince(storeID uint, since time.Time) (int64, error)
	TopDishes(storeID uint, since time.Time, limit int) ([]DishVisitCount, error)
}

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(visit *model.Visit) error {
	if err := r.db.Create(visit).Error; err != nil {
		logger.Error("Failed to record visit", err, map[string]interface{}{
			"store_id": visit.StoreID,
		})
		return err
	}
	return nil
}

func (r *visitRepository) CreateBatch(visits []model.Visit) error {
	if len(visits) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(visits, 100).Error; err != nil {
		logger.Error("Failed to record visit batch", err, map[string]interface{}{
			"count": len(visits),
		})
		return err
	}
	return nil
}

func (r *visitRepository) CountSince(storeID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Visit{}).
		Where("store_id = ? AND visited_at > ?", storeID, since).
		Count(&count).Error
	return count, err
}

func (r *visitRepository) TopDishes(storeID uint, since time.Time, limit int) ([]DishVisitCount, error) {
	var rows []DishVisitCount
	err := r.db.Table("visits").
		Select("visits.dish_id AS dish_id, dishes.name AS name, COUNT(*) AS visit_count").
		Joins("JOIN dishes ON dishes.id = visits.dish_id").
		Where("visits.store_id = ? AND visits.visited_at > ? AND visits.dish_id IS NOT NULL", storeID, since).
		Group("visits.dish_id, dishes.name").
		Order("visit_count DESC, visits.dish_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to rank dishes by visits", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, err
	}
	return rows, nil
}
