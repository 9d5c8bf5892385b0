package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrOutOfScope is returned by reorders that reference rows outside the parent.
var ErrOutOfScope = errors.New("item does not belong to scope")

// OrderItem assigns a position to a row.
type OrderItem struct {
	ID    uint `json:"id" binding:"required"`
	Order int  `json:"order" binding:"min=0"`
}

// reorder writes every position in one transaction after checking that all ids
// belong to the row identified by scopeColumn = scopeID.
func reorder(db *gorm.DB, table interface{}, scopeColumn string, scopeID uint, items []OrderItem) error {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(table).
			Where("id IN ? AND "+scopeColumn+" = ?", ids, scopeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return fmt.Errorf("%w: %d of %d ids matched", ErrOutOfScope, count, len(ids))
		}

		for _, item := range items {
			if err := tx.Model(table).
				Where("id = ?", item.ID).
				Update("sort_order", item.Order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// nextOrder returns the position after the last row of the scope.
func nextOrder(db *gorm.DB, table interface{}, scopeColumn string, scopeID uint) (int, error) {
	var max int
	row := db.Model(table).
		Where(scopeColumn+" = ?", scopeID).
		Select("COALESCE(MAX(sort_order), 0)").
		Row()
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}

// imagePaths collects the non-empty image paths of the dishes matched by query.
func imagePaths(query *gorm.DB) ([]string, error) {
	var paths []string
	if err := query.Where("image_path <> ''").Pluck("image_path", &paths).Error; err != nil {
		return nil, err
	}
	return paths, nil
}
