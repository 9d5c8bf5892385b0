package model

import (
	"time"
)

// Visit is an append-only page view of a public menu, optionally tied to a dish.
type Visit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	StoreID   uint      `gorm:"index:idx_visits_store_time;not null" json:"store_id"`
	DishID    *uint     `gorm:"index" json:"dish_id,omitempty"`
	VisitedAt time.Time `gorm:"index:idx_visits_store_time;not null" json:"visited_at"`
}

func (Visit) TableName() string {
	return "visits"
}
