package model

import (
	"time"
)

type Menu struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	StoreID     uint      `gorm:"index;not null" json:"store_id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	Order       int       `gorm:"column:sort_order;default:0;not null" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Store    *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Sections []Section `gorm:"foreignKey:MenuID" json:"sections,omitempty"`
}

func (Menu) TableName() string {
	return "menus"
}
