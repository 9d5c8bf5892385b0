package model

import (
	"time"
)

type Section struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	MenuID      uint      `gorm:"index;not null" json:"menu_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	Order       int       `gorm:"column:sort_order;default:0;not null" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Menu   *Menu  `gorm:"foreignKey:MenuID" json:"menu,omitempty"`
	Dishes []Dish `gorm:"foreignKey:SectionID" json:"dishes,omitempty"`
}

func (Section) TableName() string {
	return "sections"
}
