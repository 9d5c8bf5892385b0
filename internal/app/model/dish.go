package model

import (
	"time"
)

type Dish struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	SectionID        uint      `gorm:"index;not null" json:"section_id"`
	StoreID          uint      `gorm:"index;not null" json:"store_id"`
	Name             string    `gorm:"not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	Price            float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	PromotionalPrice *float64  `gorm:"type:decimal(10,2)" json:"promotional_price"`
	ImagePath        string    `json:"image_path"`
	IsActive         bool      `gorm:"not null" json:"is_active"`
	IsAvailable      bool      `gorm:"not null" json:"is_available"`
	Order            int       `gorm:"column:sort_order;default:0;not null" json:"order"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Section *Section `gorm:"foreignKey:SectionID" json:"section,omitempty"`
}

func (Dish) TableName() string {
	return "dishes"
}

// DisplayPrice is the price shown to consumers: the promotional price when set.
func (d *Dish) DisplayPrice() float64 {
	if d.PromotionalPrice != nil {
		return *d.PromotionalPrice
	}
	return d.Price
}

// OnPromotion reports whether a promotional price is set.
func (d *Dish) OnPromotion() bool {
	return d.PromotionalPrice != nil
}

// Visible reports whether the dish shows on the public menu.
func (d *Dish) Visible() bool {
	return d.IsActive && d.IsAvailable
}
