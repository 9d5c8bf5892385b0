package model

import (
	"time"
)

type UserRole string

const (
	RoleFree       UserRole = "free"
	RolePro        UserRole = "pro"
	RoleEnterprise UserRole = "enterprise"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"not null" json:"name"`
	Role         UserRole   `gorm:"type:varchar(20);default:'free';not null" json:"role"`
	StripeID     *string    `gorm:"uniqueIndex" json:"-"`              // Stripe customer id
	PMType       string     `gorm:"type:varchar(30)" json:"pm_type"`   // default payment method brand
	PMLastFour   string     `gorm:"type:varchar(4)" json:"pm_last_four"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Store *Store `gorm:"foreignKey:UserID" json:"store,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasStripeID reports whether a Stripe customer is linked to the user.
func (u *User) HasStripeID() bool {
	return u.StripeID != nil && *u.StripeID != ""
}
