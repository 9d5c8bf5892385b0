package model

import (
	"time"
)

// Stripe subscription statuses
const (
	SubscriptionStatusActive            = "active"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusUnpaid            = "unpaid"
)

// DefaultSubscriptionName is used when a request does not name the subscription.
const DefaultSubscriptionName = "default"

// Subscription mirrors a Stripe subscription owned by a user.
type Subscription struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	StripeID     string     `gorm:"uniqueIndex;not null" json:"stripe_id"`
	StripeStatus string     `gorm:"type:varchar(30);not null" json:"stripe_status"`
	StripePrice  string     `json:"stripe_price"`
	ItemID       string     `json:"-"` // subscription item swapped on plan change
	Quantity     int64      `gorm:"default:1" json:"quantity"`
	TrialEndsAt  *time.Time `json:"trial_ends_at"`
	EndsAt       *time.Time `json:"ends_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Valid reports whether the subscription grants access right now.
func (s *Subscription) Valid(now time.Time) bool {
	return s.Active(now) || s.OnTrial(now) || s.OnGracePeriod(now)
}

// Active is true for statuses that still bill, unless the subscription has fully ended.
func (s *Subscription) Active(now time.Time) bool {
	switch s.StripeStatus {
	case SubscriptionStatusIncomplete, SubscriptionStatusIncompleteExpired, SubscriptionStatusUnpaid, SubscriptionStatusCanceled:
		return false
	}
	return s.EndsAt == nil || s.OnGracePeriod(now)
}

func (s *Subscription) OnTrial(now time.Time) bool {
	return s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
}

// OnGracePeriod is true while a cancelled subscription has not reached its end date.
func (s *Subscription) OnGracePeriod(now time.Time) bool {
	return s.EndsAt != nil && s.EndsAt.After(now)
}

func (s *Subscription) Canceled() bool {
	return s.EndsAt != nil
}

func (s *Subscription) Ended(now time.Time) bool {
	return s.Canceled() && !s.OnGracePeriod(now)
}

func (s *Subscription) Incomplete() bool {
	return s.StripeStatus == SubscriptionStatusIncomplete
}
