package repository

import (
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(sub *model.Subscription) error
	Update(sub *model.Subscription) error
	FindByUserAndName(userID uint, name string) (*model.Subscription, error)
	FindByUserID(userID uint) ([]model.Subscription, error)
	FindByStripeID(stripeID string) (*model.Subscription, error)
	// FindEnded returns subscriptions whose ends_at is not after now.
	FindEnded(now time.Time) ([]model.Subscription, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *model.Subscription) error {
	logger.Debug("Creating subscription in database", map[string]interface{}{
		"user_id":   sub.UserID,
		"name":      sub.Name,
		"stripe_id": sub.StripeID,
	})

	if err := r.db.Create(sub).Error; err != nil {
		logger.Error("Failed to create subscription in database", err, map[string]interface{}{
			"user_id":   sub.UserID,
			"stripe_id": sub.StripeID,
		})
		return err
	}
	return nil
}

func (r *subscriptionRepository) Update(sub *model.Subscription) error {
	if err := r.db.Save(sub).Error; err != nil {
		logger.Error("Failed to update subscription in database", err, map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return err
	}
	return nil
}

// FindByUserAndName returns the most recent subscription with the name.
func (r *subscriptionRepository) FindByUserAndName(userID uint, name string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ? AND name = ?", userID, name).
		Order("created_at DESC, id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByUserID(userID uint) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) FindByStripeID(stripeID string) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.Where("stripe_id = ?", stripeID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindEnded(now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := r.db.Where("ends_at IS NOT NULL AND ends_at <= ?", now).Find(&subs).Error; err != nil {
		logger.Error("Failed to list ended subscriptions", err)
		return nil, err
	}
	return subs, nil
}
