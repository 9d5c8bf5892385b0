package service

import (
	"context"
	"errors"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/queue"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
	"gorm.io/gorm"
)

// JobBillingNotification is the queue job type emitted for billing events.
const JobBillingNotification = "billing.notification"

// BillingNotificationPayload is the job payload for a dispatched billing event.
type BillingNotificationPayload struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	UserID     uint   `json:"user_id"`
	CustomerID string `json:"customer_id"`
}

// dispatchedEvents are forwarded to the notification queue.
var dispatchedEvents = map[string]bool{
	stripebilling.EventInvoicePaid:          true,
	stripebilling.EventInvoicePaymentFailed: true,
	stripebilling.EventSubscriptionCreated:  true,
	stripebilling.EventSubscriptionUpdated:  true,
	stripebilling.EventSubscriptionDeleted:  true,
}

type WebhookService interface {
	// Handle verifies and processes one webhook delivery. Only signature and
	// payload errors are returned; everything after verification is logged.
	Handle(ctx context.Context, payload []byte, signature string) error
}

type webhookService struct {
	provider stripebilling.Provider
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
	catalog  *PlanCatalog
	jobs     queue.Queue
	now      func() time.Time
}

func NewWebhookService(
	provider stripebilling.Provider,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	catalog *PlanCatalog,
	jobs queue.Queue,
) WebhookService {
	return &webhookService{
		provider: provider,
		userRepo: userRepo,
		subRepo:  subRepo,
		catalog:  catalog,
		jobs:     jobs,
		now:      time.Now,
	}
}

func (s *webhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ConstructEvent(payload, signature)
	if err != nil {
		logger.Warn("Rejected webhook delivery", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	fields := map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	}
	logger.Info("Webhook received", fields)

	switch event.Type {
	case stripebilling.EventSubscriptionCreated,
		stripebilling.EventSubscriptionUpdated,
		stripebilling.EventSubscriptionDeleted:
		if err := s.syncSubscription(event); err != nil {
			logger.Error("Failed to sync subscription from webhook", err, fields)
		}
	}

	if dispatchedEvents[event.Type] {
		s.dispatch(ctx, event)
	} else {
		logger.Debug("Ignoring webhook event", fields)
	}
	return nil
}

// syncSubscription mirrors a customer.subscription.* event into the local table.
func (s *webhookService) syncSubscription(event *stripebilling.Event) error {
	remote, err := event.Subscription()
	if err != nil {
		return err
	}
	now := s.now()

	sub, err := s.subRepo.FindByStripeID(remote.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var user *model.User
	if sub == nil {
		user, err = s.userRepo.FindByStripeID(remote.CustomerID)
		if err != nil {
			logger.Warn("Subscription event for unknown customer", map[string]interface{}{
				"event_id":    event.ID,
				"customer_id": remote.CustomerID,
			})
			return nil
		}
		sub = &model.Subscription{
			UserID:   user.ID,
			Name:     subscriptionName(remote.Metadata[stripebilling.MetadataSubscriptionName]),
			StripeID: remote.ID,
		}
	} else {
		user, err = s.userRepo.FindByID(sub.UserID)
		if err != nil {
			return err
		}
	}

	sub.StripeStatus = remote.Status
	if remote.PriceID != "" {
		sub.StripePrice = remote.PriceID
	}
	if remote.ItemID != "" {
		sub.ItemID = remote.ItemID
	}
	if remote.Quantity > 0 {
		sub.Quantity = remote.Quantity
	}
	sub.TrialEndsAt = remote.TrialEnd

	switch {
	case event.Type == stripebilling.EventSubscriptionDeleted:
		sub.StripeStatus = model.SubscriptionStatusCanceled
		if remote.EndedAt != nil {
			sub.EndsAt = remote.EndedAt
		} else {
			sub.EndsAt = &now
		}
	case remote.CancelAtPeriodEnd:
		if sub.OnTrial(now) {
			sub.EndsAt = sub.TrialEndsAt
		} else {
			sub.EndsAt = remote.CurrentPeriodEnd
		}
	default:
		sub.EndsAt = nil
	}

	if sub.ID == 0 {
		err = s.subRepo.Create(sub)
	} else {
		err = s.subRepo.Update(sub)
	}
	if err != nil {
		return err
	}

	_, err = syncUserRole(s.userRepo, s.subRepo, s.catalog, user.ID, user.Role, now)
	return err
}

func (s *webhookService) dispatch(ctx context.Context, event *stripebilling.Event) {
	fields := map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	}

	customerID, err := event.CustomerID()
	if err != nil || customerID == "" {
		logger.Warn("Webhook event without customer", fields)
		return
	}
	fields["customer_id"] = customerID

	user, err := s.userRepo.FindByStripeID(customerID)
	if err != nil {
		logger.Warn("Webhook event for unknown customer dropped", fields)
		return
	}
	fields["user_id"] = user.ID

	job, err := queue.NewJob(JobBillingNotification, BillingNotificationPayload{
		EventID:    event.ID,
		EventType:  event.Type,
		UserID:     user.ID,
		CustomerID: customerID,
	})
	if err != nil {
		logger.Error("Failed to build billing notification job", err, fields)
		return
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		logger.Error("Failed to enqueue billing notification", err, fields)
		return
	}

	logger.Info("Billing notification queued", fields)
}
