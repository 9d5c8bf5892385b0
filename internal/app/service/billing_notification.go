package service

import (
	"context"
	"time"

	"github.com/mynu/mynu-backend/internal/queue"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
)

// Notifier pushes a message to a user's live sessions and reports how many received it.
type Notifier interface {
	SendToUser(userID uint, message interface{}) int
}

// BillingNotification is the message pushed to the dashboard.
type BillingNotification struct {
	Type      string    `json:"type"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

var billingMessages = map[string]string{
	stripebilling.EventInvoicePaid:          "Pagamento confirmado. Obrigado!",
	stripebilling.EventInvoicePaymentFailed: "Não conseguimos processar seu pagamento. Atualize sua forma de pagamento.",
	stripebilling.EventSubscriptionCreated:  "Sua assinatura foi criada.",
	stripebilling.EventSubscriptionUpdated:  "Sua assinatura foi atualizada.",
	stripebilling.EventSubscriptionDeleted:  "Sua assinatura foi encerrada.",
}

// NewBillingNotificationHandler returns the queue handler for billing.notification jobs.
// notifier may be nil, in which case events are only logged.
func NewBillingNotificationHandler(notifier Notifier) queue.Handler {
	return func(ctx context.Context, job queue.Job) error {
		var payload BillingNotificationPayload
		if err := job.Decode(&payload); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"event_id":   payload.EventID,
			"event_type": payload.EventType,
			"user_id":    payload.UserID,
		}
		if payload.EventType == stripebilling.EventInvoicePaymentFailed {
			logger.Error("Billing payment failed", nil, fields)
		} else {
			logger.Info("Billing event processed", fields)
		}

		if notifier == nil {
			return nil
		}
		delivered := notifier.SendToUser(payload.UserID, BillingNotification{
			Type:      "billing",
			EventType: payload.EventType,
			Message:   billingMessages[payload.EventType],
			Timestamp: time.Now(),
		})
		logger.Debug("Billing notification pushed", map[string]interface{}{
			"user_id":  payload.UserID,
			"sessions": delivered,
		})
		return nil
	}
}
