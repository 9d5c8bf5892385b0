package stripebilling

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
)

// Event types consumed by the service
const (
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
)

// MetadataSubscriptionName carries the local subscription name on the Stripe object
const MetadataSubscriptionName = "name"

// Proration behaviors accepted by SwapPrice
const (
	ProrationCreate        = "create_prorations"
	ProrationNone          = "none"
	ProrationAlwaysInvoice = "always_invoice"
)

// CreateCustomerParams represents the request for creating a customer
type CreateCustomerParams struct {
	Name          string
	Email         string
	PaymentMethod string
	Metadata      map[string]string
}

// CreateSubscriptionParams represents the request for starting a subscription
type CreateSubscriptionParams struct {
	CustomerID    string
	PriceID       string
	Quantity      int64
	TrialDays     int64
	PaymentMethod string
	Metadata      map[string]string
}

// SwapParams represents a price change of a subscription's single item
type SwapParams struct {
	SubscriptionID string
	ItemID         string
	PriceID        string
	Prorate        bool
	InvoiceNow     bool
}

// ProrationBehavior maps the swap flags to the Stripe enum.
func (p SwapParams) ProrationBehavior() string {
	switch {
	case p.InvoiceNow:
		return ProrationAlwaysInvoice
	case p.Prorate:
		return ProrationCreate
	default:
		return ProrationNone
	}
}

// PaymentIntent is the first payment of a subscription
type PaymentIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ClientSecret string `json:"-"`
}

// Subscription is the provider-side state of a subscription
type Subscription struct {
	ID                string
	CustomerID        string
	Status            string
	PriceID           string
	ItemID            string
	Quantity          int64
	TrialEnd          *time.Time
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	EndedAt           *time.Time
	PaymentIntent     *PaymentIntent
	Metadata          map[string]string
}

// RequiresPaymentAction reports whether the first payment waits on the customer.
func (s *Subscription) RequiresPaymentAction() bool {
	if s.Status != string(stripe.SubscriptionStatusIncomplete) || s.PaymentIntent == nil {
		return false
	}
	switch stripe.PaymentIntentStatus(s.PaymentIntent.Status) {
	case stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation:
		return true
	}
	return false
}

// PaymentMethod is a card attached to a customer
type PaymentMethod struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	LastFour string `json:"last_four"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

// Event is a verified webhook delivery
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// CustomerID extracts data.object.customer, whether it is expanded or not.
func (e *Event) CustomerID() (string, error) {
	var obj struct {
		Customer *stripe.Customer `json:"customer"`
	}
	if err := json.Unmarshal(e.Object, &obj); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if obj.Customer == nil {
		return "", nil
	}
	return obj.Customer.ID, nil
}

// Subscription decodes data.object for customer.subscription.* events.
func (e *Event) Subscription() (*Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(e.Object, &sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if sub.ID == "" {
		return nil, fmt.Errorf("%w: missing subscription id", ErrInvalidPayload)
	}
	return fromStripeSubscription(&sub), nil
}

func unixTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0)
	return &t
}

func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		TrialEnd:          unixTime(sub.TrialEnd),
		CurrentPeriodEnd:  unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		EndedAt:           unixTime(sub.EndedAt),
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.ItemID = item.ID
		out.Quantity = item.Quantity
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		pi := sub.LatestInvoice.PaymentIntent
		out.PaymentIntent = &PaymentIntent{
			ID:           pi.ID,
			Status:       string(pi.Status),
			ClientSecret: pi.ClientSecret,
		}
	}
	return out
}

func fromStripePaymentMethod(pm *stripe.PaymentMethod) PaymentMethod {
	out := PaymentMethod{ID: pm.ID}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.LastFour = pm.Card.Last4
		out.ExpMonth = pm.Card.ExpMonth
		out.ExpYear = pm.Card.ExpYear
	}
	return out
}
