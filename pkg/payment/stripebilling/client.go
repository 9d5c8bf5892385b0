package stripebilling

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Provider is the set of Stripe operations the subscription gateway relies on.
type Provider interface {
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (string, error)
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)
	SwapPrice(ctx context.Context, params SwapParams) (*Subscription, error)
	CancelNow(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error)
	Resume(ctx context.Context, subscriptionID string) (*Subscription, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error)
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

// Client is the Provider backed by the Stripe API
type Client struct {
	config Config
	api    *client.API
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		api:    client.New(config.SecretKey, nil),
	}, nil
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProvider, err)
}

// CreateCustomer creates a customer, making paymentMethod its default when given
func (c *Client) CreateCustomer(ctx context.Context, p CreateCustomerParams) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(p.Name),
		Email: stripe.String(p.Email),
	}
	params.Context = ctx
	if p.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(p.PaymentMethod)
		params.InvoiceSettings = &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(p.PaymentMethod),
		}
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	cus, err := c.api.Customers.New(params)
	if err != nil {
		return "", wrap("create customer", err)
	}
	return cus.ID, nil
}

// CreateSubscription starts a subscription, allowing an incomplete first payment
func (c *Client) CreateSubscription(ctx context.Context, p CreateSubscriptionParams) (*Subscription, error) {
	quantity := p.Quantity
	if quantity < 1 {
		quantity = 1
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(quantity)},
		},
		PaymentBehavior: stripe.String("allow_incomplete"),
	}
	params.Context = ctx
	if p.PaymentMethod != "" {
		params.DefaultPaymentMethod = stripe.String(p.PaymentMethod)
	}
	if p.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(p.TrialDays)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, wrap("create subscription", err)
	}
	return fromStripeSubscription(sub), nil
}

// SwapPrice replaces the price of the subscription item
func (c *Client) SwapPrice(ctx context.Context, p SwapParams) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(p.ItemID), Price: stripe.String(p.PriceID)},
		},
		ProrationBehavior: stripe.String(p.ProrationBehavior()),
		CancelAtPeriodEnd: stripe.Bool(false),
		PaymentBehavior:   stripe.String("allow_incomplete"),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := c.api.Subscriptions.Update(p.SubscriptionID, params)
	if err != nil {
		return nil, wrap("swap price", err)
	}
	return fromStripeSubscription(sub), nil
}

// CancelNow ends the subscription immediately
func (c *Client) CancelNow(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return nil, wrap("cancel subscription", err)
	}
	return fromStripeSubscription(sub), nil
}

// CancelAtPeriodEnd schedules cancellation at the end of the billing period
func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error) {
	return c.setCancelAtPeriodEnd(ctx, subscriptionID, true, "cancel subscription at period end")
}

// Resume clears a scheduled cancellation
func (c *Client) Resume(ctx context.Context, subscriptionID string) (*Subscription, error) {
	return c.setCancelAtPeriodEnd(ctx, subscriptionID, false, "resume subscription")
}

func (c *Client) setCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool, op string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, wrap(op, err)
	}
	return fromStripeSubscription(sub), nil
}

// AttachPaymentMethod attaches a payment method to the customer
func (c *Client) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*PaymentMethod, error) {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	pm, err := c.api.PaymentMethods.Attach(paymentMethodID, params)
	if err != nil {
		return nil, wrap("attach payment method", err)
	}
	out := fromStripePaymentMethod(pm)
	return &out, nil
}

// SetDefaultPaymentMethod makes the payment method the customer's invoice default
func (c *Client) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	if _, err := c.api.Customers.Update(customerID, params); err != nil {
		return wrap("set default payment method", err)
	}
	return nil
}

// ListPaymentMethods lists the customer's cards
func (c *Client) ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	var methods []PaymentMethod
	iter := c.api.PaymentMethods.List(params)
	for iter.Next() {
		methods = append(methods, fromStripePaymentMethod(iter.PaymentMethod()))
	}
	if err := iter.Err(); err != nil {
		return nil, wrap("list payment methods", err)
	}
	return methods, nil
}

// ConstructEvent verifies the signature of a webhook payload
func (c *Client) ConstructEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil {
		out.Object = event.Data.Raw
	}
	return out, nil
}
