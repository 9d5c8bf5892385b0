package stripebilling

import "errors"

var (
	// ErrMissingSecretKey is returned when no API key is configured
	ErrMissingSecretKey = errors.New("stripe secret key is required")

	// ErrMissingWebhookSecret is returned when no webhook signing secret is configured
	ErrMissingWebhookSecret = errors.New("stripe webhook secret is required")

	// ErrProvider wraps every failed call to the Stripe API
	ErrProvider = errors.New("stripe request failed")

	// ErrInvalidSignature is returned when a webhook payload cannot be verified
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload is returned when an event object cannot be decoded
	ErrInvalidPayload = errors.New("invalid event payload")
)
