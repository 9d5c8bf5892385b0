package stripebilling

// Config represents the configuration for the Stripe billing client
type Config struct {
	// SecretKey authenticates API calls
	SecretKey string

	// WebhookSecret verifies the Stripe-Signature header of webhook deliveries
	WebhookSecret string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if c.WebhookSecret == "" {
		return ErrMissingWebhookSecret
	}
	return nil
}
