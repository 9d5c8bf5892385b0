package service

import (
	"context"
	"errors"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
	"gorm.io/gorm"
)

type SubscribeRequest struct {
	Name          string
	PriceID       string
	Quantity      int64
	Metadata      map[string]string
	SkipTrial     bool
	PaymentMethod string
}

type SwapOptions struct {
	Prorate    bool
	InvoiceNow bool
}

// SubscriptionStatus is a read-only snapshot of a named subscription.
type SubscriptionStatus struct {
	Subscribed    bool       `json:"subscribed"`
	OnTrial       bool       `json:"on_trial"`
	OnGracePeriod bool       `json:"on_grace_period"`
	Cancelled     bool       `json:"cancelled"`
	Ended         bool       `json:"ended"`
	Incomplete    bool       `json:"incomplete"`
	EndsAt        *time.Time `json:"ends_at"`
	StripeStatus  string     `json:"stripe_status"`
	StripePrice   string     `json:"stripe_price,omitempty"`
	Role          string     `json:"role"`
}

// SubscriptionGateway runs the subscription lifecycle against the billing provider
// and keeps the local mirror and the user's role in sync.
type SubscriptionGateway interface {
	EnsureCustomer(ctx context.Context, user *model.User, paymentMethod string) (string, error)
	Subscribe(ctx context.Context, user *model.User, req SubscribeRequest) (*model.Subscription, error)
	ChangePlan(ctx context.Context, user *model.User, name, priceID string, opts SwapOptions) (*model.Subscription, error)
	Cancel(ctx context.Context, user *model.User, name string, immediately bool) (*model.Subscription, error)
	Resume(ctx context.Context, user *model.User, name string) (*model.Subscription, error)
	UpdatePaymentMethod(ctx context.Context, user *model.User, token string, setAsDefault bool) (*stripebilling.PaymentMethod, error)
	Status(ctx context.Context, user *model.User, name string) (*SubscriptionStatus, error)
	PaymentMethods(ctx context.Context, user *model.User) ([]stripebilling.PaymentMethod, error)
}

type subscriptionGateway struct {
	provider stripebilling.Provider
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
	catalog  *PlanCatalog
	now      func() time.Time
}

func NewSubscriptionGateway(
	provider stripebilling.Provider,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	catalog *PlanCatalog,
) SubscriptionGateway {
	return &subscriptionGateway{
		provider: provider,
		userRepo: userRepo,
		subRepo:  subRepo,
		catalog:  catalog,
		now:      time.Now,
	}
}

func subscriptionName(name string) string {
	if name == "" {
		return model.DefaultSubscriptionName
	}
	return name
}

// EnsureCustomer returns the user's Stripe customer, creating it when missing.
func (g *subscriptionGateway) EnsureCustomer(ctx context.Context, user *model.User, paymentMethod string) (string, error) {
	if user.HasStripeID() {
		return *user.StripeID, nil
	}

	customerID, err := g.provider.CreateCustomer(ctx, stripebilling.CreateCustomerParams{
		Name:          user.Name,
		Email:         user.Email,
		PaymentMethod: paymentMethod,
		Metadata:      map[string]string{"user_id": uintString(user.ID)},
	})
	if err != nil {
		logger.Error("Failed to create Stripe customer", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return "", err
	}

	user.StripeID = &customerID
	if err := g.userRepo.Update(user); err != nil {
		return "", err
	}

	logger.Info("Stripe customer created", map[string]interface{}{
		"user_id":   user.ID,
		"stripe_id": customerID,
	})
	return customerID, nil
}

func (g *subscriptionGateway) Subscribe(ctx context.Context, user *model.User, req SubscribeRequest) (*model.Subscription, error) {
	name := subscriptionName(req.Name)
	now := g.now()

	logger.Info("Subscription requested", map[string]interface{}{
		"user_id":  user.ID,
		"name":     name,
		"price_id": req.PriceID,
	})

	existing, err := g.validSubscription(user.ID, name, now)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}
	if existing != nil {
		logger.Warn("Duplicate subscription rejected", map[string]interface{}{
			"user_id": user.ID,
			"name":    name,
		})
		return nil, &DuplicateSubscriptionError{Name: name}
	}

	plan, ok := g.catalog.ByPrice(req.PriceID)
	if !ok {
		return nil, ErrUnknownPrice
	}

	customerID, err := g.EnsureCustomer(ctx, user, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	trialDays := plan.TrialDays
	if req.SkipTrial {
		trialDays = 0
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata[stripebilling.MetadataSubscriptionName] = name

	remote, err := g.provider.CreateSubscription(ctx, stripebilling.CreateSubscriptionParams{
		CustomerID:    customerID,
		PriceID:       plan.PriceID,
		Quantity:      quantity,
		TrialDays:     trialDays,
		PaymentMethod: req.PaymentMethod,
		Metadata:      metadata,
	})
	if err != nil {
		logger.Error("Failed to create Stripe subscription", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	// the created webhook may have stored the row already
	sub, err := g.subRepo.FindByStripeID(remote.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if sub == nil {
		sub = &model.Subscription{StripeID: remote.ID}
	}
	sub.UserID = user.ID
	sub.Name = name
	sub.StripeStatus = remote.Status
	sub.StripePrice = remote.PriceID
	sub.ItemID = remote.ItemID
	sub.Quantity = quantity
	sub.TrialEndsAt = remote.TrialEnd
	if sub.StripePrice == "" {
		sub.StripePrice = plan.PriceID
	}
	if sub.ID == 0 {
		err = g.subRepo.Create(sub)
	} else {
		err = g.subRepo.Update(sub)
	}
	if err != nil {
		return nil, err
	}

	if remote.TrialEnd != nil {
		user.TrialEndsAt = remote.TrialEnd
		if err := g.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	if remote.RequiresPaymentAction() {
		logger.Warn("Subscription payment requires confirmation", map[string]interface{}{
			"user_id":           user.ID,
			"subscription_id":   sub.ID,
			"payment_intent_id": remote.PaymentIntent.ID,
		})
		return sub, &IncompletePaymentError{PaymentIntentID: remote.PaymentIntent.ID}
	}

	if err := g.syncRole(user, now); err != nil {
		return nil, err
	}

	logger.Info("Subscription created", map[string]interface{}{
		"user_id":         user.ID,
		"subscription_id": sub.ID,
		"stripe_status":   sub.StripeStatus,
		"role":            user.Role,
	})
	return sub, nil
}

func (g *subscriptionGateway) ChangePlan(ctx context.Context, user *model.User, name, priceID string, opts SwapOptions) (*model.Subscription, error) {
	name = subscriptionName(name)
	now := g.now()

	sub, err := g.validSubscription(user.ID, name, now)
	if err != nil {
		return nil, err
	}
	if _, ok := g.catalog.ByPrice(priceID); !ok {
		return nil, ErrUnknownPrice
	}

	remote, err := g.provider.SwapPrice(ctx, stripebilling.SwapParams{
		SubscriptionID: sub.StripeID,
		ItemID:         sub.ItemID,
		PriceID:        priceID,
		Prorate:        opts.Prorate,
		InvoiceNow:     opts.InvoiceNow,
	})
	if err != nil {
		logger.Error("Failed to swap subscription price", err, map[string]interface{}{
			"subscription_id": sub.ID,
			"price_id":        priceID,
		})
		return nil, err
	}

	previous := sub.StripePrice
	sub.StripePrice = priceID
	sub.StripeStatus = remote.Status
	sub.EndsAt = nil
	if remote.ItemID != "" {
		sub.ItemID = remote.ItemID
	}
	if remote.Quantity > 0 {
		sub.Quantity = remote.Quantity
	}
	sub.TrialEndsAt = remote.TrialEnd
	if err := g.subRepo.Update(sub); err != nil {
		return nil, err
	}

	if remote.RequiresPaymentAction() {
		return sub, &IncompletePaymentError{PaymentIntentID: remote.PaymentIntent.ID}
	}
	if err := g.syncRole(user, now); err != nil {
		return nil, err
	}

	logger.Info("Subscription plan changed", map[string]interface{}{
		"subscription_id": sub.ID,
		"from_price":      previous,
		"to_price":        priceID,
		"role":            user.Role,
	})
	return sub, nil
}

func (g *subscriptionGateway) Cancel(ctx context.Context, user *model.User, name string, immediately bool) (*model.Subscription, error) {
	name = subscriptionName(name)
	now := g.now()

	sub, err := g.validSubscription(user.ID, name, now)
	if err != nil {
		return nil, err
	}

	if immediately {
		if _, err := g.provider.CancelNow(ctx, sub.StripeID); err != nil {
			logger.Error("Failed to cancel subscription", err, map[string]interface{}{
				"subscription_id": sub.ID,
			})
			return nil, err
		}
		sub.StripeStatus = model.SubscriptionStatusCanceled
		sub.EndsAt = &now
		if sub.OnTrial(now) {
			sub.TrialEndsAt = &now
		}
	} else {
		remote, err := g.provider.CancelAtPeriodEnd(ctx, sub.StripeID)
		if err != nil {
			logger.Error("Failed to schedule subscription cancellation", err, map[string]interface{}{
				"subscription_id": sub.ID,
			})
			return nil, err
		}
		sub.StripeStatus = remote.Status
		switch {
		case sub.OnTrial(now):
			sub.EndsAt = sub.TrialEndsAt
		case remote.CurrentPeriodEnd != nil:
			sub.EndsAt = remote.CurrentPeriodEnd
		default:
			sub.EndsAt = &now
		}
	}

	if err := g.subRepo.Update(sub); err != nil {
		return nil, err
	}
	if err := g.syncRole(user, now); err != nil {
		return nil, err
	}

	logger.Info("Subscription cancelled", map[string]interface{}{
		"subscription_id": sub.ID,
		"immediately":     immediately,
		"ends_at":         sub.EndsAt,
		"role":            user.Role,
	})
	return sub, nil
}

func (g *subscriptionGateway) Resume(ctx context.Context, user *model.User, name string) (*model.Subscription, error) {
	name = subscriptionName(name)
	now := g.now()

	sub, err := g.subRepo.FindByUserAndName(user.ID, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if !sub.OnGracePeriod(now) {
		logger.Warn("Resume rejected: not on grace period", map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return nil, ErrNotOnGracePeriod
	}

	remote, err := g.provider.Resume(ctx, sub.StripeID)
	if err != nil {
		logger.Error("Failed to resume subscription", err, map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return nil, err
	}

	sub.StripeStatus = remote.Status
	sub.EndsAt = nil
	if err := g.subRepo.Update(sub); err != nil {
		return nil, err
	}
	if err := g.syncRole(user, now); err != nil {
		return nil, err
	}

	logger.Info("Subscription resumed", map[string]interface{}{
		"subscription_id": sub.ID,
	})
	return sub, nil
}

func (g *subscriptionGateway) UpdatePaymentMethod(ctx context.Context, user *model.User, token string, setAsDefault bool) (*stripebilling.PaymentMethod, error) {
	created := !user.HasStripeID()

	customerID, err := g.EnsureCustomer(ctx, user, token)
	if err != nil {
		return nil, err
	}

	var pm *stripebilling.PaymentMethod
	if created {
		// a new customer is created with the token already attached as default
		methods, err := g.provider.ListPaymentMethods(ctx, customerID)
		if err != nil {
			return nil, err
		}
		for i := range methods {
			if methods[i].ID == token {
				pm = &methods[i]
				break
			}
		}
		if pm == nil {
			pm = &stripebilling.PaymentMethod{ID: token}
		}
	} else {
		pm, err = g.provider.AttachPaymentMethod(ctx, customerID, token)
		if err != nil {
			logger.Error("Failed to attach payment method", err, map[string]interface{}{
				"user_id": user.ID,
			})
			return nil, err
		}
		if setAsDefault {
			if err := g.provider.SetDefaultPaymentMethod(ctx, customerID, pm.ID); err != nil {
				return nil, err
			}
		}
	}

	if created || setAsDefault {
		user.PMType = pm.Brand
		user.PMLastFour = pm.LastFour
		if err := g.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	logger.Info("Payment method updated", map[string]interface{}{
		"user_id":    user.ID,
		"is_default": created || setAsDefault,
		"brand":      pm.Brand,
	})
	return pm, nil
}

func (g *subscriptionGateway) Status(ctx context.Context, user *model.User, name string) (*SubscriptionStatus, error) {
	status := &SubscriptionStatus{Role: string(user.Role)}

	sub, err := g.subRepo.FindByUserAndName(user.ID, subscriptionName(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return status, nil
		}
		return nil, err
	}

	now := g.now()
	status.Subscribed = sub.Valid(now)
	status.OnTrial = sub.OnTrial(now)
	status.OnGracePeriod = sub.OnGracePeriod(now)
	status.Cancelled = sub.Canceled()
	status.Ended = sub.Ended(now)
	status.Incomplete = sub.Incomplete()
	status.EndsAt = sub.EndsAt
	status.StripeStatus = sub.StripeStatus
	status.StripePrice = sub.StripePrice
	return status, nil
}

func (g *subscriptionGateway) PaymentMethods(ctx context.Context, user *model.User) ([]stripebilling.PaymentMethod, error) {
	if !user.HasStripeID() {
		return []stripebilling.PaymentMethod{}, nil
	}
	methods, err := g.provider.ListPaymentMethods(ctx, *user.StripeID)
	if err != nil {
		return nil, err
	}
	if methods == nil {
		methods = []stripebilling.PaymentMethod{}
	}
	return methods, nil
}

// validSubscription returns the named subscription when it is still valid.
func (g *subscriptionGateway) validSubscription(userID uint, name string, now time.Time) (*model.Subscription, error) {
	subs, err := g.subRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].Name == name && subs[i].Valid(now) {
			return &subs[i], nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

func (g *subscriptionGateway) syncRole(user *model.User, now time.Time) error {
	role, err := syncUserRole(g.userRepo, g.subRepo, g.catalog, user.ID, user.Role, now)
	if err != nil {
		return err
	}
	user.Role = role
	return nil
}

// syncUserRole recomputes the role granted by the user's valid subscriptions
// and persists it when it changed.
func syncUserRole(
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	catalog *PlanCatalog,
	userID uint,
	current model.UserRole,
	now time.Time,
) (model.UserRole, error) {
	subs, err := subRepo.FindByUserID(userID)
	if err != nil {
		return current, err
	}

	role := catalog.roleFor(subs, now)
	if role == current {
		return current, nil
	}
	if err := userRepo.UpdateRole(userID, role); err != nil {
		return current, err
	}

	logger.Info("User role changed by subscription state", map[string]interface{}{
		"user_id": userID,
		"from":    current,
		"to":      role,
	})
	return role, nil
}
