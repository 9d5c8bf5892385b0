package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/queue"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	jobs []queue.Job
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, job queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Dequeue(ctx context.Context) (*queue.Delivery, error) {
	return nil, nil
}

func subscriptionObject(id, customer, status, price string, cancelAtPeriodEnd bool, periodEnd time.Time) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %q,
		"object": "subscription",
		"customer": %q,
		"status": %q,
		"cancel_at_period_end": %t,
		"current_period_end": %d,
		"items": {"object": "list", "data": [{"id": "si_1", "quantity": 1, "price": {"id": %q}}]}
	}`, id, customer, status, cancelAtPeriodEnd, periodEnd.Unix(), price))
}

func setupWebhookTest(t *testing.T) (*testEnv, *fakeProvider, *recordingQueue, WebhookService) {
	env := setupServiceTest(t)
	provider := newFakeProvider()
	jobs := &recordingQueue{}
	svc := NewWebhookService(provider, env.userRepo, env.subRepo, env.catalog, jobs)
	return env, provider, jobs, svc
}

func customerUser(t *testing.T, env *testEnv, email, customerID string) *model.User {
	user := env.createUser(t, email)
	user.StripeID = &customerID
	require.NoError(t, env.userRepo.Update(user))
	return user
}

func TestWebhookService_InvalidSignature(t *testing.T) {
	_, _, jobs, svc := setupWebhookTest(t)

	err := svc.Handle(context.Background(), []byte(`{}`), "forged")
	assert.ErrorIs(t, err, stripebilling.ErrInvalidSignature)
	assert.Empty(t, jobs.jobs)
}

func TestWebhookService_DispatchesKnownCustomer(t *testing.T) {
	env, provider, jobs, svc := setupWebhookTest(t)
	user := customerUser(t, env, "owner@example.com", "cus_known")

	provider.event = &stripebilling.Event{
		ID:     "evt_1",
		Type:   stripebilling.EventInvoicePaymentFailed,
		Object: json.RawMessage(`{"id": "in_1", "object": "invoice", "customer": "cus_known"}`),
	}
	require.NoError(t, svc.Handle(context.Background(), []byte(`{}`), "valid"))

	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, JobBillingNotification, jobs.jobs[0].Type)

	var payload BillingNotificationPayload
	require.NoError(t, jobs.jobs[0].Decode(&payload))
	assert.Equal(t, "evt_1", payload.EventID)
	assert.Equal(t, user.ID, payload.UserID)
	assert.Equal(t, "cus_known", payload.CustomerID)
}

func TestWebhookService_DropsUnknownCustomerAndIgnoredTypes(t *testing.T) {
	_, provider, jobs, svc := setupWebhookTest(t)
	ctx := context.Background()

	provider.event = &stripebilling.Event{
		ID:     "evt_2",
		Type:   stripebilling.EventInvoicePaid,
		Object: json.RawMessage(`{"id": "in_2", "object": "invoice", "customer": "cus_ghost"}`),
	}
	require.NoError(t, svc.Handle(ctx, []byte(`{}`), "valid"))

	provider.event = &stripebilling.Event{
		ID:     "evt_3",
		Type:   "charge.refunded",
		Object: json.RawMessage(`{"id": "ch_1", "object": "charge", "customer": "cus_ghost"}`),
	}
	require.NoError(t, svc.Handle(ctx, []byte(`{}`), "valid"))

	assert.Empty(t, jobs.jobs)
}

func TestWebhookService_EnqueueFailureStillAcknowledges(t *testing.T) {
	env, provider, jobs, svc := setupWebhookTest(t)
	customerUser(t, env, "owner@example.com", "cus_known")
	jobs.err = fmt.Errorf("redis down")

	provider.event = &stripebilling.Event{
		ID:     "evt_4",
		Type:   stripebilling.EventInvoicePaid,
		Object: json.RawMessage(`{"id": "in_4", "object": "invoice", "customer": "cus_known"}`),
	}
	assert.NoError(t, svc.Handle(context.Background(), []byte(`{}`), "valid"))
}

func TestWebhookService_SyncsSubscriptionState(t *testing.T) {
	env, provider, jobs, svc := setupWebhookTest(t)
	ctx := context.Background()
	user := customerUser(t, env, "owner@example.com", "cus_known")
	periodEnd := time.Now().Add(20 * 24 * time.Hour).Truncate(time.Second)

	provider.event = &stripebilling.Event{
		ID:     "evt_created",
		Type:   stripebilling.EventSubscriptionCreated,
		Object: subscriptionObject("sub_remote", "cus_known", "active", testPricePro, false, periodEnd),
	}
	require.NoError(t, svc.Handle(ctx, nil, "valid"))

	sub, err := env.subRepo.FindByStripeID("sub_remote")
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub.UserID)
	assert.Equal(t, model.DefaultSubscriptionName, sub.Name)
	assert.Equal(t, testPricePro, sub.StripePrice)
	assert.Equal(t, "si_1", sub.ItemID)
	assert.Nil(t, sub.EndsAt)

	stored, err := env.userRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RolePro, stored.Role)

	provider.event = &stripebilling.Event{
		ID:     "evt_updated",
		Type:   stripebilling.EventSubscriptionUpdated,
		Object: subscriptionObject("sub_remote", "cus_known", "active", testPricePro, true, periodEnd),
	}
	require.NoError(t, svc.Handle(ctx, nil, "valid"))

	sub, err = env.subRepo.FindByStripeID("sub_remote")
	require.NoError(t, err)
	require.NotNil(t, sub.EndsAt)
	assert.True(t, sub.EndsAt.Equal(periodEnd))

	provider.event = &stripebilling.Event{
		ID:     "evt_deleted",
		Type:   stripebilling.EventSubscriptionDeleted,
		Object: subscriptionObject("sub_remote", "cus_known", "canceled", testPricePro, false, periodEnd),
	}
	require.NoError(t, svc.Handle(ctx, nil, "valid"))

	sub, err = env.subRepo.FindByStripeID("sub_remote")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCanceled, sub.StripeStatus)
	require.NotNil(t, sub.EndsAt)

	stored, err = env.userRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleFree, stored.Role)

	assert.Len(t, jobs.jobs, 3)
}

// webhookFirstProvider delivers customer.subscription.created before
// CreateSubscription returns, as Stripe often does.
type webhookFirstProvider struct {
	*fakeProvider
	t       *testing.T
	webhook WebhookService
}

func (p *webhookFirstProvider) CreateSubscription(ctx context.Context, params stripebilling.CreateSubscriptionParams) (*stripebilling.Subscription, error) {
	sub, err := p.fakeProvider.CreateSubscription(ctx, params)
	if err != nil {
		return nil, err
	}
	p.fakeProvider.event = &stripebilling.Event{
		ID:   "evt_early",
		Type: stripebilling.EventSubscriptionCreated,
		Object: json.RawMessage(fmt.Sprintf(`{
			"id": %q,
			"object": "subscription",
			"customer": %q,
			"status": %q,
			"metadata": {"name": %q},
			"items": {"object": "list", "data": [{"id": %q, "quantity": 1, "price": {"id": %q}}]}
		}`, sub.ID, params.CustomerID, sub.Status, params.Metadata[stripebilling.MetadataSubscriptionName], sub.ItemID, params.PriceID)),
	}
	require.NoError(p.t, p.webhook.Handle(ctx, nil, "valid"))
	return sub, nil
}

func TestSubscriptionGateway_WebhookArrivesBeforeCreateReturns(t *testing.T) {
	env, provider, _, webhook := setupWebhookTest(t)
	gw := NewSubscriptionGateway(&webhookFirstProvider{fakeProvider: provider, t: t, webhook: webhook}, env.userRepo, env.subRepo, env.catalog)
	ctx := context.Background()
	user := env.createUser(t, "owner@example.com")

	sub, err := gw.Subscribe(ctx, user, SubscribeRequest{
		Name:      "secondary",
		PriceID:   testPriceEnterprise,
		SkipTrial: true,
		Metadata:  map[string]string{"source": "dashboard"},
	})
	require.NoError(t, err)
	assert.Equal(t, "secondary", sub.Name)
	assert.Equal(t, "secondary", provider.lastCreate.Metadata[stripebilling.MetadataSubscriptionName])
	assert.Equal(t, "dashboard", provider.lastCreate.Metadata["source"])

	subs, err := env.subRepo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "secondary", subs[0].Name)
	assert.Equal(t, "sub_1", subs[0].StripeID)
	assert.Equal(t, sub.ID, subs[0].ID)

	stored, err := env.userRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEnterprise, stored.Role)

	t.Run("Same name is now a duplicate", func(t *testing.T) {
		before := provider.total()
		_, err := gw.Subscribe(ctx, user, SubscribeRequest{Name: "secondary", PriceID: testPricePro})
		var dup *DuplicateSubscriptionError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, before, provider.total())
	})
}

func TestBillingNotificationHandler(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := NewBillingNotificationHandler(notifier)

	job, err := queue.NewJob(JobBillingNotification, BillingNotificationPayload{
		EventID:   "evt_1",
		EventType: stripebilling.EventInvoicePaymentFailed,
		UserID:    7,
	})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), job))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, uint(7), notifier.sent[0].userID)
	msg, ok := notifier.sent[0].message.(BillingNotification)
	require.True(t, ok)
	assert.Equal(t, stripebilling.EventInvoicePaymentFailed, msg.EventType)
	assert.NotEmpty(t, msg.Message)

	assert.NoError(t, NewBillingNotificationHandler(nil)(context.Background(), job))

	bad := queue.Job{Type: JobBillingNotification, Payload: json.RawMessage(`"nope"`)}
	assert.Error(t, handler(context.Background(), bad))
}

type sentMessage struct {
	userID  uint
	message interface{}
}

type recordingNotifier struct {
	sent []sentMessage
}

func (n *recordingNotifier) SendToUser(userID uint, message interface{}) int {
	n.sent = append(n.sent, sentMessage{userID: userID, message: message})
	return 1
}
