package controller

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/service"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testApp) postWebhook(t *testing.T, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/stripe/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestWebhookController_HandleStripe(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		app := setupControllerTest(t)

		w := app.postWebhook(t, []byte(`{"id":"evt_1"}`), "t=1,v1=bogus")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "BILLING_INVALID_SIGNATURE", decode(t, w)["error"])
	})

	t.Run("queues notification for known customer", func(t *testing.T) {
		app := setupControllerTest(t)
		user, _ := app.createUser(t, "cliente@restaurante.com", model.RolePro)
		stripeID := "cus_42"
		user.StripeID = &stripeID
		require.NoError(t, app.userRepo.Update(user))

		app.provider.event = &stripebilling.Event{
			ID:     "evt_paid",
			Type:   stripebilling.EventInvoicePaid,
			Object: []byte(`{"id":"in_1","object":"invoice","customer":"cus_42"}`),
		}

		w := app.postWebhook(t, []byte(`{"id":"evt_paid"}`), "valid")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decode(t, w)["received"])

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		delivery, err := app.jobs.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, delivery)
		assert.Equal(t, service.JobBillingNotification, delivery.Job.Type)

		var payload service.BillingNotificationPayload
		require.NoError(t, delivery.Job.Decode(&payload))
		assert.Equal(t, user.ID, payload.UserID)
		assert.Equal(t, "evt_paid", payload.EventID)
	})

	t.Run("unknown customer is acknowledged", func(t *testing.T) {
		app := setupControllerTest(t)
		app.provider.event = &stripebilling.Event{
			ID:     "evt_orphan",
			Type:   stripebilling.EventInvoicePaymentFailed,
			Object: []byte(`{"id":"in_2","object":"invoice","customer":"cus_unknown"}`),
		}

		w := app.postWebhook(t, []byte(`{"id":"evt_orphan"}`), "valid")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		app := setupControllerTest(t)

		w := app.postWebhook(t, bytes.Repeat([]byte("a"), maxWebhookBodyBytes+1), "valid")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
