package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
)

const maxWebhookBodyBytes = 64 << 10

type WebhookController struct {
	webhookService service.WebhookService
}

func NewWebhookController(webhookService service.WebhookService) *WebhookController {
	return &WebhookController{
		webhookService: webhookService,
	}
}

// HandleStripe verifies and processes a Stripe event
// POST /stripe/webhook
func (ctrl *WebhookController) HandleStripe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		log.Warn("Failed to read webhook body", map[string]interface{}{
			"error":     err.Error(),
			"too_large": errors.As(err, &tooLarge),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Corpo da requisição inválido")
		return
	}

	if err := ctrl.webhookService.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		log.Warn("Webhook rejected", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.BillingInvalidSignature, "Assinatura do webhook inválida")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
	})
}
