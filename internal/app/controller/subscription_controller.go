package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
)

type SubscriptionController struct {
	gateway    service.SubscriptionGateway
	users      service.AuthService
	confirmURL string
}

// NewSubscriptionController builds the controller. confirmURL is the page where
// customers confirm payments that need extra authentication.
func NewSubscriptionController(gateway service.SubscriptionGateway, users service.AuthService, confirmURL string) *SubscriptionController {
	return &SubscriptionController{
		gateway:    gateway,
		users:      users,
		confirmURL: strings.TrimSuffix(confirmURL, "/"),
	}
}

type SubscribeRequest struct {
	Name            string            `json:"name" binding:"omitempty,max=100"`
	PriceID         string            `json:"price_id" binding:"required"`
	PaymentMethodID string            `json:"payment_method_id" binding:"required"`
	Quantity        int64             `json:"quantity" binding:"omitempty,min=1"`
	SkipTrial       bool              `json:"skip_trial"`
	Metadata        map[string]string `json:"metadata"`
}

type ChangePlanRequest struct {
	Name       string `json:"name" binding:"omitempty,max=100"`
	PriceID    string `json:"price_id" binding:"required"`
	Prorate    *bool  `json:"prorate"`
	InvoiceNow bool   `json:"invoice_now"`
}

type CancelSubscriptionRequest struct {
	Name        string `json:"name" binding:"omitempty,max=100"`
	Immediately bool   `json:"immediately"`
}

type ResumeSubscriptionRequest struct {
	Name string `json:"name" binding:"omitempty,max=100"`
}

type UpdatePaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
	SetAsDefault    *bool  `json:"set_as_default"`
}

// currentUser loads the acting user or writes the error response.
func (ctrl *SubscriptionController) currentUser(c *gin.Context) (*model.User, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	user, err := ctrl.users.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.Unauthorized(c, "")
			return nil, false
		}
		respondWithServiceError(c, err, "load user")
		return nil, false
	}
	return user, true
}

// respondBillingError answers 402 with the confirmation URL for incomplete payments.
func (ctrl *SubscriptionController) respondBillingError(c *gin.Context, err error, context string) {
	var incomplete *service.IncompletePaymentError
	if errors.As(err, &incomplete) {
		middleware.GetLoggerFromContext(c).Info("Payment confirmation required", map[string]interface{}{
			"payment_intent_id": incomplete.PaymentIntentID,
		})
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":             apperrors.BillingIncompletePayment,
			"message":           "Confirme o pagamento para concluir a assinatura",
			"payment_intent_id": incomplete.PaymentIntentID,
			"redirect_url":      ctrl.confirmURL + "/" + incomplete.PaymentIntentID,
		})
		return
	}
	respondWithServiceError(c, err, context)
}

// GetStatus returns the subscription snapshot
// GET /api/v1/subscription?name=default
func (ctrl *SubscriptionController) GetStatus(c *gin.Context) {
	user, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	status, err := ctrl.gateway.Status(c.Request.Context(), user, c.Query("name"))
	if err != nil {
		respondWithServiceError(c, err, "subscription status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription":  status,
		"role":          user.Role,
		"trial_ends_at": user.TrialEndsAt,
	})
}

// Subscribe starts a subscription
// POST /api/v1/subscription
func (ctrl *SubscriptionController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	sub, err := ctrl.gateway.Subscribe(c.Request.Context(), user, service.SubscribeRequest{
		Name:          req.Name,
		PriceID:       req.PriceID,
		Quantity:      req.Quantity,
		Metadata:      req.Metadata,
		SkipTrial:     req.SkipTrial,
		PaymentMethod: req.PaymentMethodID,
	})
	if err != nil {
		ctrl.respondBillingError(c, err, "create subscription")
		return
	}

	log.Info("Subscription started", map[string]interface{}{
		"user_id":         user.ID,
		"subscription_id": sub.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Assinatura realizada com sucesso",
		"subscription": sub,
		"role":         user.Role,
	})
}

// ChangePlan swaps the subscription price
// PUT /api/v1/subscription
func (ctrl *SubscriptionController) ChangePlan(c *gin.Context) {
	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	opts := service.SwapOptions{Prorate: true, InvoiceNow: req.InvoiceNow}
	if req.Prorate != nil {
		opts.Prorate = *req.Prorate
	}

	sub, err := ctrl.gateway.ChangePlan(c.Request.Context(), user, req.Name, req.PriceID, opts)
	if err != nil {
		ctrl.respondBillingError(c, err, "change plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Plano alterado com sucesso",
		"subscription": sub,
		"role":         user.Role,
	})
}

// Cancel cancels now or at the end of the period
// POST /api/v1/subscription/cancel
func (ctrl *SubscriptionController) Cancel(c *gin.Context) {
	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	sub, err := ctrl.gateway.Cancel(c.Request.Context(), user, req.Name, req.Immediately)
	if err != nil {
		ctrl.respondBillingError(c, err, "cancel subscription")
		return
	}

	message := "Assinatura cancelada. Você pode usar o plano até o fim do período"
	if req.Immediately {
		message = "Assinatura cancelada"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      message,
		"subscription": sub,
		"role":         user.Role,
	})
}

// Resume reactivates a subscription in its grace period
// POST /api/v1/subscription/resume
func (ctrl *SubscriptionController) Resume(c *gin.Context) {
	var req ResumeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	sub, err := ctrl.gateway.Resume(c.Request.Context(), user, req.Name)
	if err != nil {
		ctrl.respondBillingError(c, err, "resume subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Assinatura retomada",
		"subscription": sub,
	})
}

// ListPaymentMethods returns the customer's cards
// GET /api/v1/payment-methods
func (ctrl *SubscriptionController) ListPaymentMethods(c *gin.Context) {
	user, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	methods, err := ctrl.gateway.PaymentMethods(c.Request.Context(), user)
	if err != nil {
		respondWithServiceError(c, err, "list payment methods")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_methods": methods,
		"default": gin.H{
			"pm_type":      user.PMType,
			"pm_last_four": user.PMLastFour,
		},
	})
}

// UpdatePaymentMethod attaches a card, by default as the customer default
// POST /api/v1/payment-methods
func (ctrl *SubscriptionController) UpdatePaymentMethod(c *gin.Context) {
	var req UpdatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, ok := ctrl.currentUser(c)
	if !ok {
		return
	}

	setAsDefault := true
	if req.SetAsDefault != nil {
		setAsDefault = *req.SetAsDefault
	}

	method, err := ctrl.gateway.UpdatePaymentMethod(c.Request.Context(), user, req.PaymentMethodID, setAsDefault)
	if err != nil {
		respondWithServiceError(c, err, "update payment method")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Forma de pagamento atualizada",
		"payment_method": method,
	})
}
