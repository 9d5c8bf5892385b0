package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
)

// respondWithServiceError maps service errors to HTTP responses.
func respondWithServiceError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	var fieldErr *service.FieldError
	var dupErr *service.DuplicateSubscriptionError

	switch {
	case errors.As(err, &fieldErr):
		apperrors.RespondWithValidationError(c, map[string]string{fieldErr.Field: fieldErr.Message})
	case errors.Is(err, service.ErrForbidden):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, err.Error())
	case errors.Is(err, service.ErrStoreRequired):
		c.Header("Location", middleware.StoreCreatePath)
		c.JSON(http.StatusFound, gin.H{
			"message":  err.Error(),
			"redirect": middleware.StoreCreatePath,
		})
	case errors.Is(err, service.ErrStoreNotFound):
		apperrors.NotFound(c, apperrors.StoreNotFound, err.Error())
	case errors.Is(err, service.ErrStoreAlreadyExists):
		apperrors.Conflict(c, apperrors.StoreAlreadyExists, err.Error())
	case errors.Is(err, service.ErrMenuNotFound):
		apperrors.NotFound(c, apperrors.MenuNotFound, err.Error())
	case errors.Is(err, service.ErrSectionNotFound):
		apperrors.NotFound(c, apperrors.SectionNotFound, err.Error())
	case errors.Is(err, service.ErrDishNotFound):
		apperrors.NotFound(c, apperrors.DishNotFound, err.Error())
	case errors.Is(err, service.ErrReorderOutOfScope):
		apperrors.Unprocessable(c, apperrors.ReorderOutOfScope, err.Error())
	case errors.Is(err, service.ErrInvalidWindow):
		apperrors.Unprocessable(c, apperrors.ValidationInvalidRange, err.Error())
	case errors.Is(err, storage.ErrUnsupportedType):
		apperrors.Unprocessable(c, apperrors.UploadInvalidFileType, "Envie uma imagem JPEG, PNG, GIF ou WEBP")
	case errors.Is(err, storage.ErrFileTooLarge):
		apperrors.Unprocessable(c, apperrors.UploadFileTooLarge, "A imagem deve ter no máximo 5 MB")
	case errors.As(err, &dupErr):
		apperrors.Unprocessable(c, apperrors.BillingDuplicateSubscription, dupErr.Error())
	case errors.Is(err, service.ErrSubscriptionNotFound):
		apperrors.Unprocessable(c, apperrors.BillingSubscriptionNotFound, err.Error())
	case errors.Is(err, service.ErrNotOnGracePeriod):
		apperrors.Unprocessable(c, apperrors.BillingNotOnGracePeriod, err.Error())
	case errors.Is(err, service.ErrUnknownPrice):
		apperrors.Unprocessable(c, apperrors.BillingUnknownPrice, "Plano inválido")
	case errors.Is(err, stripebilling.ErrProvider):
		log.Error("Billing provider call failed", err, map[string]interface{}{
			"context": context,
		})
		apperrors.Unprocessable(c, apperrors.BillingProcessingError, "Não foi possível processar o pagamento. Tente novamente")
	default:
		log.Error("Unexpected error", err, map[string]interface{}{
			"context": context,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}

// currentUserID reads the authenticated user or answers 401.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Identificador inválido")
		return 0, false
	}
	return uint(id), true
}
