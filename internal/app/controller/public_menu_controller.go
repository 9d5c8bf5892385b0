package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
)

type PublicMenuController struct {
	publicMenuService service.PublicMenuService
}

func NewPublicMenuController(publicMenuService service.PublicMenuService) *PublicMenuController {
	return &PublicMenuController{
		publicMenuService: publicMenuService,
	}
}

type RecordVisitRequest struct {
	DishID *uint `json:"dish_id"`
}

// GetPublicMenu returns the consumer page of an active menu
// GET /cardapio/:menu
func (ctrl *PublicMenuController) GetPublicMenu(c *gin.Context) {
	page, err := ctrl.publicMenuService.GetPublicMenu(c.Param("menu"))
	if err != nil {
		respondWithServiceError(c, err, "get public menu")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"menu": page,
	})
}

// RecordVisit registers a menu or dish view
// POST /cardapio/:menu/visits
func (ctrl *PublicMenuController) RecordVisit(c *gin.Context) {
	var req RecordVisitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.RespondWithBindingError(c, err)
			return
		}
	}

	if err := ctrl.publicMenuService.RecordVisit(c.Request.Context(), c.Param("menu"), req.DishID); err != nil {
		respondWithServiceError(c, err, "record visit")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Visita registrada",
	})
}
