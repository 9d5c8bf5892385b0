package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
)

type DishController struct {
	dishService service.DishService
}

func NewDishController(dishService service.DishService) *DishController {
	return &DishController{
		dishService: dishService,
	}
}

// DishRequest is bound from multipart forms (with an optional image) or JSON.
type DishRequest struct {
	SectionID        *uint    `json:"section_id" form:"section_id"`
	Name             *string  `json:"name" form:"name" binding:"omitempty,max=255"`
	Description      *string  `json:"description" form:"description"`
	Price            *float64 `json:"price" form:"price" binding:"omitempty,gte=0"`
	PromotionalPrice *float64 `json:"promotional_price" form:"promotional_price" binding:"omitempty,gte=0"`
	ClearPromotion   bool     `json:"clear_promotion" form:"clear_promotion"`
	IsActive         *bool    `json:"is_active" form:"is_active"`
	IsAvailable      *bool    `json:"is_available" form:"is_available"`
}

type ReorderDishesRequest struct {
	SectionID uint `json:"section_id" binding:"required"`
	ReorderRequest
}

func (r DishRequest) mutation() service.DishMutation {
	return service.DishMutation{
		SectionID:        r.SectionID,
		Name:             r.Name,
		Description:      r.Description,
		Price:            r.Price,
		PromotionalPrice: r.PromotionalPrice,
		ClearPromotion:   r.ClearPromotion,
		IsActive:         r.IsActive,
		IsAvailable:      r.IsAvailable,
	}
}

// bindDish binds the request. An empty promotional_price form value clears the promotion.
func bindDish(c *gin.Context) (DishRequest, bool) {
	var req DishRequest
	if v, present := c.GetPostForm("promotional_price"); present && strings.TrimSpace(v) == "" {
		c.Request.Form.Del("promotional_price")
		c.Request.PostForm.Del("promotional_price")
		if c.Request.MultipartForm != nil {
			delete(c.Request.MultipartForm.Value, "promotional_price")
		}
		req.ClearPromotion = true
	}

	if err := c.ShouldBind(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return req, false
	}
	return req, true
}

func (ctrl *DishController) dishResponse(dish *model.Dish) gin.H {
	return gin.H{
		"dish":          dish,
		"image_url":     ctrl.dishService.ImageURL(dish.ImagePath),
		"display_price": dish.DisplayPrice(),
	}
}

// CreateDish adds a dish at the end of a section
// POST /api/v1/dishes
func (ctrl *DishController) CreateDish(c *gin.Context) {
	ctrl.saveDish(c, 0)
}

// UpdateDish edits a dish; a new image replaces the previous one
// PUT /api/v1/dishes/:id
func (ctrl *DishController) UpdateDish(c *gin.Context) {
	dishID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctrl.saveDish(c, dishID)
}

func (ctrl *DishController) saveDish(c *gin.Context, dishID uint) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	req, ok := bindDish(c)
	if !ok {
		return
	}

	image, closer, err := formImage(c, "image")
	defer closer.Close()
	if err != nil {
		log.Warn("Invalid dish image", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.UploadFailed, "Não foi possível ler a imagem enviada")
		return
	}

	if dishID == 0 {
		dish, err := ctrl.dishService.CreateDish(c.Request.Context(), userID, req.mutation(), image)
		if err != nil {
			respondWithServiceError(c, err, "create dish")
			return
		}
		resp := ctrl.dishResponse(dish)
		resp["message"] = "Prato criado com sucesso"
		c.JSON(http.StatusCreated, resp)
		return
	}

	dish, err := ctrl.dishService.UpdateDish(c.Request.Context(), userID, dishID, req.mutation(), image)
	if err != nil {
		respondWithServiceError(c, err, "update dish")
		return
	}
	resp := ctrl.dishResponse(dish)
	resp["message"] = "Prato atualizado"
	c.JSON(http.StatusOK, resp)
}

// DeleteDish removes a dish and its image
// DELETE /api/v1/dishes/:id
func (ctrl *DishController) DeleteDish(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dishID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.dishService.DeleteDish(c.Request.Context(), userID, dishID); err != nil {
		respondWithServiceError(c, err, "delete dish")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Prato excluído",
	})
}

// ReorderDishes writes the display order of a section's dishes
// PUT /api/v1/dishes/reorder
func (ctrl *DishController) ReorderDishes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ReorderDishesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.dishService.ReorderDishes(userID, req.SectionID, req.Items); err != nil {
		respondWithServiceError(c, err, "reorder dishes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ordem atualizada",
	})
}
