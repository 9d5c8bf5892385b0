package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
)

type MenuController struct {
	menuService service.MenuService
	dishService service.DishService
}

func NewMenuController(menuService service.MenuService, dishService service.DishService) *MenuController {
	return &MenuController{
		menuService: menuService,
		dishService: dishService,
	}
}

type CreateMenuRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateMenuRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// ReorderRequest is the payload of every reorder endpoint.
type ReorderRequest struct {
	Items []repository.OrderItem `json:"items" binding:"required,min=1,dive"`
}

func (ctrl *MenuController) menuResponse(menu *model.Menu) gin.H {
	return gin.H{
		"menu":       menu,
		"public_url": ctrl.menuService.PublicURL(menu.Slug),
	}
}

// ListMenus returns the store menus in display order
// GET /api/v1/menus
func (ctrl *MenuController) ListMenus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	menus, err := ctrl.menuService.ListMenus(userID)
	if err != nil {
		respondWithServiceError(c, err, "list menus")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"menus": menus,
		"count": len(menus),
	})
}

// CreateMenu adds a menu at the end of the list
// POST /api/v1/menus
func (ctrl *MenuController) CreateMenu(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	menu, err := ctrl.menuService.CreateMenu(userID, service.MenuMutation{
		Name:        &req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithServiceError(c, err, "create menu")
		return
	}

	log.Info("Menu created", map[string]interface{}{
		"menu_id": menu.ID,
		"slug":    menu.Slug,
	})

	resp := ctrl.menuResponse(menu)
	resp["message"] = "Cardápio criado com sucesso"
	c.JSON(http.StatusCreated, resp)
}

// GetMenu returns a menu with its sections and dishes
// GET /api/v1/menus/:slug
func (ctrl *MenuController) GetMenu(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	menu, err := ctrl.menuService.GetMenu(userID, c.Param("slug"))
	if err != nil {
		respondWithServiceError(c, err, "get menu")
		return
	}

	imageURLs := make(map[uint]string)
	for _, section := range menu.Sections {
		for _, dish := range section.Dishes {
			if dish.ImagePath != "" {
				imageURLs[dish.ID] = ctrl.dishService.ImageURL(dish.ImagePath)
			}
		}
	}

	resp := ctrl.menuResponse(menu)
	resp["image_urls"] = imageURLs
	c.JSON(http.StatusOK, resp)
}

// UpdateMenu edits a menu
// PUT /api/v1/menus/:id
func (ctrl *MenuController) UpdateMenu(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	menuID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	menu, err := ctrl.menuService.UpdateMenu(userID, menuID, service.MenuMutation{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithServiceError(c, err, "update menu")
		return
	}

	resp := ctrl.menuResponse(menu)
	resp["message"] = "Cardápio atualizado"
	c.JSON(http.StatusOK, resp)
}

// DeleteMenu removes a menu with its sections and dishes
// DELETE /api/v1/menus/:id
func (ctrl *MenuController) DeleteMenu(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	menuID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.menuService.DeleteMenu(c.Request.Context(), userID, menuID); err != nil {
		respondWithServiceError(c, err, "delete menu")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cardápio excluído",
	})
}

// ReorderMenus writes the display order of the store menus
// PUT /api/v1/menus/reorder
func (ctrl *MenuController) ReorderMenus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.menuService.ReorderMenus(userID, req.Items); err != nil {
		respondWithServiceError(c, err, "reorder menus")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ordem atualizada",
	})
}

// QRCode renders a PNG with the public menu URL
// GET /api/v1/menus/:slug/qrcode?size=256
func (ctrl *MenuController) QRCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		apperrors.RespondWithValidationError(c, map[string]string{"size": "Valor inválido"})
		return
	}

	png, err := ctrl.menuService.QRCode(userID, c.Param("slug"), size)
	if err != nil {
		respondWithServiceError(c, err, "render menu qrcode")
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+c.Param("slug")+`.png"`)
	c.Data(http.StatusOK, "image/png", png)
}
