package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
)

type StoreController struct {
	storeService service.StoreService
}

func NewStoreController(storeService service.StoreService) *StoreController {
	return &StoreController{
		storeService: storeService,
	}
}

// StoreRequest is shared by create and update. Omitted fields are left unchanged.
type StoreRequest struct {
	Name           *string               `json:"name" binding:"omitempty,max=255"`
	Description    *string               `json:"description"`
	Address        *string               `json:"address"`
	Phones         []string              `json:"phones" binding:"omitempty,max=5,dive,max=30"`
	Whatsapp       *string               `json:"whatsapp" binding:"omitempty,max=30"`
	Instagram      *string               `json:"instagram" binding:"omitempty,max=100"`
	Colors         *model.ColorPalette   `json:"colors"`
	LegalName      *string               `json:"legal_name"`
	Document       *string               `json:"document" binding:"omitempty,max=20"`
	OperatingHours *model.OperatingHours `json:"operating_hours"`
}

func (r StoreRequest) mutation() service.StoreMutation {
	return service.StoreMutation{
		Name:           r.Name,
		Description:    r.Description,
		Address:        r.Address,
		Phones:         r.Phones,
		Whatsapp:       r.Whatsapp,
		Instagram:      r.Instagram,
		Colors:         r.Colors,
		LegalName:      r.LegalName,
		Document:       r.Document,
		OperatingHours: r.OperatingHours,
	}
}

func (ctrl *StoreController) storeResponse(store *model.Store) gin.H {
	return gin.H{
		"store":          store,
		"logo_url":       ctrl.storeService.FileURL(store.LogoPath),
		"background_url": ctrl.storeService.FileURL(store.BackgroundPath),
	}
}

// GetStore returns the authenticated user's store
// GET /api/v1/store
func (ctrl *StoreController) GetStore(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	store, err := ctrl.storeService.GetStore(userID)
	if err != nil {
		respondWithServiceError(c, err, "get store")
		return
	}

	c.JSON(http.StatusOK, ctrl.storeResponse(store))
}

// CreateStore registers the user's store
// POST /api/v1/store
func (ctrl *StoreController) CreateStore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	store, err := ctrl.storeService.CreateStore(userID, req.mutation())
	if err != nil {
		respondWithServiceError(c, err, "create store")
		return
	}

	log.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"user_id":  userID,
	})

	resp := ctrl.storeResponse(store)
	resp["message"] = "Estabelecimento cadastrado com sucesso"
	c.JSON(http.StatusCreated, resp)
}

// UpdateStore edits the user's store
// PUT /api/v1/store
func (ctrl *StoreController) UpdateStore(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	store, err := ctrl.storeService.UpdateStore(userID, req.mutation())
	if err != nil {
		respondWithServiceError(c, err, "update store")
		return
	}

	resp := ctrl.storeResponse(store)
	resp["message"] = "Estabelecimento atualizado"
	c.JSON(http.StatusOK, resp)
}

// UploadLogo replaces the store logo
// POST /api/v1/store/logo
func (ctrl *StoreController) UploadLogo(c *gin.Context) {
	ctrl.uploadImage(c, service.StoreLogo)
}

// UploadBackground replaces the store background image
// POST /api/v1/store/background
func (ctrl *StoreController) UploadBackground(c *gin.Context) {
	ctrl.uploadImage(c, service.StoreBackground)
}

func (ctrl *StoreController) uploadImage(c *gin.Context, kind service.StoreImage) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	upload, closer, err := formImage(c, "image")
	defer closer.Close()
	if err != nil {
		log.Warn("Invalid image upload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.UploadFailed, "Não foi possível ler a imagem enviada")
		return
	}
	if upload == nil {
		apperrors.RespondWithValidationError(c, map[string]string{"image": "Campo obrigatório"})
		return
	}

	store, err := ctrl.storeService.UploadImage(c.Request.Context(), userID, kind, upload)
	if err != nil {
		respondWithServiceError(c, err, "upload store image")
		return
	}

	resp := ctrl.storeResponse(store)
	resp["message"] = "Imagem atualizada"
	c.JSON(http.StatusOK, resp)
}

// DeleteStore removes the store and all of its content
// DELETE /api/v1/store
func (ctrl *StoreController) DeleteStore(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := ctrl.storeService.DeleteStore(c.Request.Context(), userID); err != nil {
		respondWithServiceError(c, err, "delete store")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Estabelecimento excluído",
	})
}
