package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/service"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
)

type SectionController struct {
	sectionService service.SectionService
}

func NewSectionController(sectionService service.SectionService) *SectionController {
	return &SectionController{
		sectionService: sectionService,
	}
}

type CreateSectionRequest struct {
	MenuID      uint    `json:"menu_id" binding:"required"`
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateSectionRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type ReorderSectionsRequest struct {
	MenuID uint `json:"menu_id" binding:"required"`
	ReorderRequest
}

// CreateSection adds a section at the end of a menu
// POST /api/v1/sections
func (ctrl *SectionController) CreateSection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	section, err := ctrl.sectionService.CreateSection(userID, service.SectionMutation{
		MenuID:      req.MenuID,
		Name:        &req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithServiceError(c, err, "create section")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Seção criada com sucesso",
		"section": section,
	})
}

// UpdateSection edits a section
// PUT /api/v1/sections/:id
func (ctrl *SectionController) UpdateSection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	section, err := ctrl.sectionService.UpdateSection(userID, sectionID, service.SectionMutation{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithServiceError(c, err, "update section")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Seção atualizada",
		"section": section,
	})
}

// DeleteSection removes a section with its dishes
// DELETE /api/v1/sections/:id
func (ctrl *SectionController) DeleteSection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.sectionService.DeleteSection(c.Request.Context(), userID, sectionID); err != nil {
		respondWithServiceError(c, err, "delete section")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Seção excluída",
	})
}

// ReorderSections writes the display order of a menu's sections
// PUT /api/v1/sections/reorder
func (ctrl *SectionController) ReorderSections(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ReorderSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.sectionService.ReorderSections(userID, req.MenuID, req.Items); err != nil {
		respondWithServiceError(c, err, "reorder sections")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ordem atualizada",
	})
}
