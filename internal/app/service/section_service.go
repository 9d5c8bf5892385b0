package service

import (
	"context"
	"strings"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/logger"
)

type SectionMutation struct {
	MenuID      uint
	Name        *string
	Description *string
	IsActive    *bool
}

type SectionService interface {
	CreateSection(userID uint, input SectionMutation) (*model.Section, error)
	UpdateSection(userID, sectionID uint, input SectionMutation) (*model.Section, error)
	DeleteSection(ctx context.Context, userID, sectionID uint) error
	ReorderSections(userID, menuID uint, items []repository.OrderItem) error
}

type sectionService struct {
	own         ownership
	sectionRepo repository.SectionRepository
	files       storage.FileStorage
}

func NewSectionService(
	storeRepo repository.StoreRepository,
	menuRepo repository.MenuRepository,
	sectionRepo repository.SectionRepository,
	dishRepo repository.DishRepository,
	files storage.FileStorage,
) SectionService {
	return &sectionService{
		own:         ownership{stores: storeRepo, menus: menuRepo, sections: sectionRepo, dishes: dishRepo},
		sectionRepo: sectionRepo,
		files:       files,
	}
}

func (s *sectionService) CreateSection(userID uint, input SectionMutation) (*model.Section, error) {
	_, menu, err := s.own.menu(userID, input.MenuID)
	if err != nil {
		return nil, err
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, invalidField("name", "Campo obrigatório")
	}

	section := &model.Section{MenuID: menu.ID, IsActive: true}
	applySectionMutation(section, input)

	order, err := s.sectionRepo.NextOrder(menu.ID)
	if err != nil {
		return nil, err
	}
	section.Order = order

	if err := s.sectionRepo.Create(section); err != nil {
		return nil, err
	}

	logger.Info("Section created", map[string]interface{}{
		"section_id": section.ID,
		"menu_id":    menu.ID,
	})
	return section, nil
}

func (s *sectionService) UpdateSection(userID, sectionID uint, input SectionMutation) (*model.Section, error) {
	_, section, err := s.own.section(userID, sectionID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, invalidField("name", "Campo obrigatório")
	}

	applySectionMutation(section, input)
	section.Menu = nil
	if err := s.sectionRepo.Update(section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *sectionService) DeleteSection(ctx context.Context, userID, sectionID uint) error {
	if _, _, err := s.own.section(userID, sectionID); err != nil {
		return err
	}

	paths, err := s.sectionRepo.Delete(sectionID)
	if err != nil {
		return err
	}
	discardFiles(ctx, s.files, paths...)

	logger.Info("Section deleted", map[string]interface{}{
		"section_id": sectionID,
		"images":     len(paths),
	})
	return nil
}

func (s *sectionService) ReorderSections(userID, menuID uint, items []repository.OrderItem) error {
	if _, _, err := s.own.menu(userID, menuID); err != nil {
		return err
	}
	return reorderError(s.sectionRepo.Reorder(menuID, items))
}

func applySectionMutation(section *model.Section, input SectionMutation) {
	if input.Name != nil {
		section.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		section.Description = *input.Description
	}
	if input.IsActive != nil {
		section.IsActive = *input.IsActive
	}
}
