package service

import (
	"context"
	"strings"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/mynu/mynu-backend/pkg/util"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// MenuMutation carries menu fields. Nil fields are left unchanged on update.
type MenuMutation struct {
	Name        *string
	Description *string
	IsActive    *bool
}

type MenuService interface {
	ListMenus(userID uint) ([]model.Menu, error)
	CreateMenu(userID uint, input MenuMutation) (*model.Menu, error)
	GetMenu(userID uint, slug string) (*model.Menu, error)
	UpdateMenu(userID, menuID uint, input MenuMutation) (*model.Menu, error)
	DeleteMenu(ctx context.Context, userID, menuID uint) error
	ReorderMenus(userID uint, items []repository.OrderItem) error
	PublicURL(slug string) string
	QRCode(userID uint, slug string, size int) ([]byte, error)
}

type menuService struct {
	own       ownership
	menuRepo  repository.MenuRepository
	files     storage.FileStorage
	publicURL string
}

func NewMenuService(
	storeRepo repository.StoreRepository,
	menuRepo repository.MenuRepository,
	sectionRepo repository.SectionRepository,
	dishRepo repository.DishRepository,
	files storage.FileStorage,
	publicURL string,
) MenuService {
	return &menuService{
		own:       ownership{stores: storeRepo, menus: menuRepo, sections: sectionRepo, dishes: dishRepo},
		menuRepo:  menuRepo,
		files:     files,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *menuService) ListMenus(userID uint) ([]model.Menu, error) {
	store, err := s.own.storeOf(userID)
	if err != nil {
		return nil, err
	}
	return s.menuRepo.FindByStoreID(store.ID)
}

func (s *menuService) CreateMenu(userID uint, input MenuMutation) (*model.Menu, error) {
	store, err := s.own.storeOf(userID)
	if err != nil {
		return nil, err
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, invalidField("name", "Campo obrigatório")
	}

	menu := &model.Menu{StoreID: store.ID, IsActive: true}
	applyMenuMutation(menu, input)

	slug, err := util.UniqueSlug(util.Slugify(menu.Name), s.menuRepo.SlugExists)
	if err != nil {
		return nil, err
	}
	menu.Slug = slug

	order, err := s.menuRepo.NextOrder(store.ID)
	if err != nil {
		return nil, err
	}
	menu.Order = order

	if err := s.menuRepo.Create(menu); err != nil {
		return nil, err
	}

	logger.Info("Menu created", map[string]interface{}{
		"menu_id":  menu.ID,
		"store_id": store.ID,
		"slug":     menu.Slug,
		"order":    menu.Order,
	})
	return menu, nil
}

// GetMenu returns an owned menu with all of its sections and dishes.
func (s *menuService) GetMenu(userID uint, slug string) (*model.Menu, error) {
	store, err := s.own.storeOf(userID)
	if err != nil {
		return nil, err
	}
	menu, err := s.menuRepo.FindBySlugWithContent(slug, false)
	if err != nil {
		return nil, notFound(err, ErrMenuNotFound)
	}
	if menu.StoreID != store.ID {
		denied("menu", menu.ID, userID)
		return nil, ErrForbidden
	}
	return menu, nil
}

func (s *menuService) UpdateMenu(userID, menuID uint, input MenuMutation) (*model.Menu, error) {
	_, menu, err := s.own.menu(userID, menuID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, invalidField("name", "Campo obrigatório")
	}

	applyMenuMutation(menu, input)
	if err := s.menuRepo.Update(menu); err != nil {
		return nil, err
	}

	logger.Info("Menu updated", map[string]interface{}{
		"menu_id": menu.ID,
	})
	return menu, nil
}

func (s *menuService) DeleteMenu(ctx context.Context, userID, menuID uint) error {
	if _, _, err := s.own.menu(userID, menuID); err != nil {
		return err
	}

	paths, err := s.menuRepo.Delete(menuID)
	if err != nil {
		return err
	}
	discardFiles(ctx, s.files, paths...)

	logger.Info("Menu deleted", map[string]interface{}{
		"menu_id": menuID,
		"images":  len(paths),
	})
	return nil
}

func (s *menuService) ReorderMenus(userID uint, items []repository.OrderItem) error {
	store, err := s.own.storeOf(userID)
	if err != nil {
		return err
	}
	if err := s.menuRepo.Reorder(store.ID, items); err != nil {
		logger.Warn("Menu reorder rejected", map[string]interface{}{
			"store_id": store.ID,
			"error":    err.Error(),
		})
		return reorderError(err)
	}
	return nil
}

func (s *menuService) PublicURL(slug string) string {
	return s.publicURL + "/cardapio/" + slug
}

// QRCode renders a PNG pointing to the public page of an owned menu.
func (s *menuService) QRCode(userID uint, slug string, size int) ([]byte, error) {
	store, err := s.own.storeOf(userID)
	if err != nil {
		return nil, err
	}
	menu, err := s.menuRepo.FindBySlug(slug)
	if err != nil {
		return nil, notFound(err, ErrMenuNotFound)
	}
	if menu.StoreID != store.ID {
		denied("menu", menu.ID, userID)
		return nil, ErrForbidden
	}

	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(s.PublicURL(menu.Slug), qrcode.Medium, size)
	if err != nil {
		logger.Error("Failed to render QR code", err, map[string]interface{}{
			"menu_id": menu.ID,
		})
		return nil, err
	}
	return png, nil
}

func applyMenuMutation(menu *model.Menu, input MenuMutation) {
	if input.Name != nil {
		menu.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		menu.Description = *input.Description
	}
	if input.IsActive != nil {
		menu.IsActive = *input.IsActive
	}
}
