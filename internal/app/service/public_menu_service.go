package service

import (
	"context"
	"errors"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
)

type PublicStore struct {
	Name           string               `json:"name"`
	Slug           string               `json:"slug"`
	Description    string               `json:"description"`
	Address        string               `json:"address"`
	Phones         []string             `json:"phones"`
	Whatsapp       string               `json:"whatsapp"`
	Instagram      string               `json:"instagram"`
	LogoURL        string               `json:"logo_url"`
	BackgroundURL  string               `json:"background_url"`
	Colors         model.ColorPalette   `json:"colors"`
	OperatingHours model.OperatingHours `json:"operating_hours"`
}

type PublicDish struct {
	ID               uint     `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	PromotionalPrice *float64 `json:"promotional_price"`
	DisplayPrice     float64  `json:"display_price"`
	OnPromotion      bool     `json:"on_promotion"`
	ImageURL         string   `json:"image_url"`
}

type PublicSection struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Dishes      []PublicDish `json:"dishes"`
}

// PublicMenu is the consumer-facing page of a menu.
type PublicMenu struct {
	Store       PublicStore     `json:"store"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Sections    []PublicSection `json:"sections"`
}

type PublicMenuService interface {
	GetPublicMenu(slug string) (*PublicMenu, error)
	RecordVisit(ctx context.Context, slug string, dishID *uint) error
}

type publicMenuService struct {
	storeRepo repository.StoreRepository
	menuRepo  repository.MenuRepository
	dishRepo  repository.DishRepository
	recorder  VisitRecorder
	files     storage.FileStorage
	now       func() time.Time
}

func NewPublicMenuService(
	storeRepo repository.StoreRepository,
	menuRepo repository.MenuRepository,
	dishRepo repository.DishRepository,
	recorder VisitRecorder,
	files storage.FileStorage,
) PublicMenuService {
	return &publicMenuService{
		storeRepo: storeRepo,
		menuRepo:  menuRepo,
		dishRepo:  dishRepo,
		recorder:  recorder,
		files:     files,
		now:       time.Now,
	}
}

func (s *publicMenuService) GetPublicMenu(slug string) (*PublicMenu, error) {
	menu, err := s.menuRepo.FindBySlugWithContent(slug, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	if !menu.IsActive {
		logger.Debug("Inactive menu requested", map[string]interface{}{
			"slug": slug,
		})
		return nil, ErrMenuNotFound
	}

	store, err := s.storeRepo.FindByID(menu.StoreID)
	if err != nil {
		return nil, notFound(err, ErrMenuNotFound)
	}

	page := &PublicMenu{
		Store: PublicStore{
			Name:           store.Name,
			Slug:           store.Slug,
			Description:    store.Description,
			Address:        store.Address,
			Phones:         store.Phones,
			Whatsapp:       store.Whatsapp,
			Instagram:      store.Instagram,
			LogoURL:        s.files.URL(store.LogoPath),
			BackgroundURL:  s.files.URL(store.BackgroundPath),
			Colors:         store.Colors.WithDefaults(),
			OperatingHours: store.OperatingHours,
		},
		Name:        menu.Name,
		Slug:        menu.Slug,
		Description: menu.Description,
		Sections:    make([]PublicSection, 0, len(menu.Sections)),
	}
	if page.Store.Phones == nil {
		page.Store.Phones = []string{}
	}

	for _, section := range menu.Sections {
		ps := PublicSection{
			ID:          section.ID,
			Name:        section.Name,
			Description: section.Description,
			Dishes:      make([]PublicDish, 0, len(section.Dishes)),
		}
		for i := range section.Dishes {
			dish := &section.Dishes[i]
			ps.Dishes = append(ps.Dishes, PublicDish{
				ID:               dish.ID,
				Name:             dish.Name,
				Description:      dish.Description,
				Price:            dish.Price,
				PromotionalPrice: dish.PromotionalPrice,
				DisplayPrice:     dish.DisplayPrice(),
				OnPromotion:      dish.OnPromotion(),
				ImageURL:         s.files.URL(dish.ImagePath),
			})
		}
		page.Sections = append(page.Sections, ps)
	}

	return page, nil
}

func (s *publicMenuService) RecordVisit(ctx context.Context, slug string, dishID *uint) error {
	menu, err := s.menuRepo.FindBySlug(slug)
	if err != nil {
		return notFound(err, ErrMenuNotFound)
	}
	if !menu.IsActive {
		return ErrMenuNotFound
	}

	if dishID != nil {
		dish, err := s.dishRepo.FindByID(*dishID)
		if err != nil {
			return notFound(err, ErrDishNotFound)
		}
		// hidden dishes are not on the public page
		if dish.StoreID != menu.StoreID || !dish.Visible() {
			return ErrDishNotFound
		}
	}

	visit := model.Visit{StoreID: menu.StoreID, DishID: dishID, VisitedAt: s.now()}
	if err := s.recorder.Record(ctx, visit); err != nil {
		logger.Error("Failed to record visit", err, map[string]interface{}{
			"store_id": menu.StoreID,
		})
		return err
	}
	return nil
}
