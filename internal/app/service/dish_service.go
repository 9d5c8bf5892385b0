package service

import (
	"context"
	"strings"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/logger"
)

const dishImageFolder = "dishes"

// DishMutation carries dish fields. Nil fields are left unchanged on update.
// ClearPromotion removes the promotional price.
type DishMutation struct {
	SectionID        *uint
	Name             *string
	Description      *string
	Price            *float64
	PromotionalPrice *float64
	ClearPromotion   bool
	IsActive         *bool
	IsAvailable      *bool
}

type DishService interface {
	CreateDish(ctx context.Context, userID uint, input DishMutation, image *FileUpload) (*model.Dish, error)
	UpdateDish(ctx context.Context, userID, dishID uint, input DishMutation, image *FileUpload) (*model.Dish, error)
	DeleteDish(ctx context.Context, userID, dishID uint) error
	ReorderDishes(userID, sectionID uint, items []repository.OrderItem) error
	ImageURL(path string) string
}

type dishService struct {
	own      ownership
	dishRepo repository.DishRepository
	files    storage.FileStorage
}

func NewDishService(
	storeRepo repository.StoreRepository,
	menuRepo repository.MenuRepository,
	sectionRepo repository.SectionRepository,
	dishRepo repository.DishRepository,
	files storage.FileStorage,
) DishService {
	return &dishService{
		own:      ownership{stores: storeRepo, menus: menuRepo, sections: sectionRepo, dishes: dishRepo},
		dishRepo: dishRepo,
		files:    files,
	}
}

func (s *dishService) CreateDish(ctx context.Context, userID uint, input DishMutation, image *FileUpload) (*model.Dish, error) {
	if input.SectionID == nil {
		return nil, invalidField("section_id", "Campo obrigatório")
	}
	store, section, err := s.own.section(userID, *input.SectionID)
	if err != nil {
		return nil, err
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, invalidField("name", "Campo obrigatório")
	}
	if input.Price == nil {
		return nil, invalidField("price", "Campo obrigatório")
	}

	dish := &model.Dish{
		SectionID:   section.ID,
		StoreID:     store.ID,
		IsActive:    true,
		IsAvailable: true,
	}
	if err := applyDishMutation(dish, input); err != nil {
		return nil, err
	}

	order, err := s.dishRepo.NextOrder(section.ID)
	if err != nil {
		return nil, err
	}
	dish.Order = order

	if image != nil {
		path, err := storeUpload(ctx, s.files, dishImageFolder, image)
		if err != nil {
			return nil, err
		}
		dish.ImagePath = path
	}

	if err := s.dishRepo.Create(dish); err != nil {
		discardFiles(ctx, s.files, dish.ImagePath)
		return nil, err
	}

	logger.Info("Dish created", map[string]interface{}{
		"dish_id":    dish.ID,
		"section_id": section.ID,
		"has_image":  dish.ImagePath != "",
	})
	return dish, nil
}

// UpdateDish stores a new image first, updates the row, then deletes the replaced image.
func (s *dishService) UpdateDish(ctx context.Context, userID, dishID uint, input DishMutation, image *FileUpload) (*model.Dish, error) {
	_, dish, err := s.own.dish(userID, dishID)
	if err != nil {
		return nil, err
	}

	if input.SectionID != nil && *input.SectionID != dish.SectionID {
		_, section, err := s.own.section(userID, *input.SectionID)
		if err != nil {
			return nil, err
		}
		// a moved dish goes to the end of its new section
		order, err := s.dishRepo.NextOrder(section.ID)
		if err != nil {
			return nil, err
		}
		dish.SectionID = section.ID
		dish.Order = order
	}
	if err := applyDishMutation(dish, input); err != nil {
		return nil, err
	}

	var previous string
	if image != nil {
		path, err := storeUpload(ctx, s.files, dishImageFolder, image)
		if err != nil {
			return nil, err
		}
		previous, dish.ImagePath = dish.ImagePath, path
	}

	if err := s.dishRepo.Update(dish); err != nil {
		if image != nil {
			discardFiles(ctx, s.files, dish.ImagePath)
		}
		return nil, err
	}
	discardFiles(ctx, s.files, previous)

	logger.Info("Dish updated", map[string]interface{}{
		"dish_id":        dish.ID,
		"image_replaced": previous != "",
	})
	return dish, nil
}

func (s *dishService) DeleteDish(ctx context.Context, userID, dishID uint) error {
	_, dish, err := s.own.dish(userID, dishID)
	if err != nil {
		return err
	}
	if err := s.dishRepo.Delete(dish.ID); err != nil {
		return err
	}
	discardFiles(ctx, s.files, dish.ImagePath)

	logger.Info("Dish deleted", map[string]interface{}{
		"dish_id": dish.ID,
	})
	return nil
}

func (s *dishService) ReorderDishes(userID, sectionID uint, items []repository.OrderItem) error {
	if _, _, err := s.own.section(userID, sectionID); err != nil {
		return err
	}
	return reorderError(s.dishRepo.Reorder(sectionID, items))
}

func (s *dishService) ImageURL(path string) string {
	return s.files.URL(path)
}

func applyDishMutation(dish *model.Dish, input DishMutation) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return invalidField("name", "Campo obrigatório")
		}
		dish.Name = name
	}
	if input.Description != nil {
		dish.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return invalidField("price", "Deve ser maior ou igual a 0")
		}
		dish.Price = *input.Price
	}
	if input.ClearPromotion {
		dish.PromotionalPrice = nil
	} else if input.PromotionalPrice != nil {
		// a promotional price above the regular price is accepted as is
		if *input.PromotionalPrice < 0 {
			return invalidField("promotional_price", "Deve ser maior ou igual a 0")
		}
		promo := *input.PromotionalPrice
		dish.PromotionalPrice = &promo
	}
	if input.IsActive != nil {
		dish.IsActive = *input.IsActive
	}
	if input.IsAvailable != nil {
		dish.IsAvailable = *input.IsAvailable
	}
	return nil
}
