package service

import (
	"errors"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/pkg/logger"
	"gorm.io/gorm"
)

// ownership resolves content rows and checks they belong to the acting user's store.
type ownership struct {
	stores   repository.StoreRepository
	menus    repository.MenuRepository
	sections repository.SectionRepository
	dishes   repository.DishRepository
}

func (o ownership) storeOf(userID uint) (*model.Store, error) {
	store, err := o.stores.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreRequired
		}
		return nil, err
	}
	return store, nil
}

func (o ownership) menu(userID, menuID uint) (*model.Store, *model.Menu, error) {
	store, err := o.storeOf(userID)
	if err != nil {
		return nil, nil, err
	}
	menu, err := o.menus.FindByID(menuID)
	if err != nil {
		return nil, nil, notFound(err, ErrMenuNotFound)
	}
	if menu.StoreID != store.ID {
		denied("menu", menuID, userID)
		return nil, nil, ErrForbidden
	}
	return store, menu, nil
}

func (o ownership) section(userID, sectionID uint) (*model.Store, *model.Section, error) {
	store, err := o.storeOf(userID)
	if err != nil {
		return nil, nil, err
	}
	section, err := o.sections.FindByIDWithMenu(sectionID)
	if err != nil {
		return nil, nil, notFound(err, ErrSectionNotFound)
	}
	if section.Menu == nil || section.Menu.StoreID != store.ID {
		denied("section", sectionID, userID)
		return nil, nil, ErrForbidden
	}
	return store, section, nil
}

func (o ownership) dish(userID, dishID uint) (*model.Store, *model.Dish, error) {
	store, err := o.storeOf(userID)
	if err != nil {
		return nil, nil, err
	}
	dish, err := o.dishes.FindByID(dishID)
	if err != nil {
		return nil, nil, notFound(err, ErrDishNotFound)
	}
	if dish.StoreID != store.ID {
		denied("dish", dishID, userID)
		return nil, nil, ErrForbidden
	}
	return store, dish, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func denied(kind string, id, userID uint) {
	logger.Warn("Ownership check failed", map[string]interface{}{
		"resource": kind,
		"id":       id,
		"user_id":  userID,
	})
}

func reorderError(err error) error {
	if errors.Is(err, repository.ErrOutOfScope) {
		return ErrReorderOutOfScope
	}
	return err
}
