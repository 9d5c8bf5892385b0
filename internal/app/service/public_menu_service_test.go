package service

import (
	"context"
	"testing"
	"time"

	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedVisits struct {
	visits []model.Visit
}

func (r *recordedVisits) Record(ctx context.Context, visit model.Visit) error {
	r.visits = append(r.visits, visit)
	return nil
}

func TestPublicMenuService_GetPublicMenu(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	user, menu, section := env.ownerWithMenu(t, "owner")
	svc := NewPublicMenuService(env.storeRepo, env.menuRepo, env.dishRepo, NewDBVisitRecorder(env.visitRepo), env.files)

	_, err := env.stores.UpdateStore(user.ID, StoreMutation{Colors: &model.ColorPalette{Primary: "#111111"}})
	require.NoError(t, err)

	visible, err := env.dishes.CreateDish(ctx, user.ID, DishMutation{
		SectionID:        uintPtr(section.ID),
		Name:             strPtr("Coxinha"),
		Price:            floatPtr(8),
		PromotionalPrice: floatPtr(6),
	}, pngUpload())
	require.NoError(t, err)
	_, err = env.dishes.CreateDish(ctx, user.ID, DishMutation{
		SectionID:   uintPtr(section.ID),
		Name:        strPtr("Esgotado"),
		Price:       floatPtr(8),
		IsAvailable: boolPtr(false),
	}, nil)
	require.NoError(t, err)
	hidden, err := env.sections.CreateSection(user.ID, SectionMutation{MenuID: menu.ID, Name: strPtr("Oculta"), IsActive: boolPtr(false)})
	require.NoError(t, err)
	_, err = env.dishes.CreateDish(ctx, user.ID, DishMutation{SectionID: uintPtr(hidden.ID), Name: strPtr("Nunca"), Price: floatPtr(1)}, nil)
	require.NoError(t, err)

	page, err := svc.GetPublicMenu(menu.Slug)
	require.NoError(t, err)

	assert.Equal(t, "Store owner", page.Store.Name)
	assert.Equal(t, "#111111", page.Store.Colors.Primary)
	assert.Equal(t, model.DefaultPalette.Secondary, page.Store.Colors.Secondary)
	assert.Equal(t, []string{}, page.Store.Phones)

	require.Len(t, page.Sections, 1)
	require.Len(t, page.Sections[0].Dishes, 1)
	dish := page.Sections[0].Dishes[0]
	assert.Equal(t, visible.ID, dish.ID)
	assert.Equal(t, 6.0, dish.DisplayPrice)
	assert.True(t, dish.OnPromotion)
	assert.Equal(t, "http://localhost:8080/uploads/"+visible.ImagePath, dish.ImageURL)

	t.Run("Inactive menu is not found", func(t *testing.T) {
		_, err := env.menus.UpdateMenu(user.ID, menu.ID, MenuMutation{IsActive: boolPtr(false)})
		require.NoError(t, err)
		_, err = svc.GetPublicMenu(menu.Slug)
		assert.ErrorIs(t, err, ErrMenuNotFound)
	})

	t.Run("Unknown slug", func(t *testing.T) {
		_, err := svc.GetPublicMenu("nao-existe")
		assert.ErrorIs(t, err, ErrMenuNotFound)
	})
}

func TestPublicMenuService_RecordVisit(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	user, menu, section := env.ownerWithMenu(t, "owner")
	other, _, otherSection := env.ownerWithMenu(t, "other")

	recorder := &recordedVisits{}
	svc := NewPublicMenuService(env.storeRepo, env.menuRepo, env.dishRepo, recorder, env.files).(*publicMenuService)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	dish, err := env.dishes.CreateDish(ctx, user.ID, DishMutation{SectionID: uintPtr(section.ID), Name: strPtr("Pastel"), Price: floatPtr(9)}, nil)
	require.NoError(t, err)
	foreign, err := env.dishes.CreateDish(ctx, other.ID, DishMutation{SectionID: uintPtr(otherSection.ID), Name: strPtr("Alheio"), Price: floatPtr(9)}, nil)
	require.NoError(t, err)
	soldOut, err := env.dishes.CreateDish(ctx, user.ID, DishMutation{SectionID: uintPtr(section.ID), Name: strPtr("Esgotado"), Price: floatPtr(9), IsAvailable: boolPtr(false)}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.RecordVisit(ctx, menu.Slug, nil))
	require.NoError(t, svc.RecordVisit(ctx, menu.Slug, uintPtr(dish.ID)))
	assert.ErrorIs(t, svc.RecordVisit(ctx, menu.Slug, uintPtr(foreign.ID)), ErrDishNotFound)
	assert.ErrorIs(t, svc.RecordVisit(ctx, menu.Slug, uintPtr(soldOut.ID)), ErrDishNotFound)
	assert.ErrorIs(t, svc.RecordVisit(ctx, "missing", nil), ErrMenuNotFound)

	require.Len(t, recorder.visits, 2)
	assert.Equal(t, menu.StoreID, recorder.visits[0].StoreID)
	assert.Nil(t, recorder.visits[0].DishID)
	assert.Equal(t, dish.ID, *recorder.visits[1].DishID)
	assert.Equal(t, fixed, recorder.visits[1].VisitedAt)
}
