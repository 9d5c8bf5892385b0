package controller

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPublicMenu builds "Loja Teste" with one active menu, one section and two dishes,
// one of them inactive.
func seedPublicMenu(t *testing.T, app *testApp) (*model.User, string, *model.Menu, *model.Dish) {
	t.Helper()
	user, token := app.createOwner(t, "dono@restaurante.com", "Loja Teste")
	active := true

	name := "Cardápio Principal"
	menu, err := app.menus.CreateMenu(user.ID, service.MenuMutation{Name: &name, IsActive: &active})
	require.NoError(t, err)

	sectionName := "Pratos"
	section, err := app.sections.CreateSection(user.ID, service.SectionMutation{MenuID: menu.ID, Name: &sectionName, IsActive: &active})
	require.NoError(t, err)

	visibleName, price := "Moqueca", 80.0
	visible, err := app.dishes.CreateDish(context.Background(), user.ID, service.DishMutation{SectionID: &section.ID, Name: &visibleName, Price: &price}, nil)
	require.NoError(t, err)

	hiddenName, inactive := "Fora do cardápio", false
	_, err = app.dishes.CreateDish(context.Background(), user.ID, service.DishMutation{SectionID: &section.ID, Name: &hiddenName, Price: &price, IsActive: &inactive}, nil)
	require.NoError(t, err)

	return user, token, menu, visible
}

func TestPublicMenuController_GetPublicMenu(t *testing.T) {
	app := setupControllerTest(t)
	user, _, menu, visible := seedPublicMenu(t, app)

	w := app.do(t, "GET", "/cardapio/"+menu.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := decode(t, w)["menu"].(map[string]interface{})
	store := page["store"].(map[string]interface{})
	assert.Equal(t, "Loja Teste", store["name"])
	colors := store["colors"].(map[string]interface{})
	assert.Equal(t, model.DefaultPalette.Primary, colors["primary"])
	assert.Equal(t, model.DefaultPalette.Border, colors["border"])

	sections := page["sections"].([]interface{})
	require.Len(t, sections, 1)
	dishes := sections[0].(map[string]interface{})["dishes"].([]interface{})
	require.Len(t, dishes, 1)
	assert.EqualValues(t, visible.ID, dishes[0].(map[string]interface{})["id"])

	inactive := false
	_, err := app.menus.UpdateMenu(user.ID, menu.ID, service.MenuMutation{IsActive: &inactive})
	require.NoError(t, err)

	w = app.do(t, "GET", "/cardapio/"+menu.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, "GET", "/cardapio/nao-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicMenuController_RecordVisit(t *testing.T) {
	app := setupControllerTest(t)
	_, _, menu, visible := seedPublicMenu(t, app)

	w := app.do(t, "POST", "/cardapio/"+menu.Slug+"/visits", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = app.do(t, "POST", "/cardapio/"+menu.Slug+"/visits", "", gin.H{"dish_id": visible.ID})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = app.do(t, "POST", "/cardapio/"+menu.Slug+"/visits", "", gin.H{"dish_id": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest("POST", "/cardapio/"+menu.Slug+"/visits", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	count, err := app.visitRepo.CountSince(menu.StoreID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
