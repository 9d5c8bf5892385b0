package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/config"
	"github.com/mynu/mynu-backend/internal/app/controller"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/app/service"
	"github.com/mynu/mynu-backend/internal/authz"
	"github.com/mynu/mynu-backend/internal/db"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
	"github.com/mynu/mynu-backend/internal/queue"
	"github.com/mynu/mynu-backend/internal/router"
	"github.com/mynu/mynu-backend/internal/storage"
	ws "github.com/mynu/mynu-backend/internal/websocket"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const journeyPrice = "price_pro_mensal"

// fakeStripe approves every call.
type fakeStripe struct{}

func (fakeStripe) active(id string) *stripebilling.Subscription {
	end := time.Now().Add(30 * 24 * time.Hour)
	return &stripebilling.Subscription{ID: id, Status: model.SubscriptionStatusActive, PriceID: journeyPrice, Quantity: 1, CurrentPeriodEnd: &end}
}

func (fakeStripe) CreateCustomer(ctx context.Context, p stripebilling.CreateCustomerParams) (string, error) {
	return "cus_journey", nil
}

func (f fakeStripe) CreateSubscription(ctx context.Context, p stripebilling.CreateSubscriptionParams) (*stripebilling.Subscription, error) {
	return f.active("sub_journey"), nil
}

func (f fakeStripe) SwapPrice(ctx context.Context, p stripebilling.SwapParams) (*stripebilling.Subscription, error) {
	return f.active(p.SubscriptionID), nil
}

func (f fakeStripe) CancelNow(ctx context.Context, id string) (*stripebilling.Subscription, error) {
	return f.active(id), nil
}

func (f fakeStripe) CancelAtPeriodEnd(ctx context.Context, id string) (*stripebilling.Subscription, error) {
	return f.active(id), nil
}

func (f fakeStripe) Resume(ctx context.Context, id string) (*stripebilling.Subscription, error) {
	return f.active(id), nil
}

func (fakeStripe) AttachPaymentMethod(ctx context.Context, customerID, pm string) (*stripebilling.PaymentMethod, error) {
	return &stripebilling.PaymentMethod{ID: pm, Brand: "visa", LastFour: "4242"}, nil
}

func (fakeStripe) SetDefaultPaymentMethod(ctx context.Context, customerID, pm string) error {
	return nil
}

func (fakeStripe) ListPaymentMethods(ctx context.Context, customerID string) ([]stripebilling.PaymentMethod, error) {
	return []stripebilling.PaymentMethod{{ID: "pm_card_visa", Brand: "visa", LastFour: "4242"}}, nil
}

func (fakeStripe) ConstructEvent(payload []byte, signature string) (*stripebilling.Event, error) {
	return nil, stripebilling.ErrInvalidSignature
}

type TestServer struct {
	Router http.Handler
	DB     *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)
	apperrors.UseJSONFieldNames()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server:  config.ServerConfig{GinMode: gin.TestMode, PublicURL: "https://mynu.app"},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{Driver: "local", LocalRoot: t.TempDir(), LocalURL: "http://localhost:8080/uploads"},
		Stripe: config.StripeConfig{
			ConfirmPaymentURL: "https://mynu.app/pagamento",
			Plans:             []config.PlanConfig{{Role: "pro", PriceID: journeyPrice}},
		},
	}

	files, err := storage.New(context.Background(), cfg.Storage)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	storeRepo := repository.NewStoreRepository(testDB)
	menuRepo := repository.NewMenuRepository(testDB)
	sectionRepo := repository.NewSectionRepository(testDB)
	dishRepo := repository.NewDishRepository(testDB)
	visitRepo := repository.NewVisitRepository(testDB)
	subRepo := repository.NewSubscriptionRepository(testDB)

	registry := authz.NewRegistry(repository.NewRoleRepository(testDB))
	require.NoError(t, registry.Reload())

	catalog := service.NewPlanCatalog(cfg.Stripe.Plans)
	authService := service.NewAuthService(userRepo, "test-secret", 15*time.Minute, 7*24*time.Hour)
	menuService := service.NewMenuService(storeRepo, menuRepo, sectionRepo, dishRepo, files, cfg.Server.PublicURL)
	dishService := service.NewDishService(storeRepo, menuRepo, sectionRepo, dishRepo, files)
	gateway := service.NewSubscriptionGateway(fakeStripe{}, userRepo, subRepo, catalog)

	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Store:        controller.NewStoreController(service.NewStoreService(storeRepo, files)),
		Menu:         controller.NewMenuController(menuService, dishService),
		Section:      controller.NewSectionController(service.NewSectionService(storeRepo, menuRepo, sectionRepo, dishRepo, files)),
		Dish:         controller.NewDishController(dishService),
		PublicMenu:   controller.NewPublicMenuController(service.NewPublicMenuService(storeRepo, menuRepo, dishRepo, service.NewDBVisitRecorder(visitRepo), files)),
		Dashboard:    controller.NewDashboardController(service.NewDashboardService(storeRepo, menuRepo, dishRepo, visitRepo)),
		Subscription: controller.NewSubscriptionController(gateway, authService, cfg.Stripe.ConfirmPaymentURL),
		Webhook:      controller.NewWebhookController(service.NewWebhookService(fakeStripe{}, userRepo, subRepo, catalog, queue.NewMemoryQueue(8))),
		BillingFeed:  controller.NewBillingFeedController(ws.NewHub(), cfg.CORS.AllowedOrigins),
	}

	reg := prometheus.NewRegistry()
	r := router.NewRouter(controllers, middleware.NewAuthMiddleware("test-secret"), registry, userRepo, storeRepo, reg, reg, cfg)

	return &TestServer{
		Router: r.Setup(),
		DB:     testDB,
	}
}

func (ts *TestServer) request(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "image/png" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func TestRestaurantOwnerJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	t.Log("Step 1: Register owner")
	w, resp := ts.request(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    "nona@cantina.com",
		"password": "password123",
		"name":     "Nona",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	accessToken := resp["tokens"].(map[string]interface{})["access_token"].(string)

	t.Log("Step 2: Menus require a store")
	w, resp = ts.request(t, "GET", "/api/v1/menus", accessToken, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, middleware.StoreCreatePath, resp["redirect"])

	t.Log("Step 3: Create store")
	w, _ = ts.request(t, "POST", "/api/v1/store", accessToken, map[string]interface{}{
		"name":    "Cantina da Nona",
		"address": "Rua Augusta, 100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Log("Step 4: Free plan cannot manage menus")
	w, _ = ts.request(t, "GET", "/api/v1/menus", accessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	t.Log("Step 5: Subscribe")
	w, resp = ts.request(t, "POST", "/api/v1/subscription", accessToken, map[string]string{
		"price_id":          journeyPrice,
		"payment_method_id": "pm_card_visa",
		"name":              "default",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pro", resp["role"])

	t.Log("Step 6: Build the menu")
	w, resp = ts.request(t, "POST", "/api/v1/menus", accessToken, map[string]string{"name": "Jantar"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	menu := resp["menu"].(map[string]interface{})
	assert.Equal(t, "jantar", menu["slug"])

	w, resp = ts.request(t, "POST", "/api/v1/sections", accessToken, map[string]interface{}{
		"menu_id": menu["id"],
		"name":    "Massas",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sectionID := resp["section"].(map[string]interface{})["id"]

	w, resp = ts.request(t, "POST", "/api/v1/dishes", accessToken, map[string]interface{}{
		"section_id": sectionID,
		"name":       "Lasanha",
		"price":      52.5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dishID := resp["dish"].(map[string]interface{})["id"]

	w, _ = ts.request(t, "GET", "/api/v1/menus/jantar/qrcode", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	t.Log("Step 7: Customer opens the public menu")
	w, resp = ts.request(t, "GET", "/cardapio/jantar", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := resp["menu"].(map[string]interface{})
	sections := page["sections"].([]interface{})
	require.Len(t, sections, 1)
	dishes := sections[0].(map[string]interface{})["dishes"].([]interface{})
	require.Len(t, dishes, 1)
	assert.Equal(t, "Lasanha", dishes[0].(map[string]interface{})["name"])

	w, _ = ts.request(t, "POST", "/cardapio/jantar/visits", "", map[string]interface{}{"dish_id": dishID})
	assert.Equal(t, http.StatusAccepted, w.Code)

	t.Log("Step 8: Owner checks the dashboard")
	w, resp = ts.request(t, "GET", "/api/v1/dashboard", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	metrics := resp["metrics"].(map[string]interface{})
	assert.EqualValues(t, 1, metrics["total_visits"])
	assert.EqualValues(t, 1, metrics["active_dishes"])

	t.Log("Step 9: Logout")
	w, _ = ts.request(t, "POST", "/api/v1/auth/logout", accessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
