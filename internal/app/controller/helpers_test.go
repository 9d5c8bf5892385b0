package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/config"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/app/service"
	"github.com/mynu/mynu-backend/internal/authz"
	"github.com/mynu/mynu-backend/internal/db"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
	"github.com/mynu/mynu-backend/internal/queue"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
	"github.com/mynu/mynu-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret  = "test-secret"
	testPricePro   = "price_test_123"
	testConfirmURL = "https://mynu.app/pagamento/confirmar"
)

// stubProvider answers Stripe calls in memory.
type stubProvider struct {
	seq           int
	calls         int
	paymentIntent *stripebilling.PaymentIntent
	event         *stripebilling.Event
	err           error
}

func (p *stubProvider) subscription(id string) *stripebilling.Subscription {
	end := time.Now().Add(30 * 24 * time.Hour)
	status := model.SubscriptionStatusActive
	if p.paymentIntent != nil {
		status = model.SubscriptionStatusIncomplete
	}
	return &stripebilling.Subscription{ID: id, Status: status, PriceID: testPricePro, Quantity: 1, CurrentPeriodEnd: &end, PaymentIntent: p.paymentIntent}
}

func (p *stubProvider) CreateCustomer(ctx context.Context, params stripebilling.CreateCustomerParams) (string, error) {
	p.calls++
	return "cus_" + params.Metadata["user_id"], p.err
}

func (p *stubProvider) CreateSubscription(ctx context.Context, params stripebilling.CreateSubscriptionParams) (*stripebilling.Subscription, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	p.seq++
	return p.subscription(fmt.Sprintf("sub_%d", p.seq)), nil
}

func (p *stubProvider) SwapPrice(ctx context.Context, params stripebilling.SwapParams) (*stripebilling.Subscription, error) {
	p.calls++
	return p.subscription(params.SubscriptionID), p.err
}

func (p *stubProvider) CancelNow(ctx context.Context, id string) (*stripebilling.Subscription, error) {
	p.calls++
	sub := p.subscription(id)
	sub.Status = model.SubscriptionStatusCanceled
	return sub, p.err
}

func (p *stubProvider) CancelAtPeriodEnd(ctx context.Context, id string) (*stripebilling.Subscription, error) {
	p.calls++
	sub := p.subscription(id)
	sub.CancelAtPeriodEnd = true
	return sub, p.err
}

func (p *stubProvider) Resume(ctx context.Context, id string) (*stripebilling.Subscription, error) {
	p.calls++
	return p.subscription(id), p.err
}

func (p *stubProvider) AttachPaymentMethod(ctx context.Context, customerID, pm string) (*stripebilling.PaymentMethod, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &stripebilling.PaymentMethod{ID: pm, Brand: "visa", LastFour: "4242", ExpMonth: 12, ExpYear: 2030}, nil
}

func (p *stubProvider) SetDefaultPaymentMethod(ctx context.Context, customerID, pm string) error {
	p.calls++
	return p.err
}

func (p *stubProvider) ListPaymentMethods(ctx context.Context, customerID string) ([]stripebilling.PaymentMethod, error) {
	p.calls++
	return []stripebilling.PaymentMethod{{ID: "pm_card_visa", Brand: "visa", LastFour: "4242"}}, p.err
}

func (p *stubProvider) ConstructEvent(payload []byte, signature string) (*stripebilling.Event, error) {
	if signature != "valid" {
		return nil, stripebilling.ErrInvalidSignature
	}
	return p.event, nil
}

type testApp struct {
	router   *gin.Engine
	db       *gorm.DB
	provider *stubProvider
	jobs     *queue.MemoryQueue

	userRepo  repository.UserRepository
	storeRepo repository.StoreRepository
	menuRepo  repository.MenuRepository
	dishRepo  repository.DishRepository
	visitRepo repository.VisitRepository

	stores   service.StoreService
	menus    service.MenuService
	sections service.SectionService
	dishes   service.DishService
}

func setupControllerTest(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apperrors.UseJSONFieldNames()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	files, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	app := &testApp{
		db:        testDB,
		provider:  &stubProvider{},
		jobs:      queue.NewMemoryQueue(16),
		userRepo:  repository.NewUserRepository(testDB),
		storeRepo: repository.NewStoreRepository(testDB),
		menuRepo:  repository.NewMenuRepository(testDB),
		dishRepo:  repository.NewDishRepository(testDB),
		visitRepo: repository.NewVisitRepository(testDB),
	}
	sectionRepo := repository.NewSectionRepository(testDB)
	subRepo := repository.NewSubscriptionRepository(testDB)
	catalog := service.NewPlanCatalog([]config.PlanConfig{{Role: "pro", PriceID: testPricePro}})

	registry := authz.NewRegistry(repository.NewRoleRepository(testDB))
	require.NoError(t, registry.Reload())

	authService := service.NewAuthService(app.userRepo, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	app.stores = service.NewStoreService(app.storeRepo, files)
	app.menus = service.NewMenuService(app.storeRepo, app.menuRepo, sectionRepo, app.dishRepo, files, "https://mynu.app")
	app.sections = service.NewSectionService(app.storeRepo, app.menuRepo, sectionRepo, app.dishRepo, files)
	app.dishes = service.NewDishService(app.storeRepo, app.menuRepo, sectionRepo, app.dishRepo, files)
	publicMenus := service.NewPublicMenuService(app.storeRepo, app.menuRepo, app.dishRepo, service.NewDBVisitRecorder(app.visitRepo), files)
	dashboard := service.NewDashboardService(app.storeRepo, app.menuRepo, app.dishRepo, app.visitRepo)
	gateway := service.NewSubscriptionGateway(app.provider, app.userRepo, subRepo, catalog)
	webhooks := service.NewWebhookService(app.provider, app.userRepo, subRepo, catalog, app.jobs)

	authCtrl := NewAuthController(authService)
	storeCtrl := NewStoreController(app.stores)
	menuCtrl := NewMenuController(app.menus, app.dishes)
	sectionCtrl := NewSectionController(app.sections)
	dishCtrl := NewDishController(app.dishes)
	publicCtrl := NewPublicMenuController(publicMenus)
	dashboardCtrl := NewDashboardController(dashboard)
	subscriptionCtrl := NewSubscriptionController(gateway, authService, testConfirmURL)
	webhookCtrl := NewWebhookController(webhooks)

	auth := middleware.NewAuthMiddleware(testJWTSecret)
	router := gin.New()

	router.POST("/stripe/webhook", webhookCtrl.HandleStripe)
	router.GET("/cardapio/:menu", publicCtrl.GetPublicMenu)
	router.POST("/cardapio/:menu/visits", publicCtrl.RecordVisit)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", authCtrl.Register)
	v1.POST("/auth/login", authCtrl.Login)

	authed := v1.Group("", auth.Authenticate())
	authed.GET("/auth/me", authCtrl.GetMe)
	authed.POST("/auth/logout", authCtrl.Logout)
	authed.GET("/store", storeCtrl.GetStore)
	authed.POST("/store", storeCtrl.CreateStore)
	authed.PUT("/store", storeCtrl.UpdateStore)
	authed.POST("/store/logo", storeCtrl.UploadLogo)
	authed.GET("/subscription", subscriptionCtrl.GetStatus)
	authed.POST("/subscription", subscriptionCtrl.Subscribe)
	authed.PUT("/subscription", subscriptionCtrl.ChangePlan)
	authed.POST("/subscription/cancel", subscriptionCtrl.Cancel)
	authed.POST("/subscription/resume", subscriptionCtrl.Resume)
	authed.GET("/payment-methods", subscriptionCtrl.ListPaymentMethods)
	authed.POST("/payment-methods", subscriptionCtrl.UpdatePaymentMethod)

	owner := authed.Group("", middleware.RequireStore(app.storeRepo))
	owner.GET("/dashboard", dashboardCtrl.GetMetrics)

	manage := owner.Group("", middleware.RequirePermission(registry, app.userRepo, model.PermissionManageMenus))
	manage.GET("/menus", menuCtrl.ListMenus)
	manage.POST("/menus", menuCtrl.CreateMenu)
	manage.PUT("/menus/reorder", menuCtrl.ReorderMenus)
	manage.GET("/menus/:slug", menuCtrl.GetMenu)
	manage.GET("/menus/:slug/qrcode", menuCtrl.QRCode)
	manage.PUT("/menus/:id", menuCtrl.UpdateMenu)
	manage.DELETE("/menus/:id", menuCtrl.DeleteMenu)
	manage.POST("/sections", sectionCtrl.CreateSection)
	manage.PUT("/sections/reorder", sectionCtrl.ReorderSections)
	manage.PUT("/sections/:id", sectionCtrl.UpdateSection)
	manage.DELETE("/sections/:id", sectionCtrl.DeleteSection)
	manage.POST("/dishes", dishCtrl.CreateDish)
	manage.PUT("/dishes/reorder", dishCtrl.ReorderDishes)
	manage.PUT("/dishes/:id", dishCtrl.UpdateDish)
	manage.DELETE("/dishes/:id", dishCtrl.DeleteDish)

	app.router = router
	return app
}

// createUser inserts a user with the given role and returns it with an access token.
func (a *testApp) createUser(t *testing.T, email string, role model.UserRole) (*model.User, string) {
	t.Helper()
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)
	user := &model.User{Email: email, PasswordHash: hash, Name: "Dono", Role: role}
	require.NoError(t, a.userRepo.Create(user))

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

// createOwner inserts a pro user with a store.
func (a *testApp) createOwner(t *testing.T, email, storeName string) (*model.User, string) {
	t.Helper()
	user, token := a.createUser(t, email, model.RolePro)
	_, err := a.stores.CreateStore(user.ID, service.StoreMutation{Name: &storeName})
	require.NoError(t, err)
	return user, token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// doMultipart sends fields and an optional file part named "image".
func (a *testApp) doMultipart(t *testing.T, method, path, token string, fields map[string]string, contentType string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="foto.png"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000")
