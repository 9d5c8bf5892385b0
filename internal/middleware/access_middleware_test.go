package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/authz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roleTable []model.Role

func (r roleTable) FindAll() ([]model.Role, error) { return r, nil }

type fakeUsers map[uint]*model.User

func (f fakeUsers) FindByID(id uint) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

type fakeStores map[uint]*model.Store

func (f fakeStores) FindByUserID(userID uint) (*model.Store, error) {
	if s, ok := f[userID]; ok {
		return s, nil
	}
	return nil, errors.New("record not found")
}

func newRegistry(t *testing.T) *authz.Registry {
	registry := authz.NewRegistry(roleTable(model.DefaultRoles()))
	require.NoError(t, registry.Reload())
	return registry
}

func TestRequirePermission_UsesCurrentRole(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest()
	users := fakeUsers{
		1: {ID: 1, Role: model.RolePro},
		2: {ID: 2, Role: model.RoleFree},
	}

	router.GET("/menus",
		authMiddleware.Authenticate(),
		RequirePermission(newRegistry(t), users, model.PermissionManageMenus),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		},
	)

	tests := []struct {
		name           string
		userID         uint
		tokenRole      model.UserRole
		expectedStatus int
	}{
		{"upgraded after login", 1, model.RoleFree, http.StatusOK},
		{"downgraded after login", 2, model.RolePro, http.StatusForbidden},
		{"deleted user", 3, model.RolePro, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := generateTestToken(t, tt.userID, "user@example.com", tt.tokenRole)
			req := httptest.NewRequest("GET", "/menus", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRequirePermission_TokenRoleWithoutLookup(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest()
	router.GET("/menus",
		authMiddleware.Authenticate(),
		RequirePermission(newRegistry(t), nil, model.PermissionManageMenus),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	token := generateTestToken(t, 1, "user@example.com", model.RoleEnterprise)
	req := httptest.NewRequest("GET", "/menus", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireStore(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest()
	stores := fakeStores{1: {ID: 10, UserID: 1, Name: "Cantina"}}

	router.GET("/store",
		authMiddleware.Authenticate(),
		RequireStore(stores),
		func(c *gin.Context) {
			store, ok := GetStore(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"store_id": store.ID})
		},
	)

	t.Run("with store", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/store", nil)
		req.Header.Set("Authorization", "Bearer "+generateTestToken(t, 1, "a@example.com", model.RolePro))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"store_id":10`)
	})

	t.Run("without store", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/store", nil)
		req.Header.Set("Authorization", "Bearer "+generateTestToken(t, 2, "b@example.com", model.RolePro))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, StoreCreatePath, w.Header().Get("Location"))
		assert.Contains(t, w.Body.String(), `"redirect":"/store/create"`)
	})
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
}

func TestHTTPMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	router := gin.New()
	router.Use(metrics.Middleware())
	router.GET("/cardapio/:menu", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/cardapio/a", "/cardapio/b", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("/cardapio/:menu", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("unmatched", "GET", "404")))
}
