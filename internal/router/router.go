package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/config"
	"github.com/mynu/mynu-backend/internal/app/controller"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/authz"
	"github.com/mynu/mynu-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controllers struct {
	Auth         *controller.AuthController
	Store        *controller.StoreController
	Menu         *controller.MenuController
	Section      *controller.SectionController
	Dish         *controller.DishController
	PublicMenu   *controller.PublicMenuController
	Dashboard    *controller.DashboardController
	Subscription *controller.SubscriptionController
	Webhook      *controller.WebhookController
	BillingFeed  *controller.BillingFeedController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	registry       *authz.Registry
	users          middleware.UserFinder
	stores         middleware.StoreFinder
	metrics        *middleware.HTTPMetrics
	gatherer       prometheus.Gatherer
	uploadsDir     string
	config         *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	registry *authz.Registry,
	users middleware.UserFinder,
	stores middleware.StoreFinder,
	registerer prometheus.Registerer,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		registry:       registry,
		users:          users,
		stores:         stores,
		metrics:        middleware.NewHTTPMetrics(registerer),
		gatherer:       gatherer,
		uploadsDir:     cfg.Storage.LocalRoot,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(r.metrics.Middleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Mynu API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	if r.config.Storage.Driver == "" || r.config.Storage.Driver == "local" {
		router.Static("/uploads", r.uploadsDir)
	}

	ctrl := r.controllers

	// Stripe posts the raw event; the signature is the only authentication
	router.POST("/stripe/webhook", ctrl.Webhook.HandleStripe)

	cardapio := router.Group("/cardapio")
	{
		cardapio.GET("/:menu", ctrl.PublicMenu.GetPublicMenu)
		cardapio.POST("/:menu/visits", ctrl.PublicMenu.RecordVisit)
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", ctrl.Auth.Register)
			auth.POST("/login", ctrl.Auth.Login)
			auth.GET("/me", r.authMiddleware.Authenticate(), ctrl.Auth.GetMe)
			auth.POST("/logout", r.authMiddleware.Authenticate(), ctrl.Auth.Logout)
		}

		authed := v1.Group("")
		authed.Use(r.authMiddleware.Authenticate())

		store := authed.Group("/store")
		{
			store.GET("", ctrl.Store.GetStore)
			store.POST("", ctrl.Store.CreateStore)
			store.PUT("", ctrl.Store.UpdateStore)
			store.DELETE("", ctrl.Store.DeleteStore)
			store.POST("/logo", ctrl.Store.UploadLogo)
			store.POST("/background", ctrl.Store.UploadBackground)
		}

		subscription := authed.Group("/subscription")
		{
			subscription.GET("", ctrl.Subscription.GetStatus)
			subscription.POST("", ctrl.Subscription.Subscribe)
			subscription.PUT("", ctrl.Subscription.ChangePlan)
			subscription.POST("/cancel", ctrl.Subscription.Cancel)
			subscription.POST("/resume", ctrl.Subscription.Resume)
		}

		paymentMethods := authed.Group("/payment-methods")
		{
			paymentMethods.GET("", ctrl.Subscription.ListPaymentMethods)
			paymentMethods.POST("", ctrl.Subscription.UpdatePaymentMethod)
		}

		authed.GET("/ws/billing", ctrl.BillingFeed.Connect)

		owner := authed.Group("")
		owner.Use(middleware.RequireStore(r.stores))
		owner.GET("/dashboard", ctrl.Dashboard.GetMetrics)

		manage := owner.Group("")
		manage.Use(middleware.RequirePermission(r.registry, r.users, model.PermissionManageMenus))

		menus := manage.Group("/menus")
		{
			menus.GET("", ctrl.Menu.ListMenus)
			menus.POST("", ctrl.Menu.CreateMenu)
			menus.PUT("/reorder", ctrl.Menu.ReorderMenus)
			menus.GET("/:slug", ctrl.Menu.GetMenu)
			menus.GET("/:slug/qrcode", ctrl.Menu.QRCode)
			menus.PUT("/:id", ctrl.Menu.UpdateMenu)
			menus.DELETE("/:id", ctrl.Menu.DeleteMenu)
		}

		sections := manage.Group("/sections")
		{
			sections.POST("", ctrl.Section.CreateSection)
			sections.PUT("/reorder", ctrl.Section.ReorderSections)
			sections.PUT("/:id", ctrl.Section.UpdateSection)
			sections.DELETE("/:id", ctrl.Section.DeleteSection)
		}

		dishes := manage.Group("/dishes")
		{
			dishes.POST("", ctrl.Dish.CreateDish)
			dishes.PUT("/reorder", ctrl.Dish.ReorderDishes)
			dishes.PUT("/:id", ctrl.Dish.UpdateDish)
			dishes.DELETE("/:id", ctrl.Dish.DeleteDish)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "Stripe-Signature"},
		ExposeHeaders:    []string{"X-Request-ID", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
