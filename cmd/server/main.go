package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mynu/mynu-backend/config"
	"github.com/mynu/mynu-backend/internal/app/controller"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/app/service"
	"github.com/mynu/mynu-backend/internal/authz"
	"github.com/mynu/mynu-backend/internal/db"
	apperrors "github.com/mynu/mynu-backend/internal/errors"
	"github.com/mynu/mynu-backend/internal/middleware"
	"github.com/mynu/mynu-backend/internal/queue"
	"github.com/mynu/mynu-backend/internal/router"
	"github.com/mynu/mynu-backend/internal/scheduler"
	"github.com/mynu/mynu-backend/internal/storage"
	"github.com/mynu/mynu-backend/internal/stream"
	ws "github.com/mynu/mynu-backend/internal/websocket"
	"github.com/mynu/mynu-backend/pkg/logger"
	"github.com/mynu/mynu-backend/pkg/payment/stripebilling"
	"github.com/mynu/mynu-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	billingQueueName = "billing"
	shutdownTimeout  = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting Mynu Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	apperrors.UseJSONFieldNames()

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer redis.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	conn := db.GetDB()
	userRepo := repository.NewUserRepository(conn)
	storeRepo := repository.NewStoreRepository(conn)
	menuRepo := repository.NewMenuRepository(conn)
	sectionRepo := repository.NewSectionRepository(conn)
	dishRepo := repository.NewDishRepository(conn)
	visitRepo := repository.NewVisitRepository(conn)
	subRepo := repository.NewSubscriptionRepository(conn)
	roleRepo := repository.NewRoleRepository(conn)

	registry := authz.NewRegistry(roleRepo)
	if err := registry.Reload(); err != nil {
		logger.Fatal("Failed to load role permissions", err)
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize file storage", err)
	}

	billing, err := stripebilling.NewClient(stripebilling.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Stripe client", err)
	}
	catalog := service.NewPlanCatalog(cfg.Stripe.Plans)

	// Background jobs
	var jobs queue.Queue
	if cfg.Redis.Enabled {
		redisQueue := queue.NewRedisQueue(redis.GetClient(), billingQueueName)
		if _, err := redisQueue.Recover(ctx); err != nil {
			logger.Warn("Failed to recover pending jobs", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if pending, err := redisQueue.Len(ctx); err == nil {
			logger.Info("Billing queue ready", map[string]interface{}{
				"pending": pending,
			})
		}
		jobs = redisQueue
	} else {
		jobs = queue.NewMemoryQueue(256)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	worker := queue.NewWorker(jobs)
	worker.Register(service.JobBillingNotification, service.NewBillingNotificationHandler(hub))
	go worker.Run(ctx)

	// Visits go through Kafka when brokers are configured
	var visits service.VisitRecorder = service.NewDBVisitRecorder(visitRepo)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := stream.NewVisitPublisher(stream.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.VisitsTopic))
		defer publisher.Close()
		visits = publisher

		consumer := stream.NewVisitConsumer(stream.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.VisitsTopic, cfg.Kafka.GroupID), visitRepo)
		go consumer.Start(ctx)

		logger.Info("Visit stream enabled", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.VisitsTopic,
		})
	}

	// Services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	storeService := service.NewStoreService(storeRepo, files)
	menuService := service.NewMenuService(storeRepo, menuRepo, sectionRepo, dishRepo, files, cfg.Server.PublicURL)
	sectionService := service.NewSectionService(storeRepo, menuRepo, sectionRepo, dishRepo, files)
	dishService := service.NewDishService(storeRepo, menuRepo, sectionRepo, dishRepo, files)
	publicMenuService := service.NewPublicMenuService(storeRepo, menuRepo, dishRepo, visits, files)
	dashboardService := service.NewDashboardService(storeRepo, menuRepo, dishRepo, visitRepo)
	gateway := service.NewSubscriptionGateway(billing, userRepo, subRepo, catalog)
	webhookService := service.NewWebhookService(billing, userRepo, subRepo, catalog, jobs)

	sweeper := scheduler.NewGracePeriodScheduler(cfg.Scheduler.GracePeriodSpec, service.NewRoleSweeper(userRepo, subRepo, catalog))
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start grace period scheduler", err)
	}
	defer sweeper.Stop()

	// Controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Store:        controller.NewStoreController(storeService),
		Menu:         controller.NewMenuController(menuService, dishService),
		Section:      controller.NewSectionController(sectionService),
		Dish:         controller.NewDishController(dishService),
		PublicMenu:   controller.NewPublicMenuController(publicMenuService),
		Dashboard:    controller.NewDashboardController(dashboardService),
		Subscription: controller.NewSubscriptionController(gateway, authService, cfg.Stripe.ConfirmPaymentURL),
		Webhook:      controller.NewWebhookController(webhookService),
		BillingFeed:  controller.NewBillingFeedController(hub, cfg.CORS.AllowedOrigins),
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := router.NewRouter(
		controllers,
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		registry,
		userRepo,
		storeRepo,
		metricsRegistry,
		metricsRegistry,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
