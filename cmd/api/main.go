package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/NirVa-gh/AppAuth/internal/api/http"
	"github.com/NirVa-gh/AppAuth/internal/api/http/handlers"
	"github.com/NirVa-gh/AppAuth/internal/auth"
	"github.com/NirVa-gh/AppAuth/internal/config"
	"github.com/NirVa-gh/AppAuth/internal/events"
	"github.com/NirVa-gh/AppAuth/internal/observability"
	"github.com/NirVa-gh/AppAuth/internal/persistence"
	"github.com/NirVa-gh/AppAuth/internal/repository"
	"github.com/NirVa-gh/AppAuth/internal/service"
	"github.com/NirVa-gh/AppAuth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
	if err != nil {
		logger.Fatal("failed to open sqlite storage", zap.Error(err))
	}
	defer store.Close()

	if cfg.SQLite.RunMigrations {
		if err := persistence.RunMigrations(ctx, store.Handle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	db := store.Handle()
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	throttle := auth.NewLoginThrottle(redis.Client, cfg.Auth.LoginAttemptLimit, cfg.Auth.LoginAttemptWindow(), logger)
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Throttle: throttle,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	notificationService := service.NewNotificationService(cfg.Notification, dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redis),
		Users:          handlers.NewUsersHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService),
		AdminRequests:  handlers.NewAdminRequestsHandler(requestService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
