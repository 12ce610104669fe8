package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/taskdist/distribution-service/internal/api/http"
	"github.com/taskdist/distribution-service/internal/api/http/handlers"
	"github.com/taskdist/distribution-service/internal/auth"
	"github.com/taskdist/distribution-service/internal/cache"
	"github.com/taskdist/distribution-service/internal/config"
	"github.com/taskdist/distribution-service/internal/events"
	"github.com/taskdist/distribution-service/internal/observability"
	"github.com/taskdist/distribution-service/internal/persistence"
	"github.com/taskdist/distribution-service/internal/repository"
	"github.com/taskdist/distribution-service/internal/service"
	"github.com/taskdist/distribution-service/internal/worker"
)

type repositories struct {
	admins repository.AdminRepository
	agents repository.AgentRepository
	tasks  repository.TaskRepository
}

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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := newRepositories(pg)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	analyticsCache := cache.NewAnalyticsCache(redis.Client, cfg.Analytics.CacheTTL())
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AdminRepo: repos.admins,
		AgentRepo: repos.agents,
		Tokens:    tokens,
		Metrics:   metrics,
		Logger:    logger,
	})
	agentService := service.NewAgentService(cfg.Auth, service.AgentDependencies{
		AgentRepo:  repos.agents,
		TaskRepo:   repos.tasks,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		AdminRepo:  repos.admins,
		AgentRepo:  repos.agents,
		TaskRepo:   repos.tasks,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{
		AgentRepo: repos.agents,
		TaskRepo:  repos.tasks,
		Cache:     analyticsCache,
		Metrics:   metrics,
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(dispatcher, analyticsCache, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Upload.MaxBytes + 64<<10,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Agents:         handlers.NewAgentsHandler(agentService),
		Tasks:          handlers.NewTasksHandler(taskService, cfg.Upload.MaxBytes),
		AgentTasks:     handlers.NewAgentTasksHandler(taskService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	}
	if cfg.Metrics.Enabled {
		routes.Metrics = metrics
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("fiber shutdown", zap.Error(err))
	}
}

// newRepositories selects Postgres when a pool is configured and the
// in-memory store otherwise.
func newRepositories(pg *persistence.Postgres) repositories {
	if pg.Enabled() {
		pool := pg.PoolHandle()
		return repositories{
			admins: repository.NewAdminRepository(pool),
			agents: repository.NewAgentRepository(pool),
			tasks:  repository.NewTaskRepository(pool),
		}
	}
	store := repository.NewMemoryStore()
	return repositories{admins: store.Admins(), agents: store.Agents(), tasks: store.Tasks()}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
