package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"

	"conduit/internal/auth"
	"conduit/internal/cache"
	"conduit/internal/config"
	"conduit/internal/database"
	"conduit/internal/handlers"
	"conduit/internal/observability"
	"conduit/internal/repositories"
	"conduit/internal/services"
	"conduit/pkg/rabbitmq"
)

// stores bundles the repositories selected by STORE_DRIVER.
type stores struct {
	users    repositories.UserRepository
	articles repositories.ArticleRepository
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		observability.Logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Initialize Repositories ---
	st, err := openStores(cfg)
	if err != nil {
		observability.Logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Optional username cache ---
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			observability.Logger.Warn("continuing without cache", slog.String("error", err.Error()))
		} else {
			defer redisClient.Close()
			st.users = cache.NewCachedUserRepository(st.users, redisClient, cache.DefaultTTL)
		}
	}

	// --- Optional RabbitMQ event publisher ---
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			observability.Logger.Warn("continuing without relationship events", slog.String("error", err.Error()))
		} else {
			defer mqClient.Close()
			events = mqClient
			go func() {
				if consumerErr := mqClient.ConsumeRelationshipEvents(rabbitmq.LogRelationshipEvent); consumerErr != nil {
					observability.Logger.Error("failed to start RabbitMQ consumer", slog.String("error", consumerErr.Error()))
				}
			}()
		}
	}

	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	app := newApp(st, tokens, events, func() fiber.Map {
		return fiber.Map{
			"store":    cfg.StoreDriver,
			"cache":    redisClient != nil,
			"rabbitmq": mqClient != nil,
		}
	})

	// --- Start HTTP Server ---
	observability.Logger.Info("starting server", slog.String("port", cfg.Port), slog.String("env", cfg.Env))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.Port); err != nil {
			observability.Logger.Error("server failed to start", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	observability.Logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		observability.Logger.Error("error during Fiber shutdown", slog.String("error", err.Error()))
	}
	observability.Logger.Info("server gracefully stopped")
}

func openStores(cfg *config.Config) (stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		users := repositories.NewInMemoryUserRepository()
		return stores{
			users:    users,
			articles: repositories.NewInMemoryArticleRepository(users),
		}, nil
	}

	db, err := database.Open(cfg.StoreDriver, cfg.DatabaseDSN)
	if err != nil {
		return stores{}, err
	}
	return stores{
		users:    repositories.NewGORMUserRepository(db),
		articles: repositories.NewGORMArticleRepository(db),
	}, nil
}

// newApp wires services and handlers onto a Fiber app. events may be nil.
func newApp(st stores, tokens *auth.TokenIssuer, events services.EventPublisher, health func() fiber.Map) *fiber.App {
	// --- Initialize Services ---
	authService := services.NewAuthService(st.users, tokens)
	ledger := services.NewRelationshipService(st.users, services.NewFavoriteCounter(st.users, st.articles), events)
	profileService := services.NewProfileService(st.users, ledger)
	articleService := services.NewArticleService(st.articles, ledger)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"errors": fiber.Map{"body": []string{err.Error()}}})
		},
	})

	// --- Middleware ---
	app.Use(logger.New())
	prom := observability.HTTPMetrics("conduit")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if health != nil {
			for k, v := range health() {
				status[k] = v
			}
		}
		return c.JSON(status)
	})

	// --- API Routes ---
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewProfileHandler(authService, profileService).RegisterRoutes(api)
	handlers.NewArticleHandler(authService, articleService).RegisterRoutes(api)

	return app
}
