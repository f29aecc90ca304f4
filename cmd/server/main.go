package main // Entry point package

import (
	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/sirupsen/logrus"  // Structured logging

	"github.com/praiamar/beach-tent-reservation/internal/config"       // Internal config loader
	"github.com/praiamar/beach-tent-reservation/internal/database"     // MySQL connection helper
	"github.com/praiamar/beach-tent-reservation/internal/handler"      // HTTP handlers
	"github.com/praiamar/beach-tent-reservation/internal/middleware"   // Rate limiting and response caching
	"github.com/praiamar/beach-tent-reservation/internal/notification" // Chat system-message bridge
	"github.com/praiamar/beach-tent-reservation/internal/queue"        // Reservation event consumer
	"github.com/praiamar/beach-tent-reservation/internal/repository"   // Data access layer
	"github.com/praiamar/beach-tent-reservation/internal/router"       // Route registration
)

func main() {
	// Load a .env file when present; in production the variables come
	// from the environment and the missing file is not an error.
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	cfg := config.Load() // Load environment config, fatal on missing values

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	// Redis backs rate limiting and public-route response caching.  A nil
	// client disables both middlewares instead of failing startup.
	rdb := config.NewRedisClient()

	// Repositories share the single connection pool.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	tentRepo := repository.NewTentRepo(db)
	resRepo := repository.NewReservationRepo(db)
	itemRepo := repository.NewItemRepo(db)
	accountRepo := repository.NewAccountRepo(db)
	chatRepo := repository.NewChatRepo(db)
	reviewRepo := repository.NewReviewRepo(db)
	bridge := notification.NewBridge(chatRepo)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	browseHandler := handler.NewBrowseHandler(tentRepo)
	customerHandler := handler.NewCustomerHandler(tentRepo, resRepo, itemRepo, accountRepo, chatRepo, bridge)
	ownerHandler := handler.NewOwnerHandler(tentRepo, resRepo, itemRepo, accountRepo, chatRepo, bridge)
	reviewHandler := handler.NewReviewHandler(tentRepo, resRepo, reviewRepo)

	e := echo.New()
	e.HideBanner = true

	// Global token-bucket rate limiting and cached responses for the
	// public browse endpoints.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, browseHandler)
	router.RegisterCustomer(e, customerHandler, reviewHandler, cfg.JWTSecret)
	router.RegisterOwner(e, ownerHandler, cfg.JWTSecret)

	// Consume reservation lifecycle events in the background.  The
	// consumer reconnects forever and never takes the server down.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			logrus.WithError(err).Warn("reservation consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")

	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
