package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/config"
	"github.com/noah-isme/gema-grading-api/internal/database"
	"github.com/noah-isme/gema-grading-api/internal/grading"
	"github.com/noah-isme/gema-grading-api/internal/handler"
	"github.com/noah-isme/gema-grading-api/internal/middleware"
	"github.com/noah-isme/gema-grading-api/internal/repository"
	"github.com/noah-isme/gema-grading-api/internal/router"
	"github.com/noah-isme/gema-grading-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "grading-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	healthChecks := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error { return database.Ping(ctx, db) }),
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	} else {
		logger.Warn().Msg("redis url not configured; progress cache and redis events disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	answerKeys, err := service.NewAnswerKeyValidator()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to compile answer key schemas")
	}

	activityRepo := repository.NewActivityRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	publisher := service.NewAttemptPublisher(redisClient, cfg.EventChannel, natsConn, logger)
	progressCache := service.NewProgressCache(redisClient, cfg.ProgressCacheTTL, logger)
	engine := grading.NewEngine(grading.WithConcurrency(cfg.RegradeConcurrency))

	activityService := service.NewActivityService(activityRepo, validate, answerKeys, auditService, logger)
	attemptService := service.NewAttemptService(activityRepo, attemptRepo, validate, publisher, progressCache, logger)
	reviewService := service.NewReviewService(attemptRepo, validate, auditService, publisher, progressCache, logger)
	regradeService := service.NewRegradeService(activityRepo, attemptRepo, engine, auditService, publisher, progressCache, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    1 << 20,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:      handler.NewActivityHandler(activityService, logger),
		AttemptHandler:       handler.NewAttemptHandler(attemptService, middleware.RateLimit("attempts", cfg.AttemptRateLimit, cfg.AttemptRateWindow), logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, regradeService, logger),
		AdminReviewHandler:   handler.NewAdminReviewHandler(reviewService, logger),
		AdminAuditHandler:    handler.NewAdminAuditHandler(auditService, logger),
		HealthChecks:         healthChecks,
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("starting grading api")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
