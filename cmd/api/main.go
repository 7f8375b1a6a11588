package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/bootstrap"
	"github.com/noah-isme/coursetrack-api/internal/config"
	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/handler"
	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/router"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	container, err := bootstrap.Build(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise dependencies")
	}
	defer container.Close()

	inboxCtx, stopInbox := context.WithCancel(context.Background())
	defer stopInbox()
	container.Inbox.Start(inboxCtx)
	container.Worker.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(container.Auth, middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow), logger),
		ActivityLogHandler:    handler.NewActivityLogHandler(container.ActivityLogs, container.Export, logger),
		CourseOfferingHandler: handler.NewCourseOfferingHandler(container.CourseOfferings, logger),
		ModuleHandler:         handler.NewCatalogHandler[models.Module, dto.ModuleRequest](container.Modules, "module", logger),
		CohortHandler:         handler.NewCatalogHandler[models.Cohort, dto.CohortRequest](container.Cohorts, "cohort", logger),
		ClassHandler:          handler.NewCatalogHandler[models.Class, dto.ClassRequest](container.Classes, "class", logger),
		ModeHandler:           handler.NewCatalogHandler[models.Mode, dto.ModeRequest](container.Modes, "mode", logger),
		StudentHandler:        handler.NewStudentHandler(container.Students, logger),
		InboxHandler:          handler.NewInboxHandler(container.Inbox, logger, 30*time.Second),
		OpsHandler:            handler.NewOpsHandler(container.Worker, container.Queue, logger),
		AuditHandler:          handler.NewAuditHandler(container.Audit, logger),
		SeedHandler:           handler.NewSeedHandler(container.Seed, logger),
		HealthProbes: map[string]handler.HealthProbe{
			"database": func(ctx context.Context) error {
				sqlDB, err := container.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return container.Redis.Ping(ctx).Err()
			},
		},
		QueueDepth:    container.QueueDepth,
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, container, logger)
}

func waitForShutdown(app *fiber.App, container *bootstrap.Container, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutdown signal received")

	container.Worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
