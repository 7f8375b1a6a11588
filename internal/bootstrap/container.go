package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/config"
	"github.com/noah-isme/coursetrack-api/internal/database"
	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/queue"
	"github.com/noah-isme/coursetrack-api/internal/repository"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/internal/worker"
	"github.com/noah-isme/coursetrack-api/pkg/mailer"
)

// Container holds the wired dependency graph shared by the API server and the ops CLI.
type Container struct {
	Config config.Config
	Logger zerolog.Logger

	DB    *gorm.DB
	Redis *redis.Client
	NATS  *nats.Conn

	Queue  *queue.NotificationQueue
	Mailer mailer.Sender
	Worker *worker.NotificationWorker

	Auth            service.AuthService
	ActivityLogs    service.ActivityLogService
	Export          service.ExportService
	CourseOfferings service.CourseOfferingService
	Modules         service.CatalogService[models.Module, dto.ModuleRequest]
	Cohorts         service.CatalogService[models.Cohort, dto.CohortRequest]
	Classes         service.CatalogService[models.Class, dto.ClassRequest]
	Modes           service.CatalogService[models.Mode, dto.ModeRequest]
	Students        service.StudentService
	Notifications   service.NotificationService
	Inbox           service.InboxService
	Audit           service.AuditService
	Seed            service.SeedService

	closers []func()
}

// Build connects to every backing store and constructs the services. The worker is built but not started.
func Build(cfg config.Config, logger zerolog.Logger) (*Container, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database url must be provided")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	c, err := Wire(cfg, logger, db, redisClient, natsConn)
	if err != nil {
		_ = redisClient.Close()
		if natsConn != nil {
			natsConn.Close()
		}
		return nil, err
	}

	c.closers = append(c.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, func() { _ = redisClient.Close() })
	if natsConn != nil {
		c.closers = append(c.closers, natsConn.Close)
	}
	return c, nil
}

// Wire constructs the services over already opened connections. natsConn may be nil.
func Wire(cfg config.Config, logger zerolog.Logger, db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) (*Container, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	notificationQueue, err := queue.New(redisClient, queue.Options{
		Prefix:      cfg.QueuePrefix,
		StatusTTL:   cfg.DeliveryStatusTTL,
		MaxAttempts: cfg.JobMaxAttempts,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification queue: %w", err)
	}

	sender, err := mailer.New(mailer.Config{
		Provider:     cfg.MailProvider,
		FromAddress:  cfg.MailFromAddress,
		FromName:     cfg.MailFromName,
		SendGridKey:  cfg.SendgridAPIKey,
		SendGridHost: cfg.SendgridHost,
		Timeout:      cfg.MailTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}

	trackers := repository.NewActivityTrackerRepository(db)
	offerings := repository.NewCourseOfferingRepository(db)
	staff := repository.NewStaffRepository(db)
	users := repository.NewUserRepository(db)
	modules := repository.NewCatalogRepository[models.Module](db, "code ASC")

	audit := service.NewAuditService(repository.NewAuditRepository(db), logger)
	notifications := service.NewNotificationService(trackers, staff, notificationQueue, redisClient, service.NotificationServiceConfig{
		OverdueGrace:         cfg.OverdueGrace,
		DeadlineNoticeWindow: cfg.DeadlineNoticeWindow,
		KeyPrefix:            cfg.QueuePrefix,
	}, logger)
	inbox := service.NewInboxService(repository.NewNotificationRepository(db), redisClient, cfg.QueuePrefix, natsConn, logger)

	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  redisClient,
		NATS:   natsConn,
		Queue:  notificationQueue,
		Mailer: sender,

		Auth:            service.NewAuthService(users, staff, validate, cfg.JWTSecret, cfg.JWTTTL, logger),
		ActivityLogs:    service.NewActivityLogService(trackers, offerings, staff, notifications, audit, validate, logger),
		Export:          service.NewExportService(trackers, logger),
		CourseOfferings: service.NewCourseOfferingService(offerings, modules, staff, audit, validate, logger),
		Modules:         service.NewModuleService(modules, validate, logger),
		Cohorts:         service.NewCohortService(repository.NewCatalogRepository[models.Cohort](db, "name ASC"), validate, logger),
		Classes:         service.NewClassService(repository.NewCatalogRepository[models.Class](db, "code ASC"), validate, logger),
		Modes:           service.NewModeService(repository.NewCatalogRepository[models.Mode](db, "name ASC"), validate, logger),
		Students:        service.NewStudentService(repository.NewStudentRepository(db), users, validate, logger),
		Notifications:   notifications,
		Inbox:           inbox,
		Audit:           audit,
		Seed:            service.NewSeedService(users, cfg.SeedEnabled, cfg.SeedToken, logger),
	}

	c.Worker = worker.NewNotificationWorker(notificationQueue, notifications, sender, inbox, worker.Options{
		PollInterval:    cfg.QueuePollInterval,
		DequeueWait:     cfg.QueueDequeueWait,
		OverdueInterval: cfg.OverdueInterval,
		JobTimeout:      cfg.MailTimeout,
	}, logger)

	return c, nil
}

// QueueDepth reports waiting jobs keyed by notification type, for the metrics endpoint.
func (c *Container) QueueDepth(ctx context.Context) (map[string]int64, error) {
	lengths, err := c.Queue.Lengths(ctx)
	if err != nil {
		return nil, err
	}
	depths := make(map[string]int64, len(lengths))
	for t, n := range lengths {
		depths[string(t)] = n
	}
	return depths, nil
}

// Close releases the connections opened by Build, newest first. Wire-built containers own nothing.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
