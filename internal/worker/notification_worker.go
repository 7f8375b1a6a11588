package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/observability"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/pkg/mailer"
)

// ErrNotRunning is returned by manual triggers while the worker is stopped.
var ErrNotRunning = errors.New("notification worker is not running")

const (
	laneOverdueCheck   = "overdue-check"
	laneDeadlineNotice = "deadline-notice"

	defaultPollInterval    = 5 * time.Second
	defaultOverdueInterval = time.Hour
	defaultJobTimeout      = 30 * time.Second
)

// Queue is the slice of the notification queue the worker consumes.
type Queue interface {
	Dequeue(ctx context.Context, t models.NotificationType, wait time.Duration) (*models.NotificationJob, error)
	RecordDeliveryStatus(ctx context.Context, jobID, status string, cause error) error
}

// Scheduler runs the periodic activity log scans.
type Scheduler interface {
	CheckOverdueActivityLogs(ctx context.Context) (int, error)
	NotifyUpcomingDeadlines(ctx context.Context) (int, error)
}

// Inbox stores delivered notifications for in-app display.
type Inbox interface {
	Publish(ctx context.Context, msg service.InboxMessage) (dto.NotificationResponse, error)
}

// Options tunes lane schedules.
type Options struct {
	PollInterval    time.Duration
	DequeueWait     time.Duration
	OverdueInterval time.Duration
	JobTimeout      time.Duration
}

// Outcome describes one processed job.
type Outcome struct {
	JobID  string
	Type   models.NotificationType
	Status string
	Err    error
}

// NotificationWorker drains the notification queues and runs the periodic scans.
type NotificationWorker struct {
	queue     Queue
	scheduler Scheduler
	sender    mailer.Sender
	inbox     Inbox
	opts      Options
	logger    zerolog.Logger
	tracer    trace.Tracer

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
	lanes   map[string]bool
}

// NewNotificationWorker constructs a stopped worker. inbox may be nil.
func NewNotificationWorker(queue Queue, scheduler Scheduler, sender mailer.Sender, inbox Inbox, opts Options, logger zerolog.Logger) *NotificationWorker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.OverdueInterval <= 0 {
		opts.OverdueInterval = defaultOverdueInterval
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaultJobTimeout
	}

	return &NotificationWorker{
		queue:     queue,
		scheduler: scheduler,
		sender:    sender,
		inbox:     inbox,
		opts:      opts,
		logger:    logger.With().Str("component", "notification_worker").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/coursetrack-api/internal/worker"),
		lanes:     map[string]bool{},
	}
}

// Start schedules every lane and runs one overdue check immediately.
func (w *NotificationWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.logger.Warn().Msg("notification worker already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cronLog := cronLogger{logger: w.logger}
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	lanes := map[string]bool{}
	for _, t := range models.NotificationTypes() {
		notificationType := t
		scheduler.Schedule(cron.Every(w.opts.PollInterval), cron.FuncJob(func() {
			if _, err := w.processNext(ctx, notificationType); err != nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Str("type", string(notificationType)).Msg("queue poll failed")
			}
		}))
		lanes[string(notificationType)] = true
	}

	scheduler.Schedule(cron.Every(w.opts.OverdueInterval), cron.FuncJob(func() { w.runOverdueCheck(ctx) }))
	lanes[laneOverdueCheck] = true
	scheduler.Schedule(cron.Every(w.opts.OverdueInterval), cron.FuncJob(func() { w.runDeadlineNotice(ctx) }))
	lanes[laneDeadlineNotice] = true

	scheduler.Start()
	w.cron = scheduler
	w.cancel = cancel
	w.lanes = lanes
	w.running = true

	go w.runOverdueCheck(ctx)

	w.logger.Info().
		Dur("poll_interval", w.opts.PollInterval).
		Dur("overdue_interval", w.opts.OverdueInterval).
		Msg("notification worker started")
}

// Stop cancels the schedule. Ticks that already claimed a job or began a scan
// run to completion on a detached context and are not awaited.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		w.logger.Warn().Msg("notification worker is not running")
		return
	}

	w.cancel()
	w.cron.Stop()
	w.cron = nil
	w.cancel = nil
	w.lanes = map[string]bool{}
	w.running = false

	w.logger.Info().Msg("notification worker stopped")
}

// IsRunning reports whether the worker is started.
func (w *NotificationWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Status reports the running flag and each lane.
func (w *NotificationWorker) Status() dto.WorkerStatusResponse {
	w.mu.Lock()
	defer w.mu.Unlock()

	workers := make([]dto.WorkerLaneStatus, 0, len(models.NotificationTypes())+1)
	for _, t := range models.NotificationTypes() {
		workers = append(workers, dto.WorkerLaneStatus{Type: string(t), IsActive: w.lanes[string(t)]})
	}
	workers = append(workers, dto.WorkerLaneStatus{Type: laneDeadlineNotice, IsActive: w.lanes[laneDeadlineNotice]})

	return dto.WorkerStatusResponse{
		IsRunning:          w.running,
		Workers:            workers,
		OverdueCheckActive: w.lanes[laneOverdueCheck],
	}
}

// TriggerOverdueCheck runs one overdue scan on demand.
func (w *NotificationWorker) TriggerOverdueCheck(ctx context.Context) (int, error) {
	if !w.IsRunning() {
		return 0, ErrNotRunning
	}
	return w.scheduler.CheckOverdueActivityLogs(ctx)
}

// ProcessQueue handles at most one job of type t on demand. A nil outcome means the queue was empty.
func (w *NotificationWorker) ProcessQueue(ctx context.Context, t models.NotificationType) (*Outcome, error) {
	if !w.IsRunning() {
		return nil, ErrNotRunning
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownNotificationType, t)
	}
	return w.processNext(ctx, t)
}

func (w *NotificationWorker) processNext(ctx context.Context, t models.NotificationType) (*Outcome, error) {
	job, err := w.queue.Dequeue(ctx, t, w.opts.DequeueWait)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	// claimed jobs finish even after Stop
	outcome := w.handle(context.WithoutCancel(ctx), job)
	return &outcome, nil
}

// handle delivers one job and records its outcome. Failed jobs are not requeued.
func (w *NotificationWorker) handle(ctx context.Context, job *models.NotificationJob) Outcome {
	ctx = observability.WithCorrelationID(ctx, job.CorrelationID)
	jobCtx, cancel := context.WithTimeout(ctx, w.opts.JobTimeout)
	defer cancel()

	spanCtx, span := w.tracer.Start(jobCtx, "worker.process", trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.type", string(job.Type)),
		attribute.String("job.correlation_id", job.CorrelationID),
	))
	defer span.End()

	logger := w.logger.With().
		Str("job_id", job.ID).
		Str("type", string(job.Type)).
		Str("correlation_id", job.CorrelationID).
		Logger()
	outcome := Outcome{JobID: job.ID, Type: job.Type, Status: models.DeliveryDelivered}

	_, sendErr := w.sender.Send(spanCtx, mailer.Message{
		To:       mailer.Address{Name: job.Data.Recipient.Name, Email: job.Data.Recipient.Email},
		Subject:  job.Data.Message.Subject,
		TextBody: job.Data.Message.Body,
	})
	if sendErr != nil {
		outcome.Status = models.DeliveryFailed
		outcome.Err = sendErr
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, "delivery failed")
		logger.Error().Err(sendErr).Str("to", job.Data.Recipient.Email).Msg("notification delivery failed")
	}

	if err := w.queue.RecordDeliveryStatus(spanCtx, job.ID, outcome.Status, sendErr); err != nil {
		logger.Error().Err(err).Str("status", outcome.Status).Msg("failed to record delivery status")
	}
	observability.NotificationsProcessed().WithLabelValues(string(job.Type), outcome.Status).Inc()

	if sendErr != nil {
		return outcome
	}

	if w.inbox != nil && job.Data.Recipient.UserID != 0 {
		if _, err := w.inbox.Publish(spanCtx, service.InboxMessage{
			UserID:   job.Data.Recipient.UserID,
			JobID:    job.ID,
			Type:     string(job.Type),
			Subject:  job.Data.Message.Subject,
			Message:  job.Data.Message.Body,
			Priority: string(job.Data.Message.Priority),
		}); err != nil {
			logger.Warn().Err(err).Msg("failed to publish inbox notification")
		}
	}

	logger.Info().Str("to", job.Data.Recipient.Email).Msg("notification delivered")
	return outcome
}

func (w *NotificationWorker) runOverdueCheck(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	count, err := w.scheduler.CheckOverdueActivityLogs(context.WithoutCancel(ctx))
	if err != nil {
		w.logger.Error().Err(err).Msg("overdue check failed")
		return
	}
	w.logger.Debug().Int("overdue", count).Msg("overdue check finished")
}

func (w *NotificationWorker) runDeadlineNotice(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	sent, err := w.scheduler.NotifyUpcomingDeadlines(context.WithoutCancel(ctx))
	if err != nil {
		w.logger.Error().Err(err).Msg("deadline notice scan failed")
		return
	}
	w.logger.Debug().Int("sent", sent).Msg("deadline notice scan finished")
}
