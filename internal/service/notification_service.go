package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/observability"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

const (
	defaultOverdueGrace   = 7 * 24 * time.Hour
	defaultNoticeWindow   = 24 * time.Hour
	deadlineNoticeKeyBase = "deadline_notice"
)

// NotificationEnqueuer pushes jobs onto the notification queue.
type NotificationEnqueuer interface {
	Enqueue(ctx context.Context, t models.NotificationType, data models.NotificationData) (string, error)
}

// NotificationService turns activity log events into queued notification jobs.
type NotificationService interface {
	SendActivityLogReminder(ctx context.Context, facilitatorID uint, weekNumber int) (string, error)
	SendDeadlineAlert(ctx context.Context, missed []models.ActivityTracker) ([]string, error)
	NotifyActivityLogSubmission(ctx context.Context, record models.ActivityTracker, submitter models.Facilitator) ([]string, error)
	CheckOverdueActivityLogs(ctx context.Context) (int, error)
	NotifyUpcomingDeadlines(ctx context.Context) (int, error)
}

// NotificationServiceConfig tunes overdue and deadline windows.
type NotificationServiceConfig struct {
	OverdueGrace         time.Duration
	DeadlineNoticeWindow time.Duration
	KeyPrefix            string
}

type notificationService struct {
	trackers  repository.ActivityTrackerRepository
	staff     repository.StaffRepository
	queue     NotificationEnqueuer
	redis     *redis.Client
	grace     time.Duration
	window    time.Duration
	keyPrefix string
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewNotificationService constructs the notification service. redisClient may be nil, which
// disables deadline notice deduplication.
func NewNotificationService(
	trackers repository.ActivityTrackerRepository,
	staff repository.StaffRepository,
	queue NotificationEnqueuer,
	redisClient *redis.Client,
	cfg NotificationServiceConfig,
	logger zerolog.Logger,
) NotificationService {
	grace := cfg.OverdueGrace
	if grace <= 0 {
		grace = defaultOverdueGrace
	}
	window := cfg.DeadlineNoticeWindow
	if window <= 0 {
		window = defaultNoticeWindow
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "notification"
	}

	return &notificationService{
		trackers:  trackers,
		staff:     staff,
		queue:     queue,
		redis:     redisClient,
		grace:     grace,
		window:    window,
		keyPrefix: prefix,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/coursetrack-api/internal/service/notification"),
		logger:    logger.With().Str("component", "notification_service").Logger(),
		now:       time.Now,
	}
}

func (s *notificationService) SendActivityLogReminder(ctx context.Context, facilitatorID uint, weekNumber int) (string, error) {
	return s.sendReminder(ctx, facilitatorID, weekNumber, nil)
}

func (s *notificationService) sendReminder(ctx context.Context, facilitatorID uint, weekNumber int, recordID *uint) (string, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.reminder", trace.WithAttributes(
		attribute.Int64("facilitator.id", int64(facilitatorID)),
		attribute.Int("activity_log.week", weekNumber),
	))
	defer span.End()

	facilitator, err := s.staff.FindFacilitatorByID(spanCtx, facilitatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = fmt.Errorf("%w: id %d", ErrFacilitatorNotFound, facilitatorID)
		}
		span.RecordError(err)
		return "", err
	}

	recipient := s.facilitatorRecipient(facilitator)
	body := fmt.Sprintf(
		"Dear %s,\n\nThis is a reminder to submit your activity log for week %d.\n\nPlease log in to the system to update your activities.",
		s.firstName(facilitator.User, "facilitator"), weekNumber,
	)

	data := models.NotificationData{
		Recipient: recipient,
		Message: models.NotificationMessage{
			Subject:  fmt.Sprintf("Activity Log Reminder - Week %d", weekNumber),
			Body:     body,
			Priority: models.PriorityNormal,
		},
		Reminder: &models.ReminderPayload{
			FacilitatorID: facilitator.ID,
			WeekNumber:    weekNumber,
			RecordID:      recordID,
		},
	}

	return s.enqueue(spanCtx, models.NotificationReminder, data)
}

func (s *notificationService) SendDeadlineAlert(ctx context.Context, missed []models.ActivityTracker) ([]string, error) {
	if len(missed) == 0 {
		return nil, nil
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.deadline_alert", trace.WithAttributes(
		attribute.Int("activity_log.missed", len(missed)),
	))
	defer span.End()

	managers, err := s.staff.ListActiveManagers(spanCtx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ids := make([]uint, 0, len(missed))
	lines := make([]string, 0, len(missed))
	for _, record := range missed {
		ids = append(ids, record.ID)
		lines = append(lines, s.missedLine(record))
	}

	jobIDs := make([]string, 0, len(managers))
	for _, manager := range managers {
		body := fmt.Sprintf(
			"Dear %s,\n\nThere are %d overdue activity logs that require attention.\n\n%s\n\nPlease review the system for details.",
			s.firstName(manager.User, "manager"), len(missed), strings.Join(lines, "\n"),
		)

		data := models.NotificationData{
			Recipient: s.managerRecipient(manager),
			Message: models.NotificationMessage{
				Subject:  "Overdue Activity Logs Alert",
				Body:     body,
				Priority: models.PriorityHigh,
			},
			Alert: &models.AlertPayload{
				Kind:            models.AlertMissedDeadlines,
				ManagerID:       manager.ID,
				MissedCount:     len(missed),
				MissedRecordIDs: ids,
			},
		}

		jobID, err := s.enqueue(spanCtx, models.NotificationAlert, data)
		if err != nil {
			span.RecordError(err)
			return jobIDs, err
		}
		jobIDs = append(jobIDs, jobID)
	}

	return jobIDs, nil
}

func (s *notificationService) NotifyActivityLogSubmission(ctx context.Context, record models.ActivityTracker, submitter models.Facilitator) ([]string, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.submission", trace.WithAttributes(
		attribute.Int64("activity_log.id", int64(record.ID)),
		attribute.Int("activity_log.week", record.WeekNumber),
	))
	defer span.End()

	managers, err := s.staff.ListActiveManagers(spanCtx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	submittedBy := "A facilitator"
	if submitter.User != nil {
		submittedBy = s.clean(submitter.User.FullName())
	}
	courseName := "Course offering"
	if record.CourseOffering != nil {
		courseName = s.clean(record.CourseOffering.DisplayName())
	}

	jobIDs := make([]string, 0, len(managers))
	for _, manager := range managers {
		data := models.NotificationData{
			Recipient: s.managerRecipient(manager),
			Message: models.NotificationMessage{
				Subject:  fmt.Sprintf("Activity Log Submitted - Week %d", record.WeekNumber),
				Body:     fmt.Sprintf("%s submitted the activity log for week %d of %s.", submittedBy, record.WeekNumber, courseName),
				Priority: models.PriorityLow,
			},
			Alert: &models.AlertPayload{
				Kind:        models.AlertSubmission,
				ManagerID:   manager.ID,
				RecordID:    uintPtr(record.ID),
				WeekNumber:  record.WeekNumber,
				CourseName:  courseName,
				SubmittedBy: submittedBy,
				SubmittedAt: record.SubmittedAt,
			},
		}

		jobID, err := s.enqueue(spanCtx, models.NotificationAlert, data)
		if err != nil {
			span.RecordError(err)
			return jobIDs, err
		}
		jobIDs = append(jobIDs, jobID)
	}

	return jobIDs, nil
}

// CheckOverdueActivityLogs reminds facilitators about logs unsubmitted for longer than the
// grace period after their week ended, then alerts every active manager once. It returns the
// number of overdue logs found. A failed reminder is logged and does not stop the batch.
func (s *notificationService) CheckOverdueActivityLogs(ctx context.Context) (int, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.overdue_check")
	defer span.End()

	threshold := s.now().Add(-s.grace)
	records, err := s.trackers.ListOverdue(spanCtx, threshold)
	if err != nil {
		span.RecordError(err)
		observability.OverdueChecks().WithLabelValues("error").Inc()
		return 0, err
	}

	observability.OverdueRecords().Set(float64(len(records)))
	if len(records) == 0 {
		observability.OverdueChecks().WithLabelValues("clean").Inc()
		return 0, nil
	}

	order := make([]uint, 0)
	groups := make(map[uint][]models.ActivityTracker)
	for _, record := range records {
		if _, seen := groups[record.FacilitatorID]; !seen {
			order = append(order, record.FacilitatorID)
		}
		groups[record.FacilitatorID] = append(groups[record.FacilitatorID], record)
	}

	for _, facilitatorID := range order {
		for _, record := range groups[facilitatorID] {
			if _, err := s.sendReminder(spanCtx, facilitatorID, record.WeekNumber, uintPtr(record.ID)); err != nil {
				s.logger.Error().
					Err(err).
					Uint("activity_log_id", record.ID).
					Uint("facilitator_id", facilitatorID).
					Int("week_number", record.WeekNumber).
					Msg("failed to send overdue reminder")
			}
		}
	}

	if _, err := s.SendDeadlineAlert(spanCtx, records); err != nil {
		span.RecordError(err)
		observability.OverdueChecks().WithLabelValues("error").Inc()
		return len(records), err
	}

	observability.OverdueChecks().WithLabelValues("overdue").Inc()
	s.logger.Info().Int("overdue", len(records)).Int("facilitators", len(order)).Msg("overdue activity logs processed")
	return len(records), nil
}

// NotifyUpcomingDeadlines sends one DEADLINE job per unsubmitted log whose week ends within
// the notice window. A Redis marker keeps each log from being noticed twice.
func (s *notificationService) NotifyUpcomingDeadlines(ctx context.Context) (int, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.deadline_notice")
	defer span.End()

	now := s.now()
	records, err := s.trackers.ListDueBetween(spanCtx, now, now.Add(s.window))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	sent := 0
	for _, record := range records {
		claimed, err := s.claimNotice(spanCtx, record.ID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("activity_log_id", record.ID).Msg("failed to claim deadline notice")
			continue
		}
		if !claimed {
			continue
		}

		if _, err := s.sendDeadlineNotice(spanCtx, record); err != nil {
			s.releaseNotice(spanCtx, record.ID)
			s.logger.Error().Err(err).Uint("activity_log_id", record.ID).Msg("failed to send deadline notice")
			continue
		}
		sent++
	}

	return sent, nil
}

func (s *notificationService) sendDeadlineNotice(ctx context.Context, record models.ActivityTracker) (string, error) {
	facilitator := record.Facilitator
	if facilitator == nil {
		found, err := s.staff.FindFacilitatorByID(ctx, record.FacilitatorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", fmt.Errorf("%w: id %d", ErrFacilitatorNotFound, record.FacilitatorID)
			}
			return "", err
		}
		facilitator = &found
	}

	courseName := "your course"
	if record.CourseOffering != nil {
		courseName = s.clean(record.CourseOffering.DisplayName())
	}

	data := models.NotificationData{
		Recipient: s.facilitatorRecipient(*facilitator),
		Message: models.NotificationMessage{
			Subject: fmt.Sprintf("Activity Log Due - Week %d", record.WeekNumber),
			Body: fmt.Sprintf(
				"Dear %s,\n\nThe activity log for week %d of %s is due by %s.\n\nPlease submit it before the deadline.",
				s.firstName(facilitator.User, "facilitator"), record.WeekNumber, courseName,
				record.WeekEndDate.UTC().Format("Mon 02 Jan 2006 15:04 MST"),
			),
			Priority: models.PriorityHigh,
		},
		Deadline: &models.DeadlinePayload{
			RecordID:     record.ID,
			AllocationID: record.AllocationID,
			WeekNumber:   record.WeekNumber,
			WeekEndDate:  record.WeekEndDate,
		},
	}

	return s.enqueue(ctx, models.NotificationDeadline, data)
}

func (s *notificationService) noticeKey(recordID uint) string {
	return s.keyPrefix + ":" + deadlineNoticeKeyBase + ":" + strconv.FormatUint(uint64(recordID), 10)
}

func (s *notificationService) claimNotice(ctx context.Context, recordID uint) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	return s.redis.SetNX(ctx, s.noticeKey(recordID), s.now().UTC().Format(time.RFC3339), 2*s.window).Result()
}

func (s *notificationService) releaseNotice(ctx context.Context, recordID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, s.noticeKey(recordID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("activity_log_id", recordID).Msg("failed to release deadline notice marker")
	}
}

func (s *notificationService) enqueue(ctx context.Context, t models.NotificationType, data models.NotificationData) (string, error) {
	jobID, err := s.queue.Enqueue(ctx, t, data)
	if err != nil {
		return "", err
	}
	observability.NotificationsEnqueued().WithLabelValues(string(t)).Inc()
	s.logger.Debug().Str("job_id", jobID).Str("type", string(t)).Str("to", data.Recipient.Email).Msg("notification queued")
	return jobID, nil
}

func (s *notificationService) missedLine(record models.ActivityTracker) string {
	who := fmt.Sprintf("facilitator #%d", record.FacilitatorID)
	if record.Facilitator != nil && record.Facilitator.User != nil {
		who = s.clean(record.Facilitator.User.FullName())
	}
	course := "Module"
	if record.CourseOffering != nil {
		course = s.clean(record.CourseOffering.DisplayName())
	}
	return fmt.Sprintf("- Week %d - %s (%s)", record.WeekNumber, who, course)
}

func (s *notificationService) facilitatorRecipient(facilitator models.Facilitator) models.Recipient {
	recipient := models.Recipient{ID: facilitator.ID, UserID: facilitator.UserID}
	if facilitator.User != nil {
		recipient.Email = facilitator.User.Email
		recipient.Name = s.clean(facilitator.User.FullName())
	}
	return recipient
}

func (s *notificationService) managerRecipient(manager models.Manager) models.Recipient {
	recipient := models.Recipient{ID: manager.ID, UserID: manager.UserID}
	if manager.User != nil {
		recipient.Email = manager.User.Email
		recipient.Name = s.clean(manager.User.FullName())
	}
	return recipient
}

func (s *notificationService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *notificationService) firstName(user *models.User, fallback string) string {
	if user == nil || strings.TrimSpace(user.FirstName) == "" {
		return fallback
	}
	return s.clean(user.FirstName)
}
