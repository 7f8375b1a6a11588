package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

const defaultActivityLogPageSize = 20

// ActivityLogService manages weekly activity logs for facilitators and managers.
type ActivityLogService interface {
	List(ctx context.Context, actor Actor, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ActivityLogResponse, error)
	Create(ctx context.Context, actor Actor, req dto.ActivityLogCreateRequest) (dto.ActivityLogResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ActivityLogUpdateRequest) (dto.ActivityLogResponse, error)
	Submit(ctx context.Context, actor Actor, id uint) (dto.ActivityLogResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Summary(ctx context.Context, actor Actor, req dto.ActivityLogSummaryRequest) (dto.ActivityLogSummaryResponse, error)
}

type activityLogService struct {
	trackers      repository.ActivityTrackerRepository
	offerings     repository.CourseOfferingRepository
	staff         repository.StaffRepository
	notifications NotificationService
	audit         AuditRecorder
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	now           func() time.Time
}

// NewActivityLogService constructs the activity log service. notifications and audit may be nil.
func NewActivityLogService(
	trackers repository.ActivityTrackerRepository,
	offerings repository.CourseOfferingRepository,
	staff repository.StaffRepository,
	notifications NotificationService,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ActivityLogService {
	return &activityLogService{
		trackers:      trackers,
		offerings:     offerings,
		staff:         staff,
		notifications: notifications,
		audit:         audit,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "activity_log_service").Logger(),
		now:           time.Now,
	}
}

func (s *activityLogService) List(ctx context.Context, actor Actor, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityLogListResponse{}, err
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultActivityLogPageSize
	}

	now := s.now()
	filter := repository.ActivityTrackerFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   req.Status,
		Now:      now,
	}
	if req.FacilitatorID != 0 {
		filter.FacilitatorID = uintPtr(req.FacilitatorID)
	}
	if req.AllocationID != 0 {
		filter.AllocationID = uintPtr(req.AllocationID)
	}
	if req.WeekNumber != 0 {
		week := req.WeekNumber
		filter.WeekNumber = &week
	}

	if !actor.IsManager() {
		if actor.FacilitatorID == nil {
			return dto.ActivityLogListResponse{}, ErrForbidden
		}
		filter.FacilitatorID = uintPtr(*actor.FacilitatorID)
	}

	records, total, err := s.trackers.List(ctx, filter)
	if err != nil {
		return dto.ActivityLogListResponse{}, err
	}

	items := make([]dto.ActivityLogResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewActivityLogResponse(record, now))
	}

	return dto.ActivityLogListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *activityLogService) Get(ctx context.Context, actor Actor, id uint) (dto.ActivityLogResponse, error) {
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ActivityLogResponse{}, err
	}
	return dto.NewActivityLogResponse(record, s.now()), nil
}

func (s *activityLogService) Create(ctx context.Context, actor Actor, req dto.ActivityLogCreateRequest) (dto.ActivityLogResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityLogResponse{}, err
	}

	offering, err := s.offerings.GetByID(ctx, req.AllocationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityLogResponse{}, ErrCourseOfferingNotFound
		}
		return dto.ActivityLogResponse{}, err
	}
	if !actor.IsManager() && !ownsFacilitator(actor, offering.FacilitatorID) {
		return dto.ActivityLogResponse{}, ErrForbidden
	}

	if _, err := s.trackers.FindByAllocationWeek(ctx, req.AllocationID, req.WeekNumber); err == nil {
		return dto.ActivityLogResponse{}, ErrActivityLogWeekExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ActivityLogResponse{}, err
	}

	record := models.ActivityTracker{
		AllocationID:  offering.ID,
		FacilitatorID: offering.FacilitatorID,
		WeekNumber:    req.WeekNumber,
		WeekStartDate: req.WeekStartDate,
		WeekEndDate:   req.WeekEndDate,
		Attendance:    datatypes.JSONSlice[bool](req.Attendance),
		Notes:         s.sanitizer.Sanitize(req.Notes),
	}
	statuses := map[*models.TaskStatus]string{
		&record.FormativeOneGrading: req.FormativeOneGrading,
		&record.FormativeTwoGrading: req.FormativeTwoGrading,
		&record.SummativeGrading:    req.SummativeGrading,
		&record.CourseModeration:    req.CourseModeration,
		&record.IntranetSync:        req.IntranetSync,
		&record.GradeBookStatus:     req.GradeBookStatus,
	}
	for target, raw := range statuses {
		if err := assignStatus(target, raw); err != nil {
			return dto.ActivityLogResponse{}, err
		}
	}

	if err := s.trackers.Create(ctx, &record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ActivityLogResponse{}, ErrActivityLogWeekExists
		}
		return dto.ActivityLogResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditRecord{
		ActorID:    actor.UserID,
		ActorRole:  normalizeRole(actor.Role),
		Action:     models.AuditActivityLogCreated,
		EntityType: "activity_log",
		EntityID:   uintPtr(record.ID),
		Metadata: map[string]interface{}{
			"allocation_id": record.AllocationID,
			"week_number":   record.WeekNumber,
		},
	})

	return s.Get(ctx, actor, record.ID)
}

func (s *activityLogService) Update(ctx context.Context, actor Actor, id uint, req dto.ActivityLogUpdateRequest) (dto.ActivityLogResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityLogResponse{}, err
	}

	record, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ActivityLogResponse{}, err
	}

	if req.WeekStartDate != nil {
		record.WeekStartDate = *req.WeekStartDate
	}
	if req.WeekEndDate != nil {
		record.WeekEndDate = *req.WeekEndDate
	}
	if req.Attendance != nil {
		record.Attendance = datatypes.JSONSlice[bool](*req.Attendance)
	}
	if req.Notes != nil {
		record.Notes = s.sanitizer.Sanitize(*req.Notes)
	}

	statuses := map[*models.TaskStatus]*string{
		&record.FormativeOneGrading: req.FormativeOneGrading,
		&record.FormativeTwoGrading: req.FormativeTwoGrading,
		&record.SummativeGrading:    req.SummativeGrading,
		&record.CourseModeration:    req.CourseModeration,
		&record.IntranetSync:        req.IntranetSync,
		&record.GradeBookStatus:     req.GradeBookStatus,
	}
	for target, raw := range statuses {
		if raw == nil {
			continue
		}
		status, err := models.ParseTaskStatus(*raw)
		if err != nil {
			return dto.ActivityLogResponse{}, err
		}
		*target = status
	}

	record.CourseOffering = nil
	record.Facilitator = nil
	if err := s.trackers.Update(ctx, &record); err != nil {
		return dto.ActivityLogResponse{}, err
	}

	return s.Get(ctx, actor, id)
}

func (s *activityLogService) Submit(ctx context.Context, actor Actor, id uint) (dto.ActivityLogResponse, error) {
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.ActivityLogResponse{}, err
	}
	if record.IsSubmitted() {
		return dto.ActivityLogResponse{}, ErrActivityLogAlreadySubmitted
	}

	submittedAt := s.now()
	changed, err := s.trackers.MarkSubmitted(ctx, id, submittedAt)
	if err != nil {
		return dto.ActivityLogResponse{}, err
	}
	if !changed {
		return dto.ActivityLogResponse{}, ErrActivityLogAlreadySubmitted
	}

	record, err = s.trackers.GetByID(ctx, id)
	if err != nil {
		return dto.ActivityLogResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditRecord{
		ActorID:    actor.UserID,
		ActorRole:  normalizeRole(actor.Role),
		Action:     models.AuditActivityLogSubmitted,
		EntityType: "activity_log",
		EntityID:   uintPtr(record.ID),
		Metadata: map[string]interface{}{
			"week_number":   record.WeekNumber,
			"allocation_id": record.AllocationID,
		},
	})

	s.notifySubmission(ctx, record)

	s.logger.Info().
		Uint("activity_log_id", record.ID).
		Int("week_number", record.WeekNumber).
		Msg("activity log submitted")

	return dto.NewActivityLogResponse(record, s.now()), nil
}

// notifySubmission alerts managers. Failures are logged; the submission itself stands.
func (s *activityLogService) notifySubmission(ctx context.Context, record models.ActivityTracker) {
	if s.notifications == nil {
		return
	}

	submitter := record.Facilitator
	if submitter == nil {
		facilitator, err := s.staff.FindFacilitatorByID(ctx, record.FacilitatorID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("activity_log_id", record.ID).Msg("failed to resolve submitting facilitator")
			return
		}
		submitter = &facilitator
	}

	if _, err := s.notifications.NotifyActivityLogSubmission(ctx, record, *submitter); err != nil {
		s.logger.Warn().Err(err).Uint("activity_log_id", record.ID).Msg("failed to enqueue submission notification")
	}
}

func (s *activityLogService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsManager() {
		return ErrForbidden
	}

	if err := s.trackers.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityLogNotFound
		}
		return err
	}

	recordAudit(ctx, s.audit, s.logger, AuditRecord{
		ActorID:    actor.UserID,
		ActorRole:  normalizeRole(actor.Role),
		Action:     models.AuditActivityLogDeleted,
		EntityType: "activity_log",
		EntityID:   uintPtr(id),
	})
	return nil
}

func (s *activityLogService) Summary(ctx context.Context, actor Actor, req dto.ActivityLogSummaryRequest) (dto.ActivityLogSummaryResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityLogSummaryResponse{}, err
	}

	filter := repository.ActivityTrackerFilter{ActiveOnly: true}
	if req.FacilitatorID != 0 {
		filter.FacilitatorID = uintPtr(req.FacilitatorID)
	}
	if !actor.IsManager() {
		if actor.FacilitatorID == nil {
			return dto.ActivityLogSummaryResponse{}, ErrForbidden
		}
		filter.FacilitatorID = uintPtr(*actor.FacilitatorID)
	}
	if req.StartWeek != 0 {
		start := req.StartWeek
		filter.WeekFrom = &start
	}
	if req.EndWeek != 0 {
		end := req.EndWeek
		filter.WeekTo = &end
	}

	records, err := s.trackers.ListForSummary(ctx, filter)
	if err != nil {
		return dto.ActivityLogSummaryResponse{}, err
	}

	return summarize(records, s.now()), nil
}

// summarize tallies task states and judges timeliness against calendar-derived week bounds.
func summarize(records []models.ActivityTracker, now time.Time) dto.ActivityLogSummaryResponse {
	summary := dto.ActivityLogSummaryResponse{
		TotalLogs:       len(records),
		WeeklyBreakdown: []dto.WeeklyBreakdown{},
		GeneratedAt:     now,
	}

	weeks := map[int]*dto.WeeklyBreakdown{}
	for _, record := range records {
		for _, status := range record.TaskStatuses() {
			switch status {
			case models.TaskDone:
				summary.CompletedTasks++
			case models.TaskPending:
				summary.PendingTasks++
			default:
				summary.NotStartedTasks++
			}
		}

		start, end := models.ComputedWeekBounds(record.WeekNumber, now)
		switch {
		case record.SubmittedAt != nil && !record.SubmittedAt.After(end):
			summary.OnTimeSubmissions++
		case record.SubmittedAt != nil:
			summary.LateSubmissions++
		case record.IsOverdueByComputedWeek(now):
			summary.OverdueLogs++
		default:
			summary.AwaitingLogs++
		}

		week, ok := weeks[record.WeekNumber]
		if !ok {
			week = &dto.WeeklyBreakdown{WeekNumber: record.WeekNumber, WeekStart: start, WeekEnd: end}
			weeks[record.WeekNumber] = week
		}
		week.Logs++
		week.TotalTasks += len(record.TaskStatuses())
		week.CompletedTasks += record.DoneCount()
	}

	for _, week := range weeks {
		summary.WeeklyBreakdown = append(summary.WeeklyBreakdown, *week)
	}
	sort.Slice(summary.WeeklyBreakdown, func(i, j int) bool {
		return summary.WeeklyBreakdown[i].WeekNumber < summary.WeeklyBreakdown[j].WeekNumber
	})

	return summary
}

func (s *activityLogService) load(ctx context.Context, actor Actor, id uint) (models.ActivityTracker, error) {
	record, err := s.trackers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ActivityTracker{}, ErrActivityLogNotFound
		}
		return models.ActivityTracker{}, err
	}
	if !actor.IsManager() && !ownsFacilitator(actor, record.FacilitatorID) {
		return models.ActivityTracker{}, ErrForbidden
	}
	return record, nil
}

func ownsFacilitator(actor Actor, facilitatorID uint) bool {
	return actor.IsFacilitator() && actor.FacilitatorID != nil && *actor.FacilitatorID == facilitatorID
}

func assignStatus(target *models.TaskStatus, raw string) error {
	if raw == "" {
		*target = models.TaskNotStarted
		return nil
	}
	status, err := models.ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*target = status
	return nil
}
