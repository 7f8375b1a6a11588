package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// Activity tracker status filters.
const (
	TrackerStatusComplete   = "complete"
	TrackerStatusIncomplete = "incomplete"
	TrackerStatusOverdue    = "overdue"
	TrackerStatusSubmitted  = "submitted"
)

const allTasksDone = "formative_one_grading = ? AND formative_two_grading = ? AND summative_grading = ? AND course_moderation = ? AND intranet_sync = ? AND grade_book_status = ?"

// ActivityTrackerFilter narrows activity log queries.
type ActivityTrackerFilter struct {
	Page          int
	PageSize      int
	FacilitatorID *uint
	AllocationID  *uint
	WeekNumber    *int
	WeekFrom      *int
	WeekTo        *int
	Status        string
	ActiveOnly    bool
	Now           time.Time
}

// ActivityTrackerRepository persists weekly activity logs.
type ActivityTrackerRepository interface {
	Create(ctx context.Context, tracker *models.ActivityTracker) error
	BulkCreate(ctx context.Context, trackers []models.ActivityTracker) error
	GetByID(ctx context.Context, id uint) (models.ActivityTracker, error)
	FindByAllocationWeek(ctx context.Context, allocationID uint, weekNumber int) (models.ActivityTracker, error)
	List(ctx context.Context, filter ActivityTrackerFilter) ([]models.ActivityTracker, int64, error)
	ListForSummary(ctx context.Context, filter ActivityTrackerFilter) ([]models.ActivityTracker, error)
	Update(ctx context.Context, tracker *models.ActivityTracker) error
	MarkSubmitted(ctx context.Context, id uint, at time.Time) (bool, error)
	Delete(ctx context.Context, id uint) error
	ListOverdue(ctx context.Context, threshold time.Time) ([]models.ActivityTracker, error)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.ActivityTracker, error)
}

type activityTrackerRepository struct {
	db *gorm.DB
}

// NewActivityTrackerRepository constructs the activity tracker repository.
func NewActivityTrackerRepository(db *gorm.DB) ActivityTrackerRepository {
	return &activityTrackerRepository{db: db}
}

func (r *activityTrackerRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("CourseOffering.Module").
		Preload("CourseOffering.Cohort").
		Preload("CourseOffering.Class").
		Preload("Facilitator.User")
}

func (r *activityTrackerRepository) Create(ctx context.Context, tracker *models.ActivityTracker) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(tracker).Error
}

func (r *activityTrackerRepository) BulkCreate(ctx context.Context, trackers []models.ActivityTracker) error {
	if len(trackers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(&trackers).Error
	})
}

func (r *activityTrackerRepository) GetByID(ctx context.Context, id uint) (models.ActivityTracker, error) {
	var tracker models.ActivityTracker
	if err := r.withRelations(ctx).First(&tracker, id).Error; err != nil {
		return models.ActivityTracker{}, err
	}
	return tracker, nil
}

func (r *activityTrackerRepository) FindByAllocationWeek(ctx context.Context, allocationID uint, weekNumber int) (models.ActivityTracker, error) {
	var tracker models.ActivityTracker
	if err := r.db.WithContext(ctx).
		Where("allocation_id = ? AND week_number = ?", allocationID, weekNumber).
		First(&tracker).Error; err != nil {
		return models.ActivityTracker{}, err
	}
	return tracker, nil
}

func (r *activityTrackerRepository) applyFilter(query *gorm.DB, filter ActivityTrackerFilter) *gorm.DB {
	if filter.FacilitatorID != nil {
		query = query.Where("facilitator_id = ?", *filter.FacilitatorID)
	}
	if filter.AllocationID != nil {
		query = query.Where("allocation_id = ?", *filter.AllocationID)
	}
	if filter.WeekNumber != nil {
		query = query.Where("week_number = ?", *filter.WeekNumber)
	}
	if filter.WeekFrom != nil {
		query = query.Where("week_number >= ?", *filter.WeekFrom)
	}
	if filter.WeekTo != nil {
		query = query.Where("week_number <= ?", *filter.WeekTo)
	}
	if filter.ActiveOnly {
		active := r.db.Model(&models.CourseOffering{}).Select("id").Where("is_active = ?", true)
		query = query.Where("allocation_id IN (?)", active)
	}

	done := []interface{}{models.TaskDone, models.TaskDone, models.TaskDone, models.TaskDone, models.TaskDone, models.TaskDone}
	switch filter.Status {
	case TrackerStatusComplete:
		query = query.Where(allTasksDone, done...)
	case TrackerStatusIncomplete:
		query = query.Where("NOT ("+allTasksDone+")", done...)
	case TrackerStatusOverdue:
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		query = query.Where("submitted_at IS NULL AND week_end_date < ?", now.UTC())
	case TrackerStatusSubmitted:
		query = query.Where("submitted_at IS NOT NULL")
	}
	return query
}

func (r *activityTrackerRepository) List(ctx context.Context, filter ActivityTrackerFilter) ([]models.ActivityTracker, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ActivityTracker{}), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var trackers []models.ActivityTracker
	if err := query.
		Preload("CourseOffering.Module").
		Preload("Facilitator.User").
		Order("week_number DESC, id DESC").
		Find(&trackers).Error; err != nil {
		return nil, 0, err
	}

	return trackers, total, nil
}

func (r *activityTrackerRepository) ListForSummary(ctx context.Context, filter ActivityTrackerFilter) ([]models.ActivityTracker, error) {
	var trackers []models.ActivityTracker
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ActivityTracker{}), filter).
		Order("week_number ASC, id ASC").
		Find(&trackers).Error; err != nil {
		return nil, err
	}
	return trackers, nil
}

// Update saves every column except the submission timestamp.
func (r *activityTrackerRepository) Update(ctx context.Context, tracker *models.ActivityTracker) error {
	return r.db.WithContext(ctx).
		Model(tracker).
		Select("*").
		Omit(clause.Associations, "submitted_at", "created_at").
		Updates(tracker).Error
}

// MarkSubmitted sets submitted_at only if it is still empty. It reports whether a row changed.
func (r *activityTrackerRepository) MarkSubmitted(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ActivityTracker{}).
		Where("id = ? AND submitted_at IS NULL", id).
		UpdateColumn("submitted_at", at.UTC())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *activityTrackerRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ActivityTracker{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *activityTrackerRepository) ListOverdue(ctx context.Context, threshold time.Time) ([]models.ActivityTracker, error) {
	var trackers []models.ActivityTracker
	if err := r.db.WithContext(ctx).
		Preload("CourseOffering.Module").
		Preload("Facilitator.User").
		Where("submitted_at IS NULL AND week_end_date < ?", threshold.UTC()).
		Order("week_end_date ASC, id ASC").
		Find(&trackers).Error; err != nil {
		return nil, err
	}
	return trackers, nil
}

func (r *activityTrackerRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]models.ActivityTracker, error) {
	var trackers []models.ActivityTracker
	if err := r.db.WithContext(ctx).
		Preload("CourseOffering.Module").
		Preload("Facilitator.User").
		Where("submitted_at IS NULL AND week_end_date >= ? AND week_end_date < ?", from.UTC(), to.UTC()).
		Order("week_end_date ASC, id ASC").
		Find(&trackers).Error; err != nil {
		return nil, err
	}
	return trackers, nil
}
