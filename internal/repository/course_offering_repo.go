package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// CourseOfferingFilter narrows course offering queries.
type CourseOfferingFilter struct {
	Page          int
	PageSize      int
	FacilitatorID *uint
	ModuleID      *uint
	CohortID      *uint
	ClassID       *uint
	IntakePeriod  string
	Status        string
	ActiveOnly    bool
}

// CourseOfferingRepository persists course offerings (allocations).
type CourseOfferingRepository interface {
	Create(ctx context.Context, offering *models.CourseOffering) error
	GetByID(ctx context.Context, id uint) (models.CourseOffering, error)
	List(ctx context.Context, filter CourseOfferingFilter) ([]models.CourseOffering, int64, error)
	Update(ctx context.Context, offering *models.CourseOffering) error
	Delete(ctx context.Context, id uint) error
}

type courseOfferingRepository struct {
	db *gorm.DB
}

// NewCourseOfferingRepository constructs the course offering repository.
func NewCourseOfferingRepository(db *gorm.DB) CourseOfferingRepository {
	return &courseOfferingRepository{db: db}
}

func (r *courseOfferingRepository) Create(ctx context.Context, offering *models.CourseOffering) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(offering).Error
}

func (r *courseOfferingRepository) GetByID(ctx context.Context, id uint) (models.CourseOffering, error) {
	var offering models.CourseOffering
	if err := r.db.WithContext(ctx).
		Preload("Module").
		Preload("Cohort").
		Preload("Class").
		Preload("Mode").
		Preload("Facilitator.User").
		First(&offering, id).Error; err != nil {
		return models.CourseOffering{}, err
	}
	return offering, nil
}

func (r *courseOfferingRepository) List(ctx context.Context, filter CourseOfferingFilter) ([]models.CourseOffering, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CourseOffering{})

	if filter.FacilitatorID != nil {
		query = query.Where("facilitator_id = ?", *filter.FacilitatorID)
	}
	if filter.ModuleID != nil {
		query = query.Where("module_id = ?", *filter.ModuleID)
	}
	if filter.CohortID != nil {
		query = query.Where("cohort_id = ?", *filter.CohortID)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.IntakePeriod != "" {
		query = query.Where("intake_period = ?", filter.IntakePeriod)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

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

	var offerings []models.CourseOffering
	if err := query.
		Preload("Module").
		Preload("Cohort").
		Preload("Class").
		Preload("Mode").
		Preload("Facilitator.User").
		Order("start_date DESC, id DESC").
		Find(&offerings).Error; err != nil {
		return nil, 0, err
	}

	return offerings, total, nil
}

func (r *courseOfferingRepository) Update(ctx context.Context, offering *models.CourseOffering) error {
	return r.db.WithContext(ctx).
		Model(offering).
		Select("*").
		Omit(clause.Associations, "created_at", "created_by").
		Updates(offering).Error
}

func (r *courseOfferingRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.CourseOffering{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
