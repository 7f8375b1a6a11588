package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// StaffRepository resolves facilitators and managers with their user accounts.
type StaffRepository interface {
	FindFacilitatorByID(ctx context.Context, id uint) (models.Facilitator, error)
	FindFacilitatorByUserID(ctx context.Context, userID uint) (models.Facilitator, error)
	ListFacilitators(ctx context.Context, activeOnly bool) ([]models.Facilitator, error)
	FindManagerByUserID(ctx context.Context, userID uint) (models.Manager, error)
	ListActiveManagers(ctx context.Context) ([]models.Manager, error)
	CreateFacilitator(ctx context.Context, facilitator *models.Facilitator) error
	CreateManager(ctx context.Context, manager *models.Manager) error
}

type staffRepository struct {
	db *gorm.DB
}

// NewStaffRepository constructs the staff repository.
func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) FindFacilitatorByID(ctx context.Context, id uint) (models.Facilitator, error) {
	var facilitator models.Facilitator
	if err := r.db.WithContext(ctx).Preload("User").First(&facilitator, id).Error; err != nil {
		return models.Facilitator{}, err
	}
	return facilitator, nil
}

func (r *staffRepository) FindFacilitatorByUserID(ctx context.Context, userID uint) (models.Facilitator, error) {
	var facilitator models.Facilitator
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&facilitator).Error; err != nil {
		return models.Facilitator{}, err
	}
	return facilitator, nil
}

func (r *staffRepository) ListFacilitators(ctx context.Context, activeOnly bool) ([]models.Facilitator, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var facilitators []models.Facilitator
	if err := query.Order("id ASC").Find(&facilitators).Error; err != nil {
		return nil, err
	}
	return facilitators, nil
}

func (r *staffRepository) FindManagerByUserID(ctx context.Context, userID uint) (models.Manager, error) {
	var manager models.Manager
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&manager).Error; err != nil {
		return models.Manager{}, err
	}
	return manager, nil
}

// ListActiveManagers returns managers whose profile and user account are both active.
func (r *staffRepository) ListActiveManagers(ctx context.Context) ([]models.Manager, error) {
	var managers []models.Manager
	if err := r.db.WithContext(ctx).
		Select("managers.*").
		Preload("User").
		Joins("JOIN users ON users.id = managers.user_id").
		Where("managers.is_active = ? AND users.is_active = ?", true, true).
		Order("managers.id ASC").
		Find(&managers).Error; err != nil {
		return nil, err
	}
	return managers, nil
}

func (r *staffRepository) CreateFacilitator(ctx context.Context, facilitator *models.Facilitator) error {
	return r.db.WithContext(ctx).Create(facilitator).Error
}

func (r *staffRepository) CreateManager(ctx context.Context, manager *models.Manager) error {
	return r.db.WithContext(ctx).Create(manager).Error
}
