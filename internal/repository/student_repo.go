package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	Page     int
	PageSize int
	CohortID *uint
	ClassID  *uint
	Search   string
}

// StudentRepository persists student profiles.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs the student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// Create inserts the user account and the profile together.
func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if student.User != nil {
			if err := tx.Create(student.User).Error; err != nil {
				return err
			}
			student.UserID = student.User.ID
		}
		return tx.Omit("User", "Cohort", "Class").Create(student).Error
	})
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("User").Preload("Cohort").Preload("Class").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN users ON users.id = students.user_id")

	if filter.CohortID != nil {
		query = query.Where("students.cohort_id = ?", *filter.CohortID)
	}
	if filter.ClassID != nil {
		query = query.Where("students.class_id = ?", *filter.ClassID)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(students.student_number) LIKE ?", pattern, pattern, pattern, pattern)
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

	var students []models.Student
	if err := query.Select("students.*").Preload("User").Preload("Cohort").Preload("Class").
		Order("students.id ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}
