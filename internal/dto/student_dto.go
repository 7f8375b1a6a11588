package dto

import (
	"time"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	CohortID uint   `query:"cohort_id"`
	ClassID  uint   `query:"class_id"`
	Search   string `query:"search" validate:"max=100"`
}

// StudentCreateRequest enrols a student and creates their account.
type StudentCreateRequest struct {
	FirstName     string `json:"first_name" validate:"required,max=100"`
	LastName      string `json:"last_name" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6,max=72"`
	StudentNumber string `json:"student_number" validate:"required,max=50"`
	CohortID      *uint  `json:"cohort_id"`
	ClassID       *uint  `json:"class_id"`
}

// StudentResponse is the API view of a student.
type StudentResponse struct {
	ID            uint      `json:"id"`
	UserID        uint      `json:"user_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	StudentNumber string    `json:"student_number"`
	CohortID      *uint     `json:"cohort_id"`
	CohortName    string    `json:"cohort_name,omitempty"`
	ClassID       *uint     `json:"class_id"`
	ClassCode     string    `json:"class_code,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewStudentResponse converts a student model to DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	response := StudentResponse{
		ID:            model.ID,
		UserID:        model.UserID,
		StudentNumber: model.StudentNumber,
		CohortID:      model.CohortID,
		ClassID:       model.ClassID,
		IsActive:      model.IsActive,
		CreatedAt:     model.CreatedAt,
	}
	if model.User != nil {
		response.FirstName = model.User.FirstName
		response.LastName = model.User.LastName
		response.Email = model.User.Email
	}
	if model.Cohort != nil {
		response.CohortName = model.Cohort.Name
	}
	if model.Class != nil {
		response.ClassCode = model.Class.Code
	}
	return response
}

// StudentListResponse wraps paginated students.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}
