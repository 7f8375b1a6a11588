package dto

import (
	"time"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// CourseOfferingListRequest defines filters for listing course offerings.
type CourseOfferingListRequest struct {
	Page          int    `query:"page"`
	PageSize      int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	FacilitatorID uint   `query:"facilitator_id"`
	ModuleID      uint   `query:"module_id"`
	CohortID      uint   `query:"cohort_id"`
	ClassID       uint   `query:"class_id"`
	IntakePeriod  string `query:"intake_period" validate:"omitempty,oneof=HT1 HT2 FT"`
	Status        string `query:"status" validate:"omitempty,oneof=planned active completed cancelled"`
}

// CourseOfferingCreateRequest allocates a module to a facilitator.
type CourseOfferingCreateRequest struct {
	ModuleID      uint      `json:"module_id" validate:"required"`
	FacilitatorID uint      `json:"facilitator_id" validate:"required"`
	CohortID      uint      `json:"cohort_id" validate:"required"`
	ClassID       uint      `json:"class_id" validate:"required"`
	ModeID        uint      `json:"mode_id" validate:"required"`
	Trimester     string    `json:"trimester" validate:"required,max=32"`
	IntakePeriod  string    `json:"intake_period" validate:"required,oneof=HT1 HT2 FT"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	MaxStudents   int       `json:"max_students" validate:"omitempty,min=1,max=1000"`
	Notes         string    `json:"notes" validate:"max=5000"`
}

// CourseOfferingUpdateRequest captures partial updates.
type CourseOfferingUpdateRequest struct {
	FacilitatorID *uint      `json:"facilitator_id"`
	ModeID        *uint      `json:"mode_id"`
	Trimester     *string    `json:"trimester" validate:"omitempty,max=32"`
	IntakePeriod  *string    `json:"intake_period" validate:"omitempty,oneof=HT1 HT2 FT"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	MaxStudents   *int       `json:"max_students" validate:"omitempty,min=1,max=1000"`
	Status        *string    `json:"status" validate:"omitempty,oneof=planned active completed cancelled"`
	Notes         *string    `json:"notes" validate:"omitempty,max=5000"`
	IsActive      *bool      `json:"is_active"`
}

// CourseOfferingResponse is the API view of a course offering.
type CourseOfferingResponse struct {
	ID              uint      `json:"id"`
	DisplayName     string    `json:"display_name"`
	ModuleID        uint      `json:"module_id"`
	FacilitatorID   uint      `json:"facilitator_id"`
	FacilitatorName string    `json:"facilitator_name,omitempty"`
	CohortID        uint      `json:"cohort_id"`
	CohortName      string    `json:"cohort_name,omitempty"`
	ClassID         uint      `json:"class_id"`
	ClassCode       string    `json:"class_code,omitempty"`
	ModeID          uint      `json:"mode_id"`
	ModeName        string    `json:"mode_name,omitempty"`
	Trimester       string    `json:"trimester"`
	IntakePeriod    string    `json:"intake_period"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	MaxStudents     int       `json:"max_students"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes"`
	IsActive        bool      `json:"is_active"`
	CreatedBy       uint      `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewCourseOfferingResponse converts a model to DTO.
func NewCourseOfferingResponse(model models.CourseOffering) CourseOfferingResponse {
	response := CourseOfferingResponse{
		ID:            model.ID,
		DisplayName:   model.DisplayName(),
		ModuleID:      model.ModuleID,
		FacilitatorID: model.FacilitatorID,
		CohortID:      model.CohortID,
		ClassID:       model.ClassID,
		ModeID:        model.ModeID,
		Trimester:     model.Trimester,
		IntakePeriod:  model.IntakePeriod,
		StartDate:     model.StartDate,
		EndDate:       model.EndDate,
		MaxStudents:   model.MaxStudents,
		Status:        model.Status,
		Notes:         model.Notes,
		IsActive:      model.IsActive,
		CreatedBy:     model.CreatedBy,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
	if model.Facilitator != nil && model.Facilitator.User != nil {
		response.FacilitatorName = model.Facilitator.User.FullName()
	}
	if model.Cohort != nil {
		response.CohortName = model.Cohort.Name
	}
	if model.Class != nil {
		response.ClassCode = model.Class.Code
	}
	if model.Mode != nil {
		response.ModeName = model.Mode.Name
	}
	return response
}

// CourseOfferingListResponse wraps paginated offerings.
type CourseOfferingListResponse struct {
	Items      []CourseOfferingResponse `json:"items"`
	Pagination PaginationMeta           `json:"pagination"`
}
