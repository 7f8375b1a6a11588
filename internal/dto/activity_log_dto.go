package dto

import (
	"time"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// ActivityLogListRequest defines filters for listing activity logs.
type ActivityLogListRequest struct {
	Page          int    `query:"page"`
	PageSize      int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	FacilitatorID uint   `query:"facilitator_id"`
	AllocationID  uint   `query:"allocation_id"`
	WeekNumber    int    `query:"week_number" validate:"omitempty,min=1,max=52"`
	Status        string `query:"status" validate:"omitempty,oneof=complete incomplete overdue submitted"`
}

// ActivityLogCreateRequest captures a new weekly activity log.
type ActivityLogCreateRequest struct {
	AllocationID        uint      `json:"allocation_id" validate:"required"`
	WeekNumber          int       `json:"week_number" validate:"required,min=1,max=52"`
	WeekStartDate       time.Time `json:"week_start_date" validate:"required"`
	WeekEndDate         time.Time `json:"week_end_date" validate:"required"`
	Attendance          []bool    `json:"attendance"`
	FormativeOneGrading string    `json:"formative_one_grading"`
	FormativeTwoGrading string    `json:"formative_two_grading"`
	SummativeGrading    string    `json:"summative_grading"`
	CourseModeration    string    `json:"course_moderation"`
	IntranetSync        string    `json:"intranet_sync"`
	GradeBookStatus     string    `json:"grade_book_status"`
	Notes               string    `json:"notes" validate:"max=5000"`
}

// ActivityLogUpdateRequest captures partial updates. Submission state cannot be changed here.
type ActivityLogUpdateRequest struct {
	WeekStartDate       *time.Time `json:"week_start_date"`
	WeekEndDate         *time.Time `json:"week_end_date"`
	Attendance          *[]bool    `json:"attendance"`
	FormativeOneGrading *string    `json:"formative_one_grading"`
	FormativeTwoGrading *string    `json:"formative_two_grading"`
	SummativeGrading    *string    `json:"summative_grading"`
	CourseModeration    *string    `json:"course_moderation"`
	IntranetSync        *string    `json:"intranet_sync"`
	GradeBookStatus     *string    `json:"grade_book_status"`
	Notes               *string    `json:"notes" validate:"omitempty,max=5000"`
}

// ActivityLogResponse is the API view of an activity log with derived completion fields.
type ActivityLogResponse struct {
	ID                   uint       `json:"id"`
	AllocationID         uint       `json:"allocation_id"`
	CourseName           string     `json:"course_name,omitempty"`
	FacilitatorID        uint       `json:"facilitator_id"`
	FacilitatorName      string     `json:"facilitator_name,omitempty"`
	WeekNumber           int        `json:"week_number"`
	WeekStartDate        time.Time  `json:"week_start_date"`
	WeekEndDate          time.Time  `json:"week_end_date"`
	Attendance           []bool     `json:"attendance"`
	FormativeOneGrading  string     `json:"formative_one_grading"`
	FormativeTwoGrading  string     `json:"formative_two_grading"`
	SummativeGrading     string     `json:"summative_grading"`
	CourseModeration     string     `json:"course_moderation"`
	IntranetSync         string     `json:"intranet_sync"`
	GradeBookStatus      string     `json:"grade_book_status"`
	Notes                string     `json:"notes"`
	SubmittedAt          *time.Time `json:"submitted_at"`
	CompletionPercentage int        `json:"completion_percentage"`
	IsComplete           bool       `json:"is_complete"`
	IsOverdue            bool       `json:"is_overdue"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewActivityLogResponse converts a tracker, evaluating overdue by its stored dates at now.
func NewActivityLogResponse(model models.ActivityTracker, now time.Time) ActivityLogResponse {
	response := ActivityLogResponse{
		ID:                   model.ID,
		AllocationID:         model.AllocationID,
		FacilitatorID:        model.FacilitatorID,
		WeekNumber:           model.WeekNumber,
		WeekStartDate:        model.WeekStartDate,
		WeekEndDate:          model.WeekEndDate,
		Attendance:           []bool(model.Attendance),
		FormativeOneGrading:  string(model.FormativeOneGrading),
		FormativeTwoGrading:  string(model.FormativeTwoGrading),
		SummativeGrading:     string(model.SummativeGrading),
		CourseModeration:     string(model.CourseModeration),
		IntranetSync:         string(model.IntranetSync),
		GradeBookStatus:      string(model.GradeBookStatus),
		Notes:                model.Notes,
		SubmittedAt:          model.SubmittedAt,
		CompletionPercentage: model.CompletionPercentage(),
		IsComplete:           model.IsComplete(),
		IsOverdue:            model.IsOverdueByStoredDates(now),
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
	if response.Attendance == nil {
		response.Attendance = []bool{}
	}
	if model.CourseOffering != nil {
		response.CourseName = model.CourseOffering.DisplayName()
	}
	if model.Facilitator != nil && model.Facilitator.User != nil {
		response.FacilitatorName = model.Facilitator.User.FullName()
	}
	return response
}

// ActivityLogListResponse wraps paginated activity logs.
type ActivityLogListResponse struct {
	Items      []ActivityLogResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// ActivityLogSummaryRequest filters the dashboard summary.
type ActivityLogSummaryRequest struct {
	FacilitatorID uint `query:"facilitator_id"`
	StartWeek     int  `query:"start_week" validate:"omitempty,min=1,max=52"`
	EndWeek       int  `query:"end_week" validate:"omitempty,min=1,max=52"`
}

// WeeklyBreakdown aggregates task completion for one week number.
type WeeklyBreakdown struct {
	WeekNumber     int       `json:"week_number"`
	WeekStart      time.Time `json:"week_start"`
	WeekEnd        time.Time `json:"week_end"`
	Logs           int       `json:"logs"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
}

// ActivityLogSummaryResponse is the dashboard view. Timeliness uses calendar-derived week bounds.
type ActivityLogSummaryResponse struct {
	TotalLogs         int               `json:"total_logs"`
	CompletedTasks    int               `json:"completed_tasks"`
	PendingTasks      int               `json:"pending_tasks"`
	NotStartedTasks   int               `json:"not_started_tasks"`
	OnTimeSubmissions int               `json:"on_time_submissions"`
	LateSubmissions   int               `json:"late_submissions"`
	OverdueLogs       int               `json:"overdue_logs"`
	AwaitingLogs      int               `json:"awaiting_logs"`
	WeeklyBreakdown   []WeeklyBreakdown `json:"weekly_breakdown"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
