package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Week numbering bounds for activity logs.
const (
	MinWeekNumber = 1
	MaxWeekNumber = 52
)

// weekRangeTolerance absorbs sub-second noise from clients serialising dates.
const weekRangeTolerance = time.Second

var (
	// ErrInvalidWeekNumber indicates a week number outside 1..52.
	ErrInvalidWeekNumber = errors.New("week number must be between 1 and 52")
	// ErrInvalidTaskStatus indicates a task status outside the supported enum.
	ErrInvalidTaskStatus = errors.New("invalid task status")
	// ErrInvalidWeekRange indicates the week end date is not exactly seven days after the start.
	ErrInvalidWeekRange = errors.New("week end date must be seven days after the week start date")
)

// TaskStatus tracks progress of one weekly task.
type TaskStatus string

// Task statuses.
const (
	TaskNotStarted TaskStatus = "Not Started"
	TaskPending    TaskStatus = "Pending"
	TaskDone       TaskStatus = "Done"
)

// Valid reports whether the status is one of the supported values.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNotStarted, TaskPending, TaskDone:
		return true
	default:
		return false
	}
}

// ParseTaskStatus converts raw input into a TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	status := TaskStatus(strings.TrimSpace(value))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskStatus, value)
	}
	return status, nil
}

// ActivityTracker is one facilitator's weekly task checklist for one course offering.
type ActivityTracker struct {
	ID                  uint                      `gorm:"primaryKey" json:"id"`
	AllocationID        uint                      `gorm:"not null;uniqueIndex:idx_activity_allocation_week,priority:1" json:"allocation_id"`
	CourseOffering      *CourseOffering           `gorm:"foreignKey:AllocationID" json:"course_offering,omitempty"`
	FacilitatorID       uint                      `gorm:"not null;index:idx_activity_facilitator_week,priority:1" json:"facilitator_id"`
	Facilitator         *Facilitator              `gorm:"foreignKey:FacilitatorID" json:"facilitator,omitempty"`
	WeekNumber          int                       `gorm:"not null;uniqueIndex:idx_activity_allocation_week,priority:2;index:idx_activity_facilitator_week,priority:2" json:"week_number"`
	WeekStartDate       time.Time                 `gorm:"not null;index:idx_activity_week_dates,priority:1" json:"week_start_date"`
	WeekEndDate         time.Time                 `gorm:"not null;index:idx_activity_week_dates,priority:2" json:"week_end_date"`
	Attendance          datatypes.JSONSlice[bool] `json:"attendance"`
	FormativeOneGrading TaskStatus                `gorm:"size:16;not null;default:'Not Started'" json:"formative_one_grading"`
	FormativeTwoGrading TaskStatus                `gorm:"size:16;not null;default:'Not Started'" json:"formative_two_grading"`
	SummativeGrading    TaskStatus                `gorm:"size:16;not null;default:'Not Started'" json:"summative_grading"`
	CourseModeration    TaskStatus                `gorm:"size:16;not null;default:'Not Started'" json:"course_moderation"`
	IntranetSync        TaskStatus                `gorm:"size:16;not null;default:'Not Started'" json:"intranet_sync"`
	GradeBookStatus     TaskStatus                `gorm:"size:16;not null;default:'Not Started'" json:"grade_book_status"`
	SubmittedAt         *time.Time                `gorm:"index" json:"submitted_at"`
	Notes               string                    `gorm:"type:text" json:"notes"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// BeforeSave normalises defaults and rejects records that break the tracker invariants.
func (a *ActivityTracker) BeforeSave(tx *gorm.DB) error {
	a.ApplyDefaults()
	return a.Validate()
}

// ApplyDefaults fills unset statuses and attendance and stores dates in UTC.
func (a *ActivityTracker) ApplyDefaults() {
	for _, field := range a.statusFields() {
		if *field.value == "" {
			*field.value = TaskNotStarted
		}
	}
	if a.Attendance == nil {
		a.Attendance = datatypes.JSONSlice[bool]{}
	}
	a.WeekStartDate = a.WeekStartDate.UTC()
	a.WeekEndDate = a.WeekEndDate.UTC()
}

// Validate checks week bounds, the task status enum and the week date range.
func (a *ActivityTracker) Validate() error {
	if a.WeekNumber < MinWeekNumber || a.WeekNumber > MaxWeekNumber {
		return fmt.Errorf("%w: got %d", ErrInvalidWeekNumber, a.WeekNumber)
	}

	for _, field := range a.statusFields() {
		if !field.value.Valid() {
			return fmt.Errorf("%w: %s=%q", ErrInvalidTaskStatus, field.name, string(*field.value))
		}
	}

	if !a.WeekEndDate.After(a.WeekStartDate) {
		return ErrInvalidWeekRange
	}

	drift := a.WeekEndDate.Sub(a.WeekStartDate.AddDate(0, 0, 7))
	if drift < 0 {
		drift = -drift
	}
	if drift > weekRangeTolerance {
		return ErrInvalidWeekRange
	}

	return nil
}

type statusField struct {
	name  string
	value *TaskStatus
}

func (a *ActivityTracker) statusFields() []statusField {
	return []statusField{
		{name: "formative_one_grading", value: &a.FormativeOneGrading},
		{name: "formative_two_grading", value: &a.FormativeTwoGrading},
		{name: "summative_grading", value: &a.SummativeGrading},
		{name: "course_moderation", value: &a.CourseModeration},
		{name: "intranet_sync", value: &a.IntranetSync},
		{name: "grade_book_status", value: &a.GradeBookStatus},
	}
}
