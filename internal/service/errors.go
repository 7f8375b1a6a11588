package service

import (
	"errors"
	"strings"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

var (
	// ErrFacilitatorNotFound indicates the facilitator id does not resolve.
	ErrFacilitatorNotFound = errors.New("facilitator not found")
	// ErrManagerNotFound indicates the manager profile does not exist.
	ErrManagerNotFound = errors.New("manager not found")
	// ErrActivityLogNotFound indicates the activity log does not exist.
	ErrActivityLogNotFound = errors.New("activity log not found")
	// ErrActivityLogWeekExists indicates a log already exists for the offering and week.
	ErrActivityLogWeekExists = errors.New("activity log already exists for this week")
	// ErrActivityLogAlreadySubmitted indicates the log has been submitted before.
	ErrActivityLogAlreadySubmitted = errors.New("activity log already submitted")
	// ErrCourseOfferingNotFound indicates the course offering does not exist.
	ErrCourseOfferingNotFound = errors.New("course offering not found")
	// ErrCatalogItemNotFound indicates the module, cohort, class or mode does not exist.
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	// ErrCatalogItemExists indicates a unique code or name is already in use.
	ErrCatalogItemExists = errors.New("catalog item already exists")
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentNumberTaken indicates the student number or email is already registered.
	ErrStudentNumberTaken = errors.New("student number or email already exists")
	// ErrNotificationNotFound indicates the inbox entry does not exist for the user.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrForbidden indicates the actor may not touch the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidDateRange indicates an end date that is not after the start date.
	ErrInvalidDateRange = errors.New("end date must be after start date")
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID        uint
	Role          string
	FacilitatorID *uint
	ManagerID     *uint
}

// IsManager reports whether the actor has the manager role.
func (a Actor) IsManager() bool {
	return strings.EqualFold(a.Role, models.RoleManager)
}

// IsFacilitator reports whether the actor has the facilitator role.
func (a Actor) IsFacilitator() bool {
	return strings.EqualFold(a.Role, models.RoleFacilitator)
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}

func uintPtr(v uint) *uint {
	return &v
}
