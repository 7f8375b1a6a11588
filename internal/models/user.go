package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Supported account roles.
const (
	RoleManager     = "manager"
	RoleFacilitator = "facilitator"
	RoleStudent     = "student"
)

// User is an authenticated account. Role-specific data lives on the profile tables.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Role         string     `gorm:"size:32;index;not null" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins the first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Manager is the profile of a user who allocates courses and reviews activity logs.
type Manager struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"uniqueIndex;not null" json:"user_id"`
	User        *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Department  string            `gorm:"size:100" json:"department"`
	Permissions datatypes.JSONMap `json:"permissions"`
	IsActive    bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DefaultManagerPermissions mirrors the capabilities granted to new managers.
func DefaultManagerPermissions() datatypes.JSONMap {
	return datatypes.JSONMap{
		"can_manage_course_allocations": true,
		"can_view_all_activity_logs":    true,
		"can_manage_facilitators":       true,
		"can_generate_reports":          true,
	}
}

// Facilitator is the profile of a user who teaches course offerings and logs weekly activity.
type Facilitator struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	UserID          uint                        `gorm:"uniqueIndex;not null" json:"user_id"`
	User            *User                       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EmployeeID      *string                     `gorm:"size:50;uniqueIndex" json:"employee_id"`
	Department      string                      `gorm:"size:100" json:"department"`
	Specializations datatypes.JSONSlice[string] `json:"specializations"`
	IsActive        bool                        `gorm:"not null;default:true" json:"is_active"`
	HireDate        *time.Time                  `json:"hire_date"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// Student is the profile of an enrolled learner.
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	StudentNumber string    `gorm:"size:50;uniqueIndex;not null" json:"student_number"`
	CohortID      *uint     `gorm:"index" json:"cohort_id"`
	Cohort        *Cohort   `gorm:"foreignKey:CohortID" json:"cohort,omitempty"`
	ClassID       *uint     `gorm:"index" json:"class_id"`
	Class         *Class    `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
