package models

import "time"

// Intake periods.
const (
	IntakeHT1 = "HT1"
	IntakeHT2 = "HT2"
	IntakeFT  = "FT"
)

// Course offering lifecycle states.
const (
	OfferingStatusPlanned   = "planned"
	OfferingStatusActive    = "active"
	OfferingStatusCompleted = "completed"
	OfferingStatusCancelled = "cancelled"
)

// CourseOffering (allocation) is one scheduled instance of a module taught by a
// facilitator to a cohort and class in a given mode.
type CourseOffering struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ModuleID      uint         `gorm:"not null;index:idx_offering_lookup,priority:1" json:"module_id"`
	Module        *Module      `gorm:"foreignKey:ModuleID" json:"module,omitempty"`
	FacilitatorID uint         `gorm:"not null;index" json:"facilitator_id"`
	Facilitator   *Facilitator `gorm:"foreignKey:FacilitatorID" json:"facilitator,omitempty"`
	CohortID      uint         `gorm:"not null;index:idx_offering_lookup,priority:2" json:"cohort_id"`
	Cohort        *Cohort      `gorm:"foreignKey:CohortID" json:"cohort,omitempty"`
	ClassID       uint         `gorm:"not null;index:idx_offering_lookup,priority:3" json:"class_id"`
	Class         *Class       `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	ModeID        uint         `gorm:"not null" json:"mode_id"`
	Mode          *Mode        `gorm:"foreignKey:ModeID" json:"mode,omitempty"`
	CreatedBy     uint         `gorm:"not null;index" json:"created_by"`
	Creator       *Manager     `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Trimester     string       `gorm:"size:32;not null" json:"trimester"`
	IntakePeriod  string       `gorm:"size:8;not null;index:idx_offering_lookup,priority:4" json:"intake_period"`
	StartDate     time.Time    `gorm:"not null" json:"start_date"`
	EndDate       time.Time    `gorm:"not null" json:"end_date"`
	MaxStudents   int          `gorm:"not null" json:"max_students"`
	Status        string       `gorm:"size:16;not null;default:planned;index" json:"status"`
	Notes         string       `gorm:"type:text" json:"notes"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// DisplayName returns a human readable label, preferring the module name.
func (o CourseOffering) DisplayName() string {
	if o.Module != nil && o.Module.Name != "" {
		if o.Module.Code != "" {
			return o.Module.Code + " " + o.Module.Name
		}
		return o.Module.Name
	}
	return "Course offering"
}
