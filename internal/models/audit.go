package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions.
const (
	AuditActivityLogCreated    = "activity_log.created"
	AuditActivityLogSubmitted  = "activity_log.submitted"
	AuditActivityLogDeleted    = "activity_log.deleted"
	AuditOfferingCreated       = "course_offering.created"
	AuditOfferingUpdated       = "course_offering.updated"
	AuditOfferingDeleted       = "course_offering.deleted"
	AuditOverdueCheckTriggered = "worker.overdue_check_triggered"
)

// AuditEntry captures auditable events triggered by managers and facilitators.
type AuditEntry struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
