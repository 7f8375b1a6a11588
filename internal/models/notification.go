package models

import "time"

// Notification is an in-app inbox entry shown to a single user.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index:idx_notification_user_read,priority:1" json:"user_id"`
	JobID     string     `gorm:"size:96;index" json:"job_id,omitempty"`
	Type      string     `gorm:"size:32;not null" json:"type"`
	Subject   string     `gorm:"size:255" json:"subject"`
	Message   string     `gorm:"type:text" json:"message"`
	Priority  string     `gorm:"size:16;default:normal" json:"priority"`
	Read      bool       `gorm:"not null;default:false;index:idx_notification_user_read,priority:2" json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
