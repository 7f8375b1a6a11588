package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultJobMaxAttempts is carried on every job. Attempts are never incremented; there is no retry.
const DefaultJobMaxAttempts = 3

// NotificationType selects the queue and the payload variant of a job.
type NotificationType string

// Notification job types.
const (
	NotificationReminder NotificationType = "REMINDER"
	NotificationAlert    NotificationType = "ALERT"
	NotificationDeadline NotificationType = "DEADLINE"
)

// NotificationTypes lists every job type in queue order.
func NotificationTypes() []NotificationType {
	return []NotificationType{NotificationReminder, NotificationAlert, NotificationDeadline}
}

// ErrUnknownNotificationType is returned when a type tag is not recognised.
var ErrUnknownNotificationType = errors.New("unknown notification type")

// ErrPayloadMismatch indicates a job whose payload variant does not match its type tag.
var ErrPayloadMismatch = errors.New("notification payload does not match job type")

// Valid reports whether the type is known.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationReminder, NotificationAlert, NotificationDeadline:
		return true
	default:
		return false
	}
}

// Lower returns the lowercase form used in queue keys.
func (t NotificationType) Lower() string {
	return strings.ToLower(string(t))
}

// ParseNotificationType accepts either case.
func ParseNotificationType(value string) (NotificationType, error) {
	t := NotificationType(strings.ToUpper(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNotificationType, value)
	}
	return t, nil
}

// Priority of a notification message.
type Priority string

// Message priorities.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// AlertKind distinguishes the two alert flavours sent to managers.
type AlertKind string

// Alert kinds.
const (
	AlertSubmission      AlertKind = "submission"
	AlertMissedDeadlines AlertKind = "missed_deadlines"
)

// Recipient identifies who a job is addressed to. ID is the facilitator or manager profile id.
type Recipient struct {
	ID     uint   `json:"id"`
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// NotificationMessage is the rendered content of a job.
type NotificationMessage struct {
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Priority Priority `json:"priority"`
}

// ReminderPayload asks a facilitator to submit a week's activity log.
type ReminderPayload struct {
	FacilitatorID uint  `json:"facilitator_id"`
	WeekNumber    int   `json:"week_number"`
	RecordID      *uint `json:"record_id,omitempty"`
}

// AlertPayload informs a manager about a submission or missed deadlines.
type AlertPayload struct {
	Kind            AlertKind  `json:"kind"`
	ManagerID       uint       `json:"manager_id"`
	RecordID        *uint      `json:"record_id,omitempty"`
	WeekNumber      int        `json:"week_number,omitempty"`
	CourseName      string     `json:"course_name,omitempty"`
	SubmittedBy     string     `json:"submitted_by,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	MissedCount     int        `json:"missed_count,omitempty"`
	MissedRecordIDs []uint     `json:"missed_record_ids,omitempty"`
}

// DeadlinePayload warns a facilitator that a week is about to close.
type DeadlinePayload struct {
	RecordID     uint      `json:"record_id"`
	AllocationID uint      `json:"allocation_id"`
	WeekNumber   int       `json:"week_number"`
	WeekEndDate  time.Time `json:"week_end_date"`
}

// NotificationData carries the recipient, the message and exactly one typed payload.
type NotificationData struct {
	Recipient Recipient           `json:"recipient"`
	Message   NotificationMessage `json:"message"`
	Reminder  *ReminderPayload    `json:"reminder,omitempty"`
	Alert     *AlertPayload       `json:"alert,omitempty"`
	Deadline  *DeadlinePayload    `json:"deadline,omitempty"`
}

// Validate checks that exactly the variant selected by t is set.
func (d NotificationData) Validate(t NotificationType) error {
	set := 0
	for _, present := range []bool{d.Reminder != nil, d.Alert != nil, d.Deadline != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %d payload variants set", ErrPayloadMismatch, set)
	}

	switch t {
	case NotificationReminder:
		if d.Reminder == nil {
			return fmt.Errorf("%w: %s requires reminder payload", ErrPayloadMismatch, t)
		}
	case NotificationAlert:
		if d.Alert == nil {
			return fmt.Errorf("%w: %s requires alert payload", ErrPayloadMismatch, t)
		}
		if d.Alert.Kind != AlertSubmission && d.Alert.Kind != AlertMissedDeadlines {
			return fmt.Errorf("%w: unknown alert kind %q", ErrPayloadMismatch, d.Alert.Kind)
		}
	case NotificationDeadline:
		if d.Deadline == nil {
			return fmt.Errorf("%w: %s requires deadline payload", ErrPayloadMismatch, t)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNotificationType, t)
	}
	return nil
}

// NotificationJob is a queued unit of outbound communication.
type NotificationJob struct {
	ID            string           `json:"id"`
	Type          NotificationType `json:"type"`
	Data          NotificationData `json:"data"`
	Timestamp     time.Time        `json:"timestamp"`
	Attempts      int              `json:"attempts"`
	MaxAttempts   int              `json:"max_attempts"`
	CorrelationID string           `json:"correlation_id,omitempty"`
}

// Delivery status values recorded per job.
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// DeliveryStatus is the terminal outcome of one job.
type DeliveryStatus struct {
	JobID      string    `json:"job_id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
