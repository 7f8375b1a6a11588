package dto

import (
	"time"

	"github.com/noah-isme/coursetrack-api/internal/models"
)

// NotificationResponse represents an inbox entry returned to clients.
type NotificationResponse struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"user_id"`
	JobID     string     `json:"job_id,omitempty"`
	Type      string     `json:"type"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	Priority  string     `json:"priority"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		JobID:     model.JobID,
		Type:      model.Type,
		Subject:   model.Subject,
		Message:   model.Message,
		Priority:  model.Priority,
		Read:      model.Read,
		ReadAt:    model.ReadAt,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a list of notifications.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewNotificationResponse(item))
	}
	return responses
}

// NotificationListResponse wraps an inbox page with the unread count.
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int64                  `json:"unread_count"`
}
