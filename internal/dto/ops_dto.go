package dto

import "github.com/noah-isme/coursetrack-api/internal/models"

// WorkerLaneStatus reports one worker lane.
type WorkerLaneStatus struct {
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// WorkerStatusResponse reports the notification worker state.
type WorkerStatusResponse struct {
	IsRunning          bool               `json:"is_running"`
	Workers            []WorkerLaneStatus `json:"workers"`
	OverdueCheckActive bool               `json:"overdue_check_active"`
}

// QueueDepthResponse reports pending jobs per notification type.
type QueueDepthResponse struct {
	Queues map[string]int64 `json:"queues"`
}

// OverdueCheckResponse reports a manual overdue scan.
type OverdueCheckResponse struct {
	OverdueCount int `json:"overdue_count"`
}

// ProcessQueueResponse reports a manual queue drain step.
type ProcessQueueResponse struct {
	Type      string `json:"type"`
	Processed bool   `json:"processed"`
	JobID     string `json:"job_id,omitempty"`
	Status    string `json:"status,omitempty"`
}

// DeliveryStatusResponse wraps a recorded job outcome.
type DeliveryStatusResponse struct {
	models.DeliveryStatus
}
