package dto

import "time"

// ModuleRequest creates or replaces a module.
type ModuleRequest struct {
	Code        string `json:"code" validate:"required,max=32"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Credits     int    `json:"credits" validate:"min=0,max=120"`
	IsActive    *bool  `json:"is_active"`
}

// CohortRequest creates or replaces a cohort.
type CohortRequest struct {
	Name      string     `json:"name" validate:"required,max=100"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IsActive  *bool      `json:"is_active"`
}

// ClassRequest creates or replaces a class.
type ClassRequest struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"is_active"`
}

// ModeRequest creates or replaces a delivery mode.
type ModeRequest struct {
	Name        string `json:"name" validate:"required,oneof=online in-person hybrid"`
	Description string `json:"description" validate:"max=1000"`
}
