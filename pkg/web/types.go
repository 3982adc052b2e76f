package web

import (
	"time"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
)

// StateResponse is the dashboard state plus what only the web layer knows.
type StateResponse struct {
	engine.State
	Visible             []leads.Lead         `json:"visible"`
	PendingConfirmation *leads.UsageSnapshot `json:"pending_confirmation,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

type ExportResponse struct {
	JobID  string             `json:"job_id"`
	Format leads.ExportFormat `json:"format"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Mounted   bool      `json:"mounted"`
}
