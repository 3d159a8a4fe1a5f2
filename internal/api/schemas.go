package api

import (
	"context"
	"time"

	"dubber/internal/deps"
	"dubber/internal/jobs"
	"dubber/internal/preflight"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// VideoResponse describes one job.
type VideoResponse struct {
	ID               int64       `json:"id"`
	OriginalVideo    *string     `json:"original_video"`
	DubbedVideo      *string     `json:"dubbed_video"`
	Status           jobs.Status `json:"status"`
	ErrorMessage     string      `json:"error_message"`
	DetectedLanguage string      `json:"detected_language,omitempty"`
	CreatedAt        string      `json:"created_at"`
	UpdatedAt        string      `json:"updated_at,omitempty"`
}

// StartResponse acknowledges an admitted dubbing run.
type StartResponse struct {
	Message string      `json:"message"`
	TaskID  string      `json:"task_id"`
	VideoID int64       `json:"video_id"`
	Status  jobs.Status `json:"status"`
}

// HealthResponse reports dependency and directory readiness.
type HealthResponse struct {
	Status       string             `json:"status"`
	Dependencies []deps.Status      `json:"dependencies,omitempty"`
	Checks       []preflight.Result `json:"checks,omitempty"`
	Jobs         map[string]int     `json:"jobs,omitempty"`
}

// HealthFunc assembles the health report.
type HealthFunc func(ctx context.Context) HealthResponse

// VideoFromJob converts a job into its public representation.
func VideoFromJob(job *jobs.Job) VideoResponse {
	resp := VideoResponse{
		ID:               job.ID,
		OriginalVideo:    optional(job.SourceMedia),
		DubbedVideo:      optional(job.ResultMedia),
		Status:           job.Status,
		ErrorMessage:     job.ErrorMessage,
		DetectedLanguage: job.DetectedLanguage,
		CreatedAt:        formatTime(job.CreatedAt),
		UpdatedAt:        formatTime(job.UpdatedAt),
	}
	return resp
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
