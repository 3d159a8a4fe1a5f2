package jobs

import "time"

// Status describes where a job is in its lifecycle.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Messages recorded on jobs by the runner and the daemon.
const (
	MessageJobNotFound   = "Job not found"
	MessageSourceMissing = "Original video is missing"
	MessageInterrupted   = "Dubbing was interrupted"
)

// Job is a persisted dubbing request.
type Job struct {
	ID               int64     `json:"id"`
	SourceMedia      string    `json:"original_video"`
	OriginalName     string    `json:"original_name,omitempty"`
	ResultMedia      string    `json:"dubbed_video"`
	Status           Status    `json:"status"`
	ErrorMessage     string    `json:"error_message"`
	DetectedLanguage string    `json:"detected_language"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsTerminal reports whether the job finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// IsProcessing reports whether a dubbing run currently owns the job.
func (j *Job) IsProcessing() bool {
	return j.Status == StatusProcessing
}

// ParseStatus maps a user-supplied value onto a known status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusUploaded, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(value), true
	default:
		return "", false
	}
}

// AllStatuses lists statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusUploaded, StatusProcessing, StatusCompleted, StatusFailed}
}

// Summary is the outcome of one Runner.Process call.
type Summary struct {
	JobID            int64  `json:"video_id,omitempty"`
	Status           Status `json:"status,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	Error            string `json:"error,omitempty"`
}
