package jobs

import "errors"

var (
	// ErrJobNotFound is returned when the job id does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrSourceMissing is returned when the job has no stored original.
	ErrSourceMissing = errors.New("original video is missing")
	// ErrAlreadyProcessing is returned when a dubbing run already owns the job.
	ErrAlreadyProcessing = errors.New("dubbing is already in progress")
)
