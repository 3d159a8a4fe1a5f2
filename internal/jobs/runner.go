package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"dubber/internal/logging"
	"dubber/internal/mediastore"
	"dubber/internal/pipeline"
	"dubber/internal/services"
)

const defaultSuffix = ".mp4"

// JobStore is the persistence surface the runner needs.
type JobStore interface {
	GetByID(ctx context.Context, id int64) (*Job, error)
	Update(ctx context.Context, job *Job) error
}

// MediaStore is the file storage surface the runner needs.
type MediaStore interface {
	Exists(name string) bool
	Open(name string) (io.ReadCloser, error)
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(name string) error
}

// Pipeline runs the five dubbing stages for one job.
type Pipeline interface {
	Run(ctx context.Context, paths pipeline.Paths) (pipeline.Result, error)
}

// PipelineFactory builds a fresh pipeline from the current settings.
type PipelineFactory func(settings pipeline.Settings, logger *slog.Logger) Pipeline

// SettingsFunc returns the engine settings at the moment a job starts.
type SettingsFunc func() pipeline.Settings

// Runner processes a single job end to end.
type Runner struct {
	store    JobStore
	media    MediaStore
	settings SettingsFunc
	factory  PipelineFactory
	workDir  string
	logger   *slog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithPipelineFactory replaces the orchestrator constructor (used by tests).
func WithPipelineFactory(factory PipelineFactory) RunnerOption {
	return func(r *Runner) {
		if factory != nil {
			r.factory = factory
		}
	}
}

// WithWorkDir sets the parent directory for per-job temp directories.
func WithWorkDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.workDir = strings.TrimSpace(dir)
	}
}

// NewRunner constructs a runner over the given stores.
func NewRunner(store JobStore, media MediaStore, settings SettingsFunc, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings == nil {
		settings = func() pipeline.Settings { return pipeline.Settings{} }
	}
	r := &Runner{
		store:    store,
		media:    media,
		settings: settings,
		factory:  defaultPipelineFactory,
		logger:   logger.With(logging.String(logging.FieldComponent, "runner")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultPipelineFactory(settings pipeline.Settings, logger *slog.Logger) Pipeline {
	return pipeline.New(settings, logger)
}

// Process dubs the job identified by id and records the outcome on the job.
// It never returns an error; failures are reported through the Summary and
// persisted as the job's error message.
func (r *Runner) Process(ctx context.Context, id int64) Summary {
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, r.logger)

	job, err := r.store.GetByID(ctx, id)
	if err != nil {
		logger.Error("job lookup failed", logging.Error(err))
		return Summary{Error: err.Error()}
	}
	if job == nil {
		logger.Warn("job not found",
			logging.String(logging.FieldEventType, "job_not_found"),
			logging.String(logging.FieldErrorHint, "the job may have been deleted before processing"),
			logging.String(logging.FieldImpact, "nothing to dub"),
		)
		return Summary{Error: MessageJobNotFound}
	}

	if job.SourceMedia == "" || !r.media.Exists(job.SourceMedia) {
		r.fail(ctx, logger, job, MessageSourceMissing)
		return Summary{JobID: job.ID, Status: job.Status, Error: MessageSourceMissing}
	}

	started := time.Now()
	logger.Info("dubbing started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source", job.SourceMedia),
	)

	result, output, err := r.dub(ctx, logger, job)
	if err != nil {
		r.fail(ctx, logger, job, err.Error())
		return Summary{JobID: job.ID, Status: job.Status, Error: job.ErrorMessage}
	}

	job.ResultMedia = output
	job.Status = StatusCompleted
	job.ErrorMessage = ""
	job.DetectedLanguage = result.DetectedLanguage
	if err := r.store.Update(ctx, job); err != nil {
		logger.Error("persist completed job failed", logging.Error(err))
		// No job row references the output, so the sweeper would never reach it.
		if rmErr := r.media.Delete(output); rmErr != nil {
			logger.Warn("orphaned dubbed video removal failed",
				logging.String("output", output),
				logging.Error(rmErr),
				logging.String(logging.FieldEventType, "cleanup_failed"),
				logging.String(logging.FieldErrorHint, "remove the file from the media directory manually"),
				logging.String(logging.FieldImpact, "disk space is not reclaimed"),
			)
		}
		return Summary{JobID: job.ID, Status: StatusFailed, Error: err.Error()}
	}

	logger.Info("dubbing completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", output),
		logging.String("detected_language", result.DetectedLanguage),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Summary{JobID: job.ID, Status: job.Status, DetectedLanguage: result.DetectedLanguage}
}

func (r *Runner) dub(ctx context.Context, logger *slog.Logger, job *Job) (pipeline.Result, string, error) {
	settings := r.settings()
	orchestrator := r.factory(settings, logger)

	workDir := r.workDir
	if workDir != "" {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return pipeline.Result{}, "", fmt.Errorf("create work dir: %w", err)
		}
	}
	tempDir, err := os.MkdirTemp(workDir, fmt.Sprintf("dubbing_%d_", job.ID))
	if err != nil {
		return pipeline.Result{}, "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			logger.Warn("temp dir cleanup failed",
				logging.String("path", tempDir),
				logging.Error(rmErr),
				logging.String(logging.FieldEventType, "cleanup_failed"),
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
			)
		}
	}()

	originalName := path.Base(job.SourceMedia)
	suffix := path.Ext(originalName)
	if suffix == "" {
		suffix = defaultSuffix
	}
	paths := pipeline.Paths{
		SourceVideo:    filepath.Join(tempDir, "input"+suffix),
		ExtractedAudio: filepath.Join(tempDir, "extracted.wav"),
		SynthesisAudio: filepath.Join(tempDir, "tts.wav"),
		OutputVideo:    filepath.Join(tempDir, "output"+suffix),
	}

	if err := r.copySource(job.SourceMedia, paths.SourceVideo); err != nil {
		return pipeline.Result{}, "", err
	}

	result, err := orchestrator.Run(ctx, paths)
	if err != nil {
		return pipeline.Result{}, "", err
	}

	stem := strings.TrimSuffix(originalName, path.Ext(originalName))
	outputName := fmt.Sprintf("dubbed_%d_%s%s", job.ID, stem, suffix)
	output, err := r.saveOutput(ctx, paths.OutputVideo, outputName)
	if err != nil {
		return pipeline.Result{}, "", err
	}
	return result, output, nil
}

func (r *Runner) copySource(name, dest string) error {
	src, err := r.media.Open(name)
	if err != nil {
		return fmt.Errorf("open original video: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create input copy: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy original video: %w", err)
	}
	return dst.Close()
}

func (r *Runner) saveOutput(ctx context.Context, outputPath, name string) (string, error) {
	file, err := os.Open(outputPath)
	if err != nil {
		return "", fmt.Errorf("open dubbed output: %w", err)
	}
	defer file.Close()
	stored, err := r.media.Save(ctx, path.Join(mediastore.DubbedPrefix, name), file)
	if err != nil {
		return "", fmt.Errorf("store dubbed video: %w", err)
	}
	return stored, nil
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, job *Job, message string) {
	job.Status = StatusFailed
	job.ErrorMessage = message
	logging.ErrorWithContext(logger, "dubbing failed", "job_failed",
		logging.String("error", message),
	)
	if err := r.store.Update(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("persist failed job failed", logging.Error(err))
	}
}
