package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"dubber/internal/api"
	"dubber/internal/config"
	"dubber/internal/jobs"
	"dubber/internal/logging"
	"dubber/internal/mediastore"
	"dubber/internal/pipeline"
	"dubber/internal/preflight"
)

// Daemon coordinates the dubbing workers and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *jobs.Store
	media      *mediastore.Store
	dispatcher *jobs.Dispatcher
	sweeper    *jobs.Sweeper
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool                `json:"running"`
	DatabasePath string              `json:"database_path"`
	LockFilePath string              `json:"lock_file_path"`
	APIAddress   string              `json:"api_address,omitempty"`
	Jobs         map[jobs.Status]int `json:"jobs,omitempty"`
}

// Option customizes daemon construction.
type Option func(*options)

type options struct {
	processor jobs.Processor
}

// WithProcessor replaces the pipeline-backed job runner (used by tests).
func WithProcessor(p jobs.Processor) Option {
	return func(o *options) {
		o.processor = p
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, media *mediastore.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || media == nil {
		return nil, errors.New("daemon requires config, job store, and media store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	processor := o.processor
	if processor == nil {
		settings := func() pipeline.Settings { return pipeline.SettingsFromConfig(cfg) }
		processor = jobs.NewRunner(store, media, settings, logger, jobs.WithWorkDir(cfg.Paths.WorkDir))
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		media:      media,
		dispatcher: jobs.NewDispatcher(store, processor, cfg.Workflow.MaxConcurrentJobs, logger),
		sweeper:    jobs.NewSweeper(store, media, cfg.Workflow.RetentionDays, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.dispatcher.OnDone(d.jobFinished)
	d.api = newAPIServer(cfg, api.ServerConfig{
		Store:      store,
		Media:      media,
		Dispatcher: d.dispatcher,
		Health:     d.Health,
		Upload: mediastore.UploadRules{
			AllowedExtensions: cfg.Upload.AllowedExtensions,
			MaxBytes:          cfg.MaxUploadBytes(),
		},
		Token:  cfg.Paths.APIToken,
		Logger: logger,
	}, logger)
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, and launches the
// dispatcher, retention loop, and API listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dubber daemon instance is already running")
	}

	reset, err := d.store.ResetStuckProcessing(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if reset > 0 {
		logging.WarnWithContext(d.logger, "interrupted jobs marked failed", "jobs_recovered",
			logging.Int64("count", reset),
			logging.String(logging.FieldErrorHint, "start dubbing again for the affected videos"),
			logging.String(logging.FieldImpact, "previous runs did not produce a dubbed video"),
		)
	}
	d.logPreflight(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.dispatcher.StartWorkers(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start dispatcher: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.dispatcher.Stop()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.wg.Add(1)
	go d.sweepLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("dubber daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api_address", d.api.address()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop cancels in-flight work and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.dispatcher.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("dubber daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Sweep runs one retention pass immediately.
func (d *Daemon) Sweep(ctx context.Context) (jobs.SweepResult, error) {
	return d.sweeper.Sweep(ctx)
}

// APIAddress returns the bound listener address, or "" when the API is off.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.Jobs = stats
	}
	return status
}

// Health assembles the report served on /api/health.
func (d *Daemon) Health(ctx context.Context) api.HealthResponse {
	resp := api.HealthResponse{
		Status:       "ok",
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
	for _, dep := range resp.Dependencies {
		if !dep.Available && !dep.Optional {
			resp.Status = "degraded"
		}
	}
	if len(preflight.Failed(resp.Checks)) > 0 {
		resp.Status = "degraded"
	}
	if err := d.store.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		return resp
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		resp.Jobs = make(map[string]int, len(stats))
		for status, count := range stats {
			resp.Jobs[string(status)] = count
		}
	}
	return resp
}

func (d *Daemon) sweepLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Workflow.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	d.runSweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runSweep(ctx)
		}
	}
}

func (d *Daemon) runSweep(ctx context.Context) {
	if _, err := d.sweeper.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(d.logger, "retention sweep failed", "retention_sweep_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check job database access"),
			logging.String(logging.FieldImpact, "expired videos are kept until the next sweep"),
		)
	}
}

func (d *Daemon) jobFinished(ticket jobs.Ticket, summary jobs.Summary) {
	attrs := []logging.Attr{
		logging.Int64(logging.FieldJobID, ticket.JobID),
		logging.String("task_id", ticket.TaskID),
		logging.String("status", string(summary.Status)),
		logging.String(logging.FieldEventType, "job_finished"),
	}
	if summary.DetectedLanguage != "" {
		attrs = append(attrs, logging.String("detected_language", summary.DetectedLanguage))
	}
	d.logger.Info("dubbing finished", logging.Args(attrs...)...)
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run dubber deps for details"),
			logging.String(logging.FieldImpact, "dubbing jobs may fail"),
		)
	}
	for _, dep := range preflight.CheckSystemDeps(d.cfg) {
		if dep.Available || dep.Optional {
			continue
		}
		logging.WarnWithContext(d.logger, "dependency missing", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.String("command", dep.Command),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldErrorHint, "install the missing tool or set its path in config"),
			logging.String(logging.FieldImpact, "dubbing jobs will fail"),
		)
	}
}
