package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"dubber/internal/logging"
	"dubber/internal/services"
)

// ErrDispatcherStopped is returned by Start when no workers are running.
var ErrDispatcherStopped = errors.New("dispatcher is not running")

// DispatchStore is the persistence surface admission needs.
type DispatchStore interface {
	GetByID(ctx context.Context, id int64) (*Job, error)
	MarkProcessing(ctx context.Context, id int64) (*Job, error)
}

// Processor runs an admitted job.
type Processor interface {
	Process(ctx context.Context, id int64) Summary
}

// Ticket acknowledges an admitted job.
type Ticket struct {
	TaskID string `json:"task_id"`
	JobID  int64  `json:"video_id"`
	Status Status `json:"status"`
}

// Dispatcher admits jobs and runs them on a bounded number of workers.
type Dispatcher struct {
	store     DispatchStore
	processor Processor
	logger    *slog.Logger
	slots     chan struct{}

	mu      sync.Mutex
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	onDone func(Ticket, Summary)
}

// NewDispatcher constructs a dispatcher allowing maxConcurrent parallel jobs.
func NewDispatcher(store DispatchStore, processor Processor, maxConcurrent int, logger *slog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		store:     store,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "dispatcher"),
		slots:     make(chan struct{}, maxConcurrent),
	}
}

// OnDone registers a callback invoked after each job finishes.
func (d *Dispatcher) OnDone(fn func(Ticket, Summary)) {
	d.mu.Lock()
	d.onDone = fn
	d.mu.Unlock()
}

// StartWorkers enables dispatch. Jobs run under ctx until Stop is called.
func (d *Dispatcher) StartWorkers(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("dispatcher already running")
	}
	d.baseCtx, d.cancel = context.WithCancel(ctx)
	d.running = true
	d.logger.Info("dispatcher started", logging.Int("max_concurrent_jobs", cap(d.slots)))
	return nil
}

// Stop cancels in-flight jobs and waits for every worker to return.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
}

// Wait blocks until all submitted jobs have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Start admits the job and schedules it exactly once. A job without an
// original is rejected with ErrSourceMissing; a job already processing with
// ErrAlreadyProcessing.
func (d *Dispatcher) Start(ctx context.Context, id int64) (Ticket, error) {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return Ticket{}, ErrDispatcherStopped
	}

	job, err := d.store.GetByID(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	if job == nil {
		return Ticket{}, ErrJobNotFound
	}
	if job.SourceMedia == "" {
		return Ticket{}, ErrSourceMissing
	}
	if job.IsProcessing() {
		return Ticket{}, ErrAlreadyProcessing
	}

	job, err = d.store.MarkProcessing(ctx, id)
	if err != nil {
		return Ticket{}, err
	}

	ticket := Ticket{TaskID: uuid.NewString(), JobID: job.ID, Status: job.Status}
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return Ticket{}, ErrDispatcherStopped
	}
	d.wg.Add(1)
	baseCtx := d.baseCtx
	d.mu.Unlock()
	go d.run(baseCtx, ticket)

	d.logger.Info("dubbing dispatched",
		logging.Int64(logging.FieldJobID, ticket.JobID),
		logging.String("task_id", ticket.TaskID),
		logging.String(logging.FieldEventType, "job_dispatched"),
	)
	return ticket, nil
}

func (d *Dispatcher) run(ctx context.Context, ticket Ticket) {
	defer d.wg.Done()

	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		d.logger.Warn("dispatch cancelled before a worker was free",
			logging.Int64(logging.FieldJobID, ticket.JobID),
			logging.String(logging.FieldEventType, "job_dispatch_cancelled"),
			logging.String(logging.FieldErrorHint, "the job is marked failed on the next daemon start"),
			logging.String(logging.FieldImpact, "job stays in processing"),
		)
		return
	}
	defer func() { <-d.slots }()

	jobCtx := services.WithRequestID(ctx, ticket.TaskID)
	summary := d.processor.Process(jobCtx, ticket.JobID)

	d.mu.Lock()
	onDone := d.onDone
	d.mu.Unlock()
	if onDone != nil {
		onDone(ticket, summary)
	}
}
