package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dubber/internal/jobs"
	"dubber/internal/logging"
	"dubber/internal/mediastore"
)

// JobStore is the job persistence the handlers use.
type JobStore interface {
	Create(ctx context.Context, sourceMedia, originalName string) (*jobs.Job, error)
	GetByID(ctx context.Context, id int64) (*jobs.Job, error)
	List(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error)
	Delete(ctx context.Context, id int64) error
}

// MediaStore is the file storage the handlers use.
type MediaStore interface {
	SaveOriginal(ctx context.Context, filename string, r io.Reader) (string, error)
	Path(name string) (string, error)
	Exists(name string) bool
	Delete(name string) error
}

// Dispatcher admits dubbing runs.
type Dispatcher interface {
	Start(ctx context.Context, id int64) (jobs.Ticket, error)
}

// ServerConfig wires the handlers to their collaborators.
type ServerConfig struct {
	Store      JobStore
	Media      MediaStore
	Dispatcher Dispatcher
	Health     HealthFunc
	Upload     mediastore.UploadRules
	Token      string
	Logger     *slog.Logger
}

// NewRouter builds the HTTP router.
func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	cfg.Logger = logging.NewComponentLogger(cfg.Logger, "api")

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/api/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Token))

		r.Route("/api/videos", func(r chi.Router) {
			r.Post("/", uploadHandler(cfg))
			r.Get("/", listVideosHandler(cfg))
			r.Get("/{id}", getVideoHandler(cfg))
			r.Delete("/{id}", deleteVideoHandler(cfg))
			r.Get("/{id}/download", downloadHandler(cfg))
		})

		r.Route("/api/dubbing/{id}", func(r chi.Router) {
			r.Post("/start", startDubbingHandler(cfg))
			r.Get("/status", dubbingStatusHandler(cfg))
		})
	})

	return r
}

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}
