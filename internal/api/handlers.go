package api

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dubber/internal/jobs"
	"dubber/internal/logging"
	"dubber/internal/mediastore"
	"dubber/internal/services"
)

// Public error messages.
const (
	msgVideoNotFound     = "Video not found"
	msgSourceMissing     = "Original video is missing"
	msgAlreadyProcessing = "Dubbing is already in progress"
	msgFileNotSent       = "Video file was not sent"
	msgDubbedUnavailable = "Dubbed video is not available yet"
	msgDubbingStarted    = "Dubbing started"
)

// multipart bodies carry boundaries and headers on top of the file itself
const multipartOverhead = 1 << 20

func uploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Upload.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.Upload.MaxBytes+multipartOverhead)
		}
		file, header, err := r.FormFile("video")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				WriteError(w, http.StatusBadRequest, mediastore.TooLarge(cfg.Upload.MaxBytes).Error())
				return
			}
			WriteError(w, http.StatusBadRequest, msgFileNotSent)
			return
		}
		defer file.Close()

		if err := mediastore.ValidateUpload(header.Filename, header.Size, cfg.Upload); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		name, err := cfg.Media.SaveOriginal(r.Context(), header.Filename, file)
		if err != nil {
			serverError(w, r, cfg, "store upload failed", err)
			return
		}
		job, err := cfg.Store.Create(r.Context(), name, header.Filename)
		if err != nil {
			_ = cfg.Media.Delete(name)
			serverError(w, r, cfg, "create job failed", err)
			return
		}
		logging.WithContext(r.Context(), cfg.Logger).Info("video uploaded",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("original_name", header.Filename),
			logging.Int64("size_bytes", header.Size),
			logging.String(logging.FieldEventType, "video_uploaded"),
		)
		WriteJSON(w, http.StatusCreated, VideoFromJob(job))
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []jobs.Status
		for _, value := range r.URL.Query()["status"] {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			status, ok := jobs.ParseStatus(trimmed)
			if !ok {
				WriteError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(trimmed))
				return
			}
			statuses = append(statuses, status)
		}

		list, err := cfg.Store.List(r.Context(), statuses...)
		if err != nil {
			serverError(w, r, cfg, "list jobs failed", err)
			return
		}
		resp := make([]VideoResponse, 0, len(list))
		for _, job := range list {
			resp = append(resp, VideoFromJob(job))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := lookupJob(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, VideoFromJob(job))
	}
}

func dubbingStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return getVideoHandler(cfg)
}

func deleteVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := lookupJob(w, r, cfg)
		if !ok {
			return
		}
		if err := jobs.DeleteJob(r.Context(), cfg.Store, cfg.Media, job); err != nil {
			serverError(w, r, cfg, "delete job failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func downloadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := lookupJob(w, r, cfg)
		if !ok {
			return
		}
		if job.ResultMedia == "" || !cfg.Media.Exists(job.ResultMedia) {
			WriteError(w, http.StatusBadRequest, msgDubbedUnavailable)
			return
		}
		location, err := cfg.Media.Path(job.ResultMedia)
		if err != nil {
			serverError(w, r, cfg, "resolve dubbed video failed", err)
			return
		}
		file, err := os.Open(location)
		if err != nil {
			serverError(w, r, cfg, "open dubbed video failed", err)
			return
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil {
			serverError(w, r, cfg, "stat dubbed video failed", err)
			return
		}

		filename := path.Base(job.ResultMedia)
		w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
		http.ServeContent(w, r, filename, info.ModTime(), file)
	}
}

func startDubbingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			WriteError(w, http.StatusNotFound, msgVideoNotFound)
			return
		}
		ticket, err := cfg.Dispatcher.Start(r.Context(), id)
		switch {
		case err == nil:
		case errors.Is(err, jobs.ErrJobNotFound):
			WriteError(w, http.StatusNotFound, msgVideoNotFound)
			return
		case errors.Is(err, jobs.ErrSourceMissing):
			WriteError(w, http.StatusBadRequest, msgSourceMissing)
			return
		case errors.Is(err, jobs.ErrAlreadyProcessing):
			WriteError(w, http.StatusConflict, msgAlreadyProcessing)
			return
		case errors.Is(err, jobs.ErrDispatcherStopped):
			WriteError(w, http.StatusServiceUnavailable, "dubbing workers are not running")
			return
		default:
			serverError(w, r, cfg, "start dubbing failed", err)
			return
		}
		WriteJSON(w, http.StatusAccepted, StartResponse{
			Message: msgDubbingStarted,
			TaskID:  ticket.TaskID,
			VideoID: ticket.JobID,
			Status:  ticket.Status,
		})
	}
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health == nil {
			WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Health(r.Context()))
	}
}

func lookupJob(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (*jobs.Job, bool) {
	id, ok := parseID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, msgVideoNotFound)
		return nil, false
	}
	job, err := cfg.Store.GetByID(r.Context(), id)
	if err != nil {
		serverError(w, r, cfg, "load job failed", err)
		return nil, false
	}
	if job == nil {
		WriteError(w, http.StatusNotFound, msgVideoNotFound)
		return nil, false
	}
	return job, true
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func serverError(w http.ResponseWriter, r *http.Request, cfg ServerConfig, msg string, err error) {
	logging.ErrorWithContext(logging.WithContext(r.Context(), cfg.Logger), msg, "http_error",
		logging.Error(err),
		logging.String("path", r.URL.Path),
	)
	if errors.Is(err, services.ErrValidation) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, "internal server error")
}
