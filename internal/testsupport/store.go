package testsupport

import (
	"context"
	"strings"
	"testing"

	"dubber/internal/config"
	"dubber/internal/jobs"
	"dubber/internal/mediastore"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenMediaStore opens the media store rooted at the config media dir.
func MustOpenMediaStore(t testing.TB, cfg *config.Config) *mediastore.Store {
	t.Helper()

	media, err := mediastore.New(cfg.Paths.MediaDir)
	if err != nil {
		t.Fatalf("mediastore.New: %v", err)
	}
	return media
}

// NewUploadedJob stores content as an original upload and creates its job.
func NewUploadedJob(t testing.TB, store *jobs.Store, media *mediastore.Store, filename, content string) *jobs.Job {
	t.Helper()

	ctx := context.Background()
	name, err := media.SaveOriginal(ctx, filename, strings.NewReader(content))
	if err != nil {
		t.Fatalf("SaveOriginal: %v", err)
	}
	job, err := store.Create(ctx, name, filename)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}
