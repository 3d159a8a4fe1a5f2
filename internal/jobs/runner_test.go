package jobs_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"dubber/internal/config"
	"dubber/internal/jobs"
	"dubber/internal/logging"
	"dubber/internal/mediastore"
	"dubber/internal/pipeline"
	"dubber/internal/services"
	"dubber/internal/testsupport"
)

type fakePipeline struct {
	mu       sync.Mutex
	calls    int
	paths    pipeline.Paths
	settings pipeline.Settings
	run      func(paths pipeline.Paths) (pipeline.Result, error)
}

func (f *fakePipeline) factory(settings pipeline.Settings, _ *slog.Logger) jobs.Pipeline {
	f.mu.Lock()
	f.settings = settings
	f.mu.Unlock()
	return f
}

func (f *fakePipeline) Run(_ context.Context, paths pipeline.Paths) (pipeline.Result, error) {
	f.mu.Lock()
	f.calls++
	f.paths = paths
	f.mu.Unlock()
	if f.run != nil {
		return f.run(paths)
	}
	return pipeline.Result{}, nil
}

// copyingPipeline writes "dubbed:" plus the staged input as the output video.
func copyingPipeline(language string) *fakePipeline {
	return &fakePipeline{run: func(paths pipeline.Paths) (pipeline.Result, error) {
		data, err := os.ReadFile(paths.SourceVideo)
		if err != nil {
			return pipeline.Result{}, err
		}
		if err := os.WriteFile(paths.OutputVideo, append([]byte("dubbed:"), data...), 0o644); err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{DetectedLanguage: language, OutputVideoPath: paths.OutputVideo}, nil
	}}
}

type runnerEnv struct {
	cfg   *config.Config
	store *jobs.Store
	media *mediastore.Store
}

func newRunnerEnv(t *testing.T) runnerEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return runnerEnv{
		cfg:   cfg,
		store: testsupport.MustOpenStore(t, cfg),
		media: testsupport.MustOpenMediaStore(t, cfg),
	}
}

func (e runnerEnv) runner(fake *fakePipeline) *jobs.Runner {
	settings := pipeline.SettingsFromConfig(e.cfg)
	return jobs.NewRunner(e.store, e.media, func() pipeline.Settings { return settings }, logging.NewNop(),
		jobs.WithPipelineFactory(fake.factory),
		jobs.WithWorkDir(e.cfg.Paths.WorkDir),
	)
}

func assertWorkDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp dirs to be removed, found %d entries", len(entries))
	}
}

func TestProcessCompletesJob(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "clip.mp4", "original")
	fake := copyingPipeline("en")

	summary := env.runner(fake).Process(context.Background(), job.ID)

	if summary.Error != "" || summary.Status != jobs.StatusCompleted || summary.DetectedLanguage != "en" || summary.JobID != job.ID {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	got, err := env.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	wantOutput := "dubbed_videos/dubbed_" + itoa(job.ID) + "_clip.mp4"
	if got.Status != jobs.StatusCompleted || got.ErrorMessage != "" || got.ResultMedia != wantOutput || got.DetectedLanguage != "en" {
		t.Fatalf("unexpected job state: %#v", got)
	}

	rc, err := env.media.Open(got.ResultMedia)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "dubbed:original" {
		t.Fatalf("unexpected dubbed content %q", data)
	}

	if filepath.Base(fake.paths.SourceVideo) != "input.mp4" ||
		filepath.Base(fake.paths.ExtractedAudio) != "extracted.wav" ||
		filepath.Base(fake.paths.SynthesisAudio) != "tts.wav" ||
		filepath.Base(fake.paths.OutputVideo) != "output.mp4" {
		t.Fatalf("unexpected staged paths: %#v", fake.paths)
	}
	tempDir := filepath.Base(filepath.Dir(fake.paths.SourceVideo))
	if !strings.HasPrefix(tempDir, "dubbing_"+itoa(job.ID)+"_") {
		t.Fatalf("unexpected temp dir name %q", tempDir)
	}
	assertWorkDirEmpty(t, env.cfg.Paths.WorkDir)
}

func TestProcessKeepsSourceSuffix(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "voice.wav", "pcm")
	fake := copyingPipeline("")

	summary := env.runner(fake).Process(context.Background(), job.ID)
	if summary.Status != jobs.StatusCompleted {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if filepath.Base(fake.paths.SourceVideo) != "input.wav" || filepath.Base(fake.paths.OutputVideo) != "output.wav" {
		t.Fatalf("expected .wav staging, got %#v", fake.paths)
	}
	got, _ := env.store.GetByID(context.Background(), job.ID)
	if got.ResultMedia != "dubbed_videos/dubbed_"+itoa(job.ID)+"_voice.wav" {
		t.Fatalf("unexpected result name %q", got.ResultMedia)
	}
}

func TestProcessDefaultsSuffixToMP4(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "noext", "bytes")
	fake := copyingPipeline("")

	env.runner(fake).Process(context.Background(), job.ID)
	if filepath.Base(fake.paths.SourceVideo) != "input.mp4" {
		t.Fatalf("expected .mp4 default, got %q", fake.paths.SourceVideo)
	}
	got, _ := env.store.GetByID(context.Background(), job.ID)
	if got.ResultMedia != "dubbed_videos/dubbed_"+itoa(job.ID)+"_noext.mp4" {
		t.Fatalf("unexpected result name %q", got.ResultMedia)
	}
}

func TestProcessRecordsEngineFailure(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "clip.mp4", "original")
	fake := &fakePipeline{run: func(pipeline.Paths) (pipeline.Result, error) {
		return pipeline.Result{}, &services.MediaToolError{Message: "boom"}
	}}

	summary := env.runner(fake).Process(context.Background(), job.ID)

	if summary.Status != jobs.StatusFailed || !strings.Contains(summary.Error, "boom") {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	got, _ := env.store.GetByID(context.Background(), job.ID)
	if got.Status != jobs.StatusFailed || !strings.Contains(got.ErrorMessage, "boom") || got.ResultMedia != "" {
		t.Fatalf("unexpected job state: %#v", got)
	}
	assertWorkDirEmpty(t, env.cfg.Paths.WorkDir)
}

func TestProcessRecordsErrorTextVerbatim(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "clip.mp4", "original")
	engineErr := &services.MediaToolError{Message: "Failed to extract audio with ffmpeg", Stderr: "Invalid data found"}
	fake := &fakePipeline{run: func(pipeline.Paths) (pipeline.Result, error) {
		return pipeline.Result{}, engineErr
	}}

	env.runner(fake).Process(context.Background(), job.ID)
	got, _ := env.store.GetByID(context.Background(), job.ID)
	if got.ErrorMessage != "Failed to extract audio with ffmpeg. Invalid data found" {
		t.Fatalf("unexpected error message %q", got.ErrorMessage)
	}
}

func TestProcessFailsWhenSourceMissing(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"empty reference", ""},
		{"absent from storage", "original_videos/gone.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newRunnerEnv(t)
			job, err := env.store.Create(context.Background(), tc.source, "gone.mp4")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			fake := &fakePipeline{}

			summary := env.runner(fake).Process(context.Background(), job.ID)

			if summary.Error != jobs.MessageSourceMissing || summary.Status != jobs.StatusFailed {
				t.Fatalf("unexpected summary: %#v", summary)
			}
			got, _ := env.store.GetByID(context.Background(), job.ID)
			if got.Status != jobs.StatusFailed || got.ErrorMessage != jobs.MessageSourceMissing {
				t.Fatalf("unexpected job state: %#v", got)
			}
			if fake.calls != 0 {
				t.Fatalf("pipeline should not run, ran %d times", fake.calls)
			}
			assertWorkDirEmpty(t, env.cfg.Paths.WorkDir)
		})
	}
}

func TestProcessUnknownJob(t *testing.T) {
	env := newRunnerEnv(t)
	fake := &fakePipeline{}

	summary := env.runner(fake).Process(context.Background(), 9999)

	if summary.Error != jobs.MessageJobNotFound || summary.JobID != 0 || summary.Status != "" {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	list, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no jobs to be created, got %d", len(list))
	}
}

func TestProcessRemovesOutputWhenJobDeletedMidRun(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "clip.mp4", "original")
	fake := copyingPipeline("en")
	inner := fake.run
	fake.run = func(paths pipeline.Paths) (pipeline.Result, error) {
		if err := env.store.Delete(context.Background(), job.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		return inner(paths)
	}

	summary := env.runner(fake).Process(context.Background(), job.ID)

	if summary.Status != jobs.StatusFailed || summary.Error == "" {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	entries, err := os.ReadDir(filepath.Join(env.cfg.Paths.MediaDir, mediastore.DubbedPrefix))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read dubbed dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected orphaned output to be removed, found %d files", len(entries))
	}
	assertWorkDirEmpty(t, env.cfg.Paths.WorkDir)
}

func TestProcessClearsPreviousError(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "clip.mp4", "original")
	job.Status = jobs.StatusFailed
	job.ErrorMessage = "earlier failure"
	if err := env.store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	env.runner(copyingPipeline("fr")).Process(context.Background(), job.ID)

	got, _ := env.store.GetByID(context.Background(), job.ID)
	if got.Status != jobs.StatusCompleted || got.ErrorMessage != "" {
		t.Fatalf("expected cleared error, got %#v", got)
	}
}

func TestProcessReadsSettingsPerRun(t *testing.T) {
	env := newRunnerEnv(t)
	job := testsupport.NewUploadedJob(t, env.store, env.media, "clip.mp4", "original")
	fake := copyingPipeline("")

	language := "es"
	runner := jobs.NewRunner(env.store, env.media,
		func() pipeline.Settings { return pipeline.Settings{SourceLanguage: language} },
		logging.NewNop(),
		jobs.WithPipelineFactory(fake.factory),
		jobs.WithWorkDir(env.cfg.Paths.WorkDir),
	)
	runner.Process(context.Background(), job.ID)
	if fake.settings.SourceLanguage != "es" {
		t.Fatalf("expected settings snapshot, got %#v", fake.settings)
	}

	language = "de"
	runner.Process(context.Background(), job.ID)
	if fake.settings.SourceLanguage != "de" {
		t.Fatalf("expected settings to be re-read, got %#v", fake.settings)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
