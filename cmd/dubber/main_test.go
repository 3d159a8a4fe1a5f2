package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/jobs"
	"dubber/internal/mediastore"
	"dubber/internal/testsupport"
)

type fakeProcessor struct {
	store   *jobs.Store
	media   *mediastore.Store
	failure string
}

func (p fakeProcessor) Process(ctx context.Context, id int64) jobs.Summary {
	job, err := p.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return jobs.Summary{Error: jobs.MessageJobNotFound}
	}
	if p.failure != "" {
		job.Status = jobs.StatusFailed
		job.ErrorMessage = p.failure
		_ = p.store.Update(ctx, job)
		return jobs.Summary{JobID: id, Status: jobs.StatusFailed, Error: p.failure}
	}
	name, err := p.media.Save(ctx, mediastore.DubbedPrefix+"/dubbed_"+strconv.FormatInt(id, 10)+"_clip.mp4", strings.NewReader("dubbed"))
	if err != nil {
		return jobs.Summary{JobID: id, Status: jobs.StatusFailed, Error: err.Error()}
	}
	job.ResultMedia = name
	job.Status = jobs.StatusCompleted
	job.DetectedLanguage = "es"
	_ = p.store.Update(ctx, job)
	return jobs.Summary{JobID: id, Status: jobs.StatusCompleted, DetectedLanguage: "es"}
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, failure string) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	previous := processorFactory
	processorFactory = func(_ *config.Config, store *jobs.Store, media *mediastore.Store, _ *slog.Logger) jobs.Processor {
		return fakeProcessor{store: store, media: media, failure: failure}
	}
	t.Cleanup(func() {
		processorFactory = previous
	})

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) writeVideo(t *testing.T, name, content string) string {
	t.Helper()
	return testsupport.WriteVideo(t, e.baseDir, name, content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIUploadListStatusDelete(t *testing.T) {
	env := setupCLITestEnv(t, "")
	video := env.writeVideo(t, "clip.mp4", "original")

	out, _, err := runCLI(t, []string{"upload", video, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var uploaded struct {
		ID            int64  `json:"id"`
		Status        string `json:"status"`
		OriginalVideo string `json:"original_video"`
	}
	if err := json.Unmarshal([]byte(out), &uploaded); err != nil {
		t.Fatalf("decode upload output %q: %v", out, err)
	}
	if uploaded.ID == 0 || uploaded.Status != "uploaded" || uploaded.OriginalVideo != "original_videos/clip.mp4" {
		t.Fatalf("unexpected upload output: %+v", uploaded)
	}
	id := strconv.FormatInt(uploaded.ID, 10)

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "clip.mp4") || !strings.Contains(out, "uploaded") {
		t.Fatalf("list missing video: %q", out)
	}

	out, _, err = runCLI(t, []string{"list", "--status", "completed"}, env.configPath)
	if err != nil {
		t.Fatalf("list --status: %v", err)
	}
	if !strings.Contains(out, "No videos") {
		t.Fatalf("expected empty filtered list, got %q", out)
	}

	out, _, err = runCLI(t, []string{"status", id}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "[INFO] uploaded") {
		t.Fatalf("unexpected status output: %q", out)
	}

	out, _, err = runCLI(t, []string{"delete", id}, env.configPath)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted video "+id) {
		t.Fatalf("unexpected delete output: %q", out)
	}

	if _, _, err := runCLI(t, []string{"status", id}, env.configPath); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCLIUploadRejectsExtension(t *testing.T) {
	env := setupCLITestEnv(t, "")
	video := env.writeVideo(t, "clip.avi", "x")

	_, _, err := runCLI(t, []string{"upload", video}, env.configPath)
	if err == nil || err.Error() != "File must be one of: mp4, wav" {
		t.Fatalf("expected extension error, got %v", err)
	}
}

func TestCLIUploadRejectsOversizedFile(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.cfg.Upload.MaxSizeMB = 1
	data, err := toml.Marshal(env.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(env.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	video := testsupport.WriteSizedVideo(t, env.baseDir, "big.mp4", 1024*1024+1)

	_, _, err = runCLI(t, []string{"upload", video}, env.configPath)
	if err == nil || err.Error() != "File must not exceed 1MB" {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestCLIRunDubsAndExports(t *testing.T) {
	env := setupCLITestEnv(t, "")
	video := env.writeVideo(t, "clip.mp4", "original")
	exported := filepath.Join(env.baseDir, "out", "dubbed.mp4")

	out, _, err := runCLI(t, []string{"run", video, "--output", exported}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "[OK] completed") || !strings.Contains(out, "Spanish (es)") {
		t.Fatalf("unexpected run output: %q", out)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "dubbed" {
		t.Fatalf("unexpected export content %q", data)
	}
}

func TestCLIStartReportsFailure(t *testing.T) {
	env := setupCLITestEnv(t, "Failed to extract audio with ffmpeg")
	video := env.writeVideo(t, "clip.mp4", "original")

	if _, _, err := runCLI(t, []string{"upload", video}, env.configPath); err != nil {
		t.Fatalf("upload: %v", err)
	}
	out, _, err := runCLI(t, []string{"start", "1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "Failed to extract audio with ffmpeg") {
		t.Fatalf("expected dubbing failure, got %v", err)
	}
	if !strings.Contains(out, "[ERROR] failed") {
		t.Fatalf("expected failed status in output, got %q", out)
	}

	if _, _, err := runCLI(t, []string{"start", "99"}, env.configPath); err == nil || !strings.Contains(err.Error(), "video 99 not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"start", "abc"}, env.configPath); err == nil || !strings.Contains(err.Error(), "invalid video id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestCLISweep(t *testing.T) {
	env := setupCLITestEnv(t, "")
	video := env.writeVideo(t, "clip.mp4", "original")
	if _, _, err := runCLI(t, []string{"upload", video}, env.configPath); err != nil {
		t.Fatalf("upload: %v", err)
	}

	out, _, err := runCLI(t, []string{"sweep", "--days", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "Removed 1 videos older than 0 days") {
		t.Fatalf("unexpected sweep output: %q", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestCLIConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, env.configPath) {
		t.Fatalf("unexpected validate output: %q", out)
	}
}

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("Status", statusError, "failed", false)
	if !strings.Contains(got, "Status:") || !strings.HasSuffix(got, "[ERROR] failed") {
		t.Fatalf("unexpected status line %q", got)
	}
	colored := renderStatusLine("Status", statusOK, "completed", true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green line, got %q", colored)
	}
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestDependencyTable(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Command: "ffmpeg", Available: true, Resolved: "/usr/bin/ffmpeg"},
		{Name: "Whisper", Command: "whisper", Available: false, Detail: "binary \"whisper\" not found"},
		{Name: "torch", Available: false, Optional: true},
	}
	rendered := dependencyTable(statuses)
	for _, want := range []string{"FFmpeg", "/usr/bin/ffmpeg", "missing", "optional"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("table missing %q:\n%s", want, rendered)
		}
	}

	line, missing := missingLine(statuses, false)
	if !missing || !strings.Contains(line, "[ERROR] Whisper") {
		t.Fatalf("unexpected missing line %q", line)
	}
	line, missing = missingLine(statuses[:1], false)
	if missing || !strings.Contains(line, "[OK]") {
		t.Fatalf("unexpected ready line %q", line)
	}
}

func TestCLIDepsJSON(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, _ := runCLI(t, []string{"deps", "--json", "--skip-python"}, env.configPath)
	var report depsReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode deps output %q: %v", out, err)
	}
	names := map[string]bool{}
	for _, dep := range report.Dependencies {
		names[dep.Name] = true
	}
	for _, want := range []string{"FFmpeg", "Python", "Whisper", "Coqui TTS"} {
		if !names[want] {
			t.Fatalf("deps report missing %s: %+v", want, report.Dependencies)
		}
	}
	if len(report.Checks) < 4 {
		t.Fatalf("expected directory and engine checks, got %+v", report.Checks)
	}
}
