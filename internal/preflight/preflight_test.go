package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/config"
	"dubber/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	ok := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "good-key", BaseURL: srv.URL, Model: "m"})
	if !ok.Passed {
		t.Fatalf("expected pass, got: %s", ok.Detail)
	}

	bad := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "bad-key", BaseURL: srv.URL, Model: "m"})
	if bad.Passed {
		t.Fatal("expected failure for bad key")
	}

	missing := CheckLLM(context.Background(), "LLM", config.LLM{})
	if missing.Passed || missing.Detail != "API key missing" {
		t.Fatalf("unexpected result for missing key: %#v", missing)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.MediaDir = t.TempDir()
	cfg.Paths.WorkDir = ""

	results := RunAll(context.Background(), &cfg)
	// data + media directories, transcription and translation summaries
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %#v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %#v", failed)
	}
}

func TestRunAll_IncludesLLMWhenSelected(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.MediaDir = t.TempDir()
	cfg.Translation.Provider = "llm"
	cfg.LLM.APIKey = ""

	results := RunAll(context.Background(), &cfg)
	found := false
	for _, r := range results {
		if r.Name == "Translation LLM" {
			found = true
			if r.Passed {
				t.Fatal("expected LLM check to fail without a key")
			}
		}
	}
	if !found {
		t.Fatal("expected LLM check in results")
	}
}

func TestCheckTranscriptionFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.SourceLanguage = "es"
	local := CheckTranscriptionFromConfig(&cfg)
	if !local.Passed || !strings.Contains(local.Detail, "Spanish") {
		t.Fatalf("unexpected local result: %#v", local)
	}

	cfg.Transcription.Provider = "openai"
	cfg.Transcription.OpenAIAPIKey = ""
	if r := CheckTranscriptionFromConfig(&cfg); r.Passed {
		t.Fatalf("expected openai without key to fail: %#v", r)
	}
}

func TestCheckTranslationFromConfig(t *testing.T) {
	cfg := config.Default()
	r := CheckTranslationFromConfig(&cfg)
	if !r.Passed || !strings.Contains(r.Detail, "Russian") {
		t.Fatalf("unexpected default translation result: %#v", r)
	}

	cfg.Translation.Model = ""
	r = CheckTranslationFromConfig(&cfg)
	if !r.Passed || !strings.HasPrefix(r.Detail, "Disabled") {
		t.Fatalf("unexpected passthrough result: %#v", r)
	}
}

func TestSystemRequirementsFollowBackends(t *testing.T) {
	cfg := config.Default()
	names := requirementNames(SystemRequirements(&cfg))
	for _, want := range []string{"FFmpeg", "Python", "Whisper", "Coqui TTS"} {
		if !names[want] {
			t.Fatalf("expected %s in default requirements, got %v", want, names)
		}
	}

	cfg.Transcription.Provider = "openai"
	cfg.TTS.Model = "facebook/mms-tts-rus"
	names = requirementNames(SystemRequirements(&cfg))
	if names["Whisper"] || names["Coqui TTS"] {
		t.Fatalf("unexpected binaries for openai + MMS: %v", names)
	}

	modules := PythonModules(&cfg)
	if len(modules) != 2 || modules[0].Name != "transformers" || modules[1].Name != "torch" {
		t.Fatalf("unexpected python modules: %#v", modules)
	}
}

func requirementNames(reqs []deps.Requirement) map[string]bool {
	names := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		names[req.Name] = true
	}
	return names
}
