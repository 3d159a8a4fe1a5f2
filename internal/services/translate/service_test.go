package translate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dubber/internal/pyhelper"
	"dubber/internal/services"
	"dubber/internal/services/llm"
	"dubber/internal/services/translate"
)

func pythonRunner(t *testing.T, probeOK bool, reply string, calls *int) *pyhelper.Runner {
	t.Helper()
	r := pyhelper.New("", nil)
	r.WithLookPath(func(name string) (string, error) { return "/usr/bin/" + name, nil })
	r.WithExec(func(_ context.Context, _ string, req pyhelper.Request) (pyhelper.Result, error) {
		// Import checks carry no stdin payload; helper scripts always do.
		if req.Stdin == nil {
			if !probeOK {
				return pyhelper.Result{ExitCode: 1, StderrTail: "ModuleNotFoundError: No module named 'transformers'"}, nil
			}
			return pyhelper.Result{}, nil
		}
		*calls++
		var payload map[string]string
		if err := json.Unmarshal(req.Stdin, &payload); err != nil {
			t.Fatalf("decode helper stdin: %v", err)
		}
		if payload["model"] != "Helsinki-NLP/opus-mt-en-fr" {
			t.Fatalf("unexpected model %q", payload["model"])
		}
		if payload["text"] != "Hello" {
			t.Fatalf("expected trimmed text, got %q", payload["text"])
		}
		return pyhelper.Result{Stdout: []byte(reply)}, nil
	})
	return r
}

func TestTranslateEmptyTextReturnsEmpty(t *testing.T) {
	calls := 0
	svc := translate.NewService(translate.Config{Model: "Helsinki-NLP/opus-mt-en-fr"}, nil,
		translate.WithPythonRunner(pythonRunner(t, true, `{"translation":"x"}`, &calls)))

	got, err := svc.Translate(context.Background(), "  \n ")
	if err != nil || got != "" {
		t.Fatalf("expected empty result, got %q, %v", got, err)
	}
	if calls != 0 {
		t.Fatal("expected no backend call for empty text")
	}
}

func TestTranslateWithoutModelPassesThrough(t *testing.T) {
	calls := 0
	svc := translate.NewService(translate.Config{}, nil,
		translate.WithPythonRunner(pythonRunner(t, false, "", &calls)))

	got, err := svc.Translate(context.Background(), "  Hello  ")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	if svc.Enabled() {
		t.Fatal("expected translation to be disabled")
	}
}

func TestTranslateHuggingFace(t *testing.T) {
	calls := 0
	svc := translate.NewService(translate.Config{Model: "Helsinki-NLP/opus-mt-en-fr"}, nil,
		translate.WithPythonRunner(pythonRunner(t, true, `{"translation":"  Bonjour "}`, &calls)))

	got, err := svc.Translate(context.Background(), " Hello ")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Bonjour" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestTranslateFallsBackToOriginalOnEmptyResult(t *testing.T) {
	calls := 0
	svc := translate.NewService(translate.Config{Model: "Helsinki-NLP/opus-mt-en-fr"}, nil,
		translate.WithPythonRunner(pythonRunner(t, true, `{"translation":"   "}`, &calls)))

	got, err := svc.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("expected original text fallback, got %q", got)
	}
}

func TestTranslateMissingTransformers(t *testing.T) {
	calls := 0
	svc := translate.NewService(translate.Config{Model: "Helsinki-NLP/opus-mt-en-fr"}, nil,
		translate.WithPythonRunner(pythonRunner(t, false, "", &calls)))

	_, err := svc.Translate(context.Background(), "Hello")
	if !errors.Is(err, services.ErrDependencyMissing) {
		t.Fatalf("expected dependency missing error, got %v", err)
	}
	if remedy, _ := services.Remedy(err); remedy != "pip install transformers sentencepiece" {
		t.Fatalf("unexpected remedy %q", remedy)
	}
	if calls != 0 {
		t.Fatal("expected no translation attempt after failed probe")
	}
}

func TestTranslateLLMProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"translation":"Hola"}`}}},
		})
	}))
	defer server.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		llm.WithRetryBackoff(0, time.Millisecond))
	svc := translate.NewService(translate.Config{Provider: translate.ProviderLLM, Model: "m", TargetLanguage: "es"}, nil,
		translate.WithLLMClient(client))

	got, err := svc.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Hola" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestTranslateLLMProviderRequiresClient(t *testing.T) {
	svc := translate.NewService(translate.Config{Provider: translate.ProviderLLM, Model: "m"}, nil)
	_, err := svc.Translate(context.Background(), "Hello")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
