package pyhelper

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"dubber/internal/services"
)

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestPythonFallsBackToPython(t *testing.T) {
	r := New("", nil)
	r.WithLookPath(fakeLookPath("python"))

	got, err := r.Python()
	if err != nil {
		t.Fatalf("Python returned error: %v", err)
	}
	if got != "/usr/bin/python" {
		t.Fatalf("unexpected interpreter %q", got)
	}
}

func TestPythonConfiguredMissing(t *testing.T) {
	r := New("python3.12", nil)
	r.WithLookPath(fakeLookPath("python3"))

	if _, err := r.Python(); err == nil || !strings.Contains(err.Error(), "python3.12") {
		t.Fatalf("expected configured interpreter error, got %v", err)
	}
}

func TestProbeCachesSuccess(t *testing.T) {
	r := New("", nil)
	r.WithLookPath(fakeLookPath("python3"))
	calls := 0
	var script string
	r.WithExec(func(_ context.Context, _ string, req Request) (Result, error) {
		calls++
		script = req.Script
		return Result{}, nil
	})

	for range 3 {
		if err := r.Probe(context.Background(), "transformers", "pip install transformers", "transformers", "torch"); err != nil {
			t.Fatalf("Probe returned error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected single probe execution, got %d", calls)
	}
	if script != "import transformers\nimport torch\n" {
		t.Fatalf("unexpected probe script %q", script)
	}
}

func TestProbeFailureIsDependencyMissing(t *testing.T) {
	r := New("", nil)
	r.WithLookPath(fakeLookPath("python3"))
	calls := 0
	r.WithExec(func(context.Context, string, Request) (Result, error) {
		calls++
		return Result{ExitCode: 1, StderrTail: "ModuleNotFoundError: No module named 'torch'"}, nil
	})

	for range 2 {
		err := r.Probe(context.Background(), "torch", "pip install transformers torch", "torch")
		if !errors.Is(err, services.ErrDependencyMissing) {
			t.Fatalf("expected dependency missing error, got %v", err)
		}
		if remedy, ok := services.Remedy(err); !ok || remedy != "pip install transformers torch" {
			t.Fatalf("unexpected remedy %q", remedy)
		}
	}
	if calls != 2 {
		t.Fatalf("expected failed probes to retry, got %d calls", calls)
	}
}

func TestProbeCancelledReturnsContextError(t *testing.T) {
	r := New("", nil)
	r.WithLookPath(fakeLookPath("python3"))
	ctx, cancel := context.WithCancel(context.Background())
	r.WithExec(func(context.Context, string, Request) (Result, error) {
		cancel()
		return Result{ExitCode: -1, StderrTail: "signal: killed"}, nil
	})

	err := r.Probe(ctx, "torch", "pip install transformers torch", "torch")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrDependencyMissing) {
		t.Fatal("cancelled probe must not report a missing dependency")
	}
	if _, ok := services.Remedy(err); ok {
		t.Fatal("cancelled probe must not carry an install hint")
	}
}

func TestProbeWithoutInterpreter(t *testing.T) {
	r := New("", nil)
	r.WithLookPath(fakeLookPath())

	err := r.Probe(context.Background(), "transformers", "pip install transformers sentencepiece", "transformers")
	if !errors.Is(err, services.ErrDependencyMissing) {
		t.Fatalf("expected dependency missing error, got %v", err)
	}
}

func TestRunJSONDecodesStdout(t *testing.T) {
	r := New("", nil)
	r.WithLookPath(fakeLookPath("python3"))
	r.WithExec(func(_ context.Context, python string, req Request) (Result, error) {
		if python != "/usr/bin/python3" {
			t.Fatalf("unexpected interpreter %q", python)
		}
		if string(req.Stdin) != `{"text":"hi"}` {
			t.Fatalf("unexpected stdin %q", req.Stdin)
		}
		return Result{Stdout: []byte("{\"translation\": \"salut\"}\n")}, nil
	})

	var out struct {
		Translation string `json:"translation"`
	}
	if err := r.RunJSON(context.Background(), Request{Script: "pass", Stdin: []byte(`{"text":"hi"}`)}, &out); err != nil {
		t.Fatalf("RunJSON returned error: %v", err)
	}
	if out.Translation != "salut" {
		t.Fatalf("unexpected translation %q", out.Translation)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := New("", nil)
	r.WithLookPath(fakeLookPath("python3"))
	r.WithExec(func(context.Context, string, Request) (Result, error) {
		return Result{ExitCode: 2, StderrTail: "Traceback\nValueError: bad model"}, nil
	})

	_, err := r.Run(context.Background(), Request{Script: "raise"})
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected ScriptError, got %v", err)
	}
	if scriptErr.ExitCode != 2 {
		t.Fatalf("unexpected exit code %d", scriptErr.ExitCode)
	}
	if !strings.HasSuffix(err.Error(), "ValueError: bad model") {
		t.Fatalf("expected last stderr line in message, got %q", err.Error())
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected ScriptError to match ErrExternalTool")
	}
}

func TestLimitedWriterKeepsOnlyTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 10}

	lw.Write([]byte("hello"))
	if buf.String() != "hello" {
		t.Errorf("after short write got %q, want %q", buf.String(), "hello")
	}

	lw.Write([]byte(" world of test data"))
	if got := buf.String(); got != " test data" {
		t.Errorf("after overflow got %q, want %q", got, " test data")
	}
}
