package pyhelper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"dubber/internal/logging"
	"dubber/internal/services"
)

const maxStderrBytes = 8 * 1024

// Request describes one helper invocation.
type Request struct {
	// Script is Python source passed with -c.
	Script string
	Args   []string
	Stdin  []byte
}

// Result captures the outcome of a helper invocation.
type Result struct {
	ExitCode   int
	Stdout     []byte
	StderrTail string
	Duration   time.Duration
}

// IsSuccess reports whether the helper exited cleanly.
func (r Result) IsSuccess() bool {
	return r.ExitCode == 0
}

// ScriptError reports a helper that exited non-zero.
type ScriptError struct {
	ExitCode   int
	StderrTail string
}

func (e *ScriptError) Error() string {
	tail := strings.TrimSpace(e.StderrTail)
	if tail == "" {
		return fmt.Sprintf("python helper exited %d", e.ExitCode)
	}
	return fmt.Sprintf("python helper exited %d: %s", e.ExitCode, lastLine(tail))
}

func (e *ScriptError) Is(target error) bool { return target == services.ErrExternalTool }

// ExecFunc executes a request with the resolved interpreter.
type ExecFunc func(ctx context.Context, python string, req Request) (Result, error)

// Runner executes helpers with a lazily resolved interpreter.
type Runner struct {
	preferred string
	logger    *slog.Logger
	exec      ExecFunc
	lookPath  func(string) (string, error)

	mu     sync.Mutex
	python string
	probed map[string]struct{}
}

// New constructs a Runner. An empty interpreter auto-detects python3, then python.
func New(interpreter string, logger *slog.Logger) *Runner {
	return &Runner{
		preferred: strings.TrimSpace(interpreter),
		logger:    logging.NewComponentLogger(logger, "pyhelper"),
		exec:      execSubprocess,
		lookPath:  exec.LookPath,
		probed:    make(map[string]struct{}),
	}
}

// WithExec overrides subprocess execution (for testing).
func (r *Runner) WithExec(fn ExecFunc) {
	if fn != nil {
		r.exec = fn
	}
}

// WithLookPath overrides interpreter lookup (for testing).
func (r *Runner) WithLookPath(fn func(string) (string, error)) {
	if fn != nil {
		r.lookPath = fn
	}
}

// Python resolves the interpreter path, caching the first success.
func (r *Runner) Python() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.python != "" {
		return r.python, nil
	}
	python, err := r.resolvePython()
	if err != nil {
		return "", err
	}
	r.python = python
	return python, nil
}

func (r *Runner) resolvePython() (string, error) {
	if r.preferred != "" {
		if p, err := r.lookPath(r.preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured python %q not found", r.preferred)
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := r.lookPath(name); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no python binary found on PATH (tried python3, python)")
}

// Probe verifies that every module imports. Success is cached per module set;
// failures are reported as a DependencyMissingError carrying remedy.
func (r *Runner) Probe(ctx context.Context, dependency, remedy string, modules ...string) error {
	key := strings.Join(modules, ",")
	r.mu.Lock()
	_, ok := r.probed[key]
	r.mu.Unlock()
	if ok {
		return nil
	}

	missing := func(err error) error {
		return &services.DependencyMissingError{Dependency: dependency, Remedy: remedy, Err: err}
	}

	python, err := r.Python()
	if err != nil {
		return missing(err)
	}

	var script strings.Builder
	for _, module := range modules {
		script.WriteString("import ")
		script.WriteString(module)
		script.WriteByte('\n')
	}
	result, err := r.exec(ctx, python, Request{Script: script.String()})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return missing(err)
	}
	if !result.IsSuccess() {
		return missing(&ScriptError{ExitCode: result.ExitCode, StderrTail: result.StderrTail})
	}

	r.mu.Lock()
	r.probed[key] = struct{}{}
	r.mu.Unlock()
	return nil
}

// Run executes a helper and fails on a non-zero exit.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	python, err := r.Python()
	if err != nil {
		return Result{}, err
	}
	result, err := r.exec(ctx, python, req)
	if err != nil {
		return result, err
	}
	if !result.IsSuccess() {
		r.logger.Warn("python helper failed",
			logging.Int("exit_code", result.ExitCode),
			logging.Int64("duration_ms", result.Duration.Milliseconds()),
			logging.String("stderr_tail", truncate(result.StderrTail, 512)),
		)
		return result, &ScriptError{ExitCode: result.ExitCode, StderrTail: result.StderrTail}
	}
	r.logger.Debug("python helper succeeded", logging.Int64("duration_ms", result.Duration.Milliseconds()))
	return result, nil
}

// RunJSON executes a helper and decodes its stdout into out.
func (r *Runner) RunJSON(ctx context.Context, req Request, out any) error {
	result, err := r.Run(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bytes.TrimSpace(result.Stdout), out); err != nil {
		return fmt.Errorf("decode python helper output: %w", err)
	}
	return nil
}

func execSubprocess(ctx context.Context, python string, req Request) (Result, error) {
	start := time.Now()
	args := append([]string{"-c", req.Script}, req.Args...)
	cmd := exec.CommandContext(ctx, python, args...) //nolint:gosec

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderr, limit: maxStderrBytes})
	if req.Stdin != nil {
		cmd.Stdin = bytes.NewReader(req.Stdin)
	}

	err := cmd.Run()
	result := Result{
		Stdout:     stdout.Bytes(),
		StderrTail: stderr.String(),
		Duration:   time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("start python helper: %w", err)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter keeps only the last limit bytes written.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
