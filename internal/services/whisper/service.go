package whisper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"sync"

	"dubber/internal/language"
	"dubber/internal/logging"
)

// Result is the outcome of one transcription.
type Result struct {
	// Text is the trimmed transcript; empty when nothing was recognized.
	Text string
	// Language is the detected (or forced) language code; empty when unknown.
	Language string
}

type backend interface {
	transcribe(ctx context.Context, audioPath, languageHint string) (Result, error)
}

// Service transcribes audio files.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	lookPath      func(string) (string, error)
	httpClient    *http.Client

	mu     sync.Mutex
	handle backend
}

// NewService creates a transcription engine. No model is loaded until the
// first Transcribe call.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Provider) == "" {
		cfg.Provider = ProviderLocal
	}
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Service{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "whisper"),
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithLookPath overrides executable lookup (for testing).
func (s *Service) WithLookPath(fn func(string) (string, error)) {
	if fn != nil {
		s.lookPath = fn
	}
}

// WithHTTPClient sets the HTTP client used by the openai provider.
func (s *Service) WithHTTPClient(client *http.Client) {
	s.httpClient = client
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Transcribe converts speech in audioPath to text. languageHint may be empty
// to let the model detect the language.
func (s *Service) Transcribe(ctx context.Context, audioPath, languageHint string) (Result, error) {
	if strings.TrimSpace(audioPath) == "" {
		return Result{}, fmt.Errorf("transcribe: audio path required")
	}
	handle, err := s.backend()
	if err != nil {
		return Result{}, err
	}

	result, err := handle.transcribe(ctx, audioPath, normalizeHint(languageHint))
	if err != nil {
		return Result{}, err
	}
	result.Text = strings.TrimSpace(result.Text)
	if code := language.ToISO2(result.Language); code != "" {
		result.Language = code
	} else {
		result.Language = strings.TrimSpace(result.Language)
	}

	s.logger.Debug("transcription complete",
		logging.String("provider", s.cfg.Provider),
		logging.String("model", s.cfg.Model),
		logging.String("language", result.Language),
		logging.Int("chars", len(result.Text)),
	)
	return result, nil
}

// backend returns the cached handle, constructing it on first use. A failed
// construction is not cached.
func (s *Service) backend() (backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		return s.handle, nil
	}

	var (
		handle backend
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(s.cfg.Provider)) {
	case ProviderOpenAI:
		handle, err = newOpenAIBackend(s.cfg, s.httpClient)
	case ProviderLocal:
		handle, err = newLocalBackend(s.cfg, s.lookPath, s.run)
	default:
		err = fmt.Errorf("transcribe: unsupported provider %q", s.cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("transcription backend ready",
		logging.String("provider", s.cfg.Provider),
		logging.String("model", s.cfg.Model),
	)
	s.handle = handle
	return handle, nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, lastLines(string(output), 5))
	}
	return nil
}

func normalizeHint(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}
	if code := language.ToISO2(hint); code != "" {
		return code
	}
	return strings.ToLower(hint)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
