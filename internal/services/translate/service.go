package translate

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"dubber/internal/logging"
	"dubber/internal/pyhelper"
	"dubber/internal/services"
	"dubber/internal/services/llm"
)

//go:embed scripts/translate.py
var huggingFaceScript string

const (
	ProviderHuggingFace = "huggingface"
	ProviderLLM         = "llm"

	installRemedy = "pip install transformers sentencepiece"
)

// Config captures translation settings.
type Config struct {
	Provider string
	// Model is the translation model id; empty disables translation.
	Model          string
	SourceLanguage string
	TargetLanguage string
}

type backend interface {
	translate(ctx context.Context, text string) (string, error)
}

// Service translates text with a lazily constructed backend.
type Service struct {
	cfg    Config
	logger *slog.Logger
	python *pyhelper.Runner
	llm    *llm.Client

	mu     sync.Mutex
	handle backend
}

// Option customizes the Service.
type Option func(*Service)

// WithPythonRunner sets the helper runner for the huggingface provider.
func WithPythonRunner(runner *pyhelper.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.python = runner
		}
	}
}

// WithLLMClient sets the chat client for the llm provider.
func WithLLMClient(client *llm.Client) Option {
	return func(s *Service) {
		s.llm = client
	}
}

// NewService constructs a translation engine.
func NewService(cfg Config, logger *slog.Logger, opts ...Option) *Service {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if strings.TrimSpace(cfg.Provider) == "" {
		cfg.Provider = ProviderHuggingFace
	}
	s := &Service{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "translate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.python == nil {
		s.python = pyhelper.New("", logger)
	}
	return s
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool {
	return s.cfg.Model != ""
}

// Translate returns the translation of text. Empty input yields "" and an
// unconfigured model returns the trimmed input unchanged.
func (s *Service) Translate(ctx context.Context, text string) (string, error) {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return "", nil
	}
	if !s.Enabled() {
		return normalized, nil
	}

	handle, err := s.backend(ctx)
	if err != nil {
		return "", err
	}
	translated, err := handle.translate(ctx, normalized)
	if err != nil {
		return "", err
	}
	if translated = strings.TrimSpace(translated); translated == "" {
		attrs := append(logging.DecisionAttrs("translation_fallback", "original_text", "model returned no text"),
			logging.String("model", s.cfg.Model),
			logging.String(logging.FieldErrorHint, "check that the translation model matches the source language"),
			logging.String(logging.FieldImpact, "untranslated text will be voiced"),
		)
		logging.WarnWithContext(s.logger, "translation returned no text; using original", "translation_fallback", attrs...)
		return normalized, nil
	}
	return translated, nil
}

func (s *Service) backend(ctx context.Context) (backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		return s.handle, nil
	}

	var handle backend
	switch strings.ToLower(strings.TrimSpace(s.cfg.Provider)) {
	case ProviderHuggingFace:
		if err := s.python.Probe(ctx, "transformers package", installRemedy, "transformers"); err != nil {
			return nil, err
		}
		handle = &huggingFaceBackend{model: s.cfg.Model, python: s.python}
	case ProviderLLM:
		if s.llm == nil {
			return nil, services.Wrap(services.ErrConfiguration, "translate", "llm", "llm client not configured", nil)
		}
		handle = &llmBackend{client: s.llm, source: s.cfg.SourceLanguage, target: s.cfg.TargetLanguage}
	default:
		return nil, fmt.Errorf("translate: unsupported provider %q", s.cfg.Provider)
	}

	s.logger.Info("translation backend ready",
		logging.String("provider", s.cfg.Provider),
		logging.String("model", s.cfg.Model),
	)
	s.handle = handle
	return handle, nil
}

type huggingFaceBackend struct {
	model  string
	python *pyhelper.Runner
}

func (b *huggingFaceBackend) translate(ctx context.Context, text string) (string, error) {
	input, err := json.Marshal(map[string]string{"model": b.model, "text": text})
	if err != nil {
		return "", fmt.Errorf("translate: encode request: %w", err)
	}
	var out struct {
		Translation string `json:"translation"`
	}
	if err := b.python.RunJSON(ctx, pyhelper.Request{Script: huggingFaceScript, Stdin: input}, &out); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "translate", "huggingface", b.model, err)
	}
	return out.Translation, nil
}

type llmBackend struct {
	client *llm.Client
	source string
	target string
}

func (b *llmBackend) translate(ctx context.Context, text string) (string, error) {
	translated, err := b.client.Translate(ctx, text, b.source, b.target)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "translate", "llm", b.client.Model(), err)
	}
	return translated, nil
}
