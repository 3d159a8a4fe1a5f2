package tts

import (
	"context"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"dubber/internal/logging"
	"dubber/internal/pyhelper"
	"dubber/internal/services"
)

//go:embed scripts/mms_tts.py
var directWaveformScript string

const (
	// DefaultBinary is the Coqui TTS command line tool.
	DefaultBinary = "tts"

	emptyTextMessage     = "No text provided for TTS synthesis"
	coquiRemedy          = "pip install TTS"
	directWaveformDeps   = "MMS VITS runtime"
	directWaveformRemedy = "pip install transformers torch"
)

// Config captures synthesis settings.
type Config struct {
	Model  string
	Binary string
}

// Service synthesizes speech using the backend selected by the model id.
type Service struct {
	cfg     Config
	backend Backend
	logger  *slog.Logger
	python  *pyhelper.Runner

	commandRunner func(ctx context.Context, name string, args ...string) error
	lookPath      func(string) (string, error)

	mu         sync.Mutex
	coquiPath  string
	vitsLoaded bool
}

// Option customizes the Service.
type Option func(*Service)

// WithPythonRunner sets the helper runner for the direct-waveform backend.
func WithPythonRunner(runner *pyhelper.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.python = runner
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) Option {
	return func(s *Service) {
		s.commandRunner = runner
	}
}

// WithLookPath overrides executable lookup (for testing).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.lookPath = fn
		}
	}
}

// NewService constructs a synthesis engine. The backend is chosen here and
// never changes.
func NewService(cfg Config, logger *slog.Logger, opts ...Option) *Service {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	s := &Service{
		cfg:      cfg,
		backend:  SelectBackend(cfg.Model),
		logger:   logging.NewComponentLogger(logger, "tts"),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.python == nil {
		s.python = pyhelper.New("", logger)
	}
	reason := "model is not an MMS checkpoint"
	if s.backend == BackendDirectWaveform {
		reason = "model id has prefix " + directWaveformPrefix
	}
	s.logger.Debug("synthesis backend selected",
		logging.Args(append(logging.DecisionAttrs("tts_backend", s.backend.String(), reason),
			logging.String("model", cfg.Model))...)...)
	return s
}

// Backend reports which synthesis path this engine uses.
func (s *Service) Backend() Backend {
	return s.backend
}

// Model returns the configured model id.
func (s *Service) Model() string {
	return s.cfg.Model
}

// SynthesizeToFile voices text into outputAudio and returns that path.
func (s *Service) SynthesizeToFile(ctx context.Context, text, outputAudio string) (string, error) {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return "", &services.EmptyInputError{Message: emptyTextMessage}
	}

	var err error
	switch s.backend {
	case BackendDirectWaveform:
		err = s.synthesizeDirectWaveform(ctx, normalized, outputAudio)
	default:
		err = s.synthesizeCoqui(ctx, normalized, outputAudio)
	}
	if err != nil {
		return "", err
	}
	s.logger.Debug("speech synthesized",
		logging.String("backend", s.backend.String()),
		logging.String("model", s.cfg.Model),
		logging.String("output", outputAudio),
	)
	return outputAudio, nil
}

func (s *Service) synthesizeDirectWaveform(ctx context.Context, text, outputAudio string) error {
	if err := s.ensureVITS(ctx); err != nil {
		return err
	}

	samplesFile, err := os.CreateTemp(filepath.Dir(outputAudio), "waveform-*.f32")
	if err != nil {
		return fmt.Errorf("tts: create sample file: %w", err)
	}
	samplesPath := samplesFile.Name()
	samplesFile.Close()
	defer os.Remove(samplesPath)

	input, err := json.Marshal(map[string]string{
		"model":        s.cfg.Model,
		"text":         text,
		"samples_path": samplesPath,
	})
	if err != nil {
		return fmt.Errorf("tts: encode request: %w", err)
	}
	var out struct {
		SamplingRate int `json:"sampling_rate"`
		Count        int `json:"count"`
	}
	if err := s.python.RunJSON(ctx, pyhelper.Request{Script: directWaveformScript, Stdin: input}, &out); err != nil {
		return services.Wrap(services.ErrExternalTool, "synthesize", "vits", s.cfg.Model, err)
	}

	samples, err := readFloat32File(samplesPath)
	if err != nil {
		return fmt.Errorf("tts: read waveform: %w", err)
	}
	rate := out.SamplingRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	s.logger.Debug("waveform rendered",
		logging.Int("samples", len(samples)),
		logging.Int("sampling_rate", rate),
		logging.Float64("audio_seconds", float64(len(samples))/float64(rate)),
	)
	return WriteMonoPCM16(outputAudio, samples, rate)
}

func (s *Service) ensureVITS(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vitsLoaded {
		return nil
	}
	if err := s.python.Probe(ctx, directWaveformDeps, directWaveformRemedy, "torch", "transformers"); err != nil {
		return err
	}
	s.vitsLoaded = true
	return nil
}

func (s *Service) synthesizeCoqui(ctx context.Context, text, outputAudio string) error {
	binary, err := s.coquiBinary()
	if err != nil {
		return err
	}
	args := []string{"--text", text, "--model_name", s.cfg.Model, "--out_path", outputAudio}
	if err := s.run(ctx, binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "synthesize", "coqui", s.cfg.Model, err)
	}
	return nil
}

func (s *Service) coquiBinary() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coquiPath != "" {
		return s.coquiPath, nil
	}
	path, err := s.lookPath(s.cfg.Binary)
	if err != nil {
		return "", &services.DependencyMissingError{
			Dependency: "coqui TTS package",
			Remedy:     coquiRemedy,
			Err:        err,
		}
	}
	s.coquiPath = path
	return path, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(output)))
	}
	return nil
}

// readFloat32File decodes little-endian float32 samples.
func readFloat32File(path string) ([]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("sample file length %d is not a multiple of 4", len(data))
	}
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, nil
}
