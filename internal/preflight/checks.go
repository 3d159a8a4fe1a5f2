package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/services/llm"
	"dubber/internal/services/translate"
	"dubber/internal/services/tts"
	"dubber/internal/services/whisper"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// SystemRequirements lists the binaries the configured engines shell out to.
func SystemRequirements(cfg *config.Config) []deps.Requirement {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBin,
			Description: "Required for audio extraction and muxing",
		},
		{
			Name:        "Python",
			Command:     pythonCommand(cfg),
			Description: "Runs transformers-based translation and speech engines",
		},
	}
	if cfg.Transcription.Provider != whisper.ProviderOpenAI {
		requirements = append(requirements, deps.Requirement{
			Name:        "Whisper",
			Command:     cfg.Transcription.WhisperBin,
			Description: "Required for local transcription",
		})
	}
	if tts.SelectBackend(cfg.TTS.Model) == tts.BackendGeneral {
		requirements = append(requirements, deps.Requirement{
			Name:        "Coqui TTS",
			Command:     cfg.TTS.Binary,
			Description: "Required for speech synthesis with Coqui models",
		})
	}
	return requirements
}

// CheckSystemDeps evaluates all binary dependencies for the given config.
// Both the daemon and the CLI deps command use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(SystemRequirements(cfg))
}

// PythonModules lists the python packages the configured engines import.
func PythonModules(cfg *config.Config) []deps.Module {
	var modules []deps.Module
	needsTransformers := cfg.Translation.Provider != translate.ProviderLLM && strings.TrimSpace(cfg.Translation.Model) != ""
	direct := tts.SelectBackend(cfg.TTS.Model) == tts.BackendDirectWaveform
	if needsTransformers || direct {
		modules = append(modules, deps.Module{
			Name:        "transformers",
			Imports:     []string{"transformers"},
			Remedy:      "pip install transformers sentencepiece",
			Description: "Hugging Face translation and MMS speech models",
		})
	}
	if direct {
		modules = append(modules, deps.Module{
			Name:        "torch",
			Imports:     []string{"torch"},
			Remedy:      "pip install torch",
			Description: "Required for MMS VITS speech synthesis",
		})
	}
	return modules
}

// CheckPythonDeps probes the python packages the configured engines import.
func CheckPythonDeps(ctx context.Context, cfg *config.Config, prober deps.ModuleProber) []deps.Status {
	return deps.CheckPythonModules(ctx, prober, PythonModules(cfg))
}

func pythonCommand(cfg *config.Config) string {
	if interpreter := strings.TrimSpace(cfg.Python.Interpreter); interpreter != "" {
		return interpreter
	}
	return "python3"
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
