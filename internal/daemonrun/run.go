package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"dubber/internal/config"
	"dubber/internal/daemon"
	"dubber/internal/jobs"
	"dubber/internal/logging"
	"dubber/internal/mediastore"
	"dubber/internal/services/translate"
	"dubber/internal/services/tts"
	"dubber/internal/services/whisper"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the dubber daemon and blocks until the context is cancelled or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "dubber.log")
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	pidPath := filepath.Join(cfg.Paths.DataDir, "dubberd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	media, err := mediastore.New(cfg.Paths.MediaDir)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("open media store: %w", err)
	}

	d, err := daemon.New(cfg, store, media, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the bind address and job database access"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("dubber daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Group("ffmpeg",
			logging.String("binary", cfg.Media.FFmpegBin),
			logging.Bool("available", binaryAvailable(cfg.Media.FFmpegBin)),
		),
		logging.Group("transcription",
			logging.String("provider", cfg.Transcription.Provider),
			logging.Bool("available", cfg.Transcription.Provider == whisper.ProviderOpenAI || binaryAvailable(cfg.Transcription.WhisperBin)),
		),
		logging.Group("translation",
			logging.String("provider", cfg.Translation.Provider),
			logging.Bool("enabled", strings.TrimSpace(cfg.Translation.Model) != ""),
			logging.Bool("llm_key_present", cfg.Translation.Provider != translate.ProviderLLM || strings.TrimSpace(cfg.LLM.APIKey) != ""),
		),
		logging.Group("tts",
			logging.String("model", cfg.TTS.Model),
			logging.String("backend", tts.SelectBackend(cfg.TTS.Model).String()),
		),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
