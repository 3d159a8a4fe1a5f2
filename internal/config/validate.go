package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.MediaDir == "" {
		return errors.New("paths.media_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Provider {
	case "local":
		return nil
	case "openai":
		if c.Transcription.OpenAIAPIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("transcription.openai_api_key is required when transcription.provider is openai. Set OPENAI_API_KEY or edit %s", defaultPath)
		}
		return nil
	default:
		return fmt.Errorf("transcription.provider must be one of local, openai (got %q)", c.Transcription.Provider)
	}
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Provider {
	case "huggingface":
		return nil
	case "llm":
		if c.Translation.Model != "" && c.LLM.APIKey == "" {
			return errors.New("llm.api_key must be set when translation.provider is llm")
		}
		if c.Translation.Model != "" && c.Translation.TargetLanguage == "" {
			return errors.New("translation.target_language must be set when translation.provider is llm")
		}
		if c.LLM.TimeoutSeconds < 0 {
			return errors.New("llm.timeout_seconds must be non-negative")
		}
		return nil
	default:
		return fmt.Errorf("translation.provider must be one of huggingface, llm (got %q)", c.Translation.Provider)
	}
}

func (c *Config) validateTTS() error {
	if c.TTS.Model == "" {
		return errors.New("tts.model must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxConcurrentJobs <= 0 {
		return errors.New("workflow.max_concurrent_jobs must be positive")
	}
	if c.Workflow.RetentionDays < 0 {
		return errors.New("workflow.retention_days must be non-negative")
	}
	if c.Workflow.SweepIntervalMinutes <= 0 {
		return errors.New("workflow.sweep_interval_minutes must be positive")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxSizeMB <= 0 {
		return errors.New("upload.max_size_mb must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
