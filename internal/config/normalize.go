package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"dubber/internal/language"
)

// applyEnvironment overlays the legacy environment variables on top of the
// repository defaults. Values from the config file are decoded afterwards and
// take precedence.
func (c *Config) applyEnvironment() {
	if value, ok := os.LookupEnv("FFMPEG_BIN"); ok {
		c.Media.FFmpegBin = value
	}
	if value, ok := os.LookupEnv("WHISPER_MODEL_NAME"); ok {
		c.Transcription.Model = value
	}
	if value, ok := os.LookupEnv("DUBBING_SOURCE_LANGUAGE"); ok {
		c.Transcription.SourceLanguage = value
	}
	if value, ok := os.LookupEnv("HF_TRANSLATION_MODEL_NAME"); ok {
		c.Translation.Model = value
	}
	if value, ok := os.LookupEnv("COQUI_TTS_MODEL_NAME"); ok {
		c.TTS.Model = value
	}
	if value, ok := os.LookupEnv("VIDEO_RETENTION_DAYS"); ok {
		if days, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			c.Workflow.RetentionDays = days
		}
	}
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngines()
	if err := c.normalizeLanguages(); err != nil {
		return err
	}
	c.normalizeCredentials()
	c.normalizeUpload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		c.Paths.MediaDir = defaultMediaDir
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("DUBBER_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeEngines() {
	c.Media.FFmpegBin = strings.TrimSpace(c.Media.FFmpegBin)
	if c.Media.FFmpegBin == "" {
		c.Media.FFmpegBin = defaultFFmpegBin
	}
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaultTranscriptionBackend
	}
	c.Transcription.WhisperBin = strings.TrimSpace(c.Transcription.WhisperBin)
	if c.Transcription.WhisperBin == "" {
		c.Transcription.WhisperBin = defaultWhisperBin
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.OpenAIBaseURL = strings.TrimSpace(c.Transcription.OpenAIBaseURL)

	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = defaultTranslationBackend
	}
	// An empty translation model is meaningful (passthrough) and is not defaulted.
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)

	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
	c.TTS.Binary = strings.TrimSpace(c.TTS.Binary)
	if c.TTS.Binary == "" {
		c.TTS.Binary = defaultTTSBin
	}
	c.Python.Interpreter = strings.TrimSpace(c.Python.Interpreter)

	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
}

func (c *Config) normalizeLanguages() error {
	source, err := language.Normalize(c.Transcription.SourceLanguage)
	if err != nil {
		return fmt.Errorf("transcription.source_language: %w", err)
	}
	c.Transcription.SourceLanguage = source

	target, err := language.Normalize(c.Translation.TargetLanguage)
	if err != nil {
		return fmt.Errorf("translation.target_language: %w", err)
	}
	c.Translation.TargetLanguage = target
	return nil
}

func (c *Config) normalizeCredentials() {
	c.Transcription.OpenAIAPIKey = strings.TrimSpace(c.Transcription.OpenAIAPIKey)
	if c.Transcription.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Transcription.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeUpload() {
	seen := make(map[string]struct{}, len(c.Upload.AllowedExtensions))
	normalized := make([]string, 0, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		normalized = append(normalized, ext)
	}
	if len(normalized) == 0 {
		normalized = append(normalized, defaultAllowedExtensions...)
	}
	c.Upload.AllowedExtensions = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
