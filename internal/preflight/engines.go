package preflight

import (
	"fmt"
	"strings"

	"dubber/internal/config"
	"dubber/internal/language"
	"dubber/internal/services/translate"
	"dubber/internal/services/whisper"
)

// CheckTranscriptionFromConfig summarizes the configured transcription backend.
func CheckTranscriptionFromConfig(cfg *config.Config) Result {
	const name = "Transcription"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	hint := "auto-detect"
	if src := strings.TrimSpace(cfg.Transcription.SourceLanguage); src != "" {
		hint = language.DisplayName(src)
	}
	switch cfg.Transcription.Provider {
	case whisper.ProviderOpenAI:
		if strings.TrimSpace(cfg.Transcription.OpenAIAPIKey) == "" {
			return Result{Name: name, Detail: "OpenAI provider selected but API key missing"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("OpenAI (%s, source %s)", cfg.Transcription.Model, hint)}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Local whisper (%s, source %s)", cfg.Transcription.Model, hint)}
	}
}

// CheckTranslationFromConfig summarizes the configured translation backend.
func CheckTranslationFromConfig(cfg *config.Config) Result {
	const name = "Translation"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	model := strings.TrimSpace(cfg.Translation.Model)
	if model == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled (transcript voiced as-is)"}
	}
	target := language.DisplayName(cfg.Translation.TargetLanguage)
	switch cfg.Translation.Provider {
	case translate.ProviderLLM:
		if strings.TrimSpace(cfg.LLM.APIKey) == "" {
			return Result{Name: name, Detail: "LLM provider selected but API key missing"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("LLM %s into %s", cfg.LLM.Model, target)}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Hugging Face %s into %s", model, target)}
	}
}
