package pipeline

import (
	"dubber/internal/config"
	"dubber/internal/services/llm"
	"dubber/internal/services/translate"
	"dubber/internal/services/tts"
	"dubber/internal/services/whisper"
)

// Settings is the immutable engine configuration for one orchestrator.
type Settings struct {
	FFmpegBin         string
	SourceLanguage    string
	PythonInterpreter string
	Transcription     whisper.Config
	Translation       translate.Config
	TTS               tts.Config
	LLM               llm.Config
}

// SettingsFromConfig snapshots the engine settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		FFmpegBin:         cfg.Media.FFmpegBin,
		SourceLanguage:    cfg.Transcription.SourceLanguage,
		PythonInterpreter: cfg.Python.Interpreter,
		Transcription: whisper.Config{
			Provider:      cfg.Transcription.Provider,
			Binary:        cfg.Transcription.WhisperBin,
			Model:         cfg.Transcription.Model,
			OpenAIAPIKey:  cfg.Transcription.OpenAIAPIKey,
			OpenAIBaseURL: cfg.Transcription.OpenAIBaseURL,
		},
		Translation: translate.Config{
			Provider:       cfg.Translation.Provider,
			Model:          cfg.Translation.Model,
			SourceLanguage: cfg.Transcription.SourceLanguage,
			TargetLanguage: cfg.Translation.TargetLanguage,
		},
		TTS: tts.Config{
			Model:  cfg.TTS.Model,
			Binary: cfg.TTS.Binary,
		},
		LLM: llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		},
	}
}
