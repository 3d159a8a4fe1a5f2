package config

const (
	defaultConfigPath           = "~/.config/dubber/config.toml"
	defaultDataDir              = "~/.local/share/dubber"
	defaultMediaDir             = "~/.local/share/dubber/media"
	defaultLogDir               = "~/.local/share/dubber/logs"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultFFmpegBin            = "ffmpeg"
	defaultTranscriptionBackend = "local"
	defaultWhisperBin           = "whisper"
	defaultWhisperModel         = "base"
	defaultTranslationBackend   = "huggingface"
	defaultTranslationModel     = "Helsinki-NLP/opus-mt-en-ru"
	defaultTargetLanguage       = "ru"
	defaultTTSModel             = "tts_models/en/ljspeech/tacotron2-DDC"
	defaultTTSBin               = "tts"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultLLMTitle             = "dubber"
	defaultLLMTimeoutSeconds    = 60
	defaultMaxConcurrentJobs    = 2
	defaultRetentionDays        = 7
	defaultSweepIntervalMinutes = 60
	defaultMaxUploadMB          = 100
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

var defaultAllowedExtensions = []string{"mp4", "wav"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			MediaDir: defaultMediaDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Media: Media{
			FFmpegBin: defaultFFmpegBin,
		},
		Transcription: Transcription{
			Provider:   defaultTranscriptionBackend,
			WhisperBin: defaultWhisperBin,
			Model:      defaultWhisperModel,
		},
		Translation: Translation{
			Provider:       defaultTranslationBackend,
			Model:          defaultTranslationModel,
			TargetLanguage: defaultTargetLanguage,
		},
		TTS: TTS{
			Model:  defaultTTSModel,
			Binary: defaultTTSBin,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Workflow: Workflow{
			MaxConcurrentJobs:    defaultMaxConcurrentJobs,
			RetentionDays:        defaultRetentionDays,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
		},
		Upload: Upload{
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
			MaxSizeMB:         defaultMaxUploadMB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
