package whisper

// Config captures runtime settings for transcription.
type Config struct {
	// Provider is "local" (whisper CLI) or "openai".
	Provider string
	// Binary is the whisper executable for the local provider.
	Binary string
	// Model is the whisper model size or API model identifier.
	Model string

	// OpenAI settings apply to the openai provider only.
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"

	DefaultBinary = "whisper"
	DefaultModel  = "base"

	installRemedy = "pip install openai-whisper"
)
