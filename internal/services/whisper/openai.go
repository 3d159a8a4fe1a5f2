package whisper

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"dubber/internal/services"
)

type openAIBackend struct {
	client *openai.Client
	model  string
}

func newOpenAIBackend(cfg Config, httpClient *http.Client) (*openAIBackend, error) {
	key := strings.TrimSpace(cfg.OpenAIAPIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "openai", "api key not configured",
			errors.New("set transcription.openai_api_key or OPENAI_API_KEY"))
	}
	clientCfg := openai.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.OpenAIBaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &openAIBackend{
		client: openai.NewClientWithConfig(clientCfg),
		model:  apiModel(cfg.Model),
	}, nil
}

func (b *openAIBackend) transcribe(ctx context.Context, audioPath, languageHint string) (Result, error) {
	resp, err := b.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    b.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: languageHint,
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "transcription request failed", err)
	}
	return Result{Text: resp.Text, Language: resp.Language}, nil
}

// apiModel maps local model sizes ("base", "small") to the hosted model.
func apiModel(model string) string {
	model = strings.TrimSpace(model)
	if strings.Contains(model, "whisper") || strings.Contains(model, "transcribe") {
		return model
	}
	return openai.Whisper1
}
