package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dubber/internal/services"
)

type localBackend struct {
	binary string
	model  string
	run    func(ctx context.Context, name string, args ...string) error
}

func newLocalBackend(cfg Config, lookPath func(string) (string, error), run func(context.Context, string, ...string) error) (*localBackend, error) {
	binary, err := lookPath(cfg.Binary)
	if err != nil {
		return nil, &services.DependencyMissingError{
			Dependency: "whisper package",
			Remedy:     installRemedy,
			Err:        err,
		}
	}
	return &localBackend{binary: binary, model: cfg.Model, run: run}, nil
}

// transcriptPayload is the subset of the whisper CLI JSON output we read.
type transcriptPayload struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (b *localBackend) transcribe(ctx context.Context, audioPath, languageHint string) (Result, error) {
	outputDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisper-*")
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	if err := b.run(ctx, b.binary, BuildArgs(audioPath, outputDir, b.model, languageHint)...); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisper", "", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outputDir, stem+".json"))
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: read whisper output: %w", err)
	}
	var payload transcriptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Result{}, fmt.Errorf("transcribe: parse whisper output: %w", err)
	}
	return Result{Text: payload.Text, Language: payload.Language}, nil
}

// BuildArgs constructs the whisper CLI arguments.
func BuildArgs(audioPath, outputDir, model, languageHint string) []string {
	args := []string{
		audioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if languageHint != "" {
		args = append(args, "--language", languageHint)
	}
	return args
}
