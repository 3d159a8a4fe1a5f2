package preflight

import (
	"context"
	"strings"

	"dubber/internal/config"
	"dubber/internal/services/translate"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the directory and remote-service checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Media directory", cfg.Paths.MediaDir))
	if strings.TrimSpace(cfg.Paths.WorkDir) != "" {
		results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	}

	results = append(results, CheckTranscriptionFromConfig(cfg))
	results = append(results, CheckTranslationFromConfig(cfg))

	if cfg.Translation.Provider == translate.ProviderLLM && strings.TrimSpace(cfg.Translation.Model) != "" {
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.LLM))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
