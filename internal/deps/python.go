package deps

import (
	"context"
	"errors"

	"dubber/internal/services"
)

// ModuleProber imports python modules to prove they are installed.
type ModuleProber interface {
	Probe(ctx context.Context, dependency, remedy string, modules ...string) error
}

// Module describes a python package an engine loads at runtime.
type Module struct {
	Name        string
	Imports     []string
	Remedy      string
	Description string
	Optional    bool
}

// CheckPythonModules probes each module through prober.
func CheckPythonModules(ctx context.Context, prober ModuleProber, modules []Module) []Status {
	results := make([]Status, 0, len(modules))
	for _, mod := range modules {
		status := Status{
			Name:        mod.Name,
			Description: mod.Description,
			Optional:    mod.Optional,
		}
		err := prober.Probe(ctx, mod.Name, mod.Remedy, mod.Imports...)
		switch {
		case err == nil:
			status.Available = true
		case errors.Is(err, services.ErrDependencyMissing):
			status.Detail = err.Error()
		default:
			status.Detail = "probe failed: " + err.Error()
		}
		results = append(results, status)
	}
	return results
}
