package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dubber/internal/deps"
	"dubber/internal/preflight"
	"dubber/internal/pyhelper"
)

type depsReport struct {
	Dependencies []deps.Status      `json:"dependencies"`
	Checks       []preflight.Result `json:"checks"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var skipPython bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, Python modules, and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := depsReport{Dependencies: preflight.CheckSystemDeps(cfg)}
			if !skipPython {
				runner := pyhelper.New(cfg.Python.Interpreter, ctx.logger(cmd))
				report.Dependencies = append(report.Dependencies, preflight.CheckPythonDeps(cmd.Context(), cfg, runner)...)
			}
			report.Checks = preflight.RunAll(cmd.Context(), cfg)

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, dependencyTable(report.Dependencies))
				line, _ := missingLine(report.Dependencies, colorize)
				fmt.Fprintln(out, line)
				for _, line := range checkLines(report.Checks, colorize) {
					fmt.Fprintln(out, line)
				}
			}

			missing := deps.Missing(report.Dependencies)
			failed := preflight.Failed(report.Checks)
			if len(missing) > 0 || len(failed) > 0 {
				return fmt.Errorf("%d required dependencies missing, %d checks failed", len(missing), len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&skipPython, "skip-python", false, "Skip probing Python modules")
	return cmd
}

func dependencyTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, dep := range statuses {
		state := "ready"
		detail := dep.Resolved
		if !dep.Available {
			state = "missing"
			if dep.Optional {
				state = "optional"
			}
			detail = dep.Detail
		}
		rows = append(rows, []string{dep.Name, orDash(dep.Command), state, orDash(detail)})
	}
	return renderTable([]string{"Dependency", "Command", "State", "Detail"}, rows, nil)
}

func missingLine(statuses []deps.Status, colorize bool) (string, bool) {
	missing := deps.Missing(statuses)
	if len(missing) == 0 {
		return renderStatusLine("Dependencies", statusOK, "all required tools available", colorize), false
	}
	names := make([]string, 0, len(missing))
	for _, dep := range missing {
		names = append(names, dep.Name)
	}
	return renderStatusLine("Missing", statusError, strings.Join(names, ", "), colorize), true
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return lines
}
