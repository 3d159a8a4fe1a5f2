package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"dubber/internal/api"
	"dubber/internal/config"
	"dubber/internal/fileutil"
	"dubber/internal/jobs"
	"dubber/internal/language"
	"dubber/internal/mediastore"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Store a video and create a dubbing job for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *jobs.Store, media *mediastore.Store) error {
				job, err := uploadFile(cmd.Context(), cfg, store, media, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.VideoFromJob(job))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded video %d (%s)\n", job.ID, job.OriginalName)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Upload a video and dub it in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *jobs.Store, media *mediastore.Store) error {
				job, err := uploadFile(cmd.Context(), cfg, store, media, args[0])
				if err != nil {
					return err
				}
				summary, err := dubInForeground(cmd, ctx, cfg, store, media, job.ID)
				if err != nil {
					return err
				}
				job, err = store.GetByID(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				if strings.TrimSpace(outputPath) != "" && job != nil && job.ResultMedia != "" {
					if err := exportResult(media, job.ResultMedia, outputPath); err != nil {
						return err
					}
				}
				return reportSummary(cmd, jsonOutput, job, summary)
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Copy the dubbed video to this path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Dub an uploaded video in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *jobs.Store, media *mediastore.Store) error {
				summary, err := dubInForeground(cmd, ctx, cfg, store, media, id)
				if err != nil {
					return err
				}
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				return reportSummary(cmd, jsonOutput, job, summary)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show one dubbing job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStores(func(_ *config.Config, store *jobs.Store, _ *mediastore.Store) error {
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("video %d not found", id)
				}
				if jsonOutput {
					return writeJSON(cmd, api.VideoFromJob(job))
				}
				out := cmd.OutOrStdout()
				for _, line := range jobLines(job, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dubbing jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []jobs.Status
			for _, value := range statusFilter {
				status, ok := jobs.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}
			return ctx.withStores(func(_ *config.Config, store *jobs.Store, _ *mediastore.Store) error {
				list, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					resp := make([]api.VideoResponse, 0, len(list))
					for _, job := range list {
						resp = append(resp, api.VideoFromJob(job))
					}
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No videos")
					return nil
				}
				fmt.Fprintln(out, renderJobTable(list))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFilter, "status", "s", nil, "Filter by status (uploaded, processing, completed, failed)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job and its stored videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStores(func(_ *config.Config, store *jobs.Store, media *mediastore.Store) error {
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := jobs.DeleteJob(cmd.Context(), store, media, job); err != nil {
					if errors.Is(err, jobs.ErrJobNotFound) {
						return fmt.Errorf("video %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %d\n", id)
				return nil
			})
		},
	}
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var days int
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete jobs older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *jobs.Store, media *mediastore.Store) error {
				retention := cfg.Workflow.RetentionDays
				if cmd.Flags().Changed("days") {
					retention = days
				}
				if retention < 0 {
					return fmt.Errorf("retention days must be >= 0")
				}
				sweeper := jobs.NewSweeper(store, media, retention, ctx.logger(cmd))
				result, err := sweeper.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d videos older than %d days\n", result.DeletedCount, result.RetentionDays)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Override the configured retention window")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func uploadFile(ctx context.Context, cfg *config.Config, store *jobs.Store, media *mediastore.Store, source string) (*jobs.Job, error) {
	path, err := config.ExpandPath(strings.TrimSpace(source))
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("inspect video: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	rules := mediastore.UploadRules{
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxBytes:          cfg.MaxUploadBytes(),
	}
	if err := mediastore.ValidateUpload(name, info.Size(), rules); err != nil {
		return nil, err
	}

	stored, err := media.SaveOriginal(ctx, name, file)
	if err != nil {
		return nil, err
	}
	job, err := store.Create(ctx, stored, name)
	if err != nil {
		_ = media.Delete(stored)
		return nil, err
	}
	return job, nil
}

// dubInForeground admits the job through a single-slot dispatcher so the CLI
// applies the same checks as the HTTP API, then waits for it to finish.
func dubInForeground(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, store *jobs.Store, media *mediastore.Store, id int64) (jobs.Summary, error) {
	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := cmdCtx.logger(cmd)
	dispatcher := jobs.NewDispatcher(store, processorFactory(cfg, store, media, logger), 1, logger)
	var summary jobs.Summary
	dispatcher.OnDone(func(_ jobs.Ticket, s jobs.Summary) {
		summary = s
	})
	if err := dispatcher.StartWorkers(runCtx); err != nil {
		return summary, err
	}
	defer dispatcher.Stop()

	if _, err := dispatcher.Start(runCtx, id); err != nil {
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			return summary, fmt.Errorf("video %d not found", id)
		case errors.Is(err, jobs.ErrSourceMissing):
			return summary, fmt.Errorf("video %d: %s", id, jobs.MessageSourceMissing)
		case errors.Is(err, jobs.ErrAlreadyProcessing):
			return summary, fmt.Errorf("video %d is already being dubbed", id)
		default:
			return summary, err
		}
	}
	dispatcher.Wait()
	if err := runCtx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func reportSummary(cmd *cobra.Command, jsonOutput bool, job *jobs.Job, summary jobs.Summary) error {
	if jsonOutput {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else if job != nil {
		out := cmd.OutOrStdout()
		for _, line := range jobLines(job, shouldColorize(out)) {
			fmt.Fprintln(out, line)
		}
	}
	if summary.Status == jobs.StatusFailed {
		return fmt.Errorf("dubbing failed: %s", summary.Error)
	}
	if summary.Error != "" {
		return errors.New(summary.Error)
	}
	return nil
}

func exportResult(media *mediastore.Store, name, target string) error {
	dest, err := config.ExpandPath(target)
	if err != nil {
		return err
	}
	src, err := media.Path(name)
	if err != nil {
		return fmt.Errorf("resolve dubbed video: %w", err)
	}
	if _, err := fileutil.ExportVerified(src, dest); err != nil {
		return fmt.Errorf("export dubbed video: %w", err)
	}
	return nil
}

func jobLines(job *jobs.Job, colorize bool) []string {
	lines := []string{
		renderField("Video", strconv.FormatInt(job.ID, 10)),
		renderField("File", orDash(job.OriginalName)),
		renderStatusLine("Status", jobStatusKind(job.Status), string(job.Status), colorize),
	}
	if job.DetectedLanguage != "" {
		lines = append(lines, renderField("Language", fmt.Sprintf("%s (%s)", language.DisplayName(job.DetectedLanguage), job.DetectedLanguage)))
	}
	lines = append(lines,
		renderField("Original", orDash(job.SourceMedia)),
		renderField("Dubbed", orDash(job.ResultMedia)),
		renderField("Created", formatTimestamp(job.CreatedAt)),
		renderField("Updated", formatTimestamp(job.UpdatedAt)),
	)
	if job.ErrorMessage != "" {
		lines = append(lines, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
	}
	return lines
}

func renderJobTable(list []*jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			orDash(job.OriginalName),
			string(job.Status),
			orDash(job.DetectedLanguage),
			formatTimestamp(job.CreatedAt),
			orDash(job.ErrorMessage),
		})
	}
	return renderTable(
		[]string{"ID", "File", "Status", "Lang", "Created", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id %q", arg)
	}
	return id, nil
}
