package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/internal/config"
	"github.com/ShayCichocki/sot/internal/pipeline"
	"github.com/ShayCichocki/sot/internal/signals"
	"github.com/ShayCichocki/sot/internal/tui"
	"github.com/ShayCichocki/sot/pkg/models"
)

var (
	askFormat       string
	askMode         string
	askTUI          bool
	askConcurrency  int
	askPointTimeout time.Duration
	askNoHistory    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question with skeleton-of-thought",
	Long: `Decompose the question into a short numbered outline, expand every point
concurrently, and print the assembled answer.

The answer goes to stdout; a one-line status goes to stderr. Use --format json
or --format yaml for the full structured result, including per-point status.

A running job can be cancelled from another terminal with 'sot cancel'.

Examples:
  sot ask "What are practical tips to sleep better?"
  sot ask --concurrency 3 --point-timeout 30s "Explain TCP slow start"
  sot ask --mode normal "Explain TCP slow start"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askFormat, "format", "f", "text", "Output format: text, json or yaml")
	askCmd.Flags().StringVar(&askMode, "mode", string(models.ModeParallel), "Answer mode: parallel or normal (single request)")
	askCmd.Flags().BoolVar(&askTUI, "tui", false, "Show live point progress")
	askCmd.Flags().IntVarP(&askConcurrency, "concurrency", "c", 0, "Maximum point requests in flight (overrides dispatch.concurrency)")
	askCmd.Flags().DurationVar(&askPointTimeout, "point-timeout", 0, "Time budget per point, must be positive (overrides timeouts.point)")
	askCmd.Flags().BoolVar(&askNoHistory, "no-history", false, "Do not record this job in the history database")
}

// applyRunOverrides copies explicitly set flags onto cfg.
func applyRunOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("concurrency") {
		cfg.Dispatch.Concurrency = askConcurrency
	}
	if cmd.Flags().Changed("point-timeout") {
		cfg.Timeouts.Point = askPointTimeout
	}
	return cfg.Validate()
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("question is empty")
	}
	format, err := parseFormat(askFormat)
	if err != nil {
		return err
	}
	mode := models.Mode(askMode)
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q (want parallel or normal)", askMode)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyRunOverrides(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sigCtx := ctx
	var watcher *signals.Watcher
	if cwd, err := os.Getwd(); err == nil {
		watched, w, err := signals.Watch(ctx, signals.Dir(cwd), logger)
		if err != nil {
			logger.Warn("cancel signal watcher unavailable", zap.Error(err))
		} else {
			defer w.Close()
			ctx, watcher = watched, w
		}
	}

	client, err := newCompletionClient(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.History.Enabled && !askNoHistory {
		db, err := openHistory(cfg)
		if err != nil {
			logger.Warn("job history disabled", zap.Error(err))
		} else {
			defer db.Close()
			opts = append(opts, pipeline.WithHistory(db))
		}
	}

	var out *pipeline.Outcome
	switch {
	case mode == models.ModeNormal:
		out, err = pipeline.NewRunner(client, pipeline.FromConfig(cfg), opts...).RunNormal(ctx, query)
	case askTUI:
		out, err = runWithProgress(ctx, client, cfg, query, opts)
	default:
		out, err = pipeline.NewRunner(client, pipeline.FromConfig(cfg), opts...).Run(ctx, query)
	}
	note := cancelNote(sigCtx, watcher)
	if err != nil {
		if note != "" {
			writeCancelNote(cmd.ErrOrStderr(), note)
		}
		return err
	}

	if err := writeOutcome(cmd.OutOrStdout(), out, format); err != nil {
		return fmt.Errorf("write answer: %w", err)
	}
	if format == formatText {
		writeOutcomeStatus(cmd.ErrOrStderr(), out)
	}
	if note != "" {
		writeCancelNote(cmd.ErrOrStderr(), note)
	}
	if out.Partial() {
		return errPartialAnswer
	}
	return nil
}

// cancelNote says why a job stopped early: a 'sot cancel' signal or an
// interrupt. It is empty when neither happened.
func cancelNote(sigCtx context.Context, watcher *signals.Watcher) string {
	switch {
	case watcher != nil && watcher.Cancelled():
		return "cancelled by 'sot cancel'"
	case sigCtx.Err() != nil:
		return "interrupted"
	default:
		return ""
	}
}

// runWithProgress runs the job while the TUI renders point events.
// Quitting the TUI cancels the job.
func runWithProgress(ctx context.Context, client completion.Client, cfg *config.Config, query string, opts []pipeline.Option) (*pipeline.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program, _ := tui.NewProgressProgram(query, cancel)
	runner := pipeline.NewRunner(client, pipeline.FromConfig(cfg),
		append(opts, pipeline.WithObserver(tui.Observer(program)))...)

	type result struct {
		out *pipeline.Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := runner.Run(ctx, query)
		program.Send(tui.DoneMsg{Partial: out != nil && out.Partial(), Err: err})
		done <- result{out, err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		logger.Warn("progress view failed", zap.Error(err))
	}
	r := <-done
	return r.out, r.err
}
