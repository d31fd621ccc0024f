package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sot/internal/config"
	"github.com/ShayCichocki/sot/internal/pipeline"
)

var (
	benchIterations int
	benchFormat     string
)

var benchCmd = &cobra.Command{
	Use:   "bench <prompt>",
	Short: "Compare parallel and normal answering speed",
	Long: `Run the prompt repeatedly, alternating a skeleton-of-thought run and a
single-request run, and report output tokens per second for each mode.

Benchmark runs are not recorded in the job history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 5, "Runs per mode")
	benchCmd.Flags().StringVarP(&benchFormat, "format", "f", "text", "Output format: text, json or yaml")
	benchCmd.Flags().IntVarP(&askConcurrency, "concurrency", "c", 0, "Maximum point requests in flight (overrides dispatch.concurrency)")
	benchCmd.Flags().DurationVar(&askPointTimeout, "point-timeout", 0, "Time budget per point, must be positive (overrides timeouts.point)")
}

func runBench(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	format, err := parseFormat(benchFormat)
	if err != nil {
		return err
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

	client, err := newCompletionClient(ctx, cfg)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(client, pipeline.FromConfig(cfg), pipeline.WithLogger(logger))
	report, benchErr := runner.Bench(ctx, prompt, benchIterations)
	if report == nil {
		return benchErr
	}
	if err := writeBenchReport(cmd.OutOrStdout(), report, format); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return benchErr
}
