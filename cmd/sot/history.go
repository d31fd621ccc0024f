package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sot/internal/config"
	"github.com/ShayCichocki/sot/internal/state"
)

var (
	historyLimit  int
	historyFormat string
	historyPurge  time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history [job-id]",
	Short: "Show past jobs",
	Long: `List recent jobs, or show one job with its per-point outcome.

A job can be named by any unique prefix of its ID, as printed by 'sot ask'.

Examples:
  sot history
  sot history 3f2a9c1e
  sot history --purge 720h`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of jobs to list")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format: text, json or yaml")
	historyCmd.Flags().DurationVar(&historyPurge, "purge", 0, "Delete jobs older than this duration")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(historyFormat)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	w := cmd.OutOrStdout()

	if historyPurge > 0 {
		n, err := db.PurgeOldJobs(historyPurge)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted %d jobs older than %s\n", n, historyPurge)
		return nil
	}

	if len(args) == 1 {
		job, err := db.GetJob(args[0])
		if errors.Is(err, state.ErrJobNotFound) {
			return fmt.Errorf("no job matches %q", args[0])
		}
		if err != nil {
			return err
		}
		return writeJob(w, job, format)
	}

	jobs, err := db.ListJobs(historyLimit)
	if err != nil {
		return err
	}
	return writeJobList(w, jobs, format)
}
