package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ShayCichocki/sot/internal/skeleton"
)

// Exit codes.
const (
	exitOK            = 0
	exitError         = 1
	exitPartial       = 2
	exitDecomposition = 3
)

// errPartialAnswer is returned after a partial answer has been printed.
var errPartialAnswer = errors.New("answer is partial: some points failed")

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "sot",
	Short: "Skeleton-of-thought answers from Claude",
	Long: `sot answers a question in two phases: it first asks for a short numbered
outline (the skeleton), then expands every point of the outline concurrently and
assembles the expansions in outline order.

A point that fails or times out is replaced by a placeholder; the rest of the
answer is still returned and the command exits with status 2.

Exit status:
  0  complete answer
  1  other errors (configuration, credentials, I/O)
  2  partial answer
  3  the question could not be decomposed`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.OutputPaths = []string{"stderr"}
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command and exits with the status for its outcome.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errPartialAnswer) {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errPartialAnswer):
		return exitPartial
	case skeleton.IsDecompositionError(err):
		return exitDecomposition
	default:
		return exitError
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(versionCmd)
}
