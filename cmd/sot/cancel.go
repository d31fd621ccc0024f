package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sot/internal/signals"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the job running in this directory",
	Long: `Cancel a running 'sot ask' started from the current directory.

Points already answered are kept; the rest are reported as cancelled and the
partial answer is printed by the running command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		if err := signals.Send(signals.Dir(cwd)); err != nil {
			return fmt.Errorf("send cancel signal: %w", err)
		}
		printStatus("✓", "Cancel signal sent", color.FgGreen)
		return nil
	},
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
