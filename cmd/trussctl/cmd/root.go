package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "trussctl",
	Short: "trussctl - offline tools for truss diagram snapshots",
	Long: `trussctl works on model snapshots without a running server:
  - print the built-in sample truss
  - validate a snapshot
  - build the analysis service request for a snapshot
  - render a snapshot (optionally with a result) to draw ops or PNG

Examples:
  trussctl sample > truss.json
  trussctl validate truss.json
  trussctl request truss.json
  trussctl ops truss.json --width 1024 --height 768
  trussctl render truss.json --result result.json -o truss.png`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		gg.SetLogger(logger)
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// readInput reads a file argument; "-" reads stdin.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
