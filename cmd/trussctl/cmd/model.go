package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/structure"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the built-in sample truss as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd, structure.NewSampleModel())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <model.json|->",
	Short: "Check a snapshot for dangling members, duplicate ids and bad supports",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var requestCmd = &cobra.Command{
	Use:   "request <model.json|->",
	Short: "Print the analysis service request for a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(cmd, args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd, analysis.RequestFromModel(m))
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(requestCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	var m structure.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}

	out := cmd.OutOrStdout()
	errs := structure.Validate(m)
	if len(errs) == 0 {
		fmt.Fprintf(out, "%s %d nodes, %d members\n", color.GreenString("✓ valid:"), len(m.Nodes), len(m.Members))
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	for _, e := range errs {
		subject := e.NodeID
		if e.MemberID != "" {
			subject = e.MemberID
		}
		if subject == "" {
			subject = "-"
		}
		fmt.Fprintf(out, "%s %-6s %-8s %s\n", red("✗"), e.Type, subject, e.Message)
	}
	return fmt.Errorf("%w: %d problem(s)", structure.ErrInvalidModel, len(errs))
}

func loadModel(cmd *cobra.Command, name string) (structure.Model, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return structure.Model{}, err
	}
	return structure.Decode(data)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
