package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hificopy/formflow/internal/presentation/graph"
	"github.com/hificopy/formflow/pkg/workflow"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <flow-file>",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the flow, or with --format json the
node/edge document the visual editor consumes.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runGraph(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("format", "mermaid", "Output format: mermaid or json")
	graphCmd.Flags().Bool("rules", false, "Include conditional rule edges in the json graph")
}

func runGraph(cmd *cobra.Command, args []string) error {
	flow, err := flowArg(args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	switch format {
	case "mermaid":
		fmt.Fprint(out, graph.GenerateMermaid(flow, nil))
		return nil
	case "json":
		var opts []workflow.DeriveOption
		if rules, _ := cmd.Flags().GetBool("rules"); rules {
			opts = append(opts, workflow.WithRuleEdges())
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(workflow.Derive(flow, opts...))
	default:
		return fmt.Errorf("unknown format %q (mermaid, json)", format)
	}
}
