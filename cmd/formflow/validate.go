package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hificopy/formflow/internal/presentation/tui"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>...",
	Short: "Check flows for broken references, loops and unreachable questions",
	Long: `Validates each flow document (JSON or YAML) and prints a report.
Exits with status 1 when any flow has errors, or warnings with --strict.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ok, err := runValidate(cmd, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as failures")
	validateCmd.Flags().Bool("json", false, "Print the reports as JSON")
}

func runValidate(cmd *cobra.Command, args []string) (bool, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return false, err
	}
	strict, _ := cmd.Flags().GetBool("strict")
	jsonMode, _ := cmd.Flags().GetBool("json")

	eng := newEngine(cfg, newLogger(cfg))
	out := cmd.OutOrStdout()
	render := tui.NewRenderer(out)

	allOK := true
	reports := make(map[string]*domain.ValidationReport, len(args))
	for _, path := range args {
		flow, err := flowArg([]string{path})
		if err != nil {
			return false, err
		}
		report := eng.Validate(withContext(cmd), flow)
		reports[flow.ID] = report

		ok := report.Valid && (!strict || len(report.Warnings) == 0)
		allOK = allOK && ok
		if jsonMode {
			continue
		}

		md, err := render(tui.ReportMarkdown(flow.ID, report))
		if err != nil {
			return false, err
		}
		fmt.Fprint(out, md)
		verdict := "Flow is valid!"
		if !ok {
			verdict = "Flow has problems."
		}
		fmt.Fprintln(out, tui.Status(out, ok, verdict))
	}

	if jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return false, err
		}
	}
	return allOK, nil
}
