package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hificopy/formflow/internal/presentation/tui"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <flow-file>",
	Short: "Compute where a respondent goes after a question",
	Long: `Resolves the navigation decision after the question at --current given
--answers (a JSON object or YAML mapping).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runResolve(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().Int("current", 0, "Index of the question just answered")
	resolveCmd.Flags().String("question", "", "Id of the question just answered (overrides --current)")
	resolveCmd.Flags().String("answers", "", `Answers, e.g. '{"size": "11-50"}'`)
	resolveCmd.Flags().Bool("json", false, "Print the decision as JSON")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flow, err := flowArg(args)
	if err != nil {
		return err
	}
	values, err := answersFlag(cmd)
	if err != nil {
		return err
	}

	current, _ := cmd.Flags().GetInt("current")
	if id, _ := cmd.Flags().GetString("question"); id != "" {
		current = domain.IndexOf(flow.Questions, id)
		if current < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
	}

	d := newEngine(cfg, newLogger(cfg)).Resolve(withContext(cmd), flow, current, values)
	return printResult(cmd, d, tui.DecisionMarkdown(flow, d))
}

// printResult writes v as JSON with --json, otherwise the rendered markdown.
func printResult(cmd *cobra.Command, v any, md string) error {
	out := cmd.OutOrStdout()
	if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	rendered, err := tui.NewRenderer(out)(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

// decodeAnswers accepts JSON or YAML; JSON is valid YAML.
func decodeAnswers(data []byte, values *domain.Answers) error {
	return yaml.Unmarshal(data, values)
}
