package main

import (
	"fmt"
	"os"

	"github.com/hificopy/formflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score <flow-file>",
	Short: "Compute the lead score of a set of answers",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScore(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().String("answers", "", `Answers, e.g. '{"size": "11-50"}'`)
	scoreCmd.Flags().Bool("json", false, "Print the score as JSON")
}

func runScore(cmd *cobra.Command, args []string) error {
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

	score := newEngine(cfg, newLogger(cfg)).Score(withContext(cmd), flow, values)
	return printResult(cmd, score, tui.ScoreMarkdown(score))
}
