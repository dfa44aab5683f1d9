package main

import (
	"fmt"
	"os"

	"github.com/hificopy/formflow"
	"github.com/hificopy/formflow/internal/presentation/tui"
	formhttp "github.com/hificopy/formflow/pkg/adapters/http"
	"github.com/hificopy/formflow/pkg/autosave"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Fill in a flow interactively",
	Long: `Walks through the flow in the terminal, one question at a time. With --server
every answer is auto-saved to a formflow server, which may disqualify the
session out of band. Type "back" to return to the previous question and
"exit" to stop.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRun(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, no markdown rendering)")
	runCmd.Flags().String("server", "", "Base URL of a formflow server to auto-save answers to")
	runCmd.Flags().String("session", "", "Resume an existing session id (with --server)")
	runCmd.Flags().Bool("score", false, "Print the lead score at the end")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flow, err := flowArg(args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	eng := newEngine(cfg, logger)

	var opts []formflow.SessionOption
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		sessionID, _ := cmd.Flags().GetString("session")
		opts = append(opts, formflow.WithAutoSave(
			formhttp.NewClient(server, formhttp.WithClientLogger(logger)),
			autosave.WithSessionID(sessionID),
			autosave.WithMaxAttempts(cfg.AutoSave.MaxAttempts),
			autosave.WithBackoff(autosave.ExponentialBackoffStrategy{
				Base:   cfg.AutoSave.Backoff,
				Factor: 2,
				Max:    cfg.AutoSave.MaxBackoff,
			}),
		))
	}
	sess := eng.NewSession(flow, opts...)

	headless, _ := cmd.Flags().GetBool("headless")
	runner := &formflow.Runner{
		Input:    cmd.InOrStdin(),
		Output:   cmd.OutOrStdout(),
		Headless: headless,
	}
	if !headless {
		runner.Renderer = tui.NewRenderer(cmd.OutOrStdout())
	}

	ctx := withContext(cmd)
	if err := runner.Run(ctx, sess); err != nil {
		return err
	}
	if err := sess.Flush(ctx); err != nil {
		return err
	}
	if st, ok := sess.SaveState(); ok && st.SessionID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Session: %s (%s)\n", st.SessionID, sess.Status())
	}
	if score, _ := cmd.Flags().GetBool("score"); score && sess.Done() {
		return printResult(cmd, sess.Score(ctx), tui.ScoreMarkdown(sess.Score(ctx)))
	}
	return nil
}
