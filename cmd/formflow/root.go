package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hificopy/formflow"
	"github.com/hificopy/formflow/internal/config"
	"github.com/hificopy/formflow/internal/logging"
	"github.com/hificopy/formflow/pkg/adapters/file"
	"github.com/hificopy/formflow/pkg/answers"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formflow",
	Short: "formflow is a qualification flow engine for lead capture forms",
	Long: `formflow validates, visualizes and runs question flows with conditional
routing, lead scoring and server-side qualification.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default $"+config.EnvConfigPath+" or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug|info|warn|error)")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if _, err := config.ParseLevel(level); err != nil {
			return cfg, err
		}
		cfg.Log.Level = level
	}
	if cfg.Answers.MaxInputSize > 0 {
		answers.DefaultMaxInputSize = cfg.Answers.MaxInputSize
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.Log.Level)
	return logging.NewWith(logging.Options{Level: level, Format: cfg.Log.Format})
}

func answerPolicy(cfg config.Config) answers.Policy {
	policy := answers.DefaultPolicy()
	if len(cfg.Answers.FreeEmailDomains) > 0 {
		policy.FreeEmailDomains = cfg.Answers.FreeEmailDomains
	}
	return policy
}

// newEngine builds the library engine the local commands share.
func newEngine(cfg config.Config, logger *slog.Logger, opts ...formflow.Option) *formflow.Engine {
	return formflow.New(append([]formflow.Option{
		formflow.WithLogger(logger),
		formflow.WithDisqualifyMessage(cfg.DisqualifyMessage),
		formflow.WithAnswerPolicy(answerPolicy(cfg)),
	}, opts...)...)
}

// flowArg loads the flow document named by the first argument.
func flowArg(args []string) (*domain.Flow, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing flow file argument")
	}
	flow, err := file.LoadFlow(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	return flow, nil
}

// answersFlag decodes --answers as a JSON object or a YAML mapping.
func answersFlag(cmd *cobra.Command) (domain.Answers, error) {
	raw, _ := cmd.Flags().GetString("answers")
	values := domain.Answers{}
	if raw == "" {
		return values, nil
	}
	if err := decodeAnswers([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("invalid --answers: %w", err)
	}
	return values, nil
}

func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
