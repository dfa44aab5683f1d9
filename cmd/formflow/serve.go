package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hificopy/formflow"
	formhttp "github.com/hificopy/formflow/pkg/adapters/http"
	"github.com/hificopy/formflow/pkg/forms"
	"github.com/hificopy/formflow/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the flow editor endpoints (forms, graph, validation) and the respondent
endpoints (resolve, score, progress) over HTTP. Storage is selected by the
storage.driver setting.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
	serveCmd.Flags().String("seed", "", "Directory of flow documents to load on start")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warn("failed to close storage", "err", err)
		}
	}()

	hooks := observability.LogHooks(logger)
	var metrics *observability.Metrics
	if cfg.HTTP.Metrics {
		metrics = observability.NewMetrics()
		hooks = observability.Chain(hooks, metrics.Hooks())
	}
	eng := newEngine(cfg, logger, formflow.WithLifecycleHooks(hooks))

	managerOpts := []forms.Option{
		forms.WithLogger(logger),
		forms.WithLifecycleHooks(hooks),
	}
	if st.locker != nil {
		managerOpts = append(managerOpts, forms.WithLocker(st.locker))
	}
	manager := forms.NewManager(st.flows, managerOpts...)

	if seed, _ := cmd.Flags().GetString("seed"); seed != "" {
		if err := seedFlows(ctx, manager, seed, logger); err != nil {
			return err
		}
	}

	serverOpts := []formhttp.Option{
		formhttp.WithProgressStore(st.progress),
		formhttp.WithEngine(eng.Runtime()),
		formhttp.WithAnswerPolicy(answerPolicy(cfg)),
		formhttp.WithVersion(formflow.Version),
		formhttp.WithLogger(logger),
	}
	if metrics != nil {
		serverOpts = append(serverOpts, formhttp.WithMetricsHandler(metrics.Handler()))
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           formhttp.NewHandler(manager, serverOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting formflow server", "addr", srv.Addr, "storage", cfg.Storage.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.HTTP.ShutdownTimeout)

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("formflow server stopped gracefully")
		return nil
	}
}
