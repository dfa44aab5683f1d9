package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hificopy/formflow"
	"github.com/hificopy/formflow/pkg/adapters/mcp"
	"github.com/hificopy/formflow/pkg/forms"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes flow validation, navigation, scoring and graph derivation as MCP tools
so AI agents can build and check flows.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMCP(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "MCP Server execution failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients (defaults to http://localhost<addr>)")
	mcpCmd.Flags().String("seed", "", "Directory of flow documents to expose by id")
}

func runMCP(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Logs go to stderr so they don't corrupt JSON-RPC on stdout.
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.close()

	if seed, _ := cmd.Flags().GetString("seed"); seed != "" {
		manager := forms.NewManager(st.flows, forms.WithLogger(logger))
		if err := seedFlows(ctx, manager, seed, logger); err != nil {
			return err
		}
	}

	eng := newEngine(cfg, logger)
	srv := mcp.NewServer(st.flows, formflow.Version, mcp.WithEngine(eng.Runtime()), mcp.WithLogger(logger))

	transport, _ := cmd.Flags().GetString("transport")
	switch transport {
	case "stdio":
		logger.Info("starting formflow MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")
		if baseURL == "" {
			baseURL = "http://localhost" + addr
		}
		if err := srv.ServeSSE(ctx, addr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
}
