package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hificopy/formflow/internal/logging"
	"github.com/hificopy/formflow/internal/runtime"
	"github.com/hificopy/formflow/internal/validator"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/ports"
	"github.com/hificopy/formflow/pkg/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ResolveResponse is the structured result of resolve_next.
type ResolveResponse struct {
	Decision   domain.Decision `json:"decision" jsonschema_description:"The navigation decision"`
	QuestionID string          `json:"questionId,omitempty" jsonschema_description:"The id of the next question, when the flow continues"`
}

// Server exposes the engine as MCP tools.
type Server struct {
	store     ports.FlowStore
	engine    *runtime.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithEngine sets the engine used by resolve_next and score_answers.
func WithEngine(engine *runtime.Engine) Option {
	return func(s *Server) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance. store may be nil, in which
// case tools only accept inline flow documents.
func NewServer(store ports.FlowStore, version string, opts ...Option) *Server {
	s := &Server{
		store:     store,
		engine:    runtime.NewEngine(),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("formflow-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	flowArgs := []mcp.ToolOption{
		mcp.WithString("form_id", mcp.Description("Id of a stored flow (optional if flow is provided)")),
		mcp.WithString("flow", mcp.Description("Inline flow document as JSON (optional if form_id is provided)")),
	}
	with := func(opts ...mcp.ToolOption) []mcp.ToolOption {
		return append(append([]mcp.ToolOption{}, flowArgs...), opts...)
	}

	s.mcpServer.AddTool(mcp.NewTool("validate_flow", with(
		mcp.WithDescription("Validate a flow: dangling references, self loops, unreachable questions and stale scoring keys."),
		mcp.WithOutputSchema[domain.ValidationReport](),
	)...), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("resolve_next", with(
		mcp.WithDescription("Resolve where a respondent goes after answering the question at index current."),
		mcp.WithNumber("current", mcp.Required(), mcp.Description("Index of the question just answered")),
		mcp.WithString("answers", mcp.Description("JSON object of answers keyed by question id")),
		mcp.WithOutputSchema[ResolveResponse](),
	)...), mcp.NewStructuredToolHandler(s.handleResolve))

	s.mcpServer.AddTool(mcp.NewTool("score_answers", with(
		mcp.WithDescription("Aggregate the lead score of a set of answers."),
		mcp.WithString("answers", mcp.Required(), mcp.Description("JSON object of answers keyed by question id")),
		mcp.WithOutputSchema[domain.Score](),
	)...), mcp.NewStructuredToolHandler(s.handleScore))

	s.mcpServer.AddTool(mcp.NewTool("derive_graph", with(
		mcp.WithDescription("Derive the node/edge view of a flow as used by the visual editor."),
		mcp.WithBoolean("include_rules", mcp.Description("Add read-only edges for jump rules")),
		mcp.WithOutputSchema[domain.Graph](),
	)...), mcp.NewStructuredToolHandler(s.handleDerive))
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.ValidationReport, error) {
	flow, err := s.flowFrom(ctx, args)
	if err != nil {
		return domain.ValidationReport{}, err
	}
	return *validator.Validate(flow.Questions, flow.Endings), nil
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResolveResponse, error) {
	flow, err := s.flowFrom(ctx, args)
	if err != nil {
		return ResolveResponse{}, err
	}
	answers, err := answersFrom(args)
	if err != nil {
		return ResolveResponse{}, err
	}
	current, ok := args["current"].(float64)
	if !ok {
		return ResolveResponse{}, errors.New("current must be a number")
	}

	d := s.engine.ResolveFlow(ctx, int(current), flow, answers)
	resp := ResolveResponse{Decision: d}
	if !d.Action.Terminal() && d.NextIndex >= 0 && d.NextIndex < len(flow.Questions) {
		resp.QuestionID = flow.Questions[d.NextIndex].ID
	}
	return resp, nil
}

func (s *Server) handleScore(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Score, error) {
	flow, err := s.flowFrom(ctx, args)
	if err != nil {
		return domain.Score{}, err
	}
	answers, err := answersFrom(args)
	if err != nil {
		return domain.Score{}, err
	}
	return s.engine.Score(ctx, flow.Questions, answers), nil
}

func (s *Server) handleDerive(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Graph, error) {
	flow, err := s.flowFrom(ctx, args)
	if err != nil {
		return domain.Graph{}, err
	}
	if rules, _ := args["include_rules"].(bool); rules {
		return workflow.Derive(flow, workflow.WithRuleEdges()), nil
	}
	return workflow.Derive(flow), nil
}

// flowFrom prefers an inline flow over a stored one.
func (s *Server) flowFrom(ctx context.Context, args map[string]interface{}) (*domain.Flow, error) {
	if raw, ok := args["flow"].(string); ok && raw != "" {
		var flow domain.Flow
		if err := json.Unmarshal([]byte(raw), &flow); err != nil {
			return nil, fmt.Errorf("invalid flow document: %w", err)
		}
		return &flow, nil
	}

	id, _ := args["form_id"].(string)
	if id == "" {
		return nil, errors.New("either flow or form_id is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s (no store configured)", domain.ErrFlowNotFound, id)
	}
	return s.store.Load(ctx, id)
}

func answersFrom(args map[string]interface{}) (domain.Answers, error) {
	answers := domain.Answers{}
	raw, ok := args["answers"].(string)
	if !ok || raw == "" {
		return answers, nil
	}
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return nil, fmt.Errorf("invalid answers: %w", err)
	}
	return answers, nil
}

func (s *Server) registerResources() {
	if s.store == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource("formflow://forms", "Stored flow ids",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list flows: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "formflow://forms",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
