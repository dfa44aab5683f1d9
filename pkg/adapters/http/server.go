package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hificopy/formflow/internal/logging"
	"github.com/hificopy/formflow/internal/runtime"
	"github.com/hificopy/formflow/pkg/adapters/memory"
	"github.com/hificopy/formflow/pkg/answers"
	"github.com/hificopy/formflow/pkg/forms"
	"github.com/hificopy/formflow/pkg/ports"
)

// MaxBodySize bounds request bodies (1MB).
const MaxBodySize = 1 << 20

// Server serves the author and respondent endpoints.
type Server struct {
	forms    *forms.Manager
	progress ports.ProgressStore
	engine   *runtime.Engine
	policy   answers.Policy
	streams  *StreamManager
	metrics  http.Handler
	version  string
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithProgressStore sets where respondent progress is kept.
// Defaults to an in-memory store.
func WithProgressStore(store ports.ProgressStore) Option {
	return func(s *Server) {
		s.progress = store
	}
}

// WithEngine sets the engine used for resolve, score and qualification.
func WithEngine(engine *runtime.Engine) Option {
	return func(s *Server) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithAnswerPolicy sets the answer validation policy.
func WithAnswerPolicy(policy answers.Policy) Option {
	return func(s *Server) {
		s.policy = policy
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures the request and handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server backed by the given flow manager.
func NewServer(manager *forms.Manager, opts ...Option) *Server {
	s := &Server{
		forms:    manager,
		progress: memory.NewProgressStore(),
		engine:   runtime.NewEngine(),
		policy:   answers.DefaultPolicy(),
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the manager.
func NewHandler(manager *forms.Manager, opts ...Option) http.Handler {
	return NewServer(manager, opts...).Handler()
}

// Streams returns the flow event broadcaster.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", s.ListForms)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetForm)
			r.Put("/", s.PutForm)
			r.Delete("/", s.DeleteForm)
			r.Post("/validate", s.ValidateForm)
			r.Get("/events", s.SubscribeEvents)

			r.Get("/graph", s.GetGraph)
			r.Put("/graph", s.PutGraph)
			r.Post("/nodes", s.AddNode)
			r.Delete("/nodes/{nodeID}", s.DeleteNode)
			r.Put("/nodes/{nodeID}/position", s.MoveNode)
			r.Post("/edges", s.Connect)
			r.Delete("/edges/{edgeID}", s.Disconnect)
			r.Put("/questions/{qid}/rules", s.SetRules)

			r.Post("/resolve", s.Resolve)
			r.Post("/score", s.Score)
			r.Post("/progress", s.SaveProgress)
			r.Get("/progress", s.ListProgress)
			r.Get("/progress/{sessionID}", s.GetProgress)
			r.Post("/progress/{sessionID}/book", s.BookSession)
		})
	})
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "formflow-http",
		"version": s.version,
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
