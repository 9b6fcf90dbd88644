package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/validator"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// Server exposes the flow editor over HTTP.
type Server struct {
	Editor   *editor.Editor
	Sessions ports.SessionReader

	logger  *slog.Logger
	metrics *Metrics
	saves   *rate.Limiter
	spec    *openapi3.T
	router  routers.Router
}

// Option configures a Server.
type Option func(*Server)

// WithSessionReader enables the read-only conversation endpoints.
func WithSessionReader(r ports.SessionReader) Option {
	return func(s *Server) {
		s.Sessions = r
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics shares a Metrics instance, typically one whose Hooks were
// also given to the editor.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithSaveRate limits chatbot saves to r per second with the given burst.
// A non-positive rate disables the limit.
func WithSaveRate(r float64, burst int) Option {
	return func(s *Server) {
		if r <= 0 {
			s.saves = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.saves = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// NewServer builds a Server over ed.
func NewServer(ed *editor.Editor, opts ...Option) (*Server, error) {
	spec, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	router, err := newRouter(spec)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	s := &Server{
		Editor: ed,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		spec:   spec,
		router: router,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s, nil
}

// NewHandler creates the HTTP handler for an editor.
func NewHandler(ed *editor.Editor, opts ...Option) (http.Handler, error) {
	s, err := NewServer(ed, opts...)
	if err != nil {
		return nil, err
	}
	return s.Handler(), nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.validateRequest)

		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)

		r.Post("/flows/build", s.BuildFlow)
		r.Post("/flows/validate", s.ValidateFlow)
		r.Post("/flows/derive", s.DeriveMenu)
		r.Post("/flows/graph", s.RenderGraph)

		r.Get("/chatbots", s.ListChatbots)
		r.Post("/chatbots", s.CreateChatbot)
		r.Get("/chatbots/{chatbotId}", s.GetChatbot)
		r.Put("/chatbots/{chatbotId}", s.SaveChatbot)
		r.Delete("/chatbots/{chatbotId}", s.DeleteChatbot)
		r.Get("/chatbots/{chatbotId}/form", s.OpenChatbot)
		r.Get("/chatbots/{chatbotId}/sessions", s.ListSessions)
		r.Get("/sessions/{sessionId}/logs", s.ListSessionLogs)
	})
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "chatflow-http",
		"version":     strings.TrimSpace(chatflow.Version),
		"api_version": apiVersion,
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

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// writeError maps domain errors onto status codes.
// Malformed text is a 400, a structurally invalid document a 422.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var verr *validator.ValidationError
	switch {
	case errors.Is(err, domain.ErrMalformedDocument):
		status, resp.Kind = http.StatusBadRequest, "malformed"
	case errors.As(err, &verr):
		status, resp.Kind = http.StatusUnprocessableEntity, "invalid"
		resp.Path, resp.Reason = verr.Path, verr.Reason
	case errors.Is(err, domain.ErrInvalidDocument):
		status, resp.Kind = http.StatusUnprocessableEntity, "invalid"
	case errors.Is(err, editor.ErrDocumentTooLarge):
		status, resp.Kind = http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, editor.ErrNoOptions):
		status, resp.Kind = http.StatusUnprocessableEntity, "no_options"
	case errors.Is(err, editor.ErrUnknownMode):
		status, resp.Kind = http.StatusBadRequest, "unknown_mode"
	case errors.Is(err, domain.ErrChatbotNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status, resp.Kind = http.StatusNotFound, "not_found"
	}

	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: "request"})
		return false
	}
	return true
}
