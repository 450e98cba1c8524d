// Package http exposes the engine over a JSON REST API.
package http

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zweadfx/assist"
	"github.com/zweadfx/assist/internal/logging"
	"github.com/zweadfx/assist/pkg/domain"
)

//go:embed openapi.yaml
var rawSpec []byte

// Server handles the REST surface over the engine facade.
type Server struct {
	engine  *assist.Engine
	logger  *slog.Logger
	spec    *openapi3.T
	metrics http.Handler
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts a metrics endpoint (usually promhttp.Handler()).
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer validates the embedded OpenAPI contract and builds the server.
// A spec that fails validation is a build defect, caught at startup rather
// than by the first confused client.
func NewServer(engine *assist.Engine, opts ...ServerOption) (*Server, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(loader.Context); err != nil {
		return nil, err
	}

	s := &Server{
		engine:  engine,
		logger:  logging.NewNop(),
		spec:    spec,
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/v1/ask", s.ask)
	r.Get("/v1/conversations", s.listConversations)
	r.Delete("/v1/conversations/{id}", s.deleteConversation)
	r.Get("/healthz", s.health)
	r.Get("/info", s.info)
	r.Get("/openapi.yaml", s.openapiSpec)
	r.Handle("/metrics", s.metrics)

	return r
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req assist.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid ask payload", "err", err)
		writeJSON(w, http.StatusBadRequest,
			domain.NewErrorEnvelope(domain.CodeInvalidRequest, "invalid request body", nil))
		return
	}

	env := s.engine.HandleRequest(r.Context(), req)
	writeJSON(w, statusFor(env), env)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Sessions().List(r.Context())
	if err != nil {
		s.logger.Error("failed to list conversations", "err", err)
		writeJSON(w, http.StatusInternalServerError,
			domain.NewErrorEnvelope(domain.CodeInternal, "failed to list conversations", nil))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.Sessions().Delete(r.Context(), id); err != nil {
		s.logger.Error("failed to delete conversation", "conversation_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError,
			domain.NewErrorEnvelope(domain.CodeInternal, "failed to delete conversation", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, _ *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "assist-http",
		"version":     strings.TrimSpace(assist.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) openapiSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(rawSpec)
}

func statusFor(env *domain.Envelope) int {
	if env.Success {
		return http.StatusOK
	}
	if env.Error != nil && env.Error.Code == domain.CodeInvalidRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("response encode failed", "err", err)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
