// Package server provides the HTTP REST API for reel-studio.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jonathan/reel-studio/internal/config"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/pipeline"
	"github.com/jonathan/reel-studio/internal/server/middleware"
	"github.com/jonathan/reel-studio/internal/server/ratelimit"
	"github.com/jonathan/reel-studio/internal/styles"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/jonathan/reel-studio/internal/types"
	"github.com/rs/zerolog"
)

// Runner executes one generation pipeline run.
type Runner interface {
	Run(ctx context.Context, req types.GenerationRequest, onProgress pipeline.ProgressCallback) (*pipeline.Result, error)
}

// Checker performs one render status check.
type Checker interface {
	Check(ctx context.Context, renderID string) (*tracker.Result, error)
}

// GenerationStore reads and deletes generation records.
type GenerationStore interface {
	GetGeneration(ctx context.Context, id uuid.UUID) (*db.Generation, error)
	ListGenerations(ctx context.Context, opts db.ListOptions) ([]db.Generation, error)
	DeleteGeneration(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
}

// StyleStore manages custom styles.
type StyleStore interface {
	CreateStyle(ctx context.Context, input *db.StyleInput) (*db.Style, error)
	GetStyle(ctx context.Context, id uuid.UUID) (*db.Style, error)
	ListStyles(ctx context.Context, opts db.ListOptions) ([]db.Style, error)
	DeleteStyle(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
}

// StyleAnalyzer turns a style description into structured directives.
type StyleAnalyzer interface {
	Analyze(ctx context.Context, req styles.AnalyzeRequest) (*types.StyleConfig, error)
}

// Deps are the collaborators behind the routes. Nil stores disable their routes.
type Deps struct {
	Runner      Runner
	Checker     Checker
	Generations GenerationStore
	Styles      StyleStore
	Analyzer    StyleAnalyzer
	// AssetsDir is served under /assets when set (filesystem object store).
	AssetsDir string
	// Ping reports database health for /health.
	Ping func(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Port           string
	JWT            *config.JWTConfig
	RateLimit      *ratelimit.Config
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	deps        Deps
	rateLimiter *ratelimit.Limiter
	tokens      middleware.TokenValidator
	logger      zerolog.Logger
}

// New creates a new server instance. Authentication is enforced only when cfg.JWT is set.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		deps:        deps,
		logger:      cfg.Logger,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
	}
	if cfg.JWT != nil {
		s.tokens = NewJWTService(cfg.JWT)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.routes(origins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute, // synchronous generation runs wait on providers
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(origins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.CORS(origins))
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)
	r.Get("/styles/presets", s.handleListPresets)
	if s.deps.AssetsDir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(s.deps.AssetsDir))))
	}

	r.Group(func(r chi.Router) {
		if s.tokens != nil {
			r.Use(middleware.AuthMiddleware(s.tokens))
		}

		r.Route("/generations", func(r chi.Router) {
			r.Post("/", s.handleCreateGeneration)
			r.Post("/stream", s.handleStreamGeneration)
			r.Get("/", s.handleListGenerations)
			r.Get("/{id}", s.handleGetGeneration)
			r.Delete("/{id}", s.handleDeleteGeneration)
			r.Post("/{id}/check", s.handleCheckGeneration)
		})
		r.Post("/renders/{render_id}/check", s.handleCheckRender)

		r.Route("/styles", func(r chi.Router) {
			r.Get("/", s.handleListStyles)
			r.Post("/", s.handleCreateStyle)
			r.Post("/analyze", s.handleAnalyzeStyle)
			r.Get("/{id}", s.handleGetStyle)
			r.Delete("/{id}", s.handleDeleteStyle)
		})
	})

	return r
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

// Close releases background resources.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		if err := s.deps.Ping(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("health check: database unreachable")
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, errorBody{Error: message})
}

// failure maps err to a status and writes the error envelope.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	s.jsonResponse(w, status, newErrorBody(err))
}

// extractClientID extracts the client identifier from the request.
// RealIP has already rewritten RemoteAddr from trusted proxy headers.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn().
		Str("client", extractClientID(r)).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// pathUUID parses a UUID route parameter, writing a 400 on failure.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// listOptions reads limit and offset query parameters.
func listOptions(r *http.Request) (db.ListOptions, error) {
	opts := db.ListOptions{UserID: middleware.OptionalUserID(r)}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, &types.ValidationError{Field: "limit", Message: "must be a non-negative integer"}
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, &types.ValidationError{Field: "offset", Message: "must be a non-negative integer"}
		}
		opts.Offset = n
	}
	return opts, nil
}

// visibleTo reports whether a record owned by owner may be read by caller.
// Anonymous servers see everything; authenticated callers see their own and shared records.
func visibleTo(owner, caller *uuid.UUID) bool {
	if caller == nil || owner == nil {
		return true
	}
	return *owner == *caller
}
