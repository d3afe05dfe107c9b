package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/tracks"
	"github.com/aretw0/tracks/internal/runtime"
	"github.com/aretw0/tracks/pkg/domain"
	"github.com/aretw0/tracks/pkg/program"
	"github.com/aretw0/tracks/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Sessions defines the session operations the server needs.
type Sessions interface {
	Create(ctx context.Context, sessionID string, width, height int) (*domain.Snapshot, error)
	Execute(ctx context.Context, sessionID, text string) (*domain.Snapshot, error)
	Tracks(ctx context.Context, sessionID string) (string, error)
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Program string `json:"program"`
}

// RunResponse is the outcome of a stateless run.
type RunResponse struct {
	Tracks   string          `json:"tracks"`
	Angle    int             `json:"angle"`
	Position domain.Position `json:"position"`
	Error    string          `json:"error,omitempty"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	ID     string `json:"id,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExecuteResponse is the outcome of POST /sessions/{id}/commands.
type ExecuteResponse struct {
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// DefaultMaxCanvas is the canvas limit of stateless runs unless WithMaxCanvas overrides it.
const DefaultMaxCanvas = 1024

// Server exposes the interpreter over HTTP.
type Server struct {
	Sessions Sessions

	maxProgramSize int
	maxCanvas      int
	turtleOpts     []runtime.Option
	metrics        http.Handler
	logger         *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMaxProgramSize limits request bodies carrying programs. n <= 0 keeps the default.
func WithMaxProgramSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxProgramSize = n
		}
	}
}

// WithMaxCanvas limits the canvas of stateless runs (0 disables the check).
func WithMaxCanvas(n int) Option {
	return func(s *Server) {
		s.maxCanvas = n
	}
}

// WithTurtleOptions applies opts to the turtles of stateless runs.
func WithTurtleOptions(opts ...runtime.Option) Option {
	return func(s *Server) {
		s.turtleOpts = append(s.turtleOpts, opts...)
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler over the session manager.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions:       sessions,
		maxProgramSize: program.DefaultMaxProgramSize,
		maxCanvas:      DefaultMaxCanvas,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.Health)
	r.Post("/run", s.Run)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/commands", s.ExecuteCommands)
			r.Get("/tracks", s.GetTracks)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": strings.TrimSpace(tracks.Version),
	})
}

// Run handles POST /run: a stateless, one-shot execution.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, int64(s.maxProgramSize)+1024)).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if s.maxCanvas > 0 && (body.Width > s.maxCanvas || body.Height > s.maxCanvas) {
		s.fail(w, http.StatusBadRequest, "Canvas too large", fmt.Errorf("%dx%d", body.Width, body.Height))
		return
	}

	text, err := program.SanitizeWithLimit(body.Program, s.maxProgramSize)
	if err != nil {
		s.fail(w, statusFor(err), "Invalid program", err)
		return
	}

	p, err := program.New(body.Width, body.Height, text)
	if err != nil {
		s.fail(w, statusFor(err), "Invalid program", err)
		return
	}

	turtle, runErr := p.Run(r.Context(), s.turtleOpts...)
	if turtle == nil {
		s.fail(w, statusFor(runErr), "Run failed", runErr)
		return
	}

	resp := RunResponse{
		Tracks:   turtle.Tracks(),
		Angle:    turtle.Angle(),
		Position: turtle.Position(),
	}
	status := http.StatusOK
	if runErr != nil {
		resp.Error = runErr.Error()
		status = statusFor(runErr)
		s.logger.Warn("Run: command failed", "error", runErr)
	}
	writeJSON(w, status, resp)
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snapshot, err := s.Sessions.Create(r.Context(), body.ID, body.Width, body.Height)
	if err != nil {
		s.fail(w, statusFor(err), "Create failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, statusFor(err), "List failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, statusFor(err), "Load failed", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, statusFor(err), "Delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExecuteCommands handles POST /sessions/{id}/commands. The body is program text.
func (s *Server) ExecuteCommands(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	raw, err := io.ReadAll(io.LimitReader(r.Body, int64(s.maxProgramSize)+1))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	text, err := program.SanitizeWithLimit(string(raw), s.maxProgramSize)
	if err != nil {
		s.fail(w, statusFor(err), "Invalid program", err)
		return
	}

	snapshot, err := s.Sessions.Execute(r.Context(), sessionID, text)
	if snapshot == nil {
		s.fail(w, statusFor(err), "Execute failed", err)
		return
	}

	resp := ExecuteResponse{Snapshot: snapshot}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = statusFor(err)
		s.logger.Warn("Execute: command failed", "session_id", sessionID, "error", err)
	}
	writeJSON(w, status, resp)
}

// GetTracks handles GET /sessions/{id}/tracks.
func (s *Server) GetTracks(w http.ResponseWriter, r *http.Request) {
	text, err := s.Sessions.Tracks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, statusFor(err), "Tracks failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text+"\n")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, program.ErrProgramTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrStepLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMalformedCommand),
		errors.Is(err, domain.ErrInvalidDimension),
		errors.Is(err, session.ErrCanvasTooLarge),
		errors.Is(err, program.ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	} else {
		s.logger.Warn(msg, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s: %v", msg, err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
