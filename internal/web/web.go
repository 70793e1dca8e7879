package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"coursecal/internal/config"
	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/schedule"
)

// Builder produces a fresh schedule; pipeline.Builder satisfies it.
type Builder interface {
	Build(ctx context.Context) (*schedule.Schedule, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context) (*schedule.Schedule, error)

func (f BuilderFunc) Build(ctx context.Context) (*schedule.Schedule, error) { return f(ctx) }

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"day": func(t time.Time) string { return t.Format("Mon 02 Jan") },
}).ParseFS(templateFS, "templates/*.html"))

// Server serves the most recently built schedule as JSON, ICS and HTML.
type Server struct {
	cfg     *config.Config
	builder Builder
	mux     *http.ServeMux

	mu      sync.RWMutex
	current *schedule.Schedule
	builtAt time.Time
}

// NewServer constructs a Server. Call Rebuild before serving.
func NewServer(cfg *config.Config, builder Builder) *Server {
	s := &Server{
		cfg:     cfg,
		builder: builder,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Rebuild builds a new schedule and swaps it in. On failure the previous
// schedule keeps being served.
func (s *Server) Rebuild(ctx context.Context) error {
	sched, err := s.builder.Build(ctx)
	if err != nil {
		appLog.Error("schedule rebuild failed", err)
		return err
	}
	s.mu.Lock()
	s.current = sched
	s.builtAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Schedule returns the schedule currently served and when it was built.
func (s *Server) Schedule() (*schedule.Schedule, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.builtAt
}

// Handler returns the root handler, wrapped in Basic Auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects every path except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="coursecal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/outline", s.handleOutline)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /{$}", s.handlePage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// loaded returns the current schedule or writes 503 when none is built yet.
func (s *Server) loaded(w http.ResponseWriter) (*schedule.Schedule, time.Time, bool) {
	sched, builtAt := s.Schedule()
	if sched == nil {
		writeError(w, http.StatusServiceUnavailable, "schedule not built yet")
		return nil, time.Time{}, false
	}
	return sched, builtAt, true
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	sched, builtAt, ok := s.loaded(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newCalendarResponse(sched, builtAt))
}

func (s *Server) handleOutline(w http.ResponseWriter, _ *http.Request) {
	sched, _, ok := s.loaded(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, outlineResponse{
		Course:       sched.Course.Name,
		DeepestLevel: sched.Outline.DeepestLevel(),
		Root:         newOutlineNode(sched.Outline.Root),
	})
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	sched, builtAt, ok := s.loaded(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	if err := ics.Export(w, sched, builtAt); err != nil {
		appLog.Error("ics export failed", err)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	sched, builtAt, ok := s.loaded(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.ExecuteTemplate(w, "schedule.html", newCalendarResponse(sched, builtAt)); err != nil {
		appLog.Error("render page failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
