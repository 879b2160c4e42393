package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/review"
)

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address. Defaults to 127.0.0.1:8000.
	Addr string
	// WebhookSecret enables signature verification on /api/webhook.
	// Empty means webhooks are accepted unverified.
	WebhookSecret string
	// EventBuffer sizes each run's progress bus.
	EventBuffer int
	// RosterPath names a YAML agent roster to load and hot-reload.
	RosterPath string
	// LogFile adds a size-rotated log destination alongside stderr.
	LogFile string
}

// Server is the quorum HTTP server: an API facade over the review engine
// with streaming progress.
type Server struct {
	opts    Options
	engine  Engine
	store   *Store
	logger  *log.Logger
	mux     *http.ServeMux
	server  *http.Server
	watcher *rosterWatcher

	mu     sync.RWMutex
	roster []review.AgentSpec
}

// New creates a server. A configured roster file is loaded eagerly, so a
// broken roster fails startup instead of the first run.
func New(engine Engine, opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8000"
	}

	s := &Server{
		opts:   opts,
		engine: engine,
		logger: newLogger(opts.LogFile),
	}
	s.store = NewStore(engine, opts.EventBuffer, s.logger.Printf)

	if opts.RosterPath != "" {
		agents, err := config.LoadRoster(opts.RosterPath)
		if err != nil {
			return nil, fmt.Errorf("loading roster: %w", err)
		}
		s.roster = agents

		w, err := watchRoster(opts.RosterPath, rosterDebounce, s.setRoster, s.logger.Printf)
		if err != nil {
			return nil, err
		}
		s.watcher = w
	}

	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.mux,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: the event stream endpoints hold their
		// connections open for the life of a run.
		IdleTimeout: 120 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/reviews", s.handleCreateReview)
	s.mux.HandleFunc("GET /api/reviews/{id}", s.handleGetReview)
	s.mux.HandleFunc("GET /api/reviews/{id}/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/reviews/{id}/ws", s.handleWS)
	s.mux.HandleFunc("POST /api/webhook", s.handleWebhook)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	if s.opts.WebhookSecret == "" {
		s.logger.Printf("webhook signature verification disabled (no secret configured)")
	}
	s.logger.Printf("quorum server listening on %s", s.opts.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the roster watcher and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// rosterAgents returns the extra agents from the roster file, merged
// over the builtins at selection time. Reloads affect subsequent runs
// only; a running review keeps the agents it started with.
func (s *Server) rosterAgents() []review.AgentSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

func (s *Server) setRoster(agents []review.AgentSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = agents
}

func newLogger(logFile string) *log.Logger {
	var w io.Writer = os.Stderr
	if logFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	return log.New(w, "", log.LstdFlags)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
