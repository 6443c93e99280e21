package report

// serve.go - report dev server with live rebuild on data changes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the rendered report over HTTP. With a watch path set, it
// rebuilds the report when the raw extract changes and pushes a reload to
// connected browsers over SSE.
type Server struct {
	gen    *Generator
	port   int
	logger *slog.Logger

	// WatchPath, when non-empty, is the raw extract to watch for changes.
	watchPath string
	// reingest re-loads the extract before rebuilding. Wired to the
	// engine's ingest by the CLI.
	reingest func(ctx context.Context) error

	mu          sync.RWMutex
	currentHTML []byte

	clients   map[chan struct{}]struct{}
	clientsMu sync.Mutex
}

// ServerConfig holds report server configuration.
type ServerConfig struct {
	Generator *Generator
	Port      int
	WatchPath string
	Reingest  func(ctx context.Context) error
	Logger    *slog.Logger
}

// NewServer creates a report server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		gen:       cfg.Generator,
		port:      cfg.Port,
		logger:    logger,
		watchPath: cfg.WatchPath,
		reingest:  cfg.Reingest,
		clients:   make(map[chan struct{}]struct{}),
	}
}

// Serve renders the report and serves it until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.rebuild(ctx, false); err != nil {
		return fmt.Errorf("initial report build failed: %w", err)
	}

	if s.watchPath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()

		// Watch the directory: editors replace files on save, which
		// drops a watch on the file itself.
		if err := watcher.Add(filepath.Dir(s.watchPath)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", s.watchPath, err)
		}
		go s.watchLoop(ctx, watcher)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/__reload", s.handleSSE)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("report server running", slog.String("url", fmt.Sprintf("http://localhost:%d", s.port)))
	if s.watchPath != "" {
		s.logger.Info("watching for changes", slog.String("path", s.watchPath))
	}

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.watchPath) {
				continue
			}

			// Debounce: large extracts arrive in many write events.
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(500*time.Millisecond, func() {
				s.logger.Info("extract changed, rebuilding report", slog.String("path", event.Name))
				if err := s.rebuild(ctx, true); err != nil {
					s.logger.Error("rebuild failed", slog.Any("error", err))
					return
				}
				s.notifyClients()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

func (s *Server) rebuild(ctx context.Context, reingest bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reingest && s.reingest != nil {
		if err := s.reingest(ctx); err != nil {
			return fmt.Errorf("failed to re-ingest extract: %w", err)
		}
	}

	html, err := s.gen.Render(ctx)
	if err != nil {
		return err
	}
	s.currentHTML = append(html, []byte(liveReloadScript)...)
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	html := s.currentHTML
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(html)
}

// handleSSE handles Server-Sent Events for live reload.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ch := make(chan struct{}, 1)
	s.clientsMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, ch)
		s.clientsMu.Unlock()
		close(ch)
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

// notifyClients sends a reload signal to all connected clients.
func (s *Server) notifyClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for ch := range s.clients {
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, a reload is already pending.
		}
	}
}

// liveReloadScript is appended to the page in serve mode.
const liveReloadScript = `
<script>
;(function() {
  var es = new EventSource('/__reload');
  es.onmessage = function(e) {
    if (e.data === 'reload') { window.location.reload(); }
  };
  es.onerror = function() {
    setTimeout(function() { window.location.reload(); }, 1000);
  };
})();
</script>
`
