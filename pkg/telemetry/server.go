package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/gwillem/portstest/pkg/debug"
)

// Server streams broadcaster events over Server-Sent Events. It is read
// only: nothing received over HTTP reaches the actuators.
type Server struct {
	addr        string
	broadcaster *Broadcaster
	heartbeat   time.Duration
}

// NewServer creates a server for addr.
func NewServer(addr string, b *Broadcaster) *Server {
	return &Server{addr: addr, broadcaster: b, heartbeat: 30 * time.Second}
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /telemetry", s.HandleLatest)
	mux.HandleFunc("GET /telemetry/stream", s.HandleStream)
	return mux
}

// HandleLatest writes the last event as JSON, or 204 before the first one.
func (s *Server) HandleLatest(w http.ResponseWriter, r *http.Request) {
	last := s.broadcaster.Last()
	if last == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(last))
}

// HandleStream handles GET /telemetry/stream for SSE.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := s.broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Mux()}
	errCh := make(chan error, 1)
	go func() {
		debug.Info("Telemetry stream listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
