package weblog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/classroom-control/ccc/internal/sysinfo"
)

// defaultPollInterval controls how often stream handlers check the buffer
// for changes.
const defaultPollInterval = 1 * time.Second

// Server exposes the log mirror, health, and Prometheus endpoints.
type Server struct {
	buffer       *Buffer
	httpServer   *http.Server
	startTime    time.Time
	pollInterval time.Duration
}

// NewServer creates the web mirror around an existing buffer. The HTTP
// server is constructed here so Stop can run from a different goroutine
// than Start without racing on the field.
func NewServer(buffer *Buffer) *Server {
	s := &Server{
		buffer:       buffer,
		startTime:    time.Now(),
		pollInterval: defaultPollInterval,
	}
	// No write timeout: /stream connections are long-lived by design.
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Start runs the HTTP server until it fails or is stopped.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("log mirror server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the HTTP server down. Safe to call even if Start
// never ran.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown log mirror server: %w", err)
	}
	return nil
}

// handleIndex serves the log viewer page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// handleStream delivers the full buffer as an SSE data frame whenever the
// buffer changes. One frame carries the whole ordered list of lines.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientID := uuid.NewString()
	log.Printf("Log stream client connected: %s", clientID)
	defer log.Printf("Log stream client disconnected: %s", clientID)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastVersion uint64
	for {
		lines, version := s.buffer.Snapshot()
		if version > lastVersion {
			lastVersion = version

			data, err := json.Marshal(lines)
			if err != nil {
				log.Printf("Failed to encode log lines for client %s: %v", clientID, err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// healthResponse is the /health payload.
type healthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptimeSeconds"`
	System        *sysinfo.Stats `json:"system,omitempty"`
}

// handleHealth reports liveness plus a host load snapshot.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	}

	stats, err := sysinfo.Collect()
	if err != nil {
		log.Printf("Failed to collect system statistics: %v", err)
	} else {
		resp.System = stats
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode health response: %v", err)
	}
}
