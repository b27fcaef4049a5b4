package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	monitor *Monitor
	server  *http.Server
}

// NewServer creates a new health server.
func NewServer(monitor *Monitor, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until Stop.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	response := map[string]string{
		"status":        string(report.SystemStatus),
		"manager_state": report.ManagerState,
	}
	w.Header().Set("Content-Type", "application/json")

	if report.SystemStatus == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
