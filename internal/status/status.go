// Package status serves the daemon's local observability endpoint.
package status

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Source exposes the room-view figures the endpoint reports.
// Satisfied by *client.Client.
type Source interface {
	ConnState() string
	MessageCount() int
	OnlineCount() int
}

// Report is the /status response body.
type Report struct {
	Connection string `json:"connection"`
	Messages   int    `json:"messages"`
	Online     int    `json:"online"`
}

// Server serves /healthz and /status on a local address.
type Server struct {
	src  Source
	http *http.Server
}

// New creates a status server for addr reporting on src.
func New(addr string, src Source) *Server {
	s := &Server{src: src}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)

	s.http = &http.Server{Addr: addr, Handler: r}
	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run starts serving. It blocks until Shutdown.
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Report{
		Connection: s.src.ConnState(),
		Messages:   s.src.MessageCount(),
		Online:     s.src.OnlineCount(),
	})
}
