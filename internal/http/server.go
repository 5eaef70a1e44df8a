package http

import (
	"context"
	"net/http"
	"time"
)

// Server envuelve el http.Server con shutdown graceful.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start bloquea hasta que el listener falle o se cierre.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drena conexiones en curso.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
