package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"dubapi/internal/config"
	"dubapi/internal/handlers"
)

type Server struct {
	api  *handlers.API
	http *http.Server
}

func New() (*Server, error) {
	cfg := config.Load()
	api, err := handlers.NewAPI(cfg)
	if err != nil {
		return nil, err
	}

	h := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Router()}
	return &Server{api: api, http: h}, nil
}

func (s *Server) Start() error {
	log.Printf("server starting on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Stop shuts the listener down and then drains the worker pool so
// in-flight conversions reach a terminal state before exit.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := s.http.Shutdown(ctx)
	s.api.Shutdown()
	return err
}
