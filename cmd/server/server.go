package main

import (
	"context"
	"time"

	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules, and the HTTP listener.
type Server struct {
	cfg     *config.Config
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	return &Server{
		cfg:     cfg,
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start runs the startup hooks and begins accepting connections.
// Readiness is reported once every hook has succeeded.
func (s *Server) Start() error {
	started := time.Now()

	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup failed, staying unready", "error", err)
			return
		}
		s.infra.Logger.Info("ready",
			"addr", s.cfg.Server.Addr(),
			"module", s.modules.API.Prefix(),
			"startup", time.Since(started).Round(time.Millisecond),
		)
	}()
	return nil
}

// Run starts the server and blocks until ctx ends, then shuts down
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Shutdown(s.cfg.ShutdownTimeoutDuration())
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
