// CLASSIFICATION: COMMUNITY
// Filename: server.go v0.2
// Author: Lukas Bower
// Date Modified: 2026-10-19
// License: SPDX-License-Identifier: MIT OR Apache-2.0

package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"kochab/devserver/api"
	"kochab/devserver/static"
)

const shutdownTimeout = 5 * time.Second

// Runner is a background task tied to the server lifetime, such as the
// settings watcher.
type Runner interface {
	Run(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Bind        string
	Port        int
	StaticDir   string
	Rewrites    map[string]string
	FileTimeout time.Duration
	LogFile     string
	API         *api.Registry
	Watcher     Runner
	Logger      *zap.Logger
}

// Server wraps the HTTP server and router.
type Server struct {
	cfg        Config
	router     *chi.Mux
	dispatcher *Dispatcher
	log        *zap.Logger
	accessLog  *os.File
}

// New returns an initialized server. The API registry is frozen.
func New(cfg Config) (*Server, error) {
	if cfg.StaticDir == "" {
		return nil, errors.New("static dir required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := cfg.API
	if reg == nil {
		reg = api.NewRegistry(log)
	}
	reg.Freeze()
	rewrites := cfg.Rewrites
	if rewrites == nil {
		rewrites = static.DefaultRewrites()
	}

	s := &Server{cfg: cfg, log: log}
	s.dispatcher = &Dispatcher{
		Static: static.New(cfg.StaticDir, rewrites, cfg.FileTimeout, log),
		API:    reg,
		Log:    log,
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Warn("open access log", zap.String("path", cfg.LogFile), zap.Error(err))
		} else {
			s.accessLog = f
		}
	}
	s.router = routes(s)
	return s, nil
}

// Router returns the underlying router, useful for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Bind, fmt.Sprint(s.cfg.Port))
}

// Start serves until ctx is done, then shuts down gracefully. The configured
// watcher runs alongside the listener.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
	defer s.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("kochab dev server listening",
			zap.String("addr", s.Addr()),
			zap.String("static_dir", s.cfg.StaticDir),
			zap.Strings("api_routes", s.dispatcher.API.Routes()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		ctxTo, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctxTo)
	})
	if s.cfg.Watcher != nil {
		g.Go(func() error { return s.cfg.Watcher.Run(ctx) })
	}
	return g.Wait()
}

// Close releases the access log.
func (s *Server) Close() error {
	if s.accessLog == nil {
		return nil
	}
	err := s.accessLog.Close()
	s.accessLog = nil
	return err
}
