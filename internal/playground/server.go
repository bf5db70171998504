// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package playground serves the HTTP API of the web playground: running
// programs and sharing them as snippets.
package playground

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/probechain/probeplay/internal/snippets"
	"github.com/probechain/probeplay/lang/engine"
)

// Config holds the HTTP settings of the playground.
type Config struct {
	Addr         string   // listen address
	CorsOrigins  []string // allowed browser origins; empty disables CORS headers
	RateLimit    float64  // sustained requests per second; 0 disables limiting
	RateBurst    int      // requests allowed in a burst
	MaxBodySize  int64    // request body limit in bytes
	WriteTimeout time.Duration
}

// DefaultConfig contains the default playground settings.
var DefaultConfig = Config{
	Addr:         "127.0.0.1:5000",
	CorsOrigins:  []string{"*"},
	RateLimit:    20,
	RateBurst:    40,
	MaxBodySize:  64 * 1024,
	WriteTimeout: 30 * time.Second,
}

// Server is the playground HTTP API.
type Server struct {
	cfg     Config
	eng     *engine.Engine
	store   *snippets.Store // nil disables the snippet routes
	limiter *rate.Limiter   // nil when unlimited
	handler http.Handler
	log     log.Logger
}

// New assembles the server. The store may be nil.
func New(cfg Config, eng *engine.Engine, store *snippets.Store) *Server {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig.MaxBodySize
	}
	s := &Server{
		cfg:   cfg,
		eng:   eng,
		store: store,
		log:   log.New("module", "playground"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	router := httprouter.New()
	router.POST("/api/runcode", s.handleRunCode)
	router.GET("/api/version", s.handleVersion)
	if store != nil {
		router.POST("/api/snippets", s.handlePutSnippet)
		router.GET("/api/snippets/:id", s.handleGetSnippet)
	}
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		s.log.Error("Playground handler panicked", "path", r.URL.Path, "err", v)
		writeError(w, http.StatusInternalServerError, "internal error")
	}

	s.handler = newCorsHandler(s.rateLimited(router), cfg.CorsOrigins)
	return s
}

// newCorsHandler wraps h with CORS headers for the allowed origins.
func newCorsHandler(h http.Handler, allowedOrigins []string) http.Handler {
	// disable CORS support if user has not specified a custom CORS configuration
	if len(allowedOrigins) == 0 {
		return h
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(h)
}

// rateLimited rejects requests beyond the configured rate with 429.
func (s *Server) rateLimited(h http.Handler) http.Handler {
	if s.limiter == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.log.Debug("Request rate limited", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on cfg.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.log.Info("Playground started", "url", "http://"+listener.Addr().String(), "cors", s.cfg.CorsOrigins, "snippets", s.store != nil)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(listener) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("Playground stopped")
	return nil
}
