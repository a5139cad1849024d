// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the engine operations as a JSON HTTP API
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	DefaultListenAddress = ":8080"
	DefaultRateLimit     = 20.0
	DefaultRateBurst     = 40

	// IdentityHeader carries the caller identity. It is trusted as-is.
	IdentityHeader = "X-Sieve-Identity"
	// RequestIdHeader is set on every response
	RequestIdHeader = "X-Request-Id"
)

type ServerConfig struct {
	PromRegistry    prometheus.Registerer
	ListenAddress   string
	TlsCertFilePath string
	TlsKeyFilePath  string
	// RateLimit is the sustained requests per second allowed per caller.
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// Server is the JSON HTTP API server
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	engine     ProposalEngine
	validate   *validator.Validate
	limiter    *rateLimiter
	metrics    *apiMetrics
	httpServer *http.Server
	listenAddr net.Addr
	mu         sync.Mutex
}

func New(
	cfg ServerConfig,
	engine ProposalEngine,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		cfg.RateBurst = int(cfg.RateLimit)
		if cfg.RateBurst < 1 {
			cfg.RateBurst = 1
		}
	}
	s := &Server{
		config:   cfg,
		logger:   logger.With("component", "api"),
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if cfg.RateLimit > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	s.initMetrics()
	return s
}

// Handler returns the full HTTP handler including middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/evaluators", s.handleAuthorizeEvaluator)
	mux.HandleFunc("GET /api/v1/evaluators", s.handleListEvaluators)
	mux.HandleFunc("GET /api/v1/evaluators/{identity}", s.handleGetEvaluator)
	mux.HandleFunc("POST /api/v1/proposals", s.handleSubmitProposal)
	mux.HandleFunc("GET /api/v1/proposals", s.handleListProposals)
	mux.HandleFunc("GET /api/v1/proposals/{id}", s.handleGetProposal)
	mux.HandleFunc(
		"POST /api/v1/proposals/{id}/evaluations",
		s.handleEvaluateProposal,
	)
	mux.HandleFunc(
		"GET /api/v1/proposals/{id}/evaluations",
		s.handleListEvaluations,
	)
	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("PUT /api/v1/emergency", s.handleSetEmergency)
	mux.HandleFunc(
		"POST /api/v1/accounts/{identity}/credit",
		s.handleCredit,
	)
	mux.HandleFunc("GET /api/v1/accounts/{identity}", s.handleBalance)
	// gRPC health checks and reflection for load balancers and grpcurl
	checker := &engineChecker{engine: s.engine}
	mux.Handle(grpchealth.NewHandler(checker))
	reflector := grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))
	return s.withRequestId(s.withTracing(s.withMetrics(s.withRateLimit(s.withRecover(mux)))))
}

// Start binds the listener and serves in a background goroutine. The server
// shuts down when ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	useTls := s.config.TlsCertFilePath != "" && s.config.TlsKeyFilePath != ""
	handler := s.Handler()
	if !useTls {
		// Use h2c so we can serve HTTP/2 without TLS
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 60 * time.Second,
	}
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	s.httpServer = server
	s.listenAddr = ln.Addr()
	s.mu.Unlock()

	go func() {
		var err error
		if useTls {
			err = server.ServeTLS(
				ln,
				s.config.TlsCertFilePath,
				s.config.TlsKeyFilePath,
			)
		} else {
			err = server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info(
		"API listener started",
		"address", ln.Addr().String(),
		"tls", useTls,
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

// Addr returns the bound listen address, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}
