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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blinklabs-io/sieve"
	"github.com/blinklabs-io/sieve/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Run starts the node and the metrics listener and blocks until SIGINT or
// SIGTERM is received or a component fails
func Run(cfg *config.Config, logger *slog.Logger) error {
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	return RunContext(signalCtx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// RunContext is Run with an explicit context and metrics registry
func RunContext(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
	promGatherer prometheus.Gatherer,
) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout := cfg.ShutdownTimeoutDuration()

	apiListenAddress := ""
	if cfg.ApiPort > 0 {
		apiListenAddress = net.JoinHostPort(
			cfg.BindAddr,
			strconv.FormatUint(uint64(cfg.ApiPort), 10),
		)
	}
	n, err := sieve.New(
		sieve.NewConfig(
			sieve.WithLogger(logger),
			sieve.WithDatabasePath(cfg.DatabasePath),
			sieve.WithBlobPlugin(cfg.BlobPlugin),
			sieve.WithMetadataPlugin(cfg.MetadataPlugin),
			sieve.WithOwner(cfg.Engine.Owner),
			sieve.WithCustodyIdentity(cfg.Engine.CustodyIdentity),
			sieve.WithScoreWeights(cfg.Engine.Weights),
			sieve.WithMinStake(cfg.Engine.MinStake),
			sieve.WithMaxProposalsPerCycle(cfg.Engine.MaxProposalsPerCycle),
			sieve.WithValidityPeriod(cfg.Engine.ValidityPeriod),
			sieve.WithMinCommunityScore(cfg.Engine.MinCommunityScore),
			sieve.WithCycleLength(cfg.Engine.CycleLength),
			sieve.WithHeightInterval(cfg.Engine.HeightIntervalDuration()),
			sieve.WithApiListenAddress(apiListenAddress),
			sieve.WithApiTlsCertFilePath(cfg.TlsCertFilePath),
			sieve.WithApiTlsKeyFilePath(cfg.TlsKeyFilePath),
			sieve.WithApiRateLimit(cfg.ApiRateLimit, cfg.ApiRateBurst),
			sieve.WithTracing(cfg.Tracing),
			sieve.WithTracingStdout(cfg.TracingStdout),
			sieve.WithShutdownTimeout(shutdownTimeout),
			sieve.WithPrometheusRegistry(promRegistry),
		),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.Run(gctx)
	})
	if cfg.MetricsPort > 0 {
		metricsAddr := net.JoinHostPort(
			cfg.BindAddr,
			strconv.FormatUint(uint64(cfg.MetricsPort), 10),
		)
		mux := http.NewServeMux()
		mux.Handle(
			"/metrics",
			promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{}),
		)
		metricsServer := &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		g.Go(func() error {
			err := metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			//nolint:contextcheck
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
			return nil
		})
	}

	runErr := g.Wait()
	if ctx.Err() != nil {
		logger.Info("signal received, initiating graceful shutdown")
	} else if runErr != nil {
		logger.Error("node error", "error", runErr)
	}
	if stopErr := n.Stop(); stopErr != nil {
		logger.Error("shutdown errors occurred", "error", stopErr)
		return errors.Join(runErr, stopErr)
	}
	logger.Info("shutdown complete")
	return runErr
}
