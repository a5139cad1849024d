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

package sieve

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/sieve/api"
	"github.com/blinklabs-io/sieve/custody"
	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/engine"
	"github.com/blinklabs-io/sieve/event"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	custody       *custody.Custody
	engine        *engine.Engine
	api           *api.Server
	shutdownFuncs []func(context.Context) error
	config        Config
	ready         chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config: cfg,
		ready:  make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run opens the database, starts every component and blocks until ctx is
// cancelled. Stop must be called afterwards to release resources.
func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	n.eventBus = event.NewEventBus(n.config.promRegistry, n.config.logger)
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	})
	if db == nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		// The engine state lives in the metadata store, which stays authoritative
		n.config.logger.Warn(
			"database commit timestamps differ, last commit may be partial",
			"error", err,
			"component", "node",
		)
	}
	n.custody = custody.New(
		n.db,
		custody.CustodyConfig{
			Identity:     n.config.custodyIdentity,
			Logger:       n.config.logger,
			PromRegistry: n.config.promRegistry,
		},
	)
	n.engine, err = engine.New(
		engine.EngineConfig{
			Database:             n.db,
			Custody:              n.custody,
			EventBus:             n.eventBus,
			PromRegistry:         n.config.promRegistry,
			Logger:               n.config.logger,
			Ranker:               n.config.ranker,
			Owner:                n.config.owner,
			Weights:              n.config.weights,
			MinStake:             n.config.minStake,
			MaxProposalsPerCycle: n.config.maxProposals,
			ValidityPeriod:       n.config.validityPeriod,
			MinCommunityScore:    n.config.minCommunity,
			CycleLength:          n.config.cycleLength,
			HeightInterval:       n.config.heightInterval,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load engine: %w", err)
	}
	n.subscribeAuditLog()
	if err := n.engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	// Configure HTTP API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ServerConfig{
				ListenAddress:   n.config.apiListenAddress,
				TlsCertFilePath: n.config.apiTlsCertFilePath,
				TlsKeyFilePath:  n.config.apiTlsKeyFilePath,
				RateLimit:       n.config.apiRateLimit,
				RateBurst:       n.config.apiRateBurst,
				PromRegistry:    n.config.promRegistry,
			},
			n.engine,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	close(n.ready)

	// Wait for shutdown signal
	<-ctx.Done()
	return nil
}

// Ready is closed once every component has started
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Engine returns the engine. It is nil until Run has loaded it.
func (n *Node) Engine() *engine.Engine {
	return n.engine
}

// ApiServer returns the HTTP API server, or nil when it is disabled
func (n *Node) ApiServer() *api.Server {
	return n.api
}

// subscribeAuditLog writes every engine event to the debug log
func (n *Node) subscribeAuditLog() {
	logger := n.config.logger.With("component", "audit")
	for _, eventType := range []event.EventType{
		engine.SubmissionCreatedEventType,
		engine.SubmissionEvaluatedEventType,
		engine.EvaluatorAuthorizedEventType,
		engine.CycleAdvancedEventType,
		engine.EmergencyModeEventType,
	} {
		n.eventBus.SubscribeFunc(eventType, func(evt event.Event) {
			logger.Debug(
				"engine event",
				"type", string(evt.Type),
				"data", fmt.Sprintf("%+v", evt.Data),
			)
		})
	}
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.engine != nil {
		n.engine.Stop()
	}

	// Phase 2: Drain events and close the database
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 3: Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	return err
}
