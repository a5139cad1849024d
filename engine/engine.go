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

// Package engine implements the staked proposal lifecycle: intake,
// evaluation, expiry and governance cycles.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/event"
)

// StakeCustodian moves stake into engine custody inside a database
// transaction. A failed Transfer must leave every balance unchanged.
type StakeCustodian interface {
	Transfer(from string, amount uint64, txn *database.Txn) error
	Credit(identity string, amount uint64, txn *database.Txn) (uint64, error)
	Balance(identity string, txn *database.Txn) (uint64, error)
}

// Ranker recomputes submission priority ranks at the end of a governance
// cycle. It runs inside the cycle's transaction.
type Ranker interface {
	RankSubmissions(ctx context.Context, cycle uint64, txn *database.Txn) error
}

type Engine struct {
	config   EngineConfig
	db       *database.Database
	custody  StakeCustodian
	eventBus *event.EventBus
	logger   *slog.Logger
	metrics  *engineMetrics
	// Serializes every operation against the registries and counters
	mu       sync.RWMutex
	tickerMu sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New(config EngineConfig) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	e := &Engine{
		config:   config,
		db:       config.Database,
		custody:  config.Custody,
		eventBus: config.EventBus,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		e.logger = config.Logger.With("component", "engine")
	}
	e.initMetrics()
	state, err := e.db.GetEngineState(nil)
	if err != nil {
		return nil, fmt.Errorf("load engine state: %w", err)
	}
	e.updateStateMetrics(state)
	e.logger.Info(
		"engine loaded",
		"next_submission_id", state.NextSubmissionID,
		"active_proposals", state.TotalActiveProposals,
		"height", state.CurrentHeight,
		"cycle", state.GovernanceCycleCount,
		"emergency_mode", state.EmergencyMode,
	)
	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Owner returns the administrative identity
func (e *Engine) Owner() string {
	return e.config.Owner
}

// update runs fn in a read-write transaction under the engine write lock.
// Any error from fn rolls back every write.
func (e *Engine) update(
	ctx context.Context,
	fn func(txn *database.Txn, state *models.EngineState) error,
) (*models.EngineState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var state *models.EngineState
	err := e.db.Transaction(true).Do(func(txn *database.Txn) error {
		var err error
		state, err = e.db.GetEngineState(txn)
		if err != nil {
			return fmt.Errorf("load engine state: %w", err)
		}
		return fn(txn, state)
	})
	if err != nil {
		return nil, err
	}
	e.updateStateMetrics(state)
	return state, nil
}

// view runs fn in a read-only transaction under the engine read lock
func (e *Engine) view(
	ctx context.Context,
	fn func(txn *database.Txn) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	txn := e.db.Transaction(false)
	defer txn.Release()
	return fn(txn)
}

func (e *Engine) publish(eventType event.EventType, data any) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}

func (e *Engine) getSubmission(
	id uint64,
	txn *database.Txn,
) (*models.Submission, error) {
	submission, err := e.db.GetSubmission(id, txn)
	if err != nil {
		if errors.Is(err, models.ErrSubmissionNotFound) {
			return nil, fmt.Errorf("%w: submission %d", ErrNotFound, id)
		}
		return nil, err
	}
	return submission, nil
}
