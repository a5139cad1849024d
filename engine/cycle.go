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

package engine

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/database/models"
)

// AdvanceCycle increments the governance cycle counter once and runs the
// configured ranker. Submission records are not touched by the engine itself.
func (e *Engine) AdvanceCycle(ctx context.Context) (uint64, error) {
	state, err := e.update(ctx, func(txn *database.Txn, state *models.EngineState) error {
		if err := e.advanceCycle(ctx, txn, state); err != nil {
			return err
		}
		return e.db.SetEngineState(state, txn)
	})
	if err != nil {
		return 0, err
	}
	e.cycleAdvanced(state.GovernanceCycleCount, state.CurrentHeight)
	return state.GovernanceCycleCount, nil
}

// advanceCycle updates the in-memory state only. The caller persists it.
func (e *Engine) advanceCycle(
	ctx context.Context,
	txn *database.Txn,
	state *models.EngineState,
) error {
	state.GovernanceCycleCount++
	if e.config.Ranker != nil {
		if err := e.config.Ranker.RankSubmissions(
			ctx,
			state.GovernanceCycleCount,
			txn,
		); err != nil {
			return fmt.Errorf("rank submissions: %w", err)
		}
	}
	return nil
}

func (e *Engine) cycleAdvanced(cycle, height uint64) {
	e.metrics.cycles.Inc()
	e.logger.Info("governance cycle advanced", "cycle", cycle, "height", height)
	e.publish(CycleAdvancedEventType, CycleAdvancedEvent{
		Cycle:  cycle,
		Height: height,
	})
}

// AdvanceHeight moves the height forward by n and advances the governance
// cycle once for every cycle boundary crossed. It returns the new height.
func (e *Engine) AdvanceHeight(ctx context.Context, n uint64) (uint64, error) {
	var crossed, firstCycle uint64
	state, err := e.update(ctx, func(txn *database.Txn, state *models.EngineState) error {
		if n > MaxHeight || state.CurrentHeight > MaxHeight-n {
			return fmt.Errorf("%w: %d + %d", ErrHeightOverflow, state.CurrentHeight, n)
		}
		oldHeight := state.CurrentHeight
		state.CurrentHeight += n
		if e.config.CycleLength > 0 {
			crossed = state.CurrentHeight/e.config.CycleLength -
				oldHeight/e.config.CycleLength
		}
		firstCycle = state.GovernanceCycleCount + 1
		for range crossed {
			if err := e.advanceCycle(ctx, txn, state); err != nil {
				return err
			}
		}
		return e.db.SetEngineState(state, txn)
	})
	if err != nil {
		return 0, err
	}
	for i := range crossed {
		e.cycleAdvanced(firstCycle+i, state.CurrentHeight)
	}
	e.logger.Debug("height advanced", "height", state.CurrentHeight)
	return state.CurrentHeight, nil
}

// SetEmergencyMode toggles the intake block. Only the owner may call it.
func (e *Engine) SetEmergencyMode(
	ctx context.Context,
	caller string,
	enabled bool,
) error {
	if caller != e.config.Owner {
		return fmt.Errorf("%w: only the owner can change emergency mode", ErrUnauthorized)
	}
	_, err := e.update(ctx, func(txn *database.Txn, state *models.EngineState) error {
		state.EmergencyMode = enabled
		return e.db.SetEngineState(state, txn)
	})
	if err != nil {
		return err
	}
	e.logger.Warn("emergency mode changed", "enabled", enabled, "caller", caller)
	e.publish(EmergencyModeEventType, EmergencyModeEvent{Enabled: enabled})
	return nil
}
