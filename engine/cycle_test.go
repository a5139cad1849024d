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

package engine_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/engine"
	"github.com/blinklabs-io/sieve/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingRanker struct {
	cycles []uint64
	err    error
}

func (r *recordingRanker) RankSubmissions(
	_ context.Context,
	cycle uint64,
	_ *database.Txn,
) error {
	if r.err != nil {
		return r.err
	}
	r.cycles = append(r.cycles, cycle)
	return nil
}

func TestAdvanceCycle(t *testing.T) {
	ranker := &recordingRanker{}
	env := newTestEnv(t, func(cfg *engine.EngineConfig) {
		cfg.Ranker = ranker
	})
	ctx := context.Background()
	id := env.submit(t, "t")
	_, err := env.engine.EvaluateProposal(ctx, testEvaluator, id, 80, 70, 60)
	require.NoError(t, err)
	before, err := env.engine.GetSubmission(ctx, id)
	require.NoError(t, err)

	cycle, err := env.engine.AdvanceCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cycle)
	cycle, err = env.engine.AdvanceCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cycle)
	assert.Equal(t, []uint64{1, 2}, ranker.cycles)

	after, err := env.engine.GetSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	state := env.state(t)
	assert.Equal(t, uint64(2), state.GovernanceCycleCount)
	assert.Equal(t, uint64(1), state.TotalActiveProposals)
}

func TestAdvanceCycleRankerFailure(t *testing.T) {
	ranker := &recordingRanker{err: errors.New("ranking failed")}
	env := newTestEnv(t, func(cfg *engine.EngineConfig) {
		cfg.Ranker = ranker
	})
	_, err := env.engine.AdvanceCycle(context.Background())
	require.ErrorIs(t, err, ranker.err)
	assert.Zero(t, env.state(t).GovernanceCycleCount)
}

func TestAdvanceHeightCrossesCycles(t *testing.T) {
	env := newTestEnv(t, func(cfg *engine.EngineConfig) {
		cfg.CycleLength = 10
	})
	ctx := context.Background()
	testDefs := []struct {
		advance        uint64
		expectedHeight uint64
		expectedCycle  uint64
	}{
		{9, 9, 0},
		{1, 10, 1},
		{25, 35, 3},
		{4, 39, 3},
		{0, 39, 3},
		{1, 40, 4},
	}
	for _, tc := range testDefs {
		height, err := env.engine.AdvanceHeight(ctx, tc.advance)
		require.NoError(t, err)
		assert.Equal(t, tc.expectedHeight, height)
		assert.Equal(t, tc.expectedCycle, env.state(t).GovernanceCycleCount)
	}
}

func TestAdvanceHeightOverflow(t *testing.T) {
	env := newTestEnv(t, func(cfg *engine.EngineConfig) {
		cfg.CycleLength = 0
	})
	ctx := context.Background()
	_, err := env.engine.AdvanceHeight(ctx, math.MaxUint64)
	require.ErrorIs(t, err, engine.ErrHeightOverflow)
	assert.Zero(t, env.state(t).CurrentHeight)

	height, err := env.engine.AdvanceHeight(ctx, engine.MaxHeight)
	require.NoError(t, err)
	assert.Equal(t, engine.MaxHeight, height)
	_, err = env.engine.AdvanceHeight(ctx, 1)
	require.ErrorIs(t, err, engine.ErrHeightOverflow)
	assert.Equal(t, engine.MaxHeight, env.state(t).CurrentHeight)
}

func TestEventsPublished(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	env := newTestEnv(t, func(cfg *engine.EngineConfig) {
		cfg.EventBus = eb
		cfg.CycleLength = 5
	})
	ctx := context.Background()
	_, submittedCh := eb.Subscribe(engine.SubmissionCreatedEventType)
	_, evaluatedCh := eb.Subscribe(engine.SubmissionEvaluatedEventType)
	_, cycleCh := eb.Subscribe(engine.CycleAdvancedEventType)

	id := env.submit(t, "evented")
	_, err := env.engine.EvaluateProposal(ctx, testEvaluator, id, 75, 80, 60)
	require.NoError(t, err)
	_, err = env.engine.AdvanceHeight(ctx, 10)
	require.NoError(t, err)

	waitEvent := func(ch <-chan event.Event) event.Event {
		select {
		case evt := <-ch:
			return evt
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for event")
		}
		return event.Event{}
	}
	submitted, ok := waitEvent(submittedCh).Data.(engine.SubmissionCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, id, submitted.ID)
	assert.Equal(t, "evented", submitted.Title)

	evaluated, ok := waitEvent(evaluatedCh).Data.(engine.SubmissionEvaluatedEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(72), evaluated.CompositeScore)
	assert.Equal(t, "QUALIFIED", evaluated.Status)

	var cycles []uint64
	for range 2 {
		cycle, ok := waitEvent(cycleCh).Data.(engine.CycleAdvancedEvent)
		require.True(t, ok)
		cycles = append(cycles, cycle.Cycle)
	}
	assert.ElementsMatch(t, []uint64{1, 2}, cycles)
}

func TestHeightTicker(t *testing.T) {
	env := newTestEnv(t, func(cfg *engine.EngineConfig) {
		cfg.HeightInterval = 10 * time.Millisecond
	})
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	require.NoError(t, env.engine.Start(ctx))
	require.NoError(t, env.engine.Start(ctx))
	require.Eventually(t, func() bool {
		return env.state(t).CurrentHeight >= 3
	}, 5*time.Second, 10*time.Millisecond)
	env.engine.Stop()
	height := env.state(t).CurrentHeight
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, height, env.state(t).CurrentHeight)
	env.engine.Stop()
}

func TestHeightTickerStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, func(cfg *engine.EngineConfig) {
		cfg.HeightInterval = 5 * time.Millisecond
	})
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, env.engine.Start(ctx))
	cancel()
	env.engine.Stop()
}
