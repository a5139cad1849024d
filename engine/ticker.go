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
	"errors"
	"time"
)

// Start launches the height ticker when a height interval is configured.
// Calling Start on a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	if e.config.HeightInterval == 0 {
		return nil
	}
	e.tickerMu.Lock()
	defer e.tickerMu.Unlock()
	if e.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.wg.Add(1)
	go e.runHeightTicker(ctx, e.config.HeightInterval)
	e.logger.Info(
		"height ticker started",
		"interval", e.config.HeightInterval.String(),
	)
	return nil
}

// Stop halts the height ticker and waits for it to exit
func (e *Engine) Stop() {
	e.tickerMu.Lock()
	defer e.tickerMu.Unlock()
	if e.cancel == nil {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.cancel = nil
}

func (e *Engine) runHeightTicker(ctx context.Context, interval time.Duration) {
	defer e.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.AdvanceHeight(ctx, 1); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				e.logger.Error("failed to advance height", "error", err)
			}
		}
	}
}
