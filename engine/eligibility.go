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

import "github.com/blinklabs-io/sieve/database/models"

// Intake rejection reasons, used as a metric label
const (
	rejectReasonStake     = "stake"
	rejectReasonCapacity  = "capacity"
	rejectReasonEmergency = "emergency"
	rejectReasonTransfer  = "transfer"
	rejectReasonInvalid   = "invalid"
)

// IsEligible reports whether a submission with the given stake would pass the
// intake gate right now. A storage failure is treated as ineligible.
func (e *Engine) IsEligible(stake uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	state, err := e.db.GetEngineState(nil)
	if err != nil {
		e.logger.Error("failed to load engine state", "error", err)
		return false
	}
	return e.ineligibleReason(stake, state) == ""
}

// ineligibleReason returns an empty string when every gate passes
func (e *Engine) ineligibleReason(
	stake uint64,
	state *models.EngineState,
) string {
	switch {
	case stake < e.config.MinStake:
		return rejectReasonStake
	case state.TotalActiveProposals >= e.config.MaxProposalsPerCycle:
		return rejectReasonCapacity
	case state.EmergencyMode:
		return rejectReasonEmergency
	default:
		return ""
	}
}
