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
	"errors"

	"github.com/blinklabs-io/sieve/database/models"
)

// IsExpired reports whether the validity window of a submission has elapsed.
// A missing submission counts as expired, and so does a storage failure.
func (e *Engine) IsExpired(id uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	txn := e.db.Transaction(false)
	defer txn.Release()
	state, err := e.db.GetEngineState(txn)
	if err != nil {
		e.logger.Error("failed to load engine state", "error", err)
		return true
	}
	submission, err := e.db.GetSubmission(id, txn)
	if err != nil {
		if !errors.Is(err, models.ErrSubmissionNotFound) {
			e.logger.Error("failed to load submission", "id", id, "error", err)
		}
		return true
	}
	return e.expired(submission, state)
}

func (e *Engine) expired(
	submission *models.Submission,
	state *models.EngineState,
) bool {
	// Unsigned subtraction
	if state.CurrentHeight < submission.SubmissionHeight {
		return false
	}
	return state.CurrentHeight-submission.SubmissionHeight > e.config.ValidityPeriod
}
