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
	"fmt"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/database/models"
)

// GetSubmission returns a single submission
func (e *Engine) GetSubmission(
	ctx context.Context,
	id uint64,
) (*models.Submission, error) {
	var ret *models.Submission
	err := e.view(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = e.getSubmission(id, txn)
		return err
	})
	return ret, err
}

// ListSubmissions returns the submissions matching the filter, ordered by id
func (e *Engine) ListSubmissions(
	ctx context.Context,
	filter models.SubmissionFilter,
) ([]models.Submission, error) {
	var ret []models.Submission
	err := e.view(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = e.db.GetSubmissions(filter, txn)
		return err
	})
	return ret, err
}

// GetProposalMetrics returns the auxiliary metrics recorded at intake
func (e *Engine) GetProposalMetrics(
	ctx context.Context,
	id uint64,
) (*models.ProposalMetrics, error) {
	var ret *models.ProposalMetrics
	err := e.view(ctx, func(txn *database.Txn) error {
		if _, err := e.getSubmission(id, txn); err != nil {
			return err
		}
		metrics, err := e.db.GetProposalMetrics(id, txn)
		if err != nil {
			if errors.Is(err, models.ErrProposalMetricsNotFound) {
				return fmt.Errorf("%w: metrics for submission %d", ErrNotFound, id)
			}
			return err
		}
		ret = metrics
		return nil
	})
	return ret, err
}

// GetEvaluations returns the evaluation history of a submission
func (e *Engine) GetEvaluations(
	ctx context.Context,
	id uint64,
) ([]models.Evaluation, error) {
	var ret []models.Evaluation
	err := e.view(ctx, func(txn *database.Txn) error {
		if _, err := e.getSubmission(id, txn); err != nil {
			return err
		}
		var err error
		ret, err = e.db.GetEvaluations(id, txn)
		return err
	})
	return ret, err
}

// State returns a copy of the process-wide counters
func (e *Engine) State(ctx context.Context) (*models.EngineState, error) {
	var ret *models.EngineState
	err := e.view(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = e.db.GetEngineState(txn)
		return err
	})
	return ret, err
}

// Balance returns the custody-ledger balance of an identity
func (e *Engine) Balance(ctx context.Context, identity string) (uint64, error) {
	var ret uint64
	err := e.view(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = e.custody.Balance(identity, txn)
		return err
	})
	return ret, err
}

// Credit funds an account. Only the owner may call it.
func (e *Engine) Credit(
	ctx context.Context,
	caller string,
	identity string,
	amount uint64,
) (uint64, error) {
	if caller != e.config.Owner {
		return 0, fmt.Errorf("%w: only the owner can credit accounts", ErrUnauthorized)
	}
	if identity == "" {
		return 0, fmt.Errorf("%w: empty account identity", ErrInvalidIdentity)
	}
	var balance uint64
	_, err := e.update(ctx, func(txn *database.Txn, _ *models.EngineState) error {
		var err error
		balance, err = e.custody.Credit(identity, amount, txn)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info("account credited", "identity", identity, "amount", amount, "balance", balance)
	return balance, nil
}
