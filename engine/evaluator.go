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

// AuthorizeEvaluator (re)creates the evaluator record for an identity. Any
// previous statistics are reset. Only the owner may call it.
func (e *Engine) AuthorizeEvaluator(
	ctx context.Context,
	caller string,
	identity string,
	expertise []string,
) (*models.Evaluator, error) {
	if caller != e.config.Owner {
		return nil, fmt.Errorf("%w: only the owner can authorize evaluators", ErrUnauthorized)
	}
	if identity == "" {
		return nil, fmt.Errorf("%w: empty evaluator identity", ErrInvalidIdentity)
	}
	if !models.ValidExpertiseAreas(expertise) {
		return nil, fmt.Errorf(
			"%w: at most %d non-empty tags of up to %d characters",
			ErrInvalidExpertise,
			models.MaxExpertiseAreas,
			models.MaxExpertiseTagLength,
		)
	}
	evaluator := &models.Evaluator{
		Identity:        identity,
		Authorized:      true,
		EvaluationCount: 0,
		AccuracyRating:  models.InitialAccuracyRating,
	}
	evaluator.SetExpertiseAreas(expertise)
	_, err := e.update(ctx, func(txn *database.Txn, _ *models.EngineState) error {
		return e.db.SetEvaluator(evaluator, txn)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info(
		"evaluator authorized",
		"identity", identity,
		"expertise", expertise,
	)
	e.publish(EvaluatorAuthorizedEventType, EvaluatorAuthorizedEvent{
		Identity:  identity,
		Expertise: evaluator.ExpertiseAreas(),
	})
	return evaluator, nil
}

// IsAuthorized reports whether the identity may evaluate submissions
func (e *Engine) IsAuthorized(identity string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	authorized, err := e.isAuthorized(identity, nil)
	if err != nil {
		e.logger.Error("failed to load evaluator", "identity", identity, "error", err)
		return false
	}
	return authorized
}

func (e *Engine) isAuthorized(identity string, txn *database.Txn) (bool, error) {
	evaluator, err := e.db.GetEvaluator(identity, txn)
	if err != nil {
		if errors.Is(err, models.ErrEvaluatorNotFound) {
			return false, nil
		}
		return false, err
	}
	return evaluator.Authorized, nil
}

// GetEvaluator returns the evaluator record for an identity
func (e *Engine) GetEvaluator(
	ctx context.Context,
	identity string,
) (*models.Evaluator, error) {
	var ret *models.Evaluator
	err := e.view(ctx, func(txn *database.Txn) error {
		evaluator, err := e.db.GetEvaluator(identity, txn)
		if err != nil {
			if errors.Is(err, models.ErrEvaluatorNotFound) {
				return fmt.Errorf("%w: evaluator %q", ErrNotFound, identity)
			}
			return err
		}
		ret = evaluator
		return nil
	})
	return ret, err
}

// ListEvaluators returns every evaluator record
func (e *Engine) ListEvaluators(ctx context.Context) ([]models.Evaluator, error) {
	var ret []models.Evaluator
	err := e.view(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = e.db.GetEvaluators(txn)
		return err
	})
	return ret, err
}
