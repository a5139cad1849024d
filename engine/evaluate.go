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

// EvaluationResult is the outcome of a successful evaluation
type EvaluationResult struct {
	CompositeScore uint64
	Status         models.SubmissionStatus
}

// EvaluateProposal scores a SUBMITTED submission and moves it to QUALIFIED or
// FILTERED. Only authorized evaluators may call it.
func (e *Engine) EvaluateProposal(
	ctx context.Context,
	caller string,
	id uint64,
	community, technical, financial uint64,
) (EvaluationResult, error) {
	var result EvaluationResult
	var height uint64
	_, err := e.update(ctx, func(txn *database.Txn, state *models.EngineState) error {
		authorized, err := e.isAuthorized(caller, txn)
		if err != nil {
			return err
		}
		if !authorized {
			return fmt.Errorf("%w: %q is not an authorized evaluator", ErrUnauthorized, caller)
		}
		submission, err := e.getSubmission(id, txn)
		if err != nil {
			return err
		}
		if submission.Status.Terminal() {
			return fmt.Errorf(
				"%w: submission %d is %s",
				ErrAlreadyFinalized,
				id,
				submission.Status,
			)
		}
		if e.expired(submission, state) {
			return fmt.Errorf("%w: submission %d", ErrExpired, id)
		}
		for _, score := range []uint64{community, technical, financial} {
			if !validScore(score) {
				return fmt.Errorf(
					"%w: %d is outside [0,%d]",
					ErrInvalidScore,
					score,
					MaxScore,
				)
			}
		}
		result.CompositeScore = e.config.Weights.CompositeScore(
			community,
			technical,
			financial,
		)
		result.Status = models.SubmissionStatusFiltered
		if community >= e.config.MinCommunityScore {
			result.Status = models.SubmissionStatusQualified
		}
		submission.CommunityScore = community
		submission.TechnicalScore = technical
		submission.FinancialScore = financial
		submission.Status = result.Status
		if err := e.db.UpdateSubmission(submission, txn); err != nil {
			return fmt.Errorf("update submission: %w", err)
		}
		if err := e.db.IncrementEvaluationCount(caller, txn); err != nil {
			return fmt.Errorf("record evaluation: %w", err)
		}
		height = state.CurrentHeight
		return e.db.AddEvaluation(&models.Evaluation{
			SubmissionID:   id,
			Evaluator:      caller,
			CommunityScore: community,
			TechnicalScore: technical,
			FinancialScore: financial,
			CompositeScore: result.CompositeScore,
			Status:         result.Status,
			Height:         height,
		}, txn)
	})
	if err != nil {
		return EvaluationResult{}, err
	}
	e.metrics.evaluations.WithLabelValues(result.Status.String()).Inc()
	e.logger.Info(
		"proposal evaluated",
		"id", id,
		"evaluator", caller,
		"composite_score", result.CompositeScore,
		"status", result.Status.String(),
	)
	e.publish(SubmissionEvaluatedEventType, SubmissionEvaluatedEvent{
		ID:             id,
		Evaluator:      caller,
		CommunityScore: community,
		TechnicalScore: technical,
		FinancialScore: financial,
		CompositeScore: result.CompositeScore,
		Status:         result.Status.String(),
		Height:         height,
	})
	return result, nil
}
