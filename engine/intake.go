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
	"unicode/utf8"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/database/models"
)

// SubmitProposal moves the stake into custody and registers a new submission
// in the SUBMITTED state. It returns the new submission id.
func (e *Engine) SubmitProposal(
	ctx context.Context,
	creator string,
	title string,
	category string,
	stake uint64,
) (uint64, error) {
	if err := validateProposal(creator, title, category, stake); err != nil {
		e.metrics.intakeRejected.WithLabelValues(rejectReasonInvalid).Inc()
		return 0, err
	}
	var submission *models.Submission
	_, err := e.update(ctx, func(txn *database.Txn, state *models.EngineState) error {
		if reason := e.ineligibleReason(stake, state); reason != "" {
			e.metrics.intakeRejected.WithLabelValues(reason).Inc()
			return fmt.Errorf("%w: %s", ErrInsufficientStake, reason)
		}
		if err := e.custody.Transfer(creator, stake, txn); err != nil {
			e.metrics.intakeRejected.WithLabelValues(rejectReasonTransfer).Inc()
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		submission = &models.Submission{
			ID:               state.NextSubmissionID,
			Creator:          creator,
			Title:            title,
			Category:         category,
			StakeAmount:      stake,
			SubmissionHeight: state.CurrentHeight,
			Status:           models.SubmissionStatusSubmitted,
			PriorityRank:     models.PriorityRankUnranked,
		}
		if err := e.db.CreateSubmission(
			submission,
			models.NewDefaultProposalMetrics(submission.ID),
			txn,
		); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}
		state.NextSubmissionID++
		state.TotalActiveProposals++
		return e.db.SetEngineState(state, txn)
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientStake) &&
			!errors.Is(err, ErrTransferFailed) {
			e.logger.Error("intake failed", "creator", creator, "error", err)
		}
		return 0, err
	}
	e.metrics.submissions.Inc()
	e.logger.Info(
		"proposal submitted",
		"id", submission.ID,
		"creator", creator,
		"stake", stake,
		"height", submission.SubmissionHeight,
	)
	e.publish(SubmissionCreatedEventType, SubmissionCreatedEvent{
		ID:          submission.ID,
		Creator:     submission.Creator,
		Title:       submission.Title,
		Category:    submission.Category,
		StakeAmount: submission.StakeAmount,
		Height:      submission.SubmissionHeight,
	})
	return submission.ID, nil
}

func validateProposal(creator, title, category string, stake uint64) error {
	if creator == "" {
		return fmt.Errorf("%w: empty creator", ErrInvalidProposal)
	}
	if title == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidProposal)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf(
			"%w: title longer than %d characters",
			ErrInvalidProposal,
			MaxTitleLength,
		)
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return fmt.Errorf(
			"%w: category longer than %d characters",
			ErrInvalidProposal,
			MaxCategoryLength,
		)
	}
	if stake > MaxStake {
		return fmt.Errorf("%w: stake above %d", ErrInvalidProposal, MaxStake)
	}
	return nil
}
