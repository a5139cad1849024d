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

package gormstore

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/database/types"
	"gorm.io/gorm"
)

// GetSubmission returns the submission with the given ID, or
// models.ErrSubmissionNotFound
func (s *Store) GetSubmission(
	id uint64,
	txn types.Txn,
) (*models.Submission, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Submission
	if result := db.Where("id = ?", id).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrSubmissionNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetSubmissions returns the submissions matching the filter, ordered by ID
func (s *Store) GetSubmissions(
	filter models.SubmissionFilter,
	txn types.Txn,
) ([]models.Submission, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Submission{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Creator != "" {
		query = query.Where("creator = ?", filter.Creator)
	}
	var ret []models.Submission
	if result := query.Order("id ASC").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreateSubmission inserts a new submission along with its metrics record
func (s *Store) CreateSubmission(
	submission *models.Submission,
	metrics *models.ProposalMetrics,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(submission); result.Error != nil {
		return fmt.Errorf("create submission: %w", result.Error)
	}
	if metrics != nil {
		metrics.SubmissionID = submission.ID
		if result := db.Create(metrics); result.Error != nil {
			return fmt.Errorf("create proposal metrics: %w", result.Error)
		}
	}
	return nil
}

// UpdateSubmission writes the mutable fields of an existing submission
func (s *Store) UpdateSubmission(
	submission *models.Submission,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	// Map form so zero values are written
	result := db.Model(&models.Submission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]any{
			"status":          submission.Status,
			"community_score": submission.CommunityScore,
			"technical_score": submission.TechnicalScore,
			"financial_score": submission.FinancialScore,
			"priority_rank":   submission.PriorityRank,
			"total_votes":     submission.TotalVotes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrSubmissionNotFound
	}
	return nil
}

// GetProposalMetrics returns the metrics for a submission, or
// models.ErrProposalMetricsNotFound
func (s *Store) GetProposalMetrics(
	submissionID uint64,
	txn types.Txn,
) (*models.ProposalMetrics, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.ProposalMetrics
	if result := db.Where("submission_id = ?", submissionID).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrProposalMetricsNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}
