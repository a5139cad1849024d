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

	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetEvaluator returns the evaluator record for an identity, or
// models.ErrEvaluatorNotFound
func (s *Store) GetEvaluator(
	identity string,
	txn types.Txn,
) (*models.Evaluator, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Evaluator
	if result := db.Where("identity = ?", identity).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrEvaluatorNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetEvaluators returns all evaluator records ordered by identity
func (s *Store) GetEvaluators(txn types.Txn) ([]models.Evaluator, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Evaluator
	if result := db.Order("identity ASC").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetEvaluator creates or fully overwrites an evaluator record
func (s *Store) SetEvaluator(
	evaluator *models.Evaluator,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		UpdateAll: true,
	}).Create(evaluator)
	return result.Error
}

// IncrementEvaluationCount bumps the evaluation count of an evaluator by one
func (s *Store) IncrementEvaluationCount(
	identity string,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Evaluator{}).
		Where("identity = ?", identity).
		UpdateColumn("evaluation_count", gorm.Expr("evaluation_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrEvaluatorNotFound
	}
	return nil
}

// AddEvaluation appends an evaluation record
func (s *Store) AddEvaluation(
	evaluation *models.Evaluation,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(evaluation).Error
}

// GetEvaluations returns the evaluation records for a submission in the order
// they were recorded
func (s *Store) GetEvaluations(
	submissionID uint64,
	txn types.Txn,
) ([]models.Evaluation, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Evaluation
	if result := db.Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
