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

package database

import "github.com/blinklabs-io/sieve/database/models"

func (d *Database) GetEvaluator(
	identity string,
	txn *Txn,
) (*models.Evaluator, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetEvaluator(identity, txn.Metadata())
}

func (d *Database) GetEvaluators(txn *Txn) ([]models.Evaluator, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetEvaluators(txn.Metadata())
}

// SetEvaluator creates or replaces the evaluator record
func (d *Database) SetEvaluator(evaluator *models.Evaluator, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetEvaluator(evaluator, txn.Metadata())
		})
	}
	return d.metadata.SetEvaluator(evaluator, txn.Metadata())
}

func (d *Database) IncrementEvaluationCount(identity string, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.IncrementEvaluationCount(identity, txn.Metadata())
		})
	}
	return d.metadata.IncrementEvaluationCount(identity, txn.Metadata())
}

func (d *Database) AddEvaluation(evaluation *models.Evaluation, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.AddEvaluation(evaluation, txn.Metadata())
		})
	}
	return d.metadata.AddEvaluation(evaluation, txn.Metadata())
}

// GetEvaluations returns the evaluation history of a submission, oldest first
func (d *Database) GetEvaluations(
	submissionID uint64,
	txn *Txn,
) ([]models.Evaluation, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetEvaluations(submissionID, txn.Metadata())
}
