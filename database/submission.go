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

func (d *Database) GetSubmission(
	id uint64,
	txn *Txn,
) (*models.Submission, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetSubmission(id, txn.Metadata())
}

// GetSubmissions returns the submissions matching the filter, ordered by id
func (d *Database) GetSubmissions(
	filter models.SubmissionFilter,
	txn *Txn,
) ([]models.Submission, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetSubmissions(filter, txn.Metadata())
}

// CreateSubmission stores a new submission together with its metrics record
func (d *Database) CreateSubmission(
	submission *models.Submission,
	metrics *models.ProposalMetrics,
	txn *Txn,
) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.CreateSubmission(submission, metrics, txn.Metadata())
		})
	}
	return d.metadata.CreateSubmission(submission, metrics, txn.Metadata())
}

func (d *Database) UpdateSubmission(
	submission *models.Submission,
	txn *Txn,
) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.UpdateSubmission(submission, txn.Metadata())
		})
	}
	return d.metadata.UpdateSubmission(submission, txn.Metadata())
}

func (d *Database) GetProposalMetrics(
	submissionID uint64,
	txn *Txn,
) (*models.ProposalMetrics, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetProposalMetrics(submissionID, txn.Metadata())
}
