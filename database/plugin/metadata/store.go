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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/blinklabs-io/sieve/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// MetadataStore is implemented by every relational metadata plugin. A nil
// types.Txn runs the call outside of any transaction.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Engine counters
	GetEngineState(types.Txn) (*models.EngineState, error)
	SetEngineState(*models.EngineState, types.Txn) error

	// Submissions
	GetSubmission(uint64, types.Txn) (*models.Submission, error)
	GetSubmissions(models.SubmissionFilter, types.Txn) ([]models.Submission, error)
	CreateSubmission(
		*models.Submission,
		*models.ProposalMetrics,
		types.Txn,
	) error
	UpdateSubmission(*models.Submission, types.Txn) error
	GetProposalMetrics(uint64, types.Txn) (*models.ProposalMetrics, error)

	// Evaluators
	GetEvaluator(string, types.Txn) (*models.Evaluator, error)
	GetEvaluators(types.Txn) ([]models.Evaluator, error)
	SetEvaluator(*models.Evaluator, types.Txn) error
	IncrementEvaluationCount(string, types.Txn) error

	// Evaluation audit trail
	AddEvaluation(*models.Evaluation, types.Txn) error
	GetEvaluations(uint64, types.Txn) ([]models.Evaluation, error)
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		logger,
		promRegistry,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
