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

package api

import (
	"context"

	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/engine"
)

// ProposalEngine is the subset of the engine used by the API. It is an
// interface so handlers can be tested against a mock.
type ProposalEngine interface {
	SubmitProposal(
		ctx context.Context,
		creator string,
		title string,
		category string,
		stakeAmount uint64,
	) (uint64, error)
	EvaluateProposal(
		ctx context.Context,
		caller string,
		id uint64,
		communityScore uint64,
		technicalScore uint64,
		financialScore uint64,
	) (engine.EvaluationResult, error)
	AuthorizeEvaluator(
		ctx context.Context,
		caller string,
		identity string,
		expertise []string,
	) (*models.Evaluator, error)
	GetEvaluator(ctx context.Context, identity string) (*models.Evaluator, error)
	ListEvaluators(ctx context.Context) ([]models.Evaluator, error)
	GetSubmission(ctx context.Context, id uint64) (*models.Submission, error)
	ListSubmissions(
		ctx context.Context,
		filter models.SubmissionFilter,
	) ([]models.Submission, error)
	GetProposalMetrics(
		ctx context.Context,
		id uint64,
	) (*models.ProposalMetrics, error)
	GetEvaluations(ctx context.Context, id uint64) ([]models.Evaluation, error)
	State(ctx context.Context) (*models.EngineState, error)
	SetEmergencyMode(ctx context.Context, caller string, enabled bool) error
	Credit(
		ctx context.Context,
		caller string,
		identity string,
		amount uint64,
	) (uint64, error)
	Balance(ctx context.Context, identity string) (uint64, error)
}

var _ ProposalEngine = (*engine.Engine)(nil)
