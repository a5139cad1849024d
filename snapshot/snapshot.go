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

// Package snapshot exports the stored engine state as a JSON document to a
// local file, a Google Cloud Storage object or an S3 object
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/database/models"
)

// Snapshot is a point-in-time copy of everything the engine has stored
type Snapshot struct {
	CreatedAt   time.Time            `json:"created_at"`
	State       State                `json:"state"`
	Submissions []SubmissionSnapshot `json:"submissions"`
	Evaluators  []Evaluator          `json:"evaluators"`
	Accounts    []Account            `json:"accounts"`
}

type State struct {
	NextSubmissionID     uint64 `json:"next_submission_id"`
	GovernanceCycleCount uint64 `json:"governance_cycle_count"`
	TotalActiveProposals uint64 `json:"total_active_proposals"`
	CurrentHeight        uint64 `json:"current_height"`
	EmergencyMode        bool   `json:"emergency_mode"`
}

type SubmissionSnapshot struct {
	Submission  Submission   `json:"submission"`
	Metrics     *Metrics     `json:"metrics"`
	Evaluations []Evaluation `json:"evaluations"`
}

type Submission struct {
	ID               uint64 `json:"id"`
	Creator          string `json:"creator"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	StakeAmount      uint64 `json:"stake_amount"`
	SubmissionHeight uint64 `json:"submission_height"`
	Status           string `json:"status"`
	CommunityScore   uint64 `json:"community_score"`
	TechnicalScore   uint64 `json:"technical_score"`
	FinancialScore   uint64 `json:"financial_score"`
	PriorityRank     uint64 `json:"priority_rank"`
	TotalVotes       uint64 `json:"total_votes"`
}

type Metrics struct {
	Complexity           uint64 `json:"complexity"`
	ImplementationCost   uint64 `json:"implementation_cost"`
	Risk                 uint64 `json:"risk"`
	TimelineEstimate     uint64 `json:"timeline_estimate"`
	ResourceRequirements uint64 `json:"resource_requirements"`
	StakeholderImpact    uint64 `json:"stakeholder_impact"`
	InnovationFactor     uint64 `json:"innovation_factor"`
	Sustainability       uint64 `json:"sustainability"`
}

type Evaluation struct {
	Evaluator      string `json:"evaluator"`
	CommunityScore uint64 `json:"community_score"`
	TechnicalScore uint64 `json:"technical_score"`
	FinancialScore uint64 `json:"financial_score"`
	CompositeScore uint64 `json:"composite_score"`
	Status         string `json:"status"`
	Height         uint64 `json:"height"`
}

type Evaluator struct {
	Identity        string   `json:"identity"`
	Authorized      bool     `json:"authorized"`
	ExpertiseAreas  []string `json:"expertise_areas"`
	EvaluationCount uint64   `json:"evaluation_count"`
	AccuracyRating  uint64   `json:"accuracy_rating"`
}

type Account struct {
	Identity string `json:"identity"`
	Balance  uint64 `json:"balance"`
}

// Build reads the snapshot from a single read-only transaction
func Build(ctx context.Context, db *database.Database) (*Snapshot, error) {
	txn := db.Transaction(false)
	defer txn.Release()

	state, err := db.GetEngineState(txn)
	if err != nil {
		return nil, fmt.Errorf("read engine state: %w", err)
	}
	ret := &Snapshot{
		CreatedAt: time.Now().UTC(),
		State: State{
			NextSubmissionID:     state.NextSubmissionID,
			GovernanceCycleCount: state.GovernanceCycleCount,
			TotalActiveProposals: state.TotalActiveProposals,
			CurrentHeight:        state.CurrentHeight,
			EmergencyMode:        state.EmergencyMode,
		},
		Submissions: []SubmissionSnapshot{},
		Evaluators:  []Evaluator{},
		Accounts:    []Account{},
	}

	submissions, err := db.GetSubmissions(models.SubmissionFilter{}, txn)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	for _, sub := range submissions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := SubmissionSnapshot{
			Submission:  newSubmission(&sub),
			Evaluations: []Evaluation{},
		}
		metrics, err := db.GetProposalMetrics(sub.ID, txn)
		if err != nil && !errors.Is(err, models.ErrProposalMetricsNotFound) {
			return nil, fmt.Errorf("read metrics for submission %d: %w", sub.ID, err)
		}
		entry.Metrics = newMetrics(metrics)
		evaluations, err := db.GetEvaluations(sub.ID, txn)
		if err != nil {
			return nil, fmt.Errorf("read evaluations for submission %d: %w", sub.ID, err)
		}
		for _, eval := range evaluations {
			entry.Evaluations = append(entry.Evaluations, Evaluation{
				Evaluator:      eval.Evaluator,
				CommunityScore: eval.CommunityScore,
				TechnicalScore: eval.TechnicalScore,
				FinancialScore: eval.FinancialScore,
				CompositeScore: eval.CompositeScore,
				Status:         eval.Status.String(),
				Height:         eval.Height,
			})
		}
		ret.Submissions = append(ret.Submissions, entry)
	}

	evaluators, err := db.GetEvaluators(txn)
	if err != nil {
		return nil, fmt.Errorf("read evaluators: %w", err)
	}
	for _, e := range evaluators {
		ret.Evaluators = append(ret.Evaluators, Evaluator{
			Identity:        e.Identity,
			Authorized:      e.Authorized,
			ExpertiseAreas:  e.ExpertiseAreas(),
			EvaluationCount: e.EvaluationCount,
			AccuracyRating:  e.AccuracyRating,
		})
	}

	accounts, err := db.GetAccounts(txn)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	for _, a := range accounts {
		ret.Accounts = append(ret.Accounts, Account{
			Identity: a.Identity,
			Balance:  a.Balance,
		})
	}
	return ret, nil
}

func newSubmission(sub *models.Submission) Submission {
	return Submission{
		ID:               sub.ID,
		Creator:          sub.Creator,
		Title:            sub.Title,
		Category:         sub.Category,
		StakeAmount:      sub.StakeAmount,
		SubmissionHeight: sub.SubmissionHeight,
		Status:           sub.Status.String(),
		CommunityScore:   sub.CommunityScore,
		TechnicalScore:   sub.TechnicalScore,
		FinancialScore:   sub.FinancialScore,
		PriorityRank:     sub.PriorityRank,
		TotalVotes:       sub.TotalVotes,
	}
}

func newMetrics(m *models.ProposalMetrics) *Metrics {
	if m == nil {
		return nil
	}
	return &Metrics{
		Complexity:           m.Complexity,
		ImplementationCost:   m.ImplementationCost,
		Risk:                 m.Risk,
		TimelineEstimate:     m.TimelineEstimate,
		ResourceRequirements: m.ResourceRequirements,
		StakeholderImpact:    m.StakeholderImpact,
		InnovationFactor:     m.InnovationFactor,
		Sustainability:       m.Sustainability,
	}
}

// Encode writes the snapshot as indented JSON
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ExportConfig configures where and how a snapshot is written
type ExportConfig struct {
	Logger *slog.Logger
	// GcsCredentialsFile is an optional service account key for gs:// targets
	GcsCredentialsFile string
	// S3Region overrides the region from the default AWS config
	S3Region string
	Timeout  time.Duration
}

// Export builds a snapshot and writes it to dest. See NewSink for the
// accepted destination formats.
func Export(
	ctx context.Context,
	db *database.Database,
	dest string,
	cfg ExportConfig,
) (*Snapshot, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger := cfg.Logger.With("component", "snapshot")
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	snap, err := Build(ctx, db)
	if err != nil {
		return nil, err
	}
	sink, err := NewSink(ctx, dest, cfg)
	if err != nil {
		return nil, err
	}
	writeErr := sink.Write(ctx, snap)
	if err := sink.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return nil, fmt.Errorf("write snapshot to %s: %w", dest, writeErr)
	}
	digest, err := snap.Digest()
	if err != nil {
		return nil, err
	}
	logger.Info(
		"snapshot exported",
		"destination", dest,
		"digest", digest,
		"submissions", len(snap.Submissions),
		"evaluators", len(snap.Evaluators),
		"height", snap.State.CurrentHeight,
	)
	return snap, nil
}
