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
	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/engine"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type RootResponse struct {
	Url     string `json:"url"`
	Version string `json:"version"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type AuthorizeEvaluatorRequest struct {
	Identity  string   `json:"identity"  validate:"required,max=128"`
	Expertise []string `json:"expertise" validate:"max=5,dive,required,max=32,excludes=0x2C"`
}

type SubmitProposalRequest struct {
	Title       string `json:"title"        validate:"required,max=100"`
	Category    string `json:"category"     validate:"max=20"`
	StakeAmount uint64 `json:"stake_amount"`
}

type SubmitProposalResponse struct {
	ID uint64 `json:"id"`
}

// EvaluateProposalRequest uses pointers so a missing score is rejected
// instead of being read as zero
type EvaluateProposalRequest struct {
	CommunityScore *uint64 `json:"community_score" validate:"required,lte=100"`
	TechnicalScore *uint64 `json:"technical_score" validate:"required,lte=100"`
	FinancialScore *uint64 `json:"financial_score" validate:"required,lte=100"`
}

type EvaluateProposalResponse struct {
	CompositeScore uint64 `json:"composite_score"`
	Status         string `json:"status"`
}

type EmergencyModeRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type EmergencyModeResponse struct {
	EmergencyMode bool `json:"emergency_mode"`
}

type CreditRequest struct {
	Amount uint64 `json:"amount" validate:"gt=0"`
}

type BalanceResponse struct {
	Identity string `json:"identity"`
	Balance  uint64 `json:"balance"`
}

type ProposalMetricsResponse struct {
	Complexity           uint64 `json:"complexity"`
	ImplementationCost   uint64 `json:"implementation_cost"`
	Risk                 uint64 `json:"risk"`
	TimelineEstimate     uint64 `json:"timeline_estimate"`
	ResourceRequirements uint64 `json:"resource_requirements"`
	StakeholderImpact    uint64 `json:"stakeholder_impact"`
	InnovationFactor     uint64 `json:"innovation_factor"`
	Sustainability       uint64 `json:"sustainability"`
}

type SubmissionResponse struct {
	ID               uint64                   `json:"id"`
	Creator          string                   `json:"creator"`
	Title            string                   `json:"title"`
	Category         string                   `json:"category"`
	StakeAmount      uint64                   `json:"stake_amount"`
	SubmissionHeight uint64                   `json:"submission_height"`
	Status           string                   `json:"status"`
	CommunityScore   uint64                   `json:"community_score"`
	TechnicalScore   uint64                   `json:"technical_score"`
	FinancialScore   uint64                   `json:"financial_score"`
	PriorityRank     uint64                   `json:"priority_rank"`
	TotalVotes       uint64                   `json:"total_votes"`
	Metrics          *ProposalMetricsResponse `json:"metrics,omitempty"`
}

type EvaluatorResponse struct {
	Identity        string   `json:"identity"`
	Authorized      bool     `json:"authorized"`
	ExpertiseAreas  []string `json:"expertise_areas"`
	EvaluationCount uint64   `json:"evaluation_count"`
	AccuracyRating  uint64   `json:"accuracy_rating"`
}

type EvaluationResponse struct {
	SubmissionID   uint64 `json:"submission_id"`
	Evaluator      string `json:"evaluator"`
	CommunityScore uint64 `json:"community_score"`
	TechnicalScore uint64 `json:"technical_score"`
	FinancialScore uint64 `json:"financial_score"`
	CompositeScore uint64 `json:"composite_score"`
	Status         string `json:"status"`
	Height         uint64 `json:"height"`
}

type StateResponse struct {
	NextSubmissionID     uint64 `json:"next_submission_id"`
	GovernanceCycleCount uint64 `json:"governance_cycle_count"`
	TotalActiveProposals uint64 `json:"total_active_proposals"`
	CurrentHeight        uint64 `json:"current_height"`
	EmergencyMode        bool   `json:"emergency_mode"`
}

func newSubmissionResponse(
	sub *models.Submission,
	metrics *models.ProposalMetrics,
) SubmissionResponse {
	ret := SubmissionResponse{
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
	if metrics != nil {
		ret.Metrics = &ProposalMetricsResponse{
			Complexity:           metrics.Complexity,
			ImplementationCost:   metrics.ImplementationCost,
			Risk:                 metrics.Risk,
			TimelineEstimate:     metrics.TimelineEstimate,
			ResourceRequirements: metrics.ResourceRequirements,
			StakeholderImpact:    metrics.StakeholderImpact,
			InnovationFactor:     metrics.InnovationFactor,
			Sustainability:       metrics.Sustainability,
		}
	}
	return ret
}

func newEvaluatorResponse(e *models.Evaluator) EvaluatorResponse {
	return EvaluatorResponse{
		Identity:        e.Identity,
		Authorized:      e.Authorized,
		ExpertiseAreas:  e.ExpertiseAreas(),
		EvaluationCount: e.EvaluationCount,
		AccuracyRating:  e.AccuracyRating,
	}
}

func newEvaluationResponse(e *models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		SubmissionID:   e.SubmissionID,
		Evaluator:      e.Evaluator,
		CommunityScore: e.CommunityScore,
		TechnicalScore: e.TechnicalScore,
		FinancialScore: e.FinancialScore,
		CompositeScore: e.CompositeScore,
		Status:         e.Status.String(),
		Height:         e.Height,
	}
}

func newStateResponse(s *models.EngineState) StateResponse {
	return StateResponse{
		NextSubmissionID:     s.NextSubmissionID,
		GovernanceCycleCount: s.GovernanceCycleCount,
		TotalActiveProposals: s.TotalActiveProposals,
		CurrentHeight:        s.CurrentHeight,
		EmergencyMode:        s.EmergencyMode,
	}
}

func newEvaluateProposalResponse(
	res engine.EvaluationResult,
) EvaluateProposalResponse {
	return EvaluateProposalResponse{
		CompositeScore: res.CompositeScore,
		Status:         res.Status.String(),
	}
}
