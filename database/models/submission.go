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

package models

import "errors"

var (
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrProposalMetricsNotFound = errors.New("proposal metrics not found")
)

// SubmissionStatus is the lifecycle state of a submission
type SubmissionStatus uint8

const (
	SubmissionStatusSubmitted SubmissionStatus = 0
	SubmissionStatusQualified SubmissionStatus = 1
	SubmissionStatusFiltered  SubmissionStatus = 2
)

func (s SubmissionStatus) String() string {
	switch s {
	case SubmissionStatusSubmitted:
		return "SUBMITTED"
	case SubmissionStatusQualified:
		return "QUALIFIED"
	case SubmissionStatusFiltered:
		return "FILTERED"
	default:
		return "UNKNOWN"
	}
}

// Terminal returns true for states that have no outgoing transition
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionStatusQualified || s == SubmissionStatusFiltered
}

// ParseSubmissionStatus maps a status name back to its value
func ParseSubmissionStatus(name string) (SubmissionStatus, bool) {
	switch name {
	case "SUBMITTED":
		return SubmissionStatusSubmitted, true
	case "QUALIFIED":
		return SubmissionStatusQualified, true
	case "FILTERED":
		return SubmissionStatusFiltered, true
	default:
		return 0, false
	}
}

// PriorityRankUnranked marks a submission that no ranking pass has touched
const PriorityRankUnranked uint64 = 0

// Submission is a staked proposal moving through the lifecycle.
// Everything except the scores and status is immutable after creation.
type Submission struct {
	ID               uint64           `gorm:"primarykey;autoIncrement:false"`
	Creator          string           `gorm:"size:128;index;not null"`
	Title            string           `gorm:"size:100;not null"`
	Category         string           `gorm:"size:20;not null"`
	StakeAmount      uint64           `gorm:"not null"`
	SubmissionHeight uint64           `gorm:"index;not null"`
	Status           SubmissionStatus `gorm:"index;not null"`
	CommunityScore   uint64           `gorm:"not null"`
	TechnicalScore   uint64           `gorm:"not null"`
	FinancialScore   uint64           `gorm:"not null"`
	PriorityRank     uint64           `gorm:"not null"`
	// Reserved for a future voting subsystem
	TotalVotes uint64 `gorm:"not null"`
}

func (Submission) TableName() string {
	return "submission"
}

// SubmissionFilter narrows submission listings. Zero values match everything.
type SubmissionFilter struct {
	Status  *SubmissionStatus
	Creator string
}

// Default values seeded into every new ProposalMetrics record
const (
	DefaultMetricComplexity           uint64 = 50
	DefaultMetricImplementationCost   uint64 = 0
	DefaultMetricRisk                 uint64 = 50
	DefaultMetricTimelineEstimate     uint64 = 0
	DefaultMetricResourceRequirements uint64 = 0
	DefaultMetricStakeholderImpact    uint64 = 50
	DefaultMetricInnovationFactor     uint64 = 50
	DefaultMetricSustainability       uint64 = 50
)

// ProposalMetrics holds auxiliary scoring dimensions for a submission. No
// operation updates these after creation.
type ProposalMetrics struct {
	SubmissionID         uint64 `gorm:"primarykey;autoIncrement:false"`
	Complexity           uint64 `gorm:"not null"`
	ImplementationCost   uint64 `gorm:"not null"`
	Risk                 uint64 `gorm:"not null"`
	TimelineEstimate     uint64 `gorm:"not null"`
	ResourceRequirements uint64 `gorm:"not null"`
	StakeholderImpact    uint64 `gorm:"not null"`
	InnovationFactor     uint64 `gorm:"not null"`
	Sustainability       uint64 `gorm:"not null"`
}

func (ProposalMetrics) TableName() string {
	return "proposal_metrics"
}

// NewDefaultProposalMetrics returns the metrics record written at intake
func NewDefaultProposalMetrics(submissionID uint64) *ProposalMetrics {
	return &ProposalMetrics{
		SubmissionID:         submissionID,
		Complexity:           DefaultMetricComplexity,
		ImplementationCost:   DefaultMetricImplementationCost,
		Risk:                 DefaultMetricRisk,
		TimelineEstimate:     DefaultMetricTimelineEstimate,
		ResourceRequirements: DefaultMetricResourceRequirements,
		StakeholderImpact:    DefaultMetricStakeholderImpact,
		InnovationFactor:     DefaultMetricInnovationFactor,
		Sustainability:       DefaultMetricSustainability,
	}
}
