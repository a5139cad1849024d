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

import (
	"errors"
	"strings"
)

var ErrEvaluatorNotFound = errors.New("evaluator not found")

const (
	// MaxExpertiseAreas is the maximum number of expertise tags per evaluator
	MaxExpertiseAreas = 5
	// MaxExpertiseTagLength is the maximum length of a single expertise tag
	MaxExpertiseTagLength = 32
	// InitialAccuracyRating is assigned on authorization and never revised
	InitialAccuracyRating uint64 = 100

	expertiseSeparator = ","
)

// Evaluator is an identity allowed to score submissions
type Evaluator struct {
	Identity        string `gorm:"primarykey;size:128"`
	Authorized      bool   `gorm:"not null"`
	Expertise       string `gorm:"size:170"`
	EvaluationCount uint64 `gorm:"not null"`
	AccuracyRating  uint64 `gorm:"not null"`
}

func (Evaluator) TableName() string {
	return "evaluator"
}

// ExpertiseAreas returns the ordered expertise tags
func (e *Evaluator) ExpertiseAreas() []string {
	if e.Expertise == "" {
		return []string{}
	}
	return strings.Split(e.Expertise, expertiseSeparator)
}

// SetExpertiseAreas stores the ordered expertise tags
func (e *Evaluator) SetExpertiseAreas(areas []string) {
	e.Expertise = strings.Join(areas, expertiseSeparator)
}

// ValidExpertiseAreas checks the tag count and per-tag length limits. Tags
// must not contain the storage separator.
func ValidExpertiseAreas(areas []string) bool {
	if len(areas) > MaxExpertiseAreas {
		return false
	}
	for _, area := range areas {
		if area == "" || len(area) > MaxExpertiseTagLength {
			return false
		}
		if strings.Contains(area, expertiseSeparator) {
			return false
		}
	}
	return true
}

// Evaluation is an append-only record of a completed evaluation event
type Evaluation struct {
	ID             uint             `gorm:"primarykey"`
	SubmissionID   uint64           `gorm:"index;not null"`
	Evaluator      string           `gorm:"size:128;index;not null"`
	CommunityScore uint64           `gorm:"not null"`
	TechnicalScore uint64           `gorm:"not null"`
	FinancialScore uint64           `gorm:"not null"`
	CompositeScore uint64           `gorm:"not null"`
	Status         SubmissionStatus `gorm:"not null"`
	Height         uint64           `gorm:"not null"`
}

func (Evaluation) TableName() string {
	return "evaluation"
}
