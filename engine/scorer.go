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

package engine

import "fmt"

const (
	DefaultCommunityWeight uint64 = 45
	DefaultTechnicalWeight uint64 = 30
	DefaultFinancialWeight uint64 = 25

	weightTotal uint64 = 100
)

// ScoreWeights are the percentages applied to each score dimension
type ScoreWeights struct {
	Community uint64 `yaml:"community" envconfig:"COMMUNITY"`
	Technical uint64 `yaml:"technical" envconfig:"TECHNICAL"`
	Financial uint64 `yaml:"financial" envconfig:"FINANCIAL"`
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Community: DefaultCommunityWeight,
		Technical: DefaultTechnicalWeight,
		Financial: DefaultFinancialWeight,
	}
}

// Validate checks that the weights sum to 100
func (w ScoreWeights) Validate() error {
	sum := w.Community + w.Technical + w.Financial
	// Catch wraparound from absurd values
	if sum != weightTotal || w.Community > weightTotal ||
		w.Technical > weightTotal || w.Financial > weightTotal {
		return fmt.Errorf(
			"score weights must sum to %d: %d + %d + %d",
			weightTotal,
			w.Community,
			w.Technical,
			w.Financial,
		)
	}
	return nil
}

// CompositeScore combines the three scores with floor division. Inputs are
// expected in [0,100] and are not checked here.
func (w ScoreWeights) CompositeScore(community, technical, financial uint64) uint64 {
	return (community*w.Community +
		technical*w.Technical +
		financial*w.Financial) / weightTotal
}

// CompositeScore applies the default 45/30/25 weights
func CompositeScore(community, technical, financial uint64) uint64 {
	return DefaultScoreWeights().CompositeScore(community, technical, financial)
}

func validScore(score uint64) bool {
	return score <= MaxScore
}
