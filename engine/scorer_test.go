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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeScoreRange(t *testing.T) {
	for c := uint64(0); c <= MaxScore; c++ {
		for tech := uint64(0); tech <= MaxScore; tech++ {
			for f := uint64(0); f <= MaxScore; f++ {
				score := CompositeScore(c, tech, f)
				expected := (c*45 + tech*30 + f*25) / 100
				if score != expected || score > MaxScore {
					t.Fatalf(
						"CompositeScore(%d, %d, %d) = %d, expected %d",
						c, tech, f, score, expected,
					)
				}
			}
		}
	}
}

func TestCompositeScoreExamples(t *testing.T) {
	assert.Equal(t, uint64(72), CompositeScore(75, 80, 60))
	assert.Equal(t, uint64(61), CompositeScore(50, 80, 60))
	assert.Equal(t, uint64(100), CompositeScore(100, 100, 100))
	assert.Equal(t, uint64(0), CompositeScore(0, 0, 0))
	// Floor, not rounding
	assert.Equal(t, uint64(0), CompositeScore(2, 0, 0))
}

func TestScoreWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultScoreWeights().Validate())
	require.NoError(t, ScoreWeights{Community: 100}.Validate())
	require.Error(t, ScoreWeights{Community: 45, Technical: 30, Financial: 24}.Validate())
	require.Error(t, ScoreWeights{}.Validate())
	// Wraps around to 100
	require.Error(t, ScoreWeights{
		Community: 1<<64 - 1,
		Technical: 101,
	}.Validate())
}

func TestCustomWeights(t *testing.T) {
	w := ScoreWeights{Community: 50, Technical: 50}
	assert.Equal(t, uint64(55), w.CompositeScore(60, 50, 100))
}
