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

package engine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/blinklabs-io/sieve/engine"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEngineMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.submit(t, "t")
	_, err := env.engine.SubmitProposal(ctx, testCreator, "t", "c", 1)
	require.ErrorIs(t, err, engine.ErrInsufficientStake)
	_, err = env.engine.EvaluateProposal(ctx, testEvaluator, id, 75, 80, 60)
	require.NoError(t, err)
	_, err = env.engine.AdvanceHeight(ctx, 5)
	require.NoError(t, err)

	expected := `
# HELP sieve_engine_active_proposals submissions counted against the capacity limit
# TYPE sieve_engine_active_proposals gauge
sieve_engine_active_proposals 1
# HELP sieve_engine_evaluations_total number of completed evaluations by resulting status
# TYPE sieve_engine_evaluations_total counter
sieve_engine_evaluations_total{status="QUALIFIED"} 1
# HELP sieve_engine_height current height
# TYPE sieve_engine_height gauge
sieve_engine_height 5
# HELP sieve_engine_intake_rejected_total number of rejected submissions by reason
# TYPE sieve_engine_intake_rejected_total counter
sieve_engine_intake_rejected_total{reason="stake"} 1
# HELP sieve_engine_submissions_total number of accepted submissions
# TYPE sieve_engine_submissions_total counter
sieve_engine_submissions_total 1
`
	require.NoError(t, testutil.GatherAndCompare(
		env.reg,
		strings.NewReader(expected),
		"sieve_engine_active_proposals",
		"sieve_engine_evaluations_total",
		"sieve_engine_height",
		"sieve_engine_intake_rejected_total",
		"sieve_engine_submissions_total",
	))
}
