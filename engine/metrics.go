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
	"github.com/blinklabs-io/sieve/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	submissions      prometheus.Counter
	intakeRejected   *prometheus.CounterVec
	evaluations      *prometheus.CounterVec
	cycles           prometheus.Counter
	activeProposals  prometheus.Gauge
	currentHeight    prometheus.Gauge
	governanceCycle  prometheus.Gauge
	nextSubmissionID prometheus.Gauge
	emergencyMode    prometheus.Gauge
}

func (e *Engine) initMetrics() {
	promautoFactory := promauto.With(e.config.PromRegistry)
	e.metrics = &engineMetrics{}
	e.metrics.submissions = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "sieve_engine_submissions_total",
		Help: "number of accepted submissions",
	})
	e.metrics.intakeRejected = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_engine_intake_rejected_total",
			Help: "number of rejected submissions by reason",
		},
		[]string{"reason"},
	)
	e.metrics.evaluations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_engine_evaluations_total",
			Help: "number of completed evaluations by resulting status",
		},
		[]string{"status"},
	)
	e.metrics.cycles = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "sieve_engine_cycles_advanced_total",
		Help: "number of governance cycles advanced by this process",
	})
	e.metrics.activeProposals = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "sieve_engine_active_proposals",
		Help: "submissions counted against the capacity limit",
	})
	e.metrics.currentHeight = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "sieve_engine_height",
		Help: "current height",
	})
	e.metrics.governanceCycle = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "sieve_engine_governance_cycle",
		Help: "current governance cycle",
	})
	e.metrics.nextSubmissionID = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "sieve_engine_next_submission_id",
		Help: "id assigned to the next accepted submission",
	})
	e.metrics.emergencyMode = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "sieve_engine_emergency_mode",
		Help: "1 while intake is blocked by emergency mode",
	})
}

func (e *Engine) updateStateMetrics(state *models.EngineState) {
	e.metrics.activeProposals.Set(float64(state.TotalActiveProposals))
	e.metrics.currentHeight.Set(float64(state.CurrentHeight))
	e.metrics.governanceCycle.Set(float64(state.GovernanceCycleCount))
	e.metrics.nextSubmissionID.Set(float64(state.NextSubmissionID))
	if state.EmergencyMode {
		e.metrics.emergencyMode.Set(1)
	} else {
		e.metrics.emergencyMode.Set(0)
	}
}
