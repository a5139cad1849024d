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

import "github.com/blinklabs-io/sieve/event"

const (
	SubmissionCreatedEventType   event.EventType = "proposal.submitted"
	SubmissionEvaluatedEventType event.EventType = "proposal.evaluated"
	EvaluatorAuthorizedEventType event.EventType = "evaluator.authorized"
	CycleAdvancedEventType       event.EventType = "engine.cycle_advanced"
	EmergencyModeEventType       event.EventType = "engine.emergency_mode"
)

type SubmissionCreatedEvent struct {
	Creator     string
	Title       string
	Category    string
	ID          uint64
	StakeAmount uint64
	Height      uint64
}

type SubmissionEvaluatedEvent struct {
	Evaluator      string
	Status         string
	ID             uint64
	CommunityScore uint64
	TechnicalScore uint64
	FinancialScore uint64
	CompositeScore uint64
	Height         uint64
}

type EvaluatorAuthorizedEvent struct {
	Identity  string
	Expertise []string
}

type CycleAdvancedEvent struct {
	Cycle  uint64
	Height uint64
}

type EmergencyModeEvent struct {
	Enabled bool
}
