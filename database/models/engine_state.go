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

// EngineStateRowId is the fixed primary key of the single engine state row
const EngineStateRowId = 1

// EngineState holds the process-wide counters. There is exactly one row.
type EngineState struct {
	ID                   uint   `gorm:"primarykey"`
	NextSubmissionID     uint64 `gorm:"not null"`
	GovernanceCycleCount uint64 `gorm:"not null"`
	TotalActiveProposals uint64 `gorm:"not null"`
	CurrentHeight        uint64 `gorm:"not null"`
	EmergencyMode        bool   `gorm:"not null"`
}

func (EngineState) TableName() string {
	return "engine_state"
}

// NewEngineState returns the counters for a freshly initialized store
func NewEngineState() *EngineState {
	return &EngineState{
		ID:               EngineStateRowId,
		NextSubmissionID: 1,
	}
}
