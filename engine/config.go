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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/event"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultMinStake             uint64 = 1000
	DefaultMaxProposalsPerCycle uint64 = 100
	DefaultValidityPeriod       uint64 = 1000
	DefaultMinCommunityScore    uint64 = 60
	DefaultCycleLength          uint64 = 100
	DefaultHeightInterval              = 20 * time.Second

	// MaxScore is the upper bound of every evaluation score
	MaxScore uint64 = 100
	// MaxTitleLength and MaxCategoryLength are in characters
	MaxTitleLength    = 100
	MaxCategoryLength = 20

	// MaxStake and MaxHeight are bounded by what the metadata store can hold
	MaxStake  = models.MaxColumnValue
	MaxHeight = models.MaxColumnValue
)

type EngineConfig struct {
	Database     *database.Database
	Custody      StakeCustodian
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	// Ranker is called once per governance cycle. It may be nil.
	Ranker Ranker
	// Owner is the identity allowed to run administrative operations
	Owner                string
	Weights              ScoreWeights
	MinStake             uint64
	MaxProposalsPerCycle uint64
	ValidityPeriod       uint64
	MinCommunityScore    uint64
	// CycleLength is the number of heights per governance cycle. Zero
	// disables automatic cycle advancement.
	CycleLength uint64
	// HeightInterval is the period of the height ticker. Zero disables it.
	HeightInterval time.Duration
}

// DefaultEngineConfig returns a config with the default limits. The owner,
// database and custody must still be set.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Weights:              DefaultScoreWeights(),
		MinStake:             DefaultMinStake,
		MaxProposalsPerCycle: DefaultMaxProposalsPerCycle,
		ValidityPeriod:       DefaultValidityPeriod,
		MinCommunityScore:    DefaultMinCommunityScore,
		CycleLength:          DefaultCycleLength,
		HeightInterval:       DefaultHeightInterval,
	}
}

func (c *EngineConfig) validate() error {
	if c.Database == nil {
		return errors.New("database is required")
	}
	if c.Custody == nil {
		return errors.New("custody is required")
	}
	if c.Owner == "" {
		return errors.New("owner identity is required")
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.MinCommunityScore > MaxScore {
		return fmt.Errorf(
			"minimum community score %d is above %d",
			c.MinCommunityScore,
			MaxScore,
		)
	}
	if c.HeightInterval < 0 {
		return errors.New("height interval must not be negative")
	}
	return nil
}
