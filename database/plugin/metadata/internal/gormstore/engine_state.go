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

package gormstore

import (
	"errors"

	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetEngineState returns the engine counters. A store that has never been
// written returns the initial counters.
func (s *Store) GetEngineState(txn types.Txn) (*models.EngineState, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var state models.EngineState
	if result := db.First(&state, models.EngineStateRowId); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.NewEngineState(), nil
		}
		return nil, result.Error
	}
	return &state, nil
}

// SetEngineState writes the engine counters
func (s *Store) SetEngineState(
	state *models.EngineState,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	state.ID = models.EngineStateRowId
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(state)
	return result.Error
}
