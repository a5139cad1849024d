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

package sqlite

import (
	"sync"
	"time"

	"github.com/blinklabs-io/sieve/database/plugin"
)

const (
	DefaultDataDir        = ".sieve"
	DefaultVacuumInterval = 24 * time.Hour
)

var (
	cmdlineOptions struct {
		dataDir             string
		vacuumIntervalHours uint64
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	cmdlineOptions.dataDir = DefaultDataDir
	cmdlineOptions.vacuumIntervalHours = uint64(DefaultVacuumInterval / time.Hour)
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "SQLite relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "data directory, empty for in-memory",
					DefaultValue: DefaultDataDir,
					Dest:         &(cmdlineOptions.dataDir),
				},
				{
					Name:         "vacuum-interval",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "hours between VACUUM runs, 0 to disable",
					DefaultValue: cmdlineOptions.vacuumIntervalHours,
					Dest:         &(cmdlineOptions.vacuumIntervalHours),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	defer cmdlineOptionsMutex.RUnlock()
	s, err := New(
		WithDataDir(cmdlineOptions.dataDir),
		WithVacuumInterval(
			time.Duration(cmdlineOptions.vacuumIntervalHours)*time.Hour, //nolint:gosec
		),
	)
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return s
}
