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
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func registerPoolMetrics(
	registry prometheus.Registerer,
	dialect string,
	sqlDB *sql.DB,
) {
	factory := promauto.With(registry)
	labels := prometheus.Labels{"dialect": dialect}
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "sieve_database_metadata_open_connections",
			Help:        "open connections to the metadata database",
			ConstLabels: labels,
		},
		func() float64 {
			return float64(sqlDB.Stats().OpenConnections)
		},
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "sieve_database_metadata_in_use_connections",
			Help:        "metadata database connections currently in use",
			ConstLabels: labels,
		},
		func() float64 {
			return float64(sqlDB.Stats().InUse)
		},
	)
	factory.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "sieve_database_metadata_wait_seconds_total",
			Help:        "time spent waiting for a metadata database connection",
			ConstLabels: labels,
		},
		func() float64 {
			return sqlDB.Stats().WaitDuration.Seconds()
		},
	)
}
