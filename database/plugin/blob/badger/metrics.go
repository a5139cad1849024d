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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (s *Store) registerMetrics() {
	size := func(vlog bool) func() float64 {
		return func() float64 {
			if s.db == nil {
				return 0
			}
			lsmSize, vlogSize := s.db.Size()
			if vlog {
				return float64(vlogSize)
			}
			return float64(lsmSize)
		}
	}
	factory := promauto.With(s.promRegistry)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sieve_database_blob_lsm_size_bytes",
			Help: "size of the blob store LSM tree",
		},
		size(false),
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sieve_database_blob_vlog_size_bytes",
			Help: "size of the blob store value log",
		},
		size(true),
	)
}
