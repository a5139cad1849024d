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

package custody

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type custodyMetrics struct {
	transfers         prometheus.Counter
	transferFailures  prometheus.Counter
	transferredAmount prometheus.Counter
	credits           prometheus.Counter
}

func (c *Custody) initMetrics() {
	promautoFactory := promauto.With(c.config.PromRegistry)
	c.metrics = &custodyMetrics{}
	c.metrics.transfers = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "sieve_custody_transfers_total",
		Help: "number of completed stake transfers",
	})
	c.metrics.transferFailures = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "sieve_custody_transfer_failures_total",
			Help: "number of rejected stake transfers",
		},
	)
	c.metrics.transferredAmount = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "sieve_custody_transferred_amount_total",
			Help: "total stake moved into custody",
		},
	)
	c.metrics.credits = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "sieve_custody_credits_total",
		Help: "number of account credits",
	})
}
