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

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
}

func (s *Server) initMetrics() {
	promautoFactory := promauto.With(s.config.PromRegistry)
	s.metrics = &apiMetrics{
		requests: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sieve_api_requests_total",
				Help: "total API requests by method and status code",
			},
			[]string{"method", "code"},
		),
		requestDuration: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sieve_api_request_duration_seconds",
				Help:    "API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		rateLimited: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "sieve_api_rate_limited_total",
				Help: "total API requests rejected by the rate limiter",
			},
		),
	}
}
