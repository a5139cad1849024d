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

package sieve

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/sieve/api"
	"github.com/blinklabs-io/sieve/engine"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultShutdownTimeout = 30 * time.Second

type Config struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	ranker          engine.Ranker
	dataDir         string
	blobPlugin      string
	metadataPlugin  string
	owner           string
	custodyIdentity string
	weights         engine.ScoreWeights
	minStake        uint64
	maxProposals    uint64
	validityPeriod  uint64
	minCommunity    uint64
	cycleLength     uint64
	heightInterval  time.Duration
	// API listen address (empty = disabled)
	apiListenAddress   string
	apiTlsCertFilePath string
	apiTlsKeyFilePath  string
	apiRateLimit       float64
	apiRateBurst       int
	tracing            bool
	tracingStdout      bool
	shutdownTimeout    time.Duration
}

func (n *Node) configValidate() error {
	if n.config.owner == "" {
		return errors.New("owner identity is required")
	}
	if err := n.config.weights.Validate(); err != nil {
		return err
	}
	if n.config.minCommunity > engine.MaxScore {
		return errors.New("minimum community score is above the maximum score")
	}
	if n.config.apiRateLimit < 0 {
		return errors.New("API rate limit must not be negative")
	}
	if (n.config.apiTlsCertFilePath == "") != (n.config.apiTlsKeyFilePath == "") {
		return errors.New("API TLS needs both a certificate and a key")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new sieve config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	engineDefaults := engine.DefaultEngineConfig()
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		weights:        engineDefaults.Weights,
		minStake:       engineDefaults.MinStake,
		maxProposals:   engineDefaults.MaxProposalsPerCycle,
		validityPeriod: engineDefaults.ValidityPeriod,
		minCommunity:   engineDefaults.MinCommunityScore,
		cycleLength:    engineDefaults.CycleLength,
		heightInterval: engineDefaults.HeightInterval,
		apiRateLimit:   api.DefaultRateLimit,
		apiRateBurst:   api.DefaultRateBurst,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. Metrics are disabled when unset
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithOwner specifies the identity allowed to run administrative operations
func WithOwner(owner string) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithCustodyIdentity specifies the ledger account that holds staked funds
func WithCustodyIdentity(identity string) ConfigOptionFunc {
	return func(c *Config) {
		c.custodyIdentity = identity
	}
}

// WithRanker specifies the ranking pass run at each governance cycle boundary
func WithRanker(ranker engine.Ranker) ConfigOptionFunc {
	return func(c *Config) {
		c.ranker = ranker
	}
}

// WithScoreWeights specifies the composite score weights, which must sum to 100
func WithScoreWeights(weights engine.ScoreWeights) ConfigOptionFunc {
	return func(c *Config) {
		c.weights = weights
	}
}

// WithMinStake specifies the minimum stake accepted at intake
func WithMinStake(minStake uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.minStake = minStake
	}
}

// WithMaxProposalsPerCycle specifies the active submission capacity
func WithMaxProposalsPerCycle(maxProposals uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.maxProposals = maxProposals
	}
}

// WithValidityPeriod specifies how many heights a submission stays open for evaluation
func WithValidityPeriod(heights uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.validityPeriod = heights
	}
}

// WithMinCommunityScore specifies the community score a submission needs to qualify
func WithMinCommunityScore(score uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.minCommunity = score
	}
}

// WithCycleLength specifies the number of heights per governance cycle. Zero disables cycles
func WithCycleLength(heights uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.cycleLength = heights
	}
}

// WithHeightInterval specifies how often the height advances. Zero disables the ticker
func WithHeightInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.heightInterval = interval
	}
}

// WithApiListenAddress specifies the address for the HTTP API. The API is disabled when empty
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithApiTlsCertFilePath specifies the path to the TLS certificate for the HTTP API
func WithApiTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiTlsCertFilePath = path
	}
}

// WithApiTlsKeyFilePath specifies the path to the TLS key for the HTTP API
func WithApiTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiTlsKeyFilePath = path
	}
}

// WithApiRateLimit specifies the per-caller request rate and burst. A zero rate disables limiting
func WithApiRateLimit(rps float64, burst int) ConfigOptionFunc {
	return func(c *Config) {
		c.apiRateLimit = rps
		c.apiRateBurst = burst
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
