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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/sieve/custody"
	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/blinklabs-io/sieve/engine"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "sieve.config"

const (
	DefaultBlobPlugin      = database.DefaultBlobPlugin
	DefaultMetadataPlugin  = database.DefaultMetadataPlugin
	DefaultShutdownTimeout = "30s"

	envPrefix = "sieve"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// tempConfig picks the plugin sections out of the config file
type tempConfig struct {
	Database *databaseConfig `yaml:"database,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type EngineConfig struct {
	Owner                string              `yaml:"owner"`
	CustodyIdentity      string              `yaml:"custodyIdentity"      split_words:"true"`
	HeightInterval       string              `yaml:"heightInterval"       split_words:"true"`
	Weights              engine.ScoreWeights `yaml:"weights"`
	MinStake             uint64              `yaml:"minStake"             split_words:"true"`
	MaxProposalsPerCycle uint64              `yaml:"maxProposalsPerCycle" split_words:"true"`
	ValidityPeriod       uint64              `yaml:"validityPeriod"       split_words:"true"`
	MinCommunityScore    uint64              `yaml:"minCommunityScore"    split_words:"true"`
	CycleLength          uint64              `yaml:"cycleLength"          split_words:"true"`
}

type ExportConfig struct {
	GcsCredentialsFile string `yaml:"gcsCredentialsFile" split_words:"true"`
	S3Region           string `yaml:"s3Region"           envconfig:"S3_REGION"`
}

type Config struct {
	Engine          EngineConfig `yaml:"engine"`
	Export          ExportConfig `yaml:"export"`
	DatabasePath    string       `yaml:"databasePath"    split_words:"true"`
	BlobPlugin      string       `yaml:"blobPlugin"      envconfig:"DATABASE_BLOB_PLUGIN"`
	MetadataPlugin  string       `yaml:"metadataPlugin"  envconfig:"DATABASE_METADATA_PLUGIN"`
	BindAddr        string       `yaml:"bindAddr"        split_words:"true"`
	TlsCertFilePath string       `yaml:"tlsCertFilePath" envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath  string       `yaml:"tlsKeyFilePath"  envconfig:"TLS_KEY_FILE_PATH"`
	ShutdownTimeout string       `yaml:"shutdownTimeout" split_words:"true"`
	ApiRateLimit    float64      `yaml:"apiRateLimit"    split_words:"true"`
	ApiRateBurst    int          `yaml:"apiRateBurst"    split_words:"true"`
	// A zero port disables the listener
	ApiPort       uint `yaml:"apiPort"       split_words:"true"`
	MetricsPort   uint `yaml:"metricsPort"   split_words:"true"`
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	engineDefaults := engine.DefaultEngineConfig()
	return &Config{
		Engine: EngineConfig{
			CustodyIdentity:      custody.DefaultIdentity,
			HeightInterval:       engineDefaults.HeightInterval.String(),
			Weights:              engineDefaults.Weights,
			MinStake:             engineDefaults.MinStake,
			MaxProposalsPerCycle: engineDefaults.MaxProposalsPerCycle,
			ValidityPeriod:       engineDefaults.ValidityPeriod,
			MinCommunityScore:    engineDefaults.MinCommunityScore,
			CycleLength:          engineDefaults.CycleLength,
		},
		DatabasePath:    ".sieve",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		ShutdownTimeout: DefaultShutdownTimeout,
		ApiRateLimit:    20,
		ApiRateBurst:    40,
		ApiPort:         8080,
		MetricsPort:     12799,
	}
}

// LoadConfig reads the config file, then applies environment variables. When
// configFile is empty, ~/.sieve/sieve.yaml and /etc/sieve/sieve.yaml are
// tried in that order.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Overlay config values onto existing defaults
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if err := processDatabaseConfig(cfg, tempCfg.Database); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".sieve", "sieve.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/sieve/sieve.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

// processDatabaseConfig handles the database section, which selects the
// storage plugins and carries their options, for example:
//
//	database:
//	  metadata:
//	    plugin: postgres
//	    postgres:
//	      host: db.internal
func processDatabaseConfig(cfg *Config, dbCfg *databaseConfig) error {
	if dbCfg == nil {
		return nil
	}
	pluginConfig := make(map[string]map[string]map[string]any)
	if dbCfg.Blob != nil {
		name, opts, err := splitPluginSection("blob", dbCfg.Blob)
		if err != nil {
			return err
		}
		if name != "" {
			cfg.BlobPlugin = name
		}
		pluginConfig["blob"] = opts
	}
	if dbCfg.Metadata != nil {
		name, opts, err := splitPluginSection("metadata", dbCfg.Metadata)
		if err != nil {
			return err
		}
		if name != "" {
			cfg.MetadataPlugin = name
		}
		pluginConfig["metadata"] = opts
	}
	if err := plugin.ProcessConfig(pluginConfig); err != nil {
		return fmt.Errorf("error processing plugin config: %w", err)
	}
	return nil
}

// splitPluginSection separates the plugin name from the per-plugin option maps
func splitPluginSection(
	section string,
	raw map[string]any,
) (string, map[string]map[string]any, error) {
	var name string
	opts := make(map[string]map[string]any)
	for k, v := range raw {
		if k == "plugin" {
			pluginName, ok := v.(string)
			if !ok {
				return "", nil, fmt.Errorf(
					"database.%s.plugin: expected string, got %T",
					section,
					v,
				)
			}
			name = pluginName
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			opts[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any, len(val))
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			opts[k] = stringAnyMap
		default:
			return "", nil, fmt.Errorf(
				"database.%s.%s: expected map, got %T",
				section,
				k,
				v,
			)
		}
	}
	return name, opts, nil
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdownTimeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Engine.HeightInterval); err != nil {
		return fmt.Errorf("invalid engine.heightInterval: %w", err)
	}
	if err := c.Engine.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid engine.weights: %w", err)
	}
	if c.ApiRateLimit < 0 {
		return errors.New("apiRateLimit must not be negative")
	}
	return nil
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// HeightIntervalDuration returns the parsed height ticker interval
func (c *EngineConfig) HeightIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.HeightInterval)
	if err != nil {
		return engine.DefaultHeightInterval
	}
	return d
}
