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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/sieve/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sieve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
databasePath: /var/lib/sieve
bindAddr: 127.0.0.1
apiPort: 9000
metricsPort: 0
apiRateLimit: 5
shutdownTimeout: 10s
engine:
  owner: treasury
  minStake: 250
  cycleLength: 0
  heightInterval: 1m
  weights:
    community: 50
    technical: 30
    financial: 20
export:
  s3Region: eu-west-1
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	expected := DefaultConfig()
	expected.DatabasePath = "/var/lib/sieve"
	expected.BindAddr = "127.0.0.1"
	expected.ApiPort = 9000
	expected.MetricsPort = 0
	expected.ApiRateLimit = 5
	expected.ShutdownTimeout = "10s"
	expected.Engine.Owner = "treasury"
	expected.Engine.MinStake = 250
	expected.Engine.CycleLength = 0
	expected.Engine.HeightInterval = "1m"
	expected.Engine.Weights = engine.ScoreWeights{
		Community: 50,
		Technical: 30,
		Financial: 20,
	}
	expected.Export.S3Region = "eu-west-1"
	assert.Equal(t, expected, cfg)
	assert.Equal(t, time.Minute, cfg.Engine.HeightIntervalDuration())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeoutDuration())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "engine:\n  owner: file-owner\n")
	t.Setenv("SIEVE_ENGINE_OWNER", "env-owner")
	t.Setenv("SIEVE_API_PORT", "7000")
	t.Setenv("SIEVE_DATABASE_METADATA_PLUGIN", "postgres")
	t.Setenv("SIEVE_ENGINE_MIN_STAKE", "42")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-owner", cfg.Engine.Owner)
	assert.Equal(t, uint(7000), cfg.ApiPort)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, uint64(42), cfg.Engine.MinStake)
}

func TestLoadConfigDatabaseSection(t *testing.T) {
	path := writeConfigFile(t, `
database:
  blob:
    plugin: badger
    badger:
      block-cache-size: 1048576
  metadata:
    plugin: postgres
    postgres:
      host: db.internal
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.BlobPlugin)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
}

func TestLoadConfigInvalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{"bad yaml", "engine: [\n"},
		{"bad duration", "shutdownTimeout: soon\n"},
		{"bad height interval", "engine:\n  heightInterval: often\n"},
		{"bad weights", "engine:\n  weights:\n    community: 90\n"},
		{"negative rate", "apiRateLimit: -1\n"},
		{"bad plugin name", "database:\n  blob:\n    plugin: [a]\n"},
		{"bad plugin options", "database:\n  metadata:\n    sqlite: 3\n"},
	}
	for _, tc := range testDefs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfigContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
