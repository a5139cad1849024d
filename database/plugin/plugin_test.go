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

package plugin_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	dataDir   string
	cacheSize uint64
	workers   int
	gc        bool
}

func registerOptionsPlugin(t *testing.T, name string) *testOptions {
	t.Helper()
	opts := &testOptions{}
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: ".sieve",
				Dest:         &(opts.dataDir),
			},
			{
				Name:         "cache-size",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(1024),
				Dest:         &(opts.cacheSize),
			},
			{
				Name:         "workers",
				Type:         plugin.PluginOptionTypeInt,
				DefaultValue: 2,
				Dest:         &(opts.workers),
			},
			{
				Name:         "gc",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: true,
				Dest:         &(opts.gc),
			},
		},
	})
	return opts
}

func TestSetPluginOption_SuccessAndTypeCheck(t *testing.T) {
	opts := registerOptionsPlugin(t, "opts-set")

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "opts-set", "data-dir", "/tmp/x"))
	assert.Equal(t, "/tmp/x", opts.dataDir)

	// Wrong type
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "opts-set", "data-dir", 123))

	// Unknown options are ignored
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "opts-set", "does-not-exist", "x"))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "opts-set", "cache-size", uint64(100000000)))
	assert.Equal(t, uint64(100000000), opts.cacheSize)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "opts-set", "cache-size", 5))
	assert.Equal(t, uint64(5), opts.cacheSize)
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "opts-set", "cache-size", -5))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "opts-set", "gc", true))
	assert.True(t, opts.gc)

	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "data-dir", "x"))
}

func TestProcessConfig(t *testing.T) {
	opts := registerOptionsPlugin(t, "opts-config")
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {
			"opts-config": {
				"data-dir":   "/var/lib/sieve",
				"cache-size": 4096,
				"workers":    8,
				"gc":         false,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/sieve", opts.dataDir)
	assert.Equal(t, uint64(4096), opts.cacheSize)
	assert.Equal(t, 8, opts.workers)
	assert.False(t, opts.gc)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {"opts-config": {"gc": []string{"bad"}}},
	})
	require.Error(t, err)
}

func TestProcessEnvVars(t *testing.T) {
	opts := registerOptionsPlugin(t, "optsenv")
	t.Setenv("SIEVE_DATABASE_BLOB_OPTSENV_DATA_DIR", "/srv/sieve")
	t.Setenv("SIEVE_DATABASE_BLOB_OPTSENV_CACHE_SIZE", "77")
	t.Setenv("SIEVE_DATABASE_BLOB_OPTSENV_GC", "true")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "/srv/sieve", opts.dataDir)
	assert.Equal(t, uint64(77), opts.cacheSize)
	assert.True(t, opts.gc)

	t.Setenv("SIEVE_DATABASE_BLOB_OPTSENV_WORKERS", "many")
	require.Error(t, plugin.ProcessEnvVars())
}

func TestPopulateCmdlineOptions(t *testing.T) {
	opts := registerOptionsPlugin(t, "optsflag")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	require.NotNil(t, fs.Lookup("blob-optsflag-data-dir"))
	require.NoError(t, fs.Parse([]string{
		"--blob-optsflag-data-dir=/data",
		"--blob-optsflag-workers=3",
	}))
	assert.Equal(t, "/data", opts.dataDir)
	assert.Equal(t, 3, opts.workers)
	// Untouched flags take the registered default
	assert.Equal(t, uint64(1024), opts.cacheSize)
}

func TestStartPlugin(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "missing-"+t.Name(), nil, nil)
	require.Error(t, err)

	startErr := errors.New("boom")
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               "failing-" + t.Name(),
		NewFromOptionsFunc: func() plugin.Plugin { return plugin.NewErrorPlugin(startErr) },
	})
	_, err = plugin.StartPlugin(plugin.PluginTypeBlob, "failing-"+t.Name(), nil, nil)
	require.ErrorIs(t, err, startErr)
}
