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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins("badger", "sqlite")
	assert.False(t, shouldExit)
	assert.Empty(t, output)

	shouldExit, output = listPlugins("list", "sqlite")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "Available blob plugins:")
	assert.Contains(t, output, "badger")
	assert.NotContains(t, output, "metadata plugins")

	shouldExit, output = listPlugins("list", "list")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "Available metadata plugins:")
	assert.Contains(t, output, "sqlite")
	assert.Contains(t, output, "postgres")
}

func TestListAllPlugins(t *testing.T) {
	output := listAllPlugins()
	assert.Contains(t, output, "Blob Storage Plugins:")
	assert.Contains(t, output, "Metadata Storage Plugins:")
	assert.Contains(t, output, "mysql")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "export", "list", "version"} {
		sub, _, err := cmd.Find([]string{name})
		if assert.NoError(t, err) {
			assert.Equal(t, name, sub.Name())
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := versionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), programName+" ")
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sieve.yaml")
	require.NoError(t, os.WriteFile(
		path,
		[]byte("blobPlugin: badger\nmetadataPlugin: mysql\n"),
		0o600,
	))
	cmd := newRootCommand()
	flags := cmd.PersistentFlags()
	require.NoError(t, flags.Set("config", path))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.MetadataPlugin)

	require.NoError(t, flags.Set("metadata", "postgres"))
	cfg, err = loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, "badger", cfg.BlobPlugin)
}
