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
	"testing"

	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlugin struct {
	id int
}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

func entryNames(entries []plugin.PluginEntry) []string {
	ret := make([]string, 0, len(entries))
	for _, e := range entries {
		ret = append(ret, e.Name)
	}
	return ret
}

func TestRegisterAndLookup(t *testing.T) {
	name := "lookup-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})

	p := plugin.GetPlugin(plugin.PluginTypeBlob, name)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)

	// Same name under the other type is a different plugin
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, name))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "missing-"+t.Name()))
}

func TestRegisterReplacesExisting(t *testing.T) {
	name := "replace-" + t.Name()
	for i := 1; i <= 2; i++ {
		id := i
		plugin.Register(plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               name,
			NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{id: id} },
		})
	}

	count := 0
	for _, n := range entryNames(plugin.GetPlugins(plugin.PluginTypeMetadata)) {
		if n == name {
			count++
		}
	}
	assert.Equal(t, 1, count)

	p, ok := plugin.GetPlugin(plugin.PluginTypeMetadata, name).(*mockPlugin)
	require.True(t, ok)
	assert.Equal(t, 2, p.id)
}

func TestGetPluginsFiltersAndSorts(t *testing.T) {
	zName := "zz-sort-" + t.Name()
	aName := "aa-sort-" + t.Name()
	metaName := "meta-sort-" + t.Name()
	for _, e := range []plugin.PluginEntry{
		{Type: plugin.PluginTypeBlob, Name: zName},
		{Type: plugin.PluginTypeBlob, Name: aName},
		{Type: plugin.PluginTypeMetadata, Name: metaName},
	} {
		e.NewFromOptionsFunc = func() plugin.Plugin { return &mockPlugin{} }
		plugin.Register(e)
	}

	blobNames := entryNames(plugin.GetPlugins(plugin.PluginTypeBlob))
	assert.Contains(t, blobNames, aName)
	assert.Contains(t, blobNames, zName)
	assert.NotContains(t, blobNames, metaName)
	assert.IsIncreasing(t, blobNames)

	assert.Contains(
		t,
		entryNames(plugin.GetPlugins(plugin.PluginTypeMetadata)),
		metaName,
	)
}

func TestPluginTypeName(t *testing.T) {
	assert.Equal(t, "blob", plugin.PluginTypeName(plugin.PluginTypeBlob))
	assert.Equal(t, "metadata", plugin.PluginTypeName(plugin.PluginTypeMetadata))
	assert.Empty(t, plugin.PluginTypeName(plugin.PluginType(99)))
}
