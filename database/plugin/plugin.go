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

package plugin

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

type Plugin interface {
	Start() error
	Stop() error
}

// Instrumentable is implemented by plugins that accept a logger and metrics
// registry. Both are applied before Start() is called.
type Instrumentable interface {
	SetLogger(*slog.Logger)
	SetPromRegistry(prometheus.Registerer)
}

// errorPlugin fails on Start. Plugin constructors return it when their
// options cannot produce a usable store.
type errorPlugin struct{ err error }

func (e errorPlugin) Start() error { return e.err }
func (e errorPlugin) Stop() error  { return nil }

func NewErrorPlugin(err error) Plugin {
	return errorPlugin{err: err}
}

// StartPlugin gets a plugin from the registry and starts it. The logger and
// registry may be nil.
func StartPlugin(
	pluginType PluginType,
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (Plugin, error) {
	p := GetPlugin(pluginType, pluginName)
	if p == nil {
		return nil, fmt.Errorf(
			"%s plugin '%s' not found",
			PluginTypeName(pluginType),
			pluginName,
		)
	}
	if inst, ok := p.(Instrumentable); ok {
		if logger != nil {
			inst.SetLogger(logger)
		}
		if promRegistry != nil {
			inst.SetPromRegistry(promRegistry)
		}
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf(
			"failed to start %s plugin '%s': %w",
			PluginTypeName(pluginType),
			pluginName,
			err,
		)
	}
	return p, nil
}

// SetPluginOption overrides a single option of a registered plugin. Options
// the plugin does not declare are ignored, since not every implementation
// has the same set. It must run before the plugin is instantiated.
func SetPluginOption(
	pluginType PluginType,
	pluginName string,
	optionName string,
	value any,
) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	idx := slices.IndexFunc(pluginEntries, func(p PluginEntry) bool {
		return p.Type == pluginType && p.Name == pluginName
	})
	if idx >= 0 {
		for _, opt := range pluginEntries[idx].Options {
			if opt.Name == optionName {
				return opt.assign(value)
			}
		}
		return nil
	}
	return fmt.Errorf(
		"plugin %s of type %s not found",
		pluginName,
		PluginTypeName(pluginType),
	)
}

// setDest stores value into dest when both have the expected type
func setDest[T any](opt PluginOption, value any) error {
	dest, ok := opt.Dest.(*T)
	if !ok || dest == nil {
		return fmt.Errorf("option %s: destination must be *%T", opt.Name, *new(T))
	}
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("option %s: cannot use %T as %T", opt.Name, value, v)
	}
	*dest = v
	return nil
}

// assign writes value into the option destination after checking types.
// Uint options also take a non-negative int.
func (o PluginOption) assign(value any) error {
	if o.Dest == nil {
		return fmt.Errorf("option %s: nil destination", o.Name)
	}
	switch o.Type {
	case PluginOptionTypeString:
		return setDest[string](o, value)
	case PluginOptionTypeBool:
		return setDest[bool](o, value)
	case PluginOptionTypeInt:
		return setDest[int](o, value)
	case PluginOptionTypeUint:
		if i, ok := value.(int); ok {
			if i < 0 {
				return fmt.Errorf("option %s: negative value %d", o.Name, i)
			}
			value = uint64(i)
		}
		return setDest[uint64](o, value)
	default:
		return fmt.Errorf("option %s: unknown type %d", o.Name, o.Type)
	}
}
