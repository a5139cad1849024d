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
	"fmt"
	"io"
	"strings"

	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/spf13/cobra"
)

// listValue selects plugin listing instead of a plugin name
const listValue = "list"

var pluginSections = []struct {
	pluginType plugin.PluginType
	title      string
}{
	{plugin.PluginTypeBlob, "Blob Storage Plugins"},
	{plugin.PluginTypeMetadata, "Metadata Storage Plugins"},
}

func formatPlugins(w io.Writer, pluginType plugin.PluginType) {
	for _, p := range plugin.GetPlugins(pluginType) {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Description)
	}
}

// listPlugins renders the plugins asked for by passing "list" to --blob or
// --metadata. The bool is false when neither flag asked.
func listPlugins(blobPlugin, metadataPlugin string) (bool, string) {
	var sb strings.Builder
	for _, req := range []struct {
		value      string
		pluginType plugin.PluginType
	}{
		{blobPlugin, plugin.PluginTypeBlob},
		{metadataPlugin, plugin.PluginTypeMetadata},
	} {
		if req.value != listValue {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(
			&sb,
			"Available %s plugins:\n",
			plugin.PluginTypeName(req.pluginType),
		)
		formatPlugins(&sb, req.pluginType)
	}
	return sb.Len() > 0, sb.String()
}

func listAllPlugins() string {
	var sb strings.Builder
	sb.WriteString("Available plugins:\n")
	for _, section := range pluginSections {
		fmt.Fprintf(&sb, "\n%s:\n", section.title)
		formatPlugins(&sb, section.pluginType)
	}
	return sb.String()
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all available storage plugins",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), listAllPlugins())
		},
	}
}
