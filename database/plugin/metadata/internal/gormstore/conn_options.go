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

package gormstore

import (
	"strings"

	"github.com/blinklabs-io/sieve/database/plugin"
)

// ConnOptions are the connection settings of the networked dialects
type ConnOptions struct {
	Host     string
	User     string
	Password string
	Database string
	SslMode  string
	TimeZone string
	// Dsn replaces every other field when set
	Dsn  string
	Port uint64
}

// HasDsn reports whether a full connection string was supplied
func (o *ConnOptions) HasDsn() bool {
	return strings.TrimSpace(o.Dsn) != ""
}

// PluginOptions describes o as plugin options, with defaults taken from the
// current field values
func (o *ConnOptions) PluginOptions(dialect string) []plugin.PluginOption {
	str := func(name string, dest *string, desc string) plugin.PluginOption {
		return plugin.PluginOption{
			Name:         name,
			Type:         plugin.PluginOptionTypeString,
			Description:  dialect + " " + desc,
			DefaultValue: *dest,
			Dest:         dest,
		}
	}
	return []plugin.PluginOption{
		str("host", &o.Host, "host"),
		{
			Name:         "port",
			Type:         plugin.PluginOptionTypeUint,
			Description:  dialect + " port",
			DefaultValue: o.Port,
			Dest:         &o.Port,
		},
		str("user", &o.User, "user"),
		str("password", &o.Password, "password"),
		str("database", &o.Database, "database name"),
		str("ssl-mode", &o.SslMode, "TLS mode"),
		str("timezone", &o.TimeZone, "session time zone"),
		str("dsn", &o.Dsn, "connection string, overrides the other options"),
	}
}

// WithDefaults returns o with every empty field taken from def
func (o ConnOptions) WithDefaults(def ConnOptions) ConnOptions {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&o.Host, def.Host)
	fill(&o.User, def.User)
	fill(&o.Password, def.Password)
	fill(&o.Database, def.Database)
	fill(&o.SslMode, def.SslMode)
	fill(&o.TimeZone, def.TimeZone)
	fill(&o.Dsn, def.Dsn)
	if o.Port == 0 {
		o.Port = def.Port
	}
	return o
}
