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

package postgres

import (
	"os"
	"testing"

	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/blinklabs-io/sieve/database/plugin/metadata/internal/gormstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDsnFromOptions(t *testing.T) {
	s, err := New(WithConnOptions(gormstore.ConnOptions{
		Host:     "db.local",
		Port:     6543,
		User:     "sieve",
		Password: "secret",
		Database: "sieve",
		SslMode:  "require",
		TimeZone: "Europe/Berlin",
	}))
	require.NoError(t, err)
	assert.Equal(
		t,
		"host=db.local user=sieve password=secret dbname=sieve port=6543 sslmode=require TimeZone=Europe/Berlin",
		s.dsn(),
	)
}

func TestDefaultsAndDsnOverride(t *testing.T) {
	s, err := New(WithConnOptions(gormstore.ConnOptions{Password: "pw"}))
	require.NoError(t, err)
	assert.Equal(t, "localhost", s.conn.Host)
	assert.Equal(t, uint64(5432), s.conn.Port)
	assert.Equal(t, "disable", s.conn.SslMode)
	assert.Equal(t, "pw", s.conn.Password)

	s, err = New(WithConnOptions(gormstore.ConnOptions{Dsn: "  host=pg dbname=sieve  "}))
	require.NoError(t, err)
	assert.Equal(t, "host=pg dbname=sieve", s.dsn())
}

func TestStartRequiresCredentials(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	require.ErrorContains(t, s.Start(), "password not set")
	require.NoError(t, s.Close())
}

func TestPluginRegistered(t *testing.T) {
	var names []string
	for _, p := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		if p.Name != "postgres" {
			continue
		}
		for _, opt := range p.Options {
			names = append(names, opt.Name)
		}
	}
	assert.Equal(
		t,
		[]string{"host", "port", "user", "password", "database", "ssl-mode", "timezone", "dsn"},
		names,
	)
}

// TestPostgresStore runs against a real server when SIEVE_TEST_POSTGRES_DSN is set
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SIEVE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SIEVE_TEST_POSTGRES_DSN not set")
	}
	store, err := New(WithConnOptions(gormstore.ConnOptions{Dsn: dsn}))
	require.NoError(t, err)
	require.NoError(t, store.Start())
	defer store.Close() //nolint:errcheck

	txn := store.Transaction()
	defer txn.Rollback() //nolint:errcheck
	sub := &models.Submission{
		ID:       1,
		Creator:  "alice",
		Title:    "pg",
		Category: "test",
	}
	require.NoError(t, store.CreateSubmission(sub, models.NewDefaultProposalMetrics(1), txn))
	got, err := store.GetSubmission(1, txn)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Creator)
}
