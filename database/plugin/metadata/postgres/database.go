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
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/sieve/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
)

// DefaultConnOptions fills any connection setting left empty. There is no
// default password.
var DefaultConnOptions = gormstore.ConnOptions{
	Host:     "localhost",
	Port:     5432,
	User:     "postgres",
	Database: "postgres",
	SslMode:  "disable",
	TimeZone: "UTC",
}

// Store keeps the engine metadata in Postgres
type Store struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	conn         gormstore.ConnOptions
}

// New creates a Postgres metadata store. The connection is opened by Start.
func New(opts ...OptionFunc) (*Store, error) {
	s := &Store{conn: DefaultConnOptions}
	for _, opt := range opts {
		opt(s)
	}
	s.conn = s.conn.WithDefaults(DefaultConnOptions)
	return s, nil
}

// SetLogger implements the plugin.Instrumentable interface
func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// SetPromRegistry implements the plugin.Instrumentable interface
func (s *Store) SetPromRegistry(registry prometheus.Registerer) {
	s.promRegistry = registry
}

func (s *Store) dsn() string {
	if s.conn.HasDsn() {
		return strings.TrimSpace(s.conn.Dsn)
	}
	return strings.Join(
		[]string{
			"host=" + s.conn.Host,
			"user=" + s.conn.User,
			"password=" + s.conn.Password,
			"dbname=" + s.conn.Database,
			"port=" + strconv.FormatUint(s.conn.Port, 10),
			"sslmode=" + s.conn.SslMode,
			"TimeZone=" + s.conn.TimeZone,
		},
		" ",
	)
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	if s.Store != nil {
		return nil
	}
	if !s.conn.HasDsn() && s.conn.Password == "" {
		return errors.New("postgres metadata: password not set")
	}
	store, err := gormstore.Open(
		postgres.Open(s.dsn()),
		gormstore.Config{
			Logger:          s.logger,
			PromRegistry:    s.promRegistry,
			Dialect:         "postgres",
			PrepareStmt:     true,
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
	)
	if err != nil {
		return err
	}
	s.Store = store
	if s.logger != nil {
		s.logger.Info(
			"connected to postgres metadata store",
			"component", "database",
			"host", s.conn.Host,
			"database", s.conn.Database,
		)
	}
	return nil
}

// Stop implements the plugin.Plugin interface
func (s *Store) Stop() error {
	return s.Close()
}

// Close is a no-op when Start never succeeded
func (s *Store) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
