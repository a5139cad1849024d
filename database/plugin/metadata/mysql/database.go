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

package mysql

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/sieve/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ER_BAD_DB_ERROR
const errUnknownDatabase = 1049

var DefaultConnOptions = gormstore.ConnOptions{
	Host:     "localhost",
	Port:     3306,
	User:     "root",
	Database: "sieve",
	TimeZone: "UTC",
}

// Store keeps the engine metadata in MySQL. The schema is created on first
// start when the server allows it.
type Store struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	conn         gormstore.ConnOptions
}

// New creates a MySQL metadata store. The connection is opened by Start.
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

// driverConfig parses the DSN option, or builds the config from the
// individual settings
func (s *Store) driverConfig() (*mysql.Config, error) {
	if s.conn.HasDsn() {
		cfg, err := mysql.ParseDSN(strings.TrimSpace(s.conn.Dsn))
		if err != nil {
			return nil, fmt.Errorf("mysql metadata: invalid dsn: %w", err)
		}
		return cfg, nil
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = s.conn.Host + ":" + strconv.FormatUint(s.conn.Port, 10)
	cfg.User = s.conn.User
	cfg.Passwd = s.conn.Password
	cfg.DBName = s.conn.Database
	cfg.ParseTime = true
	cfg.AllowNativePasswords = true
	if loc, err := time.LoadLocation(s.conn.TimeZone); err == nil {
		cfg.Loc = loc
	}
	if s.conn.SslMode != "" {
		cfg.Params = map[string]string{"tls": s.conn.SslMode}
	}
	return cfg, nil
}

func (s *Store) open(cfg *mysql.Config) (*gormstore.Store, error) {
	return gormstore.Open(
		gormmysql.Open(cfg.FormatDSN()),
		gormstore.Config{
			Logger:          s.logger,
			PromRegistry:    s.promRegistry,
			Dialect:         "mysql",
			PrepareStmt:     true,
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
	)
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	if s.Store != nil {
		return nil
	}
	cfg, err := s.driverConfig()
	if err != nil {
		return err
	}
	store, err := s.open(cfg)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errUnknownDatabase {
		if err := createSchema(cfg); err != nil {
			return err
		}
		store, err = s.open(cfg)
	}
	if err != nil {
		return err
	}
	s.Store = store
	if s.logger != nil {
		s.logger.Info(
			"connected to mysql metadata store",
			"component", "database",
			"addr", cfg.Addr,
			"database", cfg.DBName,
		)
	}
	return nil
}

// createSchema connects without a default schema and creates the configured one
func createSchema(cfg *mysql.Config) error {
	if cfg.DBName == "" {
		return errors.New("mysql metadata: database name not set")
	}
	adminCfg := cfg.Clone()
	adminCfg.DBName = ""
	db, err := gorm.Open(gormmysql.Open(adminCfg.FormatDSN()), &gorm.Config{})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return db.Exec(
		"CREATE DATABASE IF NOT EXISTS `" + strings.ReplaceAll(cfg.DBName, "`", "``") + "`",
	).Error
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
