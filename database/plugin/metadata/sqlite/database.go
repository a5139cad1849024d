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

package sqlite

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/sieve/database/plugin/metadata/internal/gormstore"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	dbFileName = "metadata.sqlite"
	// WAL journal, wait on locks and a 50MB page cache
	filePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=cache_size(-50000)"
)

// Store keeps the engine metadata in SQLite. An empty data dir gives a
// private in-memory database.
type Store struct {
	*gormstore.Store
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	vacuumStop     chan struct{}
	vacuumWg       sync.WaitGroup
	dataDir        string
	vacuumInterval time.Duration
}

// New creates a SQLite metadata store. The database is opened by Start.
func New(opts ...OptionFunc) (*Store, error) {
	s := &Store{
		vacuumInterval: DefaultVacuumInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
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

func (s *Store) dsn() (string, error) {
	if s.dataDir == "" {
		// Each in-memory store gets its own named shared cache
		return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return fmt.Sprintf(
		"file:%s?%s",
		filepath.Join(s.dataDir, dbFileName),
		filePragmas,
	), nil
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	if s.Store != nil {
		return nil
	}
	dsn, err := s.dsn()
	if err != nil {
		return err
	}
	cfg := gormstore.Config{
		Logger:       s.logger,
		PromRegistry: s.promRegistry,
		Dialect:      "sqlite",
	}
	if s.dataDir == "" {
		// The in-memory database is dropped with its last connection
		cfg.MaxOpenConns = 1
	}
	store, err := gormstore.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return err
	}
	s.Store = store
	if s.dataDir != "" && s.vacuumInterval > 0 {
		s.vacuumStop = make(chan struct{})
		s.vacuumWg.Add(1)
		go s.runVacuum(s.vacuumInterval, s.vacuumStop)
	}
	return nil
}

// runVacuum periodically rebuilds the database file to release free pages
func (s *Store) runVacuum(interval time.Duration, stop <-chan struct{}) {
	defer s.vacuumWg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.logger.Debug(
				"running vacuum on sqlite metadata database",
				"component", "database",
			)
			if err := s.DB().Exec("VACUUM").Error; err != nil {
				s.logger.Error(
					"failed to free unused space in metadata store",
					"component", "database",
					"error", err,
				)
			}
		case <-stop:
			return
		}
	}
}

// Stop implements the plugin.Plugin interface
func (s *Store) Stop() error {
	return s.Close()
}

// Close waits for a running vacuum and closes the database
func (s *Store) Close() error {
	if s.vacuumStop != nil {
		close(s.vacuumStop)
		s.vacuumWg.Wait()
		s.vacuumStop = nil
	}
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
