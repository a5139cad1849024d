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

package badger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

// gcDiscardRatio is the fraction of a value log file that must be stale
// before it is rewritten
const gcDiscardRatio = 0.5

// Store keeps custody balances in badger. An empty data dir keeps everything
// in memory.
type Store struct {
	promRegistry   prometheus.Registerer
	db             *badger.DB
	logger         *slog.Logger
	gcStop         chan struct{}
	gcWg           sync.WaitGroup
	dataDir        string
	blockCacheSize uint64
	indexCacheSize uint64
	gcInterval     time.Duration
}

// New creates a new store. Nothing is opened until Start.
func New(opts ...OptionFunc) (*Store, error) {
	s := &Store{
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
		gcInterval:     DefaultGcInterval,
	}
	for _, opt := range opts {
		opt(s)
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

func (s *Store) badgerOptions() (badger.Options, error) {
	if s.dataDir == "" {
		return badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(newLogger(s.logger)).
			WithLoggingLevel(badger.WARNING), nil
	}
	dir := filepath.Join(s.dataDir, "blob")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return badger.Options{}, fmt.Errorf("create blob dir: %w", err)
	}
	return badger.DefaultOptions(dir).
		WithLogger(newLogger(s.logger)).
		WithLoggingLevel(badger.WARNING).
		WithBlockCacheSize(int64(s.blockCacheSize)). //nolint:gosec
		WithIndexCacheSize(int64(s.indexCacheSize)). //nolint:gosec
		WithCompression(options.Snappy), nil
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	if s.db != nil {
		return nil
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	opts, err := s.badgerOptions()
	if err != nil {
		return err
	}
	db, err := badger.Open(opts)
	if err != nil {
		return err
	}
	s.db = db
	if s.promRegistry != nil {
		s.registerMetrics()
	}
	// The in-memory value log has nothing to reclaim
	if s.dataDir != "" && s.gcInterval > 0 {
		s.gcStop = make(chan struct{})
		s.gcWg.Add(1)
		go s.runGc(s.gcInterval, s.gcStop)
	}
	return nil
}

func (s *Store) runGc(interval time.Duration, stop <-chan struct{}) {
	defer s.gcWg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.collectGarbage()
		case <-stop:
			return
		}
	}
}

// collectGarbage rewrites value log files until badger reports there is
// nothing left to reclaim
func (s *Store) collectGarbage() {
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			s.logger.Warn(
				"blob value log GC failed",
				"error", err,
				"component", "database",
			)
		}
		return
	}
}

// Stop implements the plugin.Plugin interface
func (s *Store) Stop() error {
	return s.Close()
}

// Close stops GC and closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.gcStop != nil {
		close(s.gcStop)
		s.gcWg.Wait()
		s.gcStop = nil
	}
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying badger handle, or nil before Start
func (s *Store) DB() *badger.DB {
	return s.db
}
