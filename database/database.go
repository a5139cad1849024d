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

package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/sieve/database/plugin"
	"github.com/blinklabs-io/sieve/database/plugin/blob"
	"github.com/blinklabs-io/sieve/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Register storage plugins
	_ "github.com/blinklabs-io/sieve/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/sieve/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/sieve/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/sieve/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config holds the storage configuration. Plugin-specific options are set
// through the plugin registry before calling New.
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	BlobPlugin     string
	MetadataPlugin string
	// DataDir overrides the data-dir option of both plugins. An empty value
	// keeps everything in memory.
	DataDir string
}

type Database struct {
	config   *Config
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
}

func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

func (d *Database) Config() *Config {
	return d.config
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return newTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// New creates a new database instance from the configured plugins
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	if config.BlobPlugin == "" {
		config.BlobPlugin = DefaultBlobPlugin
	}
	if config.MetadataPlugin == "" {
		config.MetadataPlugin = DefaultMetadataPlugin
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for pluginType, name := range map[plugin.PluginType]string{
		plugin.PluginTypeBlob:     config.BlobPlugin,
		plugin.PluginTypeMetadata: config.MetadataPlugin,
	} {
		if err := plugin.SetPluginOption(pluginType, name, "data-dir", config.DataDir); err != nil {
			return nil, err
		}
	}
	blobDb, err := blob.New(config.BlobPlugin, logger, config.PromRegistry)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	metadataDb, err := metadata.New(
		config.MetadataPlugin,
		logger,
		config.PromRegistry,
	)
	if err != nil {
		_ = blobDb.Close()
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	db := &Database{
		config:   config,
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
	}
	// A timestamp mismatch still returns a usable handle so the caller can
	// decide whether to continue
	if err := db.checkCommitTimestamp(); err != nil {
		return db, err
	}
	return db, nil
}
