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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/internal/config"
	"github.com/blinklabs-io/sieve/snapshot"
	"github.com/spf13/cobra"
)

var exportFlags = struct {
	timeout time.Duration
}{}

func exportRun(cmd *cobra.Command, dest string, cfg *config.Config) error {
	// Logs go to stderr so "-" can stream the snapshot on stdout
	logger := commonRun(os.Stderr)
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		Logger:         logger,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
	})
	if db == nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err != nil {
		var tsErr database.CommitTimestampError
		if !errors.As(err, &tsErr) {
			return fmt.Errorf("opening database: %w", err)
		}
		logger.Warn(
			"database commit timestamps differ, last commit may be partial",
			"error", err,
		)
	}
	_, err = snapshot.Export(
		cmd.Context(),
		db,
		dest,
		snapshot.ExportConfig{
			Logger:             logger,
			GcsCredentialsFile: cfg.Export.GcsCredentialsFile,
			S3Region:           cfg.Export.S3Region,
			Timeout:            exportFlags.timeout,
		},
	)
	return err
}

func exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <destination>",
		Short: "Write a JSON snapshot of the stored engine state",
		Long: `Write a JSON snapshot of the stored engine state.

The destination may be a local file path, "-" for stdout, gs://bucket/object
or s3://bucket/key.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			if err := exportRun(cmd, args[0], cfg); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		DurationVar(&exportFlags.timeout, "timeout", 5*time.Minute, "timeout for the export")
	return cmd
}
