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

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// gcsSink uploads the snapshot as a single Cloud Storage object
type gcsSink struct {
	client   *storage.Client
	bucket   string
	object   string
	compress bool
}

func newGcsSink(
	ctx context.Context,
	bucket string,
	object string,
	cfg ExportConfig,
) (*gcsSink, error) {
	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if cfg.GcsCredentialsFile != "" {
		if err := validateCredentialsFile(cfg.GcsCredentialsFile); err != nil {
			return nil, err
		}
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(cfg.GcsCredentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed in creating storage client: %w", err)
	}
	return &gcsSink{
		client:   client,
		bucket:   bucket,
		object:   object,
		compress: compressed(object),
	}, nil
}

func validateCredentialsFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("gcs: credentials file: %w", err)
	}
	if info.IsDir() {
		return errors.New("gcs: credentials file is a directory")
	}
	return nil
}

func (s *gcsSink) Write(ctx context.Context, snap *Snapshot) error {
	var buf bytes.Buffer
	if err := encodeTo(&buf, snap, s.compress); err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = contentType(s.compress)
	if _, err := w.Write(buf.Bytes()); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: finalize object: %w", err)
	}
	return nil
}

func (s *gcsSink) Close() error {
	return s.client.Close()
}
