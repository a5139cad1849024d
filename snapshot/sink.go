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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidDestination = errors.New("invalid snapshot destination")

const (
	gcsScheme  = "gs://"
	s3Scheme   = "s3://"
	stdoutDest = "-"
)

// Sink is a snapshot destination
type Sink interface {
	Write(context.Context, *Snapshot) error
	Close() error
}

// NewSink returns the sink for a destination string: "-" for stdout,
// gs://bucket/object, s3://bucket/key or a local file path. Targets other
// than stdout ending in .zst are zstd compressed.
func NewSink(ctx context.Context, dest string, cfg ExportConfig) (Sink, error) {
	switch {
	case dest == "":
		return nil, fmt.Errorf("%w: empty destination", ErrInvalidDestination)
	case dest == stdoutDest:
		return &writerSink{w: os.Stdout}, nil
	case strings.HasPrefix(dest, gcsScheme):
		bucket, object, err := splitBucketPath(dest, gcsScheme)
		if err != nil {
			return nil, err
		}
		return newGcsSink(ctx, bucket, object, cfg)
	case strings.HasPrefix(dest, s3Scheme):
		bucket, key, err := splitBucketPath(dest, s3Scheme)
		if err != nil {
			return nil, err
		}
		return newS3Sink(ctx, bucket, key, cfg)
	default:
		return &fileSink{path: dest, compress: compressed(dest)}, nil
	}
}

// splitBucketPath splits scheme://bucket/path into its bucket and path
func splitBucketPath(dest string, scheme string) (string, string, error) {
	bucket, path, _ := strings.Cut(strings.TrimPrefix(dest, scheme), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: missing bucket in %q", ErrInvalidDestination, dest)
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" || strings.HasSuffix(path, "/") {
		return "", "", fmt.Errorf("%w: missing object name in %q", ErrInvalidDestination, dest)
	}
	return bucket, path, nil
}

type writerSink struct {
	w io.Writer
}

func (s *writerSink) Write(_ context.Context, snap *Snapshot) error {
	return snap.Encode(s.w)
}

func (s *writerSink) Close() error {
	return nil
}

// fileSink writes to a temporary file next to the target and renames it into
// place, so readers never see a partial snapshot
type fileSink struct {
	path     string
	compress bool
}

func (s *fileSink) Write(_ context.Context, snap *Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := encodeTo(tmp, snap, s.compress); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *fileSink) Close() error {
	return nil
}
