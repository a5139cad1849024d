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
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Sink uploads the snapshot as a single S3 object
type s3Sink struct {
	client   *s3.Client
	bucket   string
	key      string
	compress bool
}

func newS3Sink(
	ctx context.Context,
	bucket string,
	key string,
	cfg ExportConfig,
) (*s3Sink, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load default AWS config: %w", err)
	}
	if cfg.S3Region != "" {
		awsCfg.Region = cfg.S3Region
	}
	return &s3Sink{
		client:   s3.NewFromConfig(awsCfg),
		bucket:   bucket,
		key:      key,
		compress: compressed(key),
	}, nil
}

func (s *s3Sink) Write(ctx context.Context, snap *Snapshot) error {
	var buf bytes.Buffer
	if err := encodeTo(&buf, snap, s.compress); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType(s.compress)),
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	return nil
}

// Close is a no-op, the S3 client holds no resources
func (s *s3Sink) Close() error {
	return nil
}
