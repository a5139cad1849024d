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
	"encoding/hex"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

const (
	zstdSuffix      = ".zst"
	jsonContentType = "application/json"
	zstdContentType = "application/zstd"
)

func compressed(dest string) bool {
	return strings.HasSuffix(dest, zstdSuffix)
}

func contentType(compress bool) string {
	if compress {
		return zstdContentType
	}
	return jsonContentType
}

// encodeTo writes the JSON encoding of snap to w, through a zstd encoder when
// compress is set
func encodeTo(w io.Writer, snap *Snapshot, compress bool) error {
	if !compress {
		return snap.Encode(w)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := snap.Encode(zw); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// Digest returns the hex blake2b-256 hash of the uncompressed JSON encoding
func (s *Snapshot) Digest() (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if err := s.Encode(h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
