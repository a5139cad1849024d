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
	"sync"
	"time"

	"github.com/blinklabs-io/sieve/database/types"
)

// Txn pairs a blob store transaction with a metadata store transaction.
// On commit the blob side is written first, then the metadata side.
type Txn struct {
	mu        sync.Mutex
	db        *Database
	blob      types.Txn
	metadata  types.Txn
	writable  bool
	completed bool
}

func newTxn(db *Database, readWrite bool) *Txn {
	ret := &Txn{
		db:       db,
		writable: readWrite,
	}
	if db.blob != nil {
		ret.blob = db.blob.NewTransaction(readWrite)
	}
	if db.metadata != nil {
		ret.metadata = db.metadata.Transaction()
	}
	return ret
}

func (t *Txn) ReadWrite() bool {
	return t.writable
}

func (t *Txn) Metadata() types.Txn {
	return t.metadata
}

func (t *Txn) Blob() types.Txn {
	return t.blob
}

// Do calls fn and commits on success. Any error from fn discards the
// transaction and is returned as-is unless the discard also fails. A panic
// in fn discards the transaction before it propagates.
func (t *Txn) Do(fn func(*Txn) error) error {
	defer func() {
		if p := recover(); p != nil {
			if err := t.Rollback(); err != nil {
				t.db.logger.Error(
					"rollback after panic failed",
					"component", "database",
					"error", err,
				)
			}
			panic(p)
		}
	}()
	fnErr := fn(t)
	if fnErr == nil {
		if err := t.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	}
	if err := t.Rollback(); err != nil {
		return errors.Join(fnErr, fmt.Errorf("rollback: %w", err))
	}
	return fnErr
}

// Commit writes both halves of the transaction. Calling Commit on a
// finished or read-only transaction only releases it.
func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.completed:
		return nil
	case !t.writable:
		return t.discard()
	case t.blob == nil && t.metadata == nil:
		t.completed = true
		return types.ErrNoStoreAvailable
	}
	defer func() { t.completed = true }()
	if t.blob != nil && t.metadata != nil {
		ts := time.Now().UnixMilli()
		if err := t.db.updateCommitTimestamp(t, ts); err != nil {
			t.abandon(t.blob, t.metadata)
			return fmt.Errorf("set commit timestamp: %w", err)
		}
	}
	if t.blob != nil {
		if err := t.blob.Commit(); err != nil {
			t.abandon(t.metadata)
			return fmt.Errorf("blob commit: %w", err)
		}
	}
	if t.metadata == nil {
		return nil
	}
	if err := t.metadata.Commit(); err != nil {
		// Blob data is already durable, so the stores now carry different
		// commit timestamps until the next successful write
		t.db.logger.Error(
			"metadata commit failed after blob commit",
			"component", "database",
			"error", err,
		)
		t.abandon(t.metadata)
		return fmt.Errorf("metadata commit: %w", err)
	}
	return nil
}

// abandon rolls back the given halves, ignoring errors
func (t *Txn) abandon(txns ...types.Txn) {
	for _, txn := range txns {
		if txn != nil {
			_ = txn.Rollback()
		}
	}
}

func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discard()
}

func (t *Txn) discard() error {
	if t.completed {
		return nil
	}
	t.completed = true
	var err error
	if t.blob != nil {
		if e := t.blob.Rollback(); e != nil {
			err = errors.Join(err, fmt.Errorf("blob: %w", e))
		}
	}
	if t.metadata != nil {
		if e := t.metadata.Rollback(); e != nil {
			err = errors.Join(err, fmt.Errorf("metadata: %w", e))
		}
	}
	return err
}

// Release discards the transaction unless it already finished. It is meant
// to be deferred right after the transaction is opened.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"discarding transaction",
			"component", "database",
			"read_write", t.writable,
			"error", err,
		)
	}
}
