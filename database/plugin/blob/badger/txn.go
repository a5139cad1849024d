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

	"github.com/blinklabs-io/sieve/database/types"
	badger "github.com/dgraph-io/badger/v4"
)

var errForeignTxn = errors.New("transaction belongs to a different store")

type txn struct {
	store    *Store
	tx       *badger.Txn
	finished bool
}

// Commit implements types.Txn. Committing a finished transaction is a no-op.
func (t *txn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.tx.Commit()
}

// Rollback implements types.Txn
func (t *txn) Rollback() error {
	if !t.finished {
		t.tx.Discard()
		t.finished = true
	}
	return nil
}

// NewTransaction starts a badger transaction
func (s *Store) NewTransaction(update bool) types.Txn {
	return &txn{store: s, tx: s.db.NewTransaction(update)}
}

func (s *Store) unwrap(t types.Txn) (*badger.Txn, error) {
	if t == nil {
		return nil, types.ErrNilTxn
	}
	bt, ok := t.(*txn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if bt.store != s {
		return nil, errForeignTxn
	}
	if bt.finished {
		return nil, types.ErrTxnFinished
	}
	return bt.tx, nil
}

// Get returns a copy of the value stored under key
func (s *Store) Get(t types.Txn, key []byte) ([]byte, error) {
	tx, err := s.unwrap(t)
	if err != nil {
		return nil, err
	}
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, types.ErrBlobKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Set stores val under key
func (s *Store) Set(t types.Txn, key []byte, val []byte) error {
	tx, err := s.unwrap(t)
	if err != nil {
		return err
	}
	return tx.Set(key, val)
}

// Scan calls fn for every key starting with prefix, in key order
func (s *Store) Scan(t types.Txn, prefix []byte, fn types.ScanFunc) error {
	tx, err := s.unwrap(t)
	if err != nil {
		return err
	}
	iter := tx.NewIterator(badger.IteratorOptions{
		Prefix:         prefix,
		PrefetchValues: true,
		PrefetchSize:   100,
	})
	defer iter.Close()
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		if err := item.Value(func(val []byte) error {
			return fn(item.Key(), val)
		}); err != nil {
			return err
		}
	}
	return nil
}
