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

// Package types holds the transaction and error types shared by the storage
// plugins and the database layer
package types

import "errors"

var (
	ErrBlobKeyNotFound  = errors.New("blob key not found")
	ErrTxnWrongType     = errors.New("invalid transaction type")
	ErrNilTxn           = errors.New("nil transaction")
	ErrNoStoreAvailable = errors.New("no store available")
	// ErrTxnFinished is returned when a handle is used after commit or rollback
	ErrTxnFinished = errors.New("transaction already finished")
)

// Txn is a store-level transaction handle. The database layer pairs one from
// each store and commits them together.
type Txn interface {
	Commit() error
	Rollback() error
}

// ScanFunc receives each key and value visited by a prefix scan. The slices
// are only valid for the duration of the call. Returning an error stops the
// scan and the error is passed back to the caller.
type ScanFunc func(key []byte, val []byte) error
