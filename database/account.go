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
	"strings"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/sieve/database/types"
)

const accountKeyPrefix = "acct:"

// Account is a custody balance record kept in the blob store
type Account struct {
	cbor.StructAsArray
	Identity string
	Balance  uint64
}

func accountKey(identity string) []byte {
	return []byte(accountKeyPrefix + identity)
}

// GetAccount returns the balance record for an identity. A missing record is
// reported with found set to false and a zero balance.
func (d *Database) GetAccount(
	identity string,
	txn *Txn,
) (account Account, found bool, err error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	account.Identity = identity
	data, err := d.blob.Get(txn.Blob(), accountKey(identity))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return account, false, nil
		}
		return account, false, err
	}
	if _, err := cbor.Decode(data, &account); err != nil {
		return account, false, fmt.Errorf("decode account %q: %w", identity, err)
	}
	return account, true, nil
}

// SetAccount writes the balance record for an identity
func (d *Database) SetAccount(account Account, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.SetAccount(account, txn)
		})
	}
	data, err := cbor.Encode(&account)
	if err != nil {
		return fmt.Errorf("encode account %q: %w", account.Identity, err)
	}
	return d.blob.Set(txn.Blob(), accountKey(account.Identity), data)
}

// GetAccounts returns every balance record ordered by identity
func (d *Database) GetAccounts(txn *Txn) ([]Account, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret := []Account{}
	err := d.blob.Scan(
		txn.Blob(),
		[]byte(accountKeyPrefix),
		func(key []byte, val []byte) error {
			var account Account
			if _, err := cbor.Decode(val, &account); err != nil {
				return fmt.Errorf(
					"decode account %q: %w",
					strings.TrimPrefix(string(key), accountKeyPrefix),
					err,
				)
			}
			ret = append(ret, account)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}
