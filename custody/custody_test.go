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

package custody_test

import (
	"errors"
	"math"
	"testing"

	"github.com/blinklabs-io/sieve/custody"
	"github.com/blinklabs-io/sieve/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCustody(t *testing.T) (*custody.Custody, *database.Database, *prometheus.Registry) {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	reg := prometheus.NewRegistry()
	c := custody.New(db, custody.CustodyConfig{PromRegistry: reg})
	return c, db, reg
}

func TestTransfer(t *testing.T) {
	c, _, reg := newTestCustody(t)
	_, err := c.Credit("alice", 1500, nil)
	require.NoError(t, err)
	require.NoError(t, c.Transfer("alice", 1000, nil))

	balance, err := c.Balance("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)
	balance, err = c.Balance(custody.DefaultIdentity, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)

	count, err := testutil.GatherAndCount(reg, "sieve_custody_transfers_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTransferFailures(t *testing.T) {
	testDefs := []struct {
		name    string
		from    string
		amount  uint64
		wantErr error
	}{
		{"missing account", "nobody", 10, custody.ErrAccountNotFound},
		{"insufficient balance", "alice", 101, custody.ErrInsufficientBalance},
		{"self transfer", custody.DefaultIdentity, 1, custody.ErrSelfTransfer},
	}
	for _, tc := range testDefs {
		t.Run(tc.name, func(t *testing.T) {
			c, _, _ := newTestCustody(t)
			_, err := c.Credit("alice", 100, nil)
			require.NoError(t, err)
			err = c.Transfer(tc.from, tc.amount, nil)
			require.ErrorIs(t, err, custody.ErrTransferFailed)
			require.ErrorIs(t, err, tc.wantErr)

			balance, err := c.Balance("alice", nil)
			require.NoError(t, err)
			assert.Equal(t, uint64(100), balance)
			balance, err = c.Balance(custody.DefaultIdentity, nil)
			require.NoError(t, err)
			assert.Zero(t, balance)
		})
	}
}

func TestTransferZeroAmount(t *testing.T) {
	c, _, _ := newTestCustody(t)
	require.NoError(t, c.Transfer("nobody", 0, nil))
}

func TestTransferRolledBackWithCallerTxn(t *testing.T) {
	c, db, _ := newTestCustody(t)
	_, err := c.Credit("alice", 100, nil)
	require.NoError(t, err)
	errLater := errors.New("later step failed")
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := c.Transfer("alice", 60, txn); err != nil {
			return err
		}
		// The debit is visible inside the transaction
		balance, err := c.Balance("alice", txn)
		require.NoError(t, err)
		assert.Equal(t, uint64(40), balance)
		return errLater
	})
	require.ErrorIs(t, err, errLater)
	balance, err := c.Balance("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}

func TestCreditOverflow(t *testing.T) {
	c, _, _ := newTestCustody(t)
	_, err := c.Credit("alice", math.MaxUint64, nil)
	require.NoError(t, err)
	_, err = c.Credit("alice", 1, nil)
	require.ErrorIs(t, err, custody.ErrBalanceOverflow)
}

func TestCustomIdentity(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	c := custody.New(db, custody.CustodyConfig{Identity: "vault"})
	assert.Equal(t, "vault", c.Identity())
	_, err = c.Credit("alice", 5, nil)
	require.NoError(t, err)
	require.NoError(t, c.Transfer("alice", 5, nil))
	balance, err := c.Balance("vault", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), balance)
}
