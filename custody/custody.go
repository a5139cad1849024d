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

// Package custody holds staked value on behalf of the engine. Balances live
// in the blob store and move inside the caller's database transaction.
package custody

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/blinklabs-io/sieve/database"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultIdentity is the account that receives stake on intake
const DefaultIdentity = "custody"

var (
	ErrTransferFailed      = errors.New("transfer failed")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
	ErrSelfTransfer        = errors.New("cannot transfer from the custody account")
)

type CustodyConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	// Identity of the custody account, defaults to DefaultIdentity
	Identity string
}

type Custody struct {
	config  CustodyConfig
	db      *database.Database
	logger  *slog.Logger
	metrics *custodyMetrics
}

func New(db *database.Database, config CustodyConfig) *Custody {
	if config.Identity == "" {
		config.Identity = DefaultIdentity
	}
	c := &Custody{
		config: config,
		db:     db,
	}
	if config.Logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		c.logger = config.Logger.With("component", "custody")
	}
	c.initMetrics()
	return c
}

// Identity returns the custody account identity
func (c *Custody) Identity() string {
	return c.config.Identity
}

// Transfer moves amount from the given account to the custody account. On any
// failure nothing is written and the returned error wraps ErrTransferFailed.
func (c *Custody) Transfer(from string, amount uint64, txn *database.Txn) error {
	if err := c.transfer(from, amount, txn); err != nil {
		c.metrics.transferFailures.Inc()
		c.logger.Debug(
			"stake transfer failed",
			"from", from,
			"amount", amount,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	c.metrics.transfers.Inc()
	c.metrics.transferredAmount.Add(float64(amount))
	return nil
}

func (c *Custody) transfer(from string, amount uint64, txn *database.Txn) error {
	if txn == nil {
		return c.db.Transaction(true).Do(func(txn *database.Txn) error {
			return c.transfer(from, amount, txn)
		})
	}
	if from == c.config.Identity {
		return ErrSelfTransfer
	}
	if amount == 0 {
		return nil
	}
	src, found, err := c.db.GetAccount(from, txn)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	if src.Balance < amount {
		return fmt.Errorf(
			"%w: %s has %d, needs %d",
			ErrInsufficientBalance,
			from,
			src.Balance,
			amount,
		)
	}
	dst, _, err := c.db.GetAccount(c.config.Identity, txn)
	if err != nil {
		return err
	}
	if dst.Balance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	// All checks pass before the first write
	src.Balance -= amount
	dst.Balance += amount
	if err := c.db.SetAccount(src, txn); err != nil {
		return err
	}
	return c.db.SetAccount(dst, txn)
}

// Credit adds amount to an account, creating it if needed, and returns the new
// balance
func (c *Custody) Credit(
	identity string,
	amount uint64,
	txn *database.Txn,
) (uint64, error) {
	if txn == nil {
		var balance uint64
		err := c.db.Transaction(true).Do(func(txn *database.Txn) error {
			var err error
			balance, err = c.Credit(identity, amount, txn)
			return err
		})
		return balance, err
	}
	account, _, err := c.db.GetAccount(identity, txn)
	if err != nil {
		return 0, err
	}
	if account.Balance > math.MaxUint64-amount {
		return 0, ErrBalanceOverflow
	}
	account.Balance += amount
	if err := c.db.SetAccount(account, txn); err != nil {
		return 0, err
	}
	c.metrics.credits.Inc()
	return account.Balance, nil
}

// Balance returns the balance of an account. Unknown accounts hold nothing.
func (c *Custody) Balance(identity string, txn *database.Txn) (uint64, error) {
	account, _, err := c.db.GetAccount(identity, txn)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}
