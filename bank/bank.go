// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package bank moves value from the engine to accounts after a state change is committed
package bank

import (
	"context"
	"math/big"
	"sync"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/db/batch"
	"github.com/iotexproject/iotex-grant/pkg/log"
)

const _balanceNS = "Balance"

var (
	// ErrInvalidTransfer indicates a transfer with a missing recipient or a non-positive amount
	ErrInvalidTransfer = errors.New("invalid transfer")

	_totalKey = []byte("__total")
)

type (
	// Bank pays accounts on behalf of the engine
	Bank interface {
		Transfer(context.Context, address.Address, *big.Int) error
	}

	// Ledger is a Bank crediting balances kept in a kv store
	Ledger struct {
		mutex sync.Mutex
		dao   db.KVStore
	}
)

// NewLedger creates a ledger on top of the kv store, the store is started and stopped by its owner
func NewLedger(dao db.KVStore) *Ledger {
	return &Ledger{dao: dao}
}

// Transfer credits the amount to the recipient
func (l *Ledger) Transfer(_ context.Context, recipient address.Address, amount *big.Int) error {
	if recipient == nil || amount == nil || amount.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidTransfer, "recipient %v, amount %v", recipient, amount)
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	balance, err := l.balance(recipient.Bytes())
	if err != nil {
		return err
	}
	total, err := l.balance(_totalKey)
	if err != nil {
		return err
	}
	// balance and total are written together
	b := batch.NewBatch()
	b.Put(_balanceNS, recipient.Bytes(), balance.Add(balance, amount).Bytes(), "failed to credit %s", recipient)
	b.Put(_balanceNS, _totalKey, total.Add(total, amount).Bytes(), "failed to update total payout")
	if err := l.dao.WriteBatch(b); err != nil {
		return errors.Wrap(err, "failed to write transfer")
	}
	log.L().Debug("Transfer.", zap.String("recipient", recipient.String()), zap.String("amount", amount.String()))
	return nil
}

// Balance returns the amount credited to the account
func (l *Ledger) Balance(addr address.Address) (*big.Int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.balance(addr.Bytes())
}

// TotalPaid returns the amount credited to all accounts
func (l *Ledger) TotalPaid() (*big.Int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.balance(_totalKey)
}

func (l *Ledger) balance(key []byte) (*big.Int, error) {
	data, err := l.dao.Get(_balanceNS, key)
	switch errors.Cause(err) {
	case nil:
		return new(big.Int).SetBytes(data), nil
	case db.ErrNotExist:
		return big.NewInt(0), nil
	default:
		return nil, errors.Wrap(err, "failed to read balance")
	}
}
