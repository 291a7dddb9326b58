// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bank

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/db/batch"
	"github.com/iotexproject/iotex-grant/test/identityset"
)

func TestLedger(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	dao := db.NewMemKVStore()
	require.NoError(dao.Start(ctx))
	defer func() {
		require.NoError(dao.Stop(ctx))
	}()

	l := NewLedger(dao)
	balance, err := l.Balance(identityset.Address(0))
	require.NoError(err)
	require.Zero(balance.Sign())

	require.NoError(l.Transfer(ctx, identityset.Address(0), big.NewInt(10)))
	require.NoError(l.Transfer(ctx, identityset.Address(0), big.NewInt(5)))
	require.NoError(l.Transfer(ctx, identityset.Address(1), big.NewInt(7)))
	balance, err = l.Balance(identityset.Address(0))
	require.NoError(err)
	require.Equal(big.NewInt(15).String(), balance.String())
	total, err := l.TotalPaid()
	require.NoError(err)
	require.Equal(big.NewInt(22).String(), total.String())

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		require.Equal(ErrInvalidTransfer, errors.Cause(l.Transfer(ctx, identityset.Address(0), amount)))
	}
	require.Equal(ErrInvalidTransfer, errors.Cause(l.Transfer(ctx, nil, big.NewInt(1))))
}

type failingBatchStore struct {
	db.KVStore
}

func (failingBatchStore) WriteBatch(batch.KVStoreBatch) error {
	return errors.New("disk full")
}

func TestLedgerTransferIsAtomic(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	dao := db.NewMemKVStore()
	require.NoError(dao.Start(ctx))
	defer func() {
		require.NoError(dao.Stop(ctx))
	}()
	require.NoError(NewLedger(dao).Transfer(ctx, identityset.Address(0), big.NewInt(3)))

	l := NewLedger(failingBatchStore{dao})
	require.Error(l.Transfer(ctx, identityset.Address(0), big.NewInt(10)))
	balance, err := l.Balance(identityset.Address(0))
	require.NoError(err)
	require.Equal("3", balance.String())
	total, err := l.TotalPaid()
	require.NoError(err)
	require.Equal("3", total.String())
}
