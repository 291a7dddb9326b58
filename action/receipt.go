// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/go-pkgs/hash"

	"github.com/iotexproject/iotex-grant/pkg/log"
)

const (
	// FailureReceiptStatus is the status that an action failed
	FailureReceiptStatus = uint64(0)
	// SuccessReceiptStatus is the status that an action succeeded
	SuccessReceiptStatus = uint64(1)
)

// TransactionLogType is the kind of an outgoing value transfer
type TransactionLogType uint8

const (
	// DepositRefundLog returns the unspent part of an attached deposit to the caller
	DepositRefundLog TransactionLogType = iota
	// GrantWithdrawLog pays out a project's grant to its owner
	GrantWithdrawLog
)

func (t TransactionLogType) String() string {
	switch t {
	case DepositRefundLog:
		return "depositRefund"
	case GrantWithdrawLog:
		return "grantWithdraw"
	default:
		return "unknown"
	}
}

type (
	// TransactionLog is a value transfer from the engine to an account, executed by the host after the
	// state change of the action is committed
	TransactionLog struct {
		Type      TransactionLogType
		Amount    *big.Int
		Recipient string
	}

	// Receipt is the result of an action
	Receipt struct {
		Status      uint64
		BlockHeight uint64
		ActionHash  hash.Hash256
		// ReturnValue is the serialized record the action created or updated
		ReturnValue     []byte
		transactionLogs []*TransactionLog
	}
)

// AddTransactionLogs appends transfers to the receipt, zero amounts are dropped
func (receipt *Receipt) AddTransactionLogs(logs ...*TransactionLog) *Receipt {
	for _, l := range logs {
		if l == nil || l.Amount == nil || l.Amount.Sign() == 0 {
			continue
		}
		receipt.transactionLogs = append(receipt.transactionLogs, l)
	}
	return receipt
}

// TransactionLogs returns the transfers requested by the action
func (receipt *Receipt) TransactionLogs() []*TransactionLog {
	return receipt.transactionLogs
}

// Hash returns the hash of receipt
func (receipt *Receipt) Hash() hash.Hash256 {
	data, err := rlp.EncodeToBytes([]interface{}{
		receipt.Status,
		receipt.BlockHeight,
		receipt.ActionHash[:],
		receipt.ReturnValue,
		receipt.transactionLogs,
	})
	if err != nil {
		log.L().Panic("Error when serializing a receipt")
	}
	return hash.Hash256b(data)
}
