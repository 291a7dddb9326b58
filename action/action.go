// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidAmount indicates a negative or missing amount
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidVotes indicates a vote with zero units
	ErrInvalidVotes = errors.New("vote units must be positive")
	// ErrInvalidAddress indicates a missing address
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidTimeWindow indicates a start time not before the end time
	ErrInvalidTimeWindow = errors.New("start time must be before end time")
	// ErrNoConfirmation indicates a destructive admin action sent without confirmation
	ErrNoConfirmation = errors.New("destructive update is not confirmed")
)

// Action is a state transition requested by a caller
type Action interface {
	// Name returns the name of the action, used in logs and metrics
	Name() string
	// SanityCheck validates the fields that do not depend on state
	SanityCheck() error
}

// Payable is implemented by actions that accept an attached deposit. Any other action must be sent
// without one.
type Payable interface {
	Action
	Payable()
}

// IsPayable returns whether the action accepts an attached deposit
func IsPayable(act Action) bool {
	_, ok := act.(Payable)
	return ok
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "amount %v", amount)
	}
	return nil
}

func checkAddresses(addrs []address.Address) error {
	if len(addrs) == 0 {
		return errors.Wrap(ErrInvalidAddress, "empty address list")
	}
	for _, a := range addrs {
		if a == nil {
			return errors.Wrap(ErrInvalidAddress, "nil address in list")
		}
	}
	return nil
}
