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

// MaxFeePoint is the fee rate of 100.00% in basis points
const MaxFeePoint = 10000

// ErrInvalidFeePoint indicates a fee rate above 100%
var ErrInvalidFeePoint = errors.New("fee point exceeds 10000")

type (
	// SetConfig updates the engine parameters, only the non-nil ones are applied
	SetConfig struct {
		FeePoint        *uint64
		DefaultDuration *uint64
		DefaultVoteCost *big.Int
	}

	// SetOwner transfers the ownership
	SetOwner struct {
		Owner address.Address
	}

	// ExtendOperators grants the operator capability
	ExtendOperators struct {
		Operators []address.Address
	}

	// RemoveOperators revokes the operator capability
	RemoveOperators struct {
		Operators []address.Address
	}
)

// Name returns the action name
func (*SetConfig) Name() string { return "setConfig" }

// SanityCheck validates the supplied parameters
func (act *SetConfig) SanityCheck() error {
	if act.FeePoint != nil && *act.FeePoint > MaxFeePoint {
		return errors.Wrapf(ErrInvalidFeePoint, "fee point %d", *act.FeePoint)
	}
	if act.DefaultDuration != nil && *act.DefaultDuration == 0 {
		return errors.Wrap(ErrInvalidTimeWindow, "default duration is zero")
	}
	if act.DefaultVoteCost != nil {
		return checkAmount(act.DefaultVoteCost)
	}
	return nil
}

// Name returns the action name
func (*SetOwner) Name() string { return "setOwner" }

// Payable accepts the one-unit confirmation deposit
func (*SetOwner) Payable() {}

// SanityCheck validates the new owner
func (act *SetOwner) SanityCheck() error {
	if act.Owner == nil {
		return errors.Wrap(ErrInvalidAddress, "missing owner")
	}
	return nil
}

// Name returns the action name
func (*ExtendOperators) Name() string { return "extendOperators" }

// Payable accepts the one-unit confirmation deposit
func (*ExtendOperators) Payable() {}

// SanityCheck validates the operator list
func (act *ExtendOperators) SanityCheck() error { return checkAddresses(act.Operators) }

// Name returns the action name
func (*RemoveOperators) Name() string { return "removeOperators" }

// Payable accepts the one-unit confirmation deposit
func (*RemoveOperators) Payable() {}

// SanityCheck validates the operator list
func (act *RemoveOperators) SanityCheck() error { return checkAddresses(act.Operators) }
