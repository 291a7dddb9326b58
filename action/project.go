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

type (
	// CreateProject registers the caller's project in the current round
	CreateProject struct {
		Title       string
		Description string
		URL         string
		Image       string
	}

	// Vote buys quadratic vote units for a project with the attached deposit
	Vote struct {
		RoundID uint64
		Owner   address.Address
		Units   uint64
	}

	// Withdraw pays out part of a project's entitlement to its owner
	Withdraw struct {
		RoundID uint64
		Owner   address.Address
		Amount  *big.Int
	}
)

// Name returns the action name
func (*CreateProject) Name() string { return "createProject" }

// SanityCheck always passes, project metadata is free-form
func (*CreateProject) SanityCheck() error { return nil }

// Name returns the action name
func (*Vote) Name() string { return "vote" }

// Payable accepts the attached deposit
func (*Vote) Payable() {}

// SanityCheck validates the project identity and the units
func (act *Vote) SanityCheck() error {
	if act.Owner == nil {
		return errors.Wrap(ErrInvalidAddress, "missing project owner")
	}
	if act.Units == 0 {
		return ErrInvalidVotes
	}
	return nil
}

// Name returns the action name
func (*Withdraw) Name() string { return "withdraw" }

// SanityCheck validates the project identity and the amount
func (act *Withdraw) SanityCheck() error {
	if act.Owner == nil {
		return errors.Wrap(ErrInvalidAddress, "missing project owner")
	}
	return checkAmount(act.Amount)
}
