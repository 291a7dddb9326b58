// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/iotexproject/iotex-grant/action"
)

type (
	// ActionHandler is the interface for the action handlers. For each incoming action, the handler
	// parses the sub-type of the action to decide if it wants to handle it; it returns a nil receipt for
	// an action it does not handle.
	ActionHandler interface {
		Handle(context.Context, action.Action, StateManager) (*action.Receipt, error)
	}

	// GenesisStateCreator creates the initial states of a protocol
	GenesisStateCreator interface {
		CreateGenesisStates(context.Context, StateManager) error
	}

	// Protocol defines the protocol interfaces
	Protocol interface {
		ActionHandler
		GenesisStateCreator
		Name() string
	}
)
