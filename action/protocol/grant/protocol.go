// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/state"
)

const (
	_protocolID = "grant"

	_contractNS     = "GrantContract"
	_roundNS        = "GrantRound"
	_projectNS      = "GrantProject"
	_roundProjectNS = "GrantRoundProjects"
	_ownerRoundNS   = "GrantOwnerRounds"
	_voterNS        = "GrantVoter"
)

var _contractKey = []byte("contract")

type (
	// Config is the initial configuration of the grant engine
	Config struct {
		Owner           address.Address
		Operators       []address.Address
		FeePoint        uint64
		DefaultDuration uint64
		DefaultVoteCost *big.Int
		// StoragePricePerByte is the host's price of one byte of new state, charged to voters
		StoragePricePerByte *big.Int
	}

	// Protocol is the quadratic-funding grant engine. It runs successive funding rounds, registers
	// projects into the current round, sells quadratically priced votes whose net cost is granted to
	// the voted project, and splits the donation pool of a closed round by support area.
	Protocol struct {
		cfg Config
	}
)

// NewProtocol instantiates a grant protocol instance
func NewProtocol(cfg Config) (*Protocol, error) {
	if cfg.Owner == nil {
		return nil, errors.New("owner of grant protocol is not set")
	}
	if cfg.FeePoint > action.MaxFeePoint {
		return nil, errors.Wrapf(action.ErrInvalidFeePoint, "fee point %d", cfg.FeePoint)
	}
	if cfg.DefaultVoteCost == nil {
		cfg.DefaultVoteCost = big.NewInt(0)
	}
	if cfg.StoragePricePerByte == nil {
		cfg.StoragePricePerByte = big.NewInt(0)
	}
	return &Protocol{cfg: cfg}, nil
}

// Name returns the name of the protocol
func (p *Protocol) Name() string {
	return _protocolID
}

// CreateGenesisStates initializes the contract state, it is a no-op once the state exists
func (p *Protocol) CreateGenesisStates(_ context.Context, sm protocol.StateManager) error {
	c := contract{}
	err := p.state(sm, _contractNS, _contractKey, &c)
	switch errors.Cause(err) {
	case nil:
		return nil
	case state.ErrStateNotExist:
	default:
		return err
	}
	c = contract{
		FeePoint:        p.cfg.FeePoint,
		FeeAmount:       big.NewInt(0),
		DefaultDuration: p.cfg.DefaultDuration,
		DefaultVoteCost: new(big.Int).Set(p.cfg.DefaultVoteCost),
	}
	c.setOwner(p.cfg.Owner)
	c.addOperators(p.cfg.Operators...)
	log.L().Info("Initialize grant contract.",
		zap.String("owner", p.cfg.Owner.String()),
		zap.Uint64("feePoint", c.FeePoint),
		zap.Uint64("defaultDuration", c.DefaultDuration))
	return p.putState(sm, _contractNS, _contractKey, &c)
}

// Handle handles the actions on the grant protocol
func (p *Protocol) Handle(
	ctx context.Context,
	act action.Action,
	sm protocol.StateManager,
) (*action.Receipt, error) {
	if err := act.SanityCheck(); err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	if deposit := protocol.MustGetActionCtx(ctx).AttachedDeposit(); deposit.Sign() != 0 && !action.IsPayable(act) {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s does not accept a deposit, got %s", act.Name(), deposit)
	}
	var (
		ret  state.Serializer
		logs []*action.TransactionLog
		err  error
	)
	switch act := act.(type) {
	case *action.CreateRound:
		ret, err = p.CreateRound(ctx, sm, act.StartAt, act.EndAt)
	case *action.CreateDefaultRound:
		ret, err = p.CreateDefaultRound(ctx, sm)
	case *action.UpdateCurrentRound:
		ret, err = p.UpdateCurrentRound(ctx, sm, act)
	case *action.FinishRound:
		ret, err = p.FinishRound(ctx, sm)
	case *action.Donate:
		ret, err = p.Donate(ctx, sm)
	case *action.CreateProject:
		ret, err = p.CreateProject(ctx, sm, act)
	case *action.Vote:
		var project *Project
		project, logs, err = p.Vote(ctx, sm, ProjectID{act.RoundID, act.Owner}, act.Units)
		ret = project
	case *action.Withdraw:
		var project *Project
		project, logs, err = p.Withdraw(ctx, sm, ProjectID{act.RoundID, act.Owner}, act.Amount)
		ret = project
	case *action.SetConfig:
		err = p.SetConfig(ctx, sm, act)
	case *action.SetOwner:
		err = p.SetOwner(ctx, sm, act.Owner)
	case *action.ExtendOperators:
		err = p.ExtendOperators(ctx, sm, act.Operators)
	case *action.RemoveOperators:
		err = p.RemoveOperators(ctx, sm, act.Operators)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.createReceipt(ctx, ret, logs)
}

func (p *Protocol) createReceipt(ctx context.Context, ret state.Serializer, logs []*action.TransactionLog) (*action.Receipt, error) {
	var (
		blkCtx = protocol.MustGetBlockCtx(ctx)
		actCtx = protocol.MustGetActionCtx(ctx)
		data   []byte
		err    error
	)
	if ret != nil {
		if data, err = ret.Serialize(); err != nil {
			return nil, err
		}
	}
	receipt := &action.Receipt{
		Status:      action.SuccessReceiptStatus,
		BlockHeight: blkCtx.BlockHeight,
		ActionHash:  actCtx.ActionHash,
		ReturnValue: data,
	}
	return receipt.AddTransactionLogs(logs...), nil
}

func (p *Protocol) state(sr protocol.StateReader, ns string, key []byte, value interface{}) error {
	return sr.State(value, protocol.NamespaceOption(ns), protocol.KeyOption(key))
}

func (p *Protocol) putState(sm protocol.StateManager, ns string, key []byte, value interface{}) error {
	return sm.PutState(value, protocol.NamespaceOption(ns), protocol.KeyOption(key))
}

// states returns the states under the key prefix in ascending key order, an empty iterator if none
func (p *Protocol) states(sr protocol.StateReader, ns string, prefix []byte) (state.Iterator, error) {
	return sr.States(protocol.NamespaceOption(ns), protocol.KeyPrefixOption(prefix))
}
