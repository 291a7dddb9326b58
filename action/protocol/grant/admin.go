// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/pkg/version"
)

type (
	// contract is the global state of the engine
	contract struct {
		Owner           []byte
		Operators       [][]byte
		CurrentRoundID  uint64
		FeePoint        uint64
		FeeAmount       *big.Int
		DefaultDuration uint64
		DefaultVoteCost *big.Int
	}

	// ContractConfig is the snapshot of the engine parameters returned by GetConfig
	ContractConfig struct {
		Version         string
		Owner           address.Address
		Operators       []address.Address
		FeePoint        uint64
		FeeAmount       *big.Int
		DefaultDuration uint64
		DefaultVoteCost *big.Int
		CurrentRoundID  uint64
		// CurrentRound is nil before the first round is created
		CurrentRound *Round
	}
)

// Serialize serializes contract state into bytes
func (c *contract) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(c)
}

// Deserialize deserializes bytes into contract state
func (c *contract) Deserialize(data []byte) error {
	return rlp.DecodeBytes(data, c)
}

func (c *contract) isOwner(addr address.Address) bool {
	return addr != nil && bytes.Equal(c.Owner, addr.Bytes())
}

func (c *contract) isOperator(addr address.Address) bool {
	if addr == nil {
		return false
	}
	for _, op := range c.Operators {
		if bytes.Equal(op, addr.Bytes()) {
			return true
		}
	}
	return false
}

func (c *contract) setOwner(addr address.Address) {
	c.Owner = addr.Bytes()
}

func (c *contract) addOperators(addrs ...address.Address) {
	for _, addr := range addrs {
		if !c.isOperator(addr) {
			c.Operators = append(c.Operators, addr.Bytes())
		}
	}
}

func (c *contract) removeOperators(addrs ...address.Address) {
	for _, addr := range addrs {
		for i, op := range c.Operators {
			if bytes.Equal(op, addr.Bytes()) {
				c.Operators = append(c.Operators[:i], c.Operators[i+1:]...)
				break
			}
		}
	}
}

// GetConfig returns the engine parameters together with the current round
func (p *Protocol) GetConfig(_ context.Context, sr protocol.StateReader) (*ContractConfig, error) {
	c, err := p.contract(sr)
	if err != nil {
		return nil, err
	}
	owner, err := address.FromBytes(c.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode owner")
	}
	cfg := ContractConfig{
		Version:         version.PackageVersion,
		Owner:           owner,
		FeePoint:        c.FeePoint,
		FeeAmount:       c.FeeAmount,
		DefaultDuration: c.DefaultDuration,
		DefaultVoteCost: c.DefaultVoteCost,
		CurrentRoundID:  c.CurrentRoundID,
	}
	for _, op := range c.Operators {
		addr, err := address.FromBytes(op)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode operator")
		}
		cfg.Operators = append(cfg.Operators, addr)
	}
	round, err := p.round(sr, c.CurrentRoundID)
	switch errors.Cause(err) {
	case nil:
		cfg.CurrentRound = round
	case ErrNotFound:
	default:
		return nil, err
	}
	return &cfg, nil
}

// SetConfig updates the supplied engine parameters, restricted to the owner and operators
func (p *Protocol) SetConfig(ctx context.Context, sm protocol.StateManager, act *action.SetConfig) error {
	c, err := p.assertOwnerOrOperator(ctx, sm)
	if err != nil {
		return err
	}
	if act.FeePoint != nil {
		c.FeePoint = *act.FeePoint
	}
	if act.DefaultDuration != nil {
		c.DefaultDuration = *act.DefaultDuration
	}
	if act.DefaultVoteCost != nil {
		if _, err := toU256(act.DefaultVoteCost); err != nil {
			return err
		}
		c.DefaultVoteCost = new(big.Int).Set(act.DefaultVoteCost)
	}
	return p.putState(sm, _contractNS, _contractKey, c)
}

// SetOwner transfers the ownership, restricted to the owner with exactly one unit attached
func (p *Protocol) SetOwner(ctx context.Context, sm protocol.StateManager, owner address.Address) error {
	c, err := p.assertOwnerWithPayment(ctx, sm)
	if err != nil {
		return err
	}
	log.L().Info("Transfer grant ownership.", zap.String("owner", owner.String()))
	c.setOwner(owner)
	return p.putState(sm, _contractNS, _contractKey, c)
}

// ExtendOperators grants the operator capability, restricted to the owner with exactly one unit attached
func (p *Protocol) ExtendOperators(ctx context.Context, sm protocol.StateManager, operators []address.Address) error {
	c, err := p.assertOwnerWithPayment(ctx, sm)
	if err != nil {
		return err
	}
	c.addOperators(operators...)
	return p.putState(sm, _contractNS, _contractKey, c)
}

// RemoveOperators revokes the operator capability, restricted to the owner with exactly one unit attached
func (p *Protocol) RemoveOperators(ctx context.Context, sm protocol.StateManager, operators []address.Address) error {
	c, err := p.assertOwnerWithPayment(ctx, sm)
	if err != nil {
		return err
	}
	c.removeOperators(operators...)
	return p.putState(sm, _contractNS, _contractKey, c)
}

func (p *Protocol) contract(sr protocol.StateReader) (*contract, error) {
	c := contract{}
	if err := p.state(sr, _contractNS, _contractKey, &c); err != nil {
		return nil, errors.Wrap(err, "failed to load grant contract")
	}
	return &c, nil
}

func (p *Protocol) assertOwnerOrOperator(ctx context.Context, sr protocol.StateReader) (*contract, error) {
	c, err := p.contract(sr)
	if err != nil {
		return nil, err
	}
	caller := protocol.MustGetActionCtx(ctx).Caller
	if !c.isOwner(caller) && !c.isOperator(caller) {
		return nil, errors.Wrapf(ErrUnauthorized, "%s is neither owner nor operator", caller)
	}
	return c, nil
}

func (p *Protocol) assertOwner(ctx context.Context, sr protocol.StateReader) (*contract, error) {
	c, err := p.contract(sr)
	if err != nil {
		return nil, err
	}
	caller := protocol.MustGetActionCtx(ctx).Caller
	if !c.isOwner(caller) {
		return nil, errors.Wrapf(ErrUnauthorized, "%s is not the owner", caller)
	}
	return c, nil
}

// assertOwnerWithPayment requires the owner and exactly one base unit attached as confirmation
func (p *Protocol) assertOwnerWithPayment(ctx context.Context, sr protocol.StateReader) (*contract, error) {
	c, err := p.assertOwner(ctx, sr)
	if err != nil {
		return nil, err
	}
	if deposit := protocol.MustGetActionCtx(ctx).AttachedDeposit(); deposit.Cmp(big.NewInt(1)) != 0 {
		return nil, errors.Wrapf(ErrUnauthorized, "requires attached deposit of exactly 1, got %s", deposit)
	}
	return c, nil
}
