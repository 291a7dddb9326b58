// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/pkg/util/byteutil"
	"github.com/iotexproject/iotex-grant/state"
)

type (
	// Round is a time-boxed funding cycle with a fixed vote price and its own donation pool
	Round struct {
		ID        uint64
		CreatedAt uint64
		StartAt   uint64
		EndAt     uint64
		Status    action.RoundStatus
		// VoteCost is the price of one vote unit, fixed at creation
		VoteCost *big.Int
		// SupportPool is the fee-netted donations
		SupportPool *big.Int
		// PureSupportPool is the gross donations
		PureSupportPool *big.Int
		// SupportArea is the sum of the support area of the round's projects
		SupportArea *big.Int
	}

	// RoundWithProjects pairs a round with its number of registered projects
	RoundWithProjects struct {
		*Round
		ProjectCount uint64
	}
)

// Serialize serializes round state into bytes
func (r *Round) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// Deserialize deserializes bytes into round state
func (r *Round) Deserialize(data []byte) error {
	return rlp.DecodeBytes(data, r)
}

// IsActive returns whether the round accepts votes and donations at the given unix time
func (r *Round) IsActive(now uint64) bool {
	return r.Status == action.RoundActive && r.StartAt <= now && now <= r.EndAt
}

func roundKey(id uint64) []byte {
	return byteutil.Uint64ToBytesBigEndian(id)
}

// CreateRound opens the next round, restricted to the owner and operators. It fails while the
// current round is active.
func (p *Protocol) CreateRound(ctx context.Context, sm protocol.StateManager, startAt, endAt uint64) (*Round, error) {
	c, err := p.assertOwnerOrOperator(ctx, sm)
	if err != nil {
		return nil, err
	}
	if startAt >= endAt {
		return nil, errors.Wrapf(ErrInvalidArgument, "start %d is not before end %d", startAt, endAt)
	}
	now := protocol.MustGetBlockCtx(ctx).Now()
	current, err := p.round(sm, c.CurrentRoundID)
	switch errors.Cause(err) {
	case nil:
		if current.IsActive(now) {
			return nil, errors.Wrapf(ErrStateConflict, "round %d is already active", current.ID)
		}
	case ErrNotFound:
	default:
		return nil, err
	}
	c.CurrentRoundID++
	round := &Round{
		ID:              c.CurrentRoundID,
		CreatedAt:       now,
		StartAt:         startAt,
		EndAt:           endAt,
		Status:          action.RoundActive,
		VoteCost:        new(big.Int).Set(c.DefaultVoteCost),
		SupportPool:     big.NewInt(0),
		PureSupportPool: big.NewInt(0),
		SupportArea:     big.NewInt(0),
	}
	if err := p.putState(sm, _roundNS, roundKey(round.ID), round); err != nil {
		return nil, err
	}
	if err := p.putState(sm, _contractNS, _contractKey, c); err != nil {
		return nil, err
	}
	log.L().Debug("Create grant round.",
		zap.Uint64("round", round.ID),
		zap.Uint64("startAt", startAt),
		zap.Uint64("endAt", endAt))
	return round, nil
}

// CreateDefaultRound opens a round starting now and lasting the default duration
func (p *Protocol) CreateDefaultRound(ctx context.Context, sm protocol.StateManager) (*Round, error) {
	c, err := p.contract(sm)
	if err != nil {
		return nil, err
	}
	now := protocol.MustGetBlockCtx(ctx).Now()
	return p.CreateRound(ctx, sm, now, now+c.DefaultDuration)
}

// UpdateCurrentRound overrides the supplied fields of the current round, restricted to the owner
func (p *Protocol) UpdateCurrentRound(ctx context.Context, sm protocol.StateManager, act *action.UpdateCurrentRound) (*Round, error) {
	c, err := p.assertOwner(ctx, sm)
	if err != nil {
		return nil, err
	}
	if !act.Confirmed {
		return nil, errors.Wrap(ErrInvalidArgument, action.ErrNoConfirmation.Error())
	}
	round, err := p.round(sm, c.CurrentRoundID)
	if err != nil {
		return nil, err
	}
	if act.Status != nil {
		round.Status = *act.Status
	}
	if act.StartAt != nil {
		round.StartAt = *act.StartAt
	}
	if act.EndAt != nil {
		round.EndAt = *act.EndAt
	}
	if round.StartAt > round.EndAt {
		return nil, errors.Wrapf(ErrInvalidArgument, "start %d is after end %d", round.StartAt, round.EndAt)
	}
	log.L().Warn("Override current grant round.",
		zap.Uint64("round", round.ID),
		zap.Stringer("status", round.Status),
		zap.Uint64("startAt", round.StartAt),
		zap.Uint64("endAt", round.EndAt))
	return round, p.putState(sm, _roundNS, roundKey(round.ID), round)
}

// FinishRound closes the current round, restricted to the owner and operators. A round cannot be
// finished inside its active window.
func (p *Protocol) FinishRound(ctx context.Context, sm protocol.StateManager) (*Round, error) {
	c, err := p.assertOwnerOrOperator(ctx, sm)
	if err != nil {
		return nil, err
	}
	round, err := p.round(sm, c.CurrentRoundID)
	if err != nil {
		return nil, err
	}
	if round.IsActive(protocol.MustGetBlockCtx(ctx).Now()) {
		return nil, errors.Wrapf(ErrStateConflict, "round %d is still active", round.ID)
	}
	round.Status = action.RoundFinished
	return round, p.putState(sm, _roundNS, roundKey(round.ID), round)
}

// Donate adds the attached deposit to the support pool of the current round, net of the platform fee
func (p *Protocol) Donate(ctx context.Context, sm protocol.StateManager) (*Round, error) {
	c, err := p.contract(sm)
	if err != nil {
		return nil, err
	}
	round, err := p.round(sm, c.CurrentRoundID)
	if err != nil {
		return nil, err
	}
	if !round.IsActive(protocol.MustGetBlockCtx(ctx).Now()) {
		return nil, errors.Wrapf(ErrRoundWindow, "round %d", round.ID)
	}
	deposit := protocol.MustGetActionCtx(ctx).AttachedDeposit()
	fee, net, err := splitFee(deposit, c.FeePoint)
	if err != nil {
		return nil, err
	}
	if round.SupportPool, err = addAmount(round.SupportPool, net); err != nil {
		return nil, err
	}
	if round.PureSupportPool, err = addAmount(round.PureSupportPool, deposit); err != nil {
		return nil, err
	}
	if c.FeeAmount, err = addAmount(c.FeeAmount, fee); err != nil {
		return nil, err
	}
	if err := p.putState(sm, _roundNS, roundKey(round.ID), round); err != nil {
		return nil, err
	}
	return round, p.putState(sm, _contractNS, _contractKey, c)
}

// Round returns the round of the id
func (p *Protocol) Round(_ context.Context, sr protocol.StateReader, id uint64) (*Round, error) {
	return p.round(sr, id)
}

// Rounds returns a page of rounds in ascending id order, each with its project count
func (p *Protocol) Rounds(_ context.Context, sr protocol.StateReader, limit, offset uint64) ([]*RoundWithProjects, error) {
	iter, err := p.states(sr, _roundNS, nil)
	if err != nil {
		return nil, err
	}
	n := iter.Page(limit, offset)
	rounds := make([]*RoundWithProjects, 0, n)
	for i := 0; i < n; i++ {
		round := &Round{}
		if _, err := iter.Next(round); err != nil {
			return nil, errors.Wrap(err, "failed to read round")
		}
		count, err := p.projectCount(sr, round.ID)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, &RoundWithProjects{Round: round, ProjectCount: count})
	}
	return rounds, nil
}

func (p *Protocol) round(sr protocol.StateReader, id uint64) (*Round, error) {
	round := Round{}
	err := p.state(sr, _roundNS, roundKey(id), &round)
	switch errors.Cause(err) {
	case nil:
		return &round, nil
	case state.ErrStateNotExist:
		return nil, errors.Wrapf(ErrNotFound, "round %d", id)
	default:
		return nil, err
	}
}

func (p *Protocol) projectCount(sr protocol.StateReader, roundID uint64) (uint64, error) {
	iter, err := p.states(sr, _roundProjectNS, roundKey(roundID))
	if err != nil {
		return 0, err
	}
	return uint64(iter.Size()), nil
}
