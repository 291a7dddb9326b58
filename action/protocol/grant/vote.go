// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/pkg/util/byteutil"
	"github.com/iotexproject/iotex-grant/state"
)

type (
	// voterRecord is a voter's history on one project
	voterRecord struct {
		Votes  *big.Int
		Grants *big.Int
	}

	// VoterEntry is a voter's cumulative votes on a project and the grant credited by them
	VoterEntry struct {
		Project ProjectID
		Votes   *big.Int
		Grants  *big.Int
	}
)

func (v *voterRecord) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

func (v *voterRecord) Deserialize(data []byte) error {
	return rlp.DecodeBytes(data, v)
}

func voterKey(voter address.Address, id ProjectID) []byte {
	return append(voter.Bytes(), id.key()...)
}

// Vote buys units of quadratically priced votes for the project with the attached deposit. The net cost
// is granted to the project, the unspent deposit is refunded to the voter.
func (p *Protocol) Vote(ctx context.Context, sm protocol.StateManager, id ProjectID, units uint64) (*Project, []*action.TransactionLog, error) {
	var (
		actCtx = protocol.MustGetActionCtx(ctx)
		now    = protocol.MustGetBlockCtx(ctx).Now()
	)
	c, err := p.contract(sm)
	if err != nil {
		return nil, nil, err
	}
	round, err := p.round(sm, id.RoundID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil, errors.Wrapf(ErrRoundMismatch, "round %d does not exist", id.RoundID)
		}
		return nil, nil, err
	}
	if !round.IsActive(now) {
		return nil, nil, errors.Wrapf(ErrRoundWindow, "round %d", round.ID)
	}
	if round.ID != c.CurrentRoundID {
		return nil, nil, errors.Wrapf(ErrRoundMismatch, "round %d is not the current round %d", round.ID, c.CurrentRoundID)
	}
	project, err := p.project(sm, id)
	if err != nil {
		return nil, nil, err
	}
	record, err := p.voterRecord(sm, actCtx.Caller, id)
	if err != nil {
		return nil, nil, err
	}

	weight, err := voteWeight(units, record.Votes)
	if err != nil {
		return nil, nil, err
	}
	cost, err := mulAmount(weight, round.VoteCost)
	if err != nil {
		return nil, nil, err
	}
	fee, grant, err := splitFee(cost, c.FeePoint)
	if err != nil {
		return nil, nil, err
	}
	others := new(big.Int).Sub(project.TotalVotes, record.Votes)
	if others.Sign() < 0 {
		return nil, nil, errors.Errorf("voter has %s votes on project %s of %s in total", record.Votes, id, project.TotalVotes)
	}
	areaDelta, err := mulAmount(new(big.Int).SetUint64(units), others)
	if err != nil {
		return nil, nil, err
	}
	n := new(big.Int).SetUint64(units)

	if c.FeeAmount, err = addAmount(c.FeeAmount, fee); err != nil {
		return nil, nil, err
	}
	if record.Votes, err = addAmount(record.Votes, n); err != nil {
		return nil, nil, err
	}
	if record.Grants, err = addAmount(record.Grants, grant); err != nil {
		return nil, nil, err
	}
	if project.TotalVotes, err = addAmount(project.TotalVotes, n); err != nil {
		return nil, nil, err
	}
	if project.SupportArea, err = addAmount(project.SupportArea, areaDelta); err != nil {
		return nil, nil, err
	}
	if project.Grants, err = addAmount(project.Grants, grant); err != nil {
		return nil, nil, err
	}
	if round.SupportArea, err = addAmount(round.SupportArea, areaDelta); err != nil {
		return nil, nil, err
	}
	for _, w := range []struct {
		ns    string
		key   []byte
		value interface{}
	}{
		{_contractNS, _contractKey, c},
		{_voterNS, voterKey(actCtx.Caller, id), record},
		{_projectNS, id.key(), project},
		{_roundNS, roundKey(round.ID), round},
	} {
		if err := p.putState(sm, w.ns, w.key, w.value); err != nil {
			return nil, nil, err
		}
	}

	// the voter pays for the state this vote adds
	usage := sm.StorageUsage()
	if usage < 0 {
		usage = 0
	}
	storageCost, err := mulAmount(big.NewInt(usage), p.cfg.StoragePricePerByte)
	if err != nil {
		return nil, nil, err
	}
	required, err := addAmount(cost, storageCost)
	if err != nil {
		return nil, nil, err
	}
	deposit := actCtx.AttachedDeposit()
	if required.Cmp(deposit) > 0 {
		return nil, nil, errors.Wrapf(ErrInsufficientFunds, "vote requires %s, attached %s", required, deposit)
	}
	log.L().Debug("Vote grant project.",
		zap.Stringer("project", id),
		zap.String("voter", actCtx.Caller.String()),
		zap.Uint64("units", units),
		zap.String("cost", cost.String()),
		zap.String("storageCost", storageCost.String()))
	return project, []*action.TransactionLog{{
		Type:      action.DepositRefundLog,
		Amount:    deposit.Sub(deposit, required),
		Recipient: actCtx.Caller.String(),
	}}, nil
}

// VotesOf returns the voter's history on every project it voted, ordered by round and project owner
func (p *Protocol) VotesOf(_ context.Context, sr protocol.StateReader, voter address.Address) ([]*VoterEntry, error) {
	prefix := voter.Bytes()
	iter, err := p.states(sr, _voterNS, prefix)
	if err != nil {
		return nil, err
	}
	entries := make([]*VoterEntry, 0, iter.Size())
	for i := 0; i < iter.Size(); i++ {
		record := voterRecord{}
		key, err := iter.Next(&record)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read voter record")
		}
		if len(key) <= len(prefix)+_roundKeyLen {
			return nil, errors.Errorf("malformed voter key %x", key)
		}
		owner, err := address.FromBytes(key[len(prefix)+_roundKeyLen:])
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse voter key")
		}
		entries = append(entries, &VoterEntry{
			Project: ProjectID{
				RoundID: byteutil.BytesToUint64BigEndian(key[len(prefix) : len(prefix)+_roundKeyLen]),
				Owner:   owner,
			},
			Votes:  record.Votes,
			Grants: record.Grants,
		})
	}
	return entries, nil
}

func (p *Protocol) voterRecord(sr protocol.StateReader, voter address.Address, id ProjectID) (*voterRecord, error) {
	record := voterRecord{}
	err := p.state(sr, _voterNS, voterKey(voter, id), &record)
	switch errors.Cause(err) {
	case nil:
		return &record, nil
	case state.ErrStateNotExist:
		return &voterRecord{Votes: big.NewInt(0), Grants: big.NewInt(0)}, nil
	default:
		return nil, err
	}
}
