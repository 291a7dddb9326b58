// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/test/identityset"
)

func TestVote(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	now := env.unix()

	_, err := env.p.CreateRound(env.ctx(0, 0), env.sm, now, now+100)
	require.NoError(err)
	_, err = env.p.CreateProject(env.ctx(2, 0), env.sm, &action.CreateProject{Title: "P"})
	require.NoError(err)
	id := ProjectID{RoundID: 1, Owner: identityset.Address(2)}

	// first voter adds no support area
	project, logs, err := env.p.Vote(env.ctx(3, 5), env.sm, id, 2)
	require.NoError(err)
	require.Equal(big.NewInt(2).String(), project.TotalVotes.String())
	require.Zero(project.SupportArea.Sign())
	require.Equal(big.NewInt(3).String(), project.Grants.String())
	require.Len(logs, 1)
	require.Equal(big.NewInt(2).String(), logs[0].Amount.String())

	// second voter is weighted by the votes of others
	project, _, err = env.p.Vote(env.ctx(4, 1), env.sm, id, 1)
	require.NoError(err)
	require.Equal(big.NewInt(3).String(), project.TotalVotes.String())
	require.Equal(big.NewInt(2).String(), project.SupportArea.String())
	round, err := env.p.Round(context.Background(), env.sm, 1)
	require.NoError(err)
	require.Equal(big.NewInt(2).String(), round.SupportArea.String())

	// the next units of a voter are priced after its own history
	project, logs, err = env.p.Vote(env.ctx(3, 7), env.sm, id, 2)
	require.NoError(err)
	require.Equal(big.NewInt(5).String(), project.TotalVotes.String())
	// 2 * (3 - 2)
	require.Equal(big.NewInt(4).String(), project.SupportArea.String())
	require.Equal(big.NewInt(3+1+7).String(), project.Grants.String())
	require.Zero(logs[0].Amount.Sign())

	entries, err := env.p.VotesOf(context.Background(), env.sm, identityset.Address(3))
	require.NoError(err)
	require.Len(entries, 1)
	require.Equal(uint64(1), entries[0].Project.RoundID)
	require.Equal(id.Owner.String(), entries[0].Project.Owner.String())
	require.Equal(big.NewInt(4).String(), entries[0].Votes.String())
	require.Equal(big.NewInt(10).String(), entries[0].Grants.String())
	entries, err = env.p.VotesOf(context.Background(), env.sm, identityset.Address(7))
	require.NoError(err)
	require.Empty(entries)
}

func TestVoteFee(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	require.NoError(env.p.SetConfig(env.ctx(0, 0), env.sm, &action.SetConfig{DefaultVoteCost: big.NewInt(1000)}))
	_, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	_, err = env.p.CreateProject(env.ctx(2, 0), env.sm, &action.CreateProject{})
	require.NoError(err)
	id := ProjectID{RoundID: 1, Owner: identityset.Address(2)}

	project, _, err := env.p.Vote(env.ctx(3, 1000), env.sm, id, 1)
	require.NoError(err)
	require.Equal(big.NewInt(950).String(), project.Grants.String())
	cfg, err := env.p.GetConfig(ctx, env.sm)
	require.NoError(err)
	require.Equal(big.NewInt(50).String(), cfg.FeeAmount.String())

	// the vote fee rounds down in the voter's favor
	require.NoError(env.p.SetConfig(env.ctx(0, 0), env.sm, &action.SetConfig{FeePoint: uint64Ptr(1)}))
	project, _, err = env.p.Vote(env.ctx(4, 1000), env.sm, id, 1)
	require.NoError(err)
	require.Equal(big.NewInt(950+1000).String(), project.Grants.String())
	cfg, err = env.p.GetConfig(ctx, env.sm)
	require.NoError(err)
	require.Equal(big.NewInt(50).String(), cfg.FeeAmount.String())
}

func TestVoteDeposit(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.StoragePricePerByte = big.NewInt(2)
	env := newTestEnv(t, cfg)
	_, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	_, err = env.p.CreateProject(env.ctx(2, 0), env.sm, &action.CreateProject{})
	require.NoError(err)
	id := ProjectID{RoundID: 1, Owner: identityset.Address(2)}

	// cost 6 plus 10 bytes of storage at price 2
	env.usage = 10
	_, _, err = env.p.Vote(env.ctx(3, 25), env.sm, id, 3)
	require.Equal(ErrInsufficientFunds, errors.Cause(err))
	_, logs, err := env.p.Vote(env.ctx(4, 30), env.sm, id, 3)
	require.NoError(err)
	require.Equal(big.NewInt(4).String(), logs[0].Amount.String())

	// shrinking state is not credited
	env.usage = -100
	_, logs, err = env.p.Vote(env.ctx(5, 1), env.sm, id, 1)
	require.NoError(err)
	require.Zero(logs[0].Amount.Sign())
}

func TestVoteRoundChecks(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	id := ProjectID{RoundID: 1, Owner: identityset.Address(2)}

	_, _, err := env.p.Vote(env.ctx(3, 100), env.sm, id, 1)
	require.Equal(ErrRoundMismatch, errors.Cause(err))

	start := env.unix()
	_, err = env.p.CreateRound(env.ctx(0, 0), env.sm, start, start+100)
	require.NoError(err)
	_, _, err = env.p.Vote(env.ctx(3, 100), env.sm, id, 1)
	require.Equal(ErrNotFound, errors.Cause(err))
	_, err = env.p.CreateProject(env.ctx(2, 0), env.sm, &action.CreateProject{})
	require.NoError(err)

	env.advance(101)
	_, _, err = env.p.Vote(env.ctx(3, 100), env.sm, id, 1)
	require.Equal(ErrRoundWindow, errors.Cause(err))

	// round 1 is inside its window again but no longer current
	_, err = env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	env.now = _genesisTime
	_, _, err = env.p.Vote(env.ctx(3, 100), env.sm, id, 1)
	require.Equal(ErrRoundMismatch, errors.Cause(err))
}

func TestVoteOverflow(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	big127 := new(big.Int).Lsh(big.NewInt(1), 127)

	require.NoError(env.p.SetConfig(env.ctx(0, 0), env.sm, &action.SetConfig{DefaultVoteCost: big127}))
	_, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	_, err = env.p.CreateProject(env.ctx(2, 0), env.sm, &action.CreateProject{})
	require.NoError(err)
	id := ProjectID{RoundID: 1, Owner: identityset.Address(2)}

	// weight 3 at 2^127 each exceeds 128 bits
	_, _, err = env.p.Vote(env.ctx(3, 100), env.sm, id, 2)
	require.Equal(ErrOverflow, errors.Cause(err))
	project, err := env.p.Project(context.Background(), env.sm, id)
	require.NoError(err)
	require.Zero(project.TotalVotes.Sign())
}
