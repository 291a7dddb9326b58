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
)

func TestCreateRound(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	now := env.unix()

	_, err := env.p.CreateRound(env.ctx(5, 0), env.sm, now, now+100)
	require.Equal(ErrUnauthorized, errors.Cause(err))
	_, err = env.p.CreateRound(env.ctx(0, 0), env.sm, now+100, now)
	require.Equal(ErrInvalidArgument, errors.Cause(err))

	// operators may create rounds
	round, err := env.p.CreateRound(env.ctx(1, 0), env.sm, now, now+100)
	require.NoError(err)
	require.Equal(uint64(1), round.ID)
	require.Equal(now, round.CreatedAt)
	require.Equal(action.RoundActive, round.Status)
	require.Equal(big.NewInt(1).String(), round.VoteCost.String())
	require.True(round.IsActive(now))

	// a second round is rejected while the current one is active
	_, err = env.p.CreateRound(env.ctx(0, 0), env.sm, now, now+100)
	require.Equal(ErrStateConflict, errors.Cause(err))

	// the vote cost is fixed at creation
	require.NoError(env.p.SetConfig(env.ctx(0, 0), env.sm, &action.SetConfig{DefaultVoteCost: big.NewInt(42)}))
	env.advance(101)
	round, err = env.p.CreateRound(env.ctx(0, 0), env.sm, env.unix(), env.unix()+100)
	require.NoError(err)
	require.Equal(uint64(2), round.ID)
	require.Equal(big.NewInt(42).String(), round.VoteCost.String())
	first, err := env.p.Round(context.Background(), env.sm, 1)
	require.NoError(err)
	require.Equal(big.NewInt(1).String(), first.VoteCost.String())

	cfg, err := env.p.GetConfig(context.Background(), env.sm)
	require.NoError(err)
	require.Equal(uint64(2), cfg.CurrentRoundID)
	require.Equal(round.ID, cfg.CurrentRound.ID)
	require.Equal(round.EndAt, cfg.CurrentRound.EndAt)

	_, err = env.p.Round(context.Background(), env.sm, 3)
	require.Equal(ErrNotFound, errors.Cause(err))
}

func TestCreateDefaultRound(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())

	_, err := env.p.CreateDefaultRound(env.ctx(4, 0), env.sm)
	require.Equal(ErrUnauthorized, errors.Cause(err))
	round, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	require.Equal(env.unix(), round.StartAt)
	require.Equal(env.unix()+100, round.EndAt)
}

func TestRoundIsActive(t *testing.T) {
	require := require.New(t)
	round := &Round{Status: action.RoundActive, StartAt: 10, EndAt: 20}
	require.False(round.IsActive(9))
	require.True(round.IsActive(10))
	require.True(round.IsActive(20))
	require.False(round.IsActive(21))
	round.Status = action.RoundFinished
	require.False(round.IsActive(15))
}

func TestFinishRound(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())

	_, err := env.p.FinishRound(env.ctx(0, 0), env.sm)
	require.Equal(ErrNotFound, errors.Cause(err))
	_, err = env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)

	_, err = env.p.FinishRound(env.ctx(0, 0), env.sm)
	require.Equal(ErrStateConflict, errors.Cause(err))
	env.advance(101)
	_, err = env.p.FinishRound(env.ctx(6, 0), env.sm)
	require.Equal(ErrUnauthorized, errors.Cause(err))
	round, err := env.p.FinishRound(env.ctx(1, 0), env.sm)
	require.NoError(err)
	require.Equal(action.RoundFinished, round.Status)

	// a finished round stays finished even inside its window
	env.now = _genesisTime
	round, err = env.p.Round(context.Background(), env.sm, 1)
	require.NoError(err)
	require.False(round.IsActive(env.unix()))
}

func TestUpdateCurrentRound(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	finished := action.RoundFinished

	_, err := env.p.UpdateCurrentRound(env.ctx(0, 0), env.sm, &action.UpdateCurrentRound{Confirmed: true, Status: &finished})
	require.Equal(ErrNotFound, errors.Cause(err))
	_, err = env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)

	// operators cannot override a round
	_, err = env.p.UpdateCurrentRound(env.ctx(1, 0), env.sm, &action.UpdateCurrentRound{Confirmed: true, Status: &finished})
	require.Equal(ErrUnauthorized, errors.Cause(err))
	_, err = env.p.UpdateCurrentRound(env.ctx(0, 0), env.sm, &action.UpdateCurrentRound{Status: &finished})
	require.Equal(ErrInvalidArgument, errors.Cause(err))
	require.Contains(err.Error(), action.ErrNoConfirmation.Error())

	start := env.unix() + 500
	_, err = env.p.UpdateCurrentRound(env.ctx(0, 0), env.sm, &action.UpdateCurrentRound{Confirmed: true, StartAt: &start})
	require.Equal(ErrInvalidArgument, errors.Cause(err))

	end := env.unix() + 1000
	round, err := env.p.UpdateCurrentRound(env.ctx(0, 0), env.sm, &action.UpdateCurrentRound{Confirmed: true, StartAt: &start, EndAt: &end})
	require.NoError(err)
	require.Equal(start, round.StartAt)
	require.Equal(end, round.EndAt)
	require.Equal(action.RoundActive, round.Status)

	round, err = env.p.UpdateCurrentRound(env.ctx(0, 0), env.sm, &action.UpdateCurrentRound{Confirmed: true, Status: &finished})
	require.NoError(err)
	require.Equal(action.RoundFinished, round.Status)
	require.Equal(start, round.StartAt)

	// an overridden round no longer blocks a new one
	_, err = env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
}

func TestDonate(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())

	_, err := env.p.Donate(env.ctx(3, 1000), env.sm)
	require.Equal(ErrNotFound, errors.Cause(err))
	_, err = env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)

	round, err := env.p.Donate(env.ctx(3, 1000), env.sm)
	require.NoError(err)
	require.Equal(big.NewInt(950).String(), round.SupportPool.String())
	require.Equal(big.NewInt(1000).String(), round.PureSupportPool.String())
	round, err = env.p.Donate(env.ctx(4, 19), env.sm)
	require.NoError(err)
	require.Equal(big.NewInt(969).String(), round.SupportPool.String())
	require.Equal(big.NewInt(1019).String(), round.PureSupportPool.String())

	cfg, err := env.p.GetConfig(context.Background(), env.sm)
	require.NoError(err)
	require.Equal(big.NewInt(50).String(), cfg.FeeAmount.String())

	env.advance(101)
	_, err = env.p.Donate(env.ctx(3, 1000), env.sm)
	require.Equal(ErrRoundWindow, errors.Cause(err))
}

func TestRounds(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())

	rounds, err := env.p.Rounds(context.Background(), env.sm, 0, 0)
	require.NoError(err)
	require.Empty(rounds)

	for i := 0; i < 3; i++ {
		_, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
		require.NoError(err)
		for j := 0; j <= i; j++ {
			_, err := env.p.CreateProject(env.ctx(2+j, 0), env.sm, &action.CreateProject{Title: "p"})
			require.NoError(err)
		}
		env.advance(101)
	}

	rounds, err = env.p.Rounds(context.Background(), env.sm, 0, 0)
	require.NoError(err)
	require.Len(rounds, 3)
	for i, r := range rounds {
		require.Equal(uint64(i+1), r.ID)
		require.Equal(uint64(i+1), r.ProjectCount)
	}

	rounds, err = env.p.Rounds(context.Background(), env.sm, 1, 1)
	require.NoError(err)
	require.Len(rounds, 1)
	require.Equal(uint64(2), rounds[0].ID)

	rounds, err = env.p.Rounds(context.Background(), env.sm, 10, 3)
	require.NoError(err)
	require.Empty(rounds)
}
