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

func TestProjectID(t *testing.T) {
	require := require.New(t)

	id := ProjectID{RoundID: 3, Owner: identityset.Address(2)}
	parsed, err := ParseProjectID(id.String())
	require.NoError(err)
	require.Equal(id.RoundID, parsed.RoundID)
	require.Equal(id.Owner.String(), parsed.Owner.String())

	for _, s := range []string{"", "3", "x:" + id.Owner.String(), "3:io1invalid"} {
		_, err := ParseProjectID(s)
		require.Equal(ErrInvalidArgument, errors.Cause(err), s)
	}
}

func TestCreateProject(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	act := &action.CreateProject{Title: "name", Description: "desc", URL: "https://x.io", Image: "img"}

	// registration needs a round
	_, err := env.p.CreateProject(env.ctx(2, 0), env.sm, act)
	require.Equal(ErrNotFound, errors.Cause(err))

	_, err = env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	project, err := env.p.CreateProject(env.ctx(2, 0), env.sm, act)
	require.NoError(err)
	require.Equal(uint64(1), project.RoundID)
	require.Equal(identityset.Address(2).String(), project.Owner.String())
	require.Equal(env.unix(), project.CreatedAt)

	_, err = env.p.CreateProject(env.ctx(2, 0), env.sm, act)
	require.Equal(ErrStateConflict, errors.Cause(err))

	got, err := env.p.Project(context.Background(), env.sm, project.ProjectID)
	require.NoError(err)
	require.Equal("name", got.Name)
	require.Equal("desc", got.Description)
	require.Equal("https://x.io", got.URL)
	require.Equal("img", got.Image)
	require.Zero(got.TotalVotes.Sign())
	require.Zero(got.Withdrawn.Sign())

	// registration after the window closes is accepted
	env.advance(101)
	_, err = env.p.CreateProject(env.ctx(3, 0), env.sm, act)
	require.NoError(err)

	_, err = env.p.Project(context.Background(), env.sm, ProjectID{RoundID: 1, Owner: identityset.Address(9)})
	require.Equal(ErrNotFound, errors.Cause(err))
}

func TestProjectListing(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	// identity 2 registers in every round, identity 3 in the second one only
	for i := 0; i < 3; i++ {
		_, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
		require.NoError(err)
		_, err = env.p.CreateProject(env.ctx(2, 0), env.sm, &action.CreateProject{Title: "p"})
		require.NoError(err)
		if i == 1 {
			_, err = env.p.CreateProject(env.ctx(3, 0), env.sm, &action.CreateProject{Title: "q"})
			require.NoError(err)
		}
		env.advance(101)
	}

	projects, err := env.p.Projects(ctx, env.sm, 0, 0)
	require.NoError(err)
	require.Len(projects, 4)
	for i := 1; i < len(projects); i++ {
		require.LessOrEqual(projects[i-1].RoundID, projects[i].RoundID)
	}
	projects, err = env.p.Projects(ctx, env.sm, 2, 1)
	require.NoError(err)
	require.Len(projects, 2)
	require.Equal(uint64(2), projects[0].RoundID)
	require.Equal(uint64(2), projects[1].RoundID)

	projects, err = env.p.ProjectsForOwner(ctx, env.sm, identityset.Address(2), 0, 0)
	require.NoError(err)
	require.Len(projects, 3)
	for i, project := range projects {
		require.Equal(uint64(i+1), project.RoundID)
	}
	projects, err = env.p.ProjectsForOwner(ctx, env.sm, identityset.Address(2), 1, 2)
	require.NoError(err)
	require.Len(projects, 1)
	require.Equal(uint64(3), projects[0].RoundID)
	projects, err = env.p.ProjectsForOwner(ctx, env.sm, identityset.Address(3), 0, 0)
	require.NoError(err)
	require.Len(projects, 1)
	require.Equal("q", projects[0].Name)
	projects, err = env.p.ProjectsForOwner(ctx, env.sm, identityset.Address(4), 0, 0)
	require.NoError(err)
	require.Empty(projects)

	projects, err = env.p.ProjectsInRound(ctx, env.sm, 2, 0, 0)
	require.NoError(err)
	require.Len(projects, 2)
	projects, err = env.p.ProjectsInRound(ctx, env.sm, 3, 0, 0)
	require.NoError(err)
	require.Len(projects, 1)
	projects, err = env.p.ProjectsInRound(ctx, env.sm, 4, 0, 0)
	require.NoError(err)
	require.Empty(projects)
}

// fundedRound runs a round with a donation and two voted projects, then closes it
func fundedRound(t *testing.T, env *testEnv) (ProjectID, ProjectID) {
	require := require.New(t)
	_, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	p1 := ProjectID{RoundID: 1, Owner: identityset.Address(2)}
	p2 := ProjectID{RoundID: 1, Owner: identityset.Address(3)}
	for _, id := range []ProjectID{p1, p2} {
		_, err = env.p.CreateProject(env.ctx(identityIndex(t, id), 0), env.sm, &action.CreateProject{Title: "p"})
		require.NoError(err)
	}
	_, err = env.p.Donate(env.ctx(9, 1000), env.sm)
	require.NoError(err)
	// p1 gets area 2 and p2 gets area 1
	for _, v := range []struct {
		voter int
		id    ProjectID
		units uint64
	}{
		{4, p1, 2},
		{5, p1, 1},
		{4, p2, 1},
		{5, p2, 1},
	} {
		_, _, err = env.p.Vote(env.ctx(v.voter, 100), env.sm, v.id, v.units)
		require.NoError(err)
	}
	return p1, p2
}

func identityIndex(t *testing.T, id ProjectID) int {
	for i := 0; i < identityset.Size(); i++ {
		if identityset.Address(i).String() == id.Owner.String() {
			return i
		}
	}
	t.Fatalf("unknown identity %s", id.Owner)
	return -1
}

func TestComputeShare(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	p1, p2 := fundedRound(t, env)
	ctx := env.ctx(0, 0)

	// nothing is withdrawable while the round is current and active
	withdrawable, total, err := env.p.ComputeShare(ctx, env.sm, p1)
	require.NoError(err)
	require.Zero(withdrawable.Sign())
	require.Zero(total.Sign())

	env.advance(101)
	ctx = env.ctx(0, 0)
	round, err := env.p.Round(ctx, env.sm, 1)
	require.NoError(err)
	require.Equal(big.NewInt(950).String(), round.SupportPool.String())
	require.Equal(big.NewInt(3).String(), round.SupportArea.String())

	// grants are 4 and 2, pool shares are 950*2/3 and 950*1/3
	withdrawable, total, err = env.p.ComputeShare(ctx, env.sm, p1)
	require.NoError(err)
	require.Equal(big.NewInt(4+633).String(), total.String())
	require.Equal(total.String(), withdrawable.String())
	_, total2, err := env.p.ComputeShare(ctx, env.sm, p2)
	require.NoError(err)
	require.Equal(big.NewInt(1+1+316).String(), total2.String())
	require.LessOrEqual(int64(633+316), round.SupportPool.Int64())

	_, _, err = env.p.ComputeShare(ctx, env.sm, ProjectID{RoundID: 1, Owner: identityset.Address(8)})
	require.Equal(ErrNotFound, errors.Cause(err))
}

func TestWithdraw(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	p1, _ := fundedRound(t, env)

	_, _, err := env.p.Withdraw(env.ctx(7, 0), env.sm, p1, big.NewInt(1))
	require.Equal(ErrInsufficientFunds, errors.Cause(err))

	env.advance(101)
	// anyone may trigger the payout, the owner is paid
	project, logs, err := env.p.Withdraw(env.ctx(7, 0), env.sm, p1, big.NewInt(600))
	require.NoError(err)
	require.Equal(big.NewInt(600).String(), project.Withdrawn.String())
	require.Len(logs, 1)
	require.Equal(action.GrantWithdrawLog, logs[0].Type)
	require.Equal(big.NewInt(600).String(), logs[0].Amount.String())
	require.Equal(p1.Owner.String(), logs[0].Recipient)

	_, _, err = env.p.Withdraw(env.ctx(2, 0), env.sm, p1, big.NewInt(38))
	require.Equal(ErrInsufficientFunds, errors.Cause(err))
	project, err = env.p.Project(context.Background(), env.sm, p1)
	require.NoError(err)
	require.Equal(big.NewInt(600).String(), project.Withdrawn.String())

	_, _, err = env.p.Withdraw(env.ctx(2, 0), env.sm, p1, big.NewInt(37))
	require.NoError(err)
	withdrawable, total, err := env.p.ComputeShare(env.ctx(2, 0), env.sm, p1)
	require.NoError(err)
	require.Zero(withdrawable.Sign())
	require.Equal(big.NewInt(637).String(), total.String())

	_, _, err = env.p.Withdraw(env.ctx(2, 0), env.sm, ProjectID{RoundID: 1, Owner: identityset.Address(8)}, big.NewInt(1))
	require.Equal(ErrNotFound, errors.Cause(err))
}

func TestWithdrawAfterNextRound(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, testConfig())
	p1, _ := fundedRound(t, env)

	// a superseded round resolves its shares
	env.advance(101)
	_, err := env.p.CreateDefaultRound(env.ctx(0, 0), env.sm)
	require.NoError(err)
	withdrawable, _, err := env.p.ComputeShare(env.ctx(0, 0), env.sm, p1)
	require.NoError(err)
	require.Equal(big.NewInt(637).String(), withdrawable.String())
}
