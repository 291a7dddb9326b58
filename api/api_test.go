// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol/grant"
	"github.com/iotexproject/iotex-grant/bank"
	"github.com/iotexproject/iotex-grant/config"
	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/pkg/lifecycle"
	"github.com/iotexproject/iotex-grant/state/factory"
	"github.com/iotexproject/iotex-grant/test/identityset"
)

type testServer struct {
	t       *testing.T
	svr     *Server
	handler http.Handler
	clk     *clock.Mock
	ledger  *bank.Ledger
}

func newTestServer(t *testing.T, maxConcurrency int64) *testServer {
	require := require.New(t)
	clk := clock.NewMock()
	clk.Add(1700000000 * time.Second)
	ledger := bank.NewLedger(db.NewMemKVStore())
	sf, err := factory.NewFactory(db.NewMemKVStore(), ledger, factory.WithClock(clk))
	require.NoError(err)
	p, err := grant.NewProtocol(grant.Config{
		Owner:               identityset.Address(0),
		Operators:           []address.Address{identityset.Address(1)},
		FeePoint:            500,
		DefaultDuration:     100,
		DefaultVoteCost:     big.NewInt(1),
		StoragePricePerByte: big.NewInt(0),
	})
	require.NoError(err)
	require.NoError(sf.Register(p))
	require.NoError(sf.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(sf.Stop(context.Background()))
	})
	cfg := config.Default.API
	cfg.MaxConcurrentRequests = maxConcurrency
	cfg.RangeQueryLimit = 10
	svr := NewServer(cfg, sf, p)
	return &testServer{
		t:       t,
		svr:     svr,
		handler: svr.Handler(),
		clk:     clk,
		ledger:  ledger,
	}
}

// do sends the request as caller idx, a negative idx sends no caller
func (ts *testServer) do(method, path string, caller int, deposit string, body any) (int, *Response) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller >= 0 {
		req.Header.Set(CallerHeader, identityset.Address(caller).String())
	}
	if deposit != "" {
		req.Header.Set(DepositHeader, deposit)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	resp := &Response{}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), resp))
	return rec.Code, resp
}

// decodeAs re-decodes the payload of the response into v
func decodeAs(t *testing.T, payload any, v any) {
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestGrantFlow(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t, 4)
	owner := identityset.Address(3)
	projectPath := "/projects/1/" + owner.String()

	code, resp := ts.do(http.MethodGet, "/config", -1, "", nil)
	require.Equal(http.StatusOK, code)
	require.Equal(ResponseTypeObject, resp.ResponseType)
	cfg := Config{}
	decodeAs(t, resp.Object, &cfg)
	require.Equal(identityset.Address(0).String(), cfg.Owner)
	require.Equal([]string{identityset.Address(1).String()}, cfg.Operators)
	require.EqualValues(500, cfg.FeePoint)
	require.Zero(cfg.CurrentRoundID)
	require.Nil(cfg.CurrentRound)

	// round
	code, _ = ts.do(http.MethodPost, "/rounds/default", -1, "", nil)
	require.Equal(http.StatusBadRequest, code)
	code, resp = ts.do(http.MethodPost, "/rounds/default", 2, "", nil)
	require.Equal(http.StatusForbidden, code)
	require.Equal(ResponseTypeError, resp.ResponseType)
	code, resp = ts.do(http.MethodPost, "/rounds/default", 0, "", nil)
	require.Equal(http.StatusOK, code)
	receipt := Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.NotNil(receipt.Round)
	require.EqualValues(1, receipt.Round.ID)
	require.EqualValues(1700000000, receipt.Round.StartAt)
	require.EqualValues(1700000100, receipt.Round.EndAt)
	require.Equal("Active", receipt.Round.Status)
	code, _ = ts.do(http.MethodPost, "/rounds/default", 0, "", nil)
	require.Equal(http.StatusConflict, code)

	// project
	code, resp = ts.do(http.MethodPost, "/projects", 3, "", &CreateProjectRequest{Name: "p", URL: "https://p"})
	require.Equal(http.StatusOK, code)
	receipt = Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.NotNil(receipt.Project)
	require.Equal(owner.String(), receipt.Project.Owner)
	require.EqualValues(1, receipt.Project.RoundID)
	require.Equal("p", receipt.Project.Name)

	// votes
	code, resp = ts.do(http.MethodPost, projectPath+"/votes", 4, "10", &VoteRequest{Units: 2})
	require.Equal(http.StatusOK, code)
	receipt = Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.Equal("3", receipt.Project.Grants)
	require.Equal([]Transfer{{Type: "depositRefund", Amount: "7", Recipient: identityset.Address(4).String()}}, receipt.Transfers)
	code, resp = ts.do(http.MethodPost, projectPath+"/votes", 5, "1", &VoteRequest{Units: 1})
	require.Equal(http.StatusOK, code)
	receipt = Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.Equal("4", receipt.Project.Grants)
	require.Equal("2", receipt.Project.SupportArea)
	require.Empty(receipt.Transfers)
	code, _ = ts.do(http.MethodPost, projectPath+"/votes", 6, "0", &VoteRequest{Units: 1})
	require.Equal(http.StatusPaymentRequired, code)
	code, _ = ts.do(http.MethodPost, "/projects/2/"+owner.String()+"/votes", 6, "10", &VoteRequest{Units: 1})
	require.Equal(http.StatusConflict, code)
	code, _ = ts.do(http.MethodPost, projectPath+"/votes", 6, "10", &VoteRequest{})
	require.Equal(http.StatusBadRequest, code)

	// donation
	code, resp = ts.do(http.MethodPost, "/rounds/current/donate", 7, "100", nil)
	require.Equal(http.StatusOK, code)
	receipt = Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.Equal("95", receipt.Round.SupportPool)
	require.Equal("100", receipt.Round.PureSupportPool)

	// no share while the round is active
	code, resp = ts.do(http.MethodGet, projectPath+"/share", -1, "", nil)
	require.Equal(http.StatusOK, code)
	share := Share{}
	decodeAs(t, resp.Object, &share)
	require.Equal(Share{Withdrawable: "0", Total: "0"}, share)
	code, _ = ts.do(http.MethodPost, "/rounds/current/finish", 1, "", nil)
	require.Equal(http.StatusConflict, code)

	ts.clk.Add(101 * time.Second)
	code, _ = ts.do(http.MethodPost, projectPath+"/votes", 6, "10", &VoteRequest{Units: 1})
	require.Equal(http.StatusUnprocessableEntity, code)
	code, resp = ts.do(http.MethodPost, "/rounds/current/finish", 1, "", nil)
	require.Equal(http.StatusOK, code)
	receipt = Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.Equal("Finished", receipt.Round.Status)

	code, resp = ts.do(http.MethodGet, projectPath+"/share", -1, "", nil)
	require.Equal(http.StatusOK, code)
	decodeAs(t, resp.Object, &share)
	require.Equal(Share{Withdrawable: "99", Total: "99"}, share)

	// withdrawal
	code, _ = ts.do(http.MethodPost, projectPath+"/withdraw", 8, "", &WithdrawRequest{Amount: "100"})
	require.Equal(http.StatusPaymentRequired, code)
	code, _ = ts.do(http.MethodPost, projectPath+"/withdraw", 8, "", &WithdrawRequest{Amount: "-1"})
	require.Equal(http.StatusBadRequest, code)
	code, resp = ts.do(http.MethodPost, projectPath+"/withdraw", 8, "", &WithdrawRequest{Amount: "99"})
	require.Equal(http.StatusOK, code)
	receipt = Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.Equal("99", receipt.Project.Withdrawn)
	require.Equal([]Transfer{{Type: "grantWithdraw", Amount: "99", Recipient: owner.String()}}, receipt.Transfers)
	balance, err := ts.ledger.Balance(owner)
	require.NoError(err)
	require.Equal(big.NewInt(99).String(), balance.String())
	balance, err = ts.ledger.Balance(identityset.Address(4))
	require.NoError(err)
	require.Equal(big.NewInt(7).String(), balance.String())
}

func TestQueries(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t, 4)
	owner := identityset.Address(3)

	code, _ := ts.do(http.MethodPost, "/rounds", 1, "", &CreateRoundRequest{StartAt: 1700000000, EndAt: 1700000050})
	require.Equal(http.StatusOK, code)
	code, _ = ts.do(http.MethodPost, "/projects", 3, "", &CreateProjectRequest{Name: "a"})
	require.Equal(http.StatusOK, code)
	code, _ = ts.do(http.MethodPost, "/projects", 4, "", &CreateProjectRequest{Name: "b"})
	require.Equal(http.StatusOK, code)
	code, _ = ts.do(http.MethodPost, "/projects/1/"+owner.String()+"/votes", 5, "1", &VoteRequest{Units: 1})
	require.Equal(http.StatusOK, code)

	code, resp := ts.do(http.MethodGet, "/rounds", -1, "", nil)
	require.Equal(http.StatusOK, code)
	require.Equal(ResponseTypeArray, resp.ResponseType)
	var rounds []*Round
	decodeAs(t, resp.Array, &rounds)
	require.Len(rounds, 1)
	require.NotNil(rounds[0].ProjectCount)
	require.EqualValues(2, *rounds[0].ProjectCount)
	page := Pagination{}
	decodeAs(t, resp.Meta, &page)
	require.Equal(Pagination{Limit: 10}, page)

	code, resp = ts.do(http.MethodGet, "/rounds/1", -1, "", nil)
	require.Equal(http.StatusOK, code)
	round := Round{}
	decodeAs(t, resp.Object, &round)
	require.EqualValues(1700000050, round.EndAt)
	require.Nil(round.ProjectCount)
	code, _ = ts.do(http.MethodGet, "/rounds/9", -1, "", nil)
	require.Equal(http.StatusNotFound, code)
	code, _ = ts.do(http.MethodGet, "/rounds/abc", -1, "", nil)
	require.Equal(http.StatusBadRequest, code)

	var projects []*Project
	code, resp = ts.do(http.MethodGet, "/projects?limit=1&offset=1", -1, "", nil)
	require.Equal(http.StatusOK, code)
	decodeAs(t, resp.Array, &projects)
	require.Len(projects, 1)
	decodeAs(t, resp.Meta, &page)
	require.Equal(Pagination{Limit: 1, Offset: 1}, page)
	code, _ = ts.do(http.MethodGet, "/projects?limit=x", -1, "", nil)
	require.Equal(http.StatusBadRequest, code)

	code, resp = ts.do(http.MethodGet, "/rounds/1/projects", -1, "", nil)
	require.Equal(http.StatusOK, code)
	decodeAs(t, resp.Array, &projects)
	require.Len(projects, 2)

	code, resp = ts.do(http.MethodGet, "/owners/"+owner.String()+"/projects", -1, "", nil)
	require.Equal(http.StatusOK, code)
	decodeAs(t, resp.Array, &projects)
	require.Len(projects, 1)
	require.Equal("a", projects[0].Name)
	require.Equal("1", projects[0].TotalVotes)

	code, resp = ts.do(http.MethodGet, "/projects/1/"+owner.String(), -1, "", nil)
	require.Equal(http.StatusOK, code)
	project := Project{}
	decodeAs(t, resp.Object, &project)
	require.Equal("a", project.Name)
	code, _ = ts.do(http.MethodGet, "/projects/1/"+identityset.Address(9).String(), -1, "", nil)
	require.Equal(http.StatusNotFound, code)
	code, _ = ts.do(http.MethodGet, "/projects/1/bad", -1, "", nil)
	require.Equal(http.StatusBadRequest, code)

	code, resp = ts.do(http.MethodGet, "/voters/"+identityset.Address(5).String()+"/votes", -1, "", nil)
	require.Equal(http.StatusOK, code)
	var entries []*VoterEntry
	decodeAs(t, resp.Array, &entries)
	require.Equal([]*VoterEntry{{RoundID: 1, Owner: owner.String(), Votes: "1", Grants: "1"}}, entries)
}

func TestAdmin(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t, 4)
	op := identityset.Address(2).String()

	feePoint := uint64(100)
	cost := "5"
	code, _ := ts.do(http.MethodPatch, "/config", 1, "", &SetConfigRequest{FeePoint: &feePoint, DefaultVoteCost: &cost})
	require.Equal(http.StatusOK, code)
	feePoint = 10001
	code, _ = ts.do(http.MethodPatch, "/config", 0, "", &SetConfigRequest{FeePoint: &feePoint})
	require.Equal(http.StatusBadRequest, code)

	code, _ = ts.do(http.MethodPost, "/operators", 0, "", &OperatorsRequest{Operators: []string{op}})
	require.Equal(http.StatusForbidden, code)
	code, _ = ts.do(http.MethodPost, "/operators", 0, "1", &OperatorsRequest{Operators: []string{op}})
	require.Equal(http.StatusOK, code)
	code, _ = ts.do(http.MethodPost, "/operators", 0, "1", &OperatorsRequest{Operators: []string{"bad"}})
	require.Equal(http.StatusBadRequest, code)

	code, resp := ts.do(http.MethodGet, "/config", -1, "", nil)
	require.Equal(http.StatusOK, code)
	cfg := Config{}
	decodeAs(t, resp.Object, &cfg)
	require.EqualValues(100, cfg.FeePoint)
	require.Equal("5", cfg.DefaultVoteCost)
	require.Equal([]string{identityset.Address(1).String(), op}, cfg.Operators)

	code, _ = ts.do(http.MethodDelete, "/operators", 0, "1", &OperatorsRequest{Operators: []string{identityset.Address(1).String()}})
	require.Equal(http.StatusOK, code)
	code, _ = ts.do(http.MethodPut, "/owner", 0, "1", &SetOwnerRequest{Owner: op})
	require.Equal(http.StatusOK, code)

	code, resp = ts.do(http.MethodGet, "/config", -1, "", nil)
	require.Equal(http.StatusOK, code)
	decodeAs(t, resp.Object, &cfg)
	require.Equal(op, cfg.Owner)
	require.Equal([]string{op}, cfg.Operators)

	// the new owner updates the round
	code, _ = ts.do(http.MethodPost, "/rounds/default", 2, "", nil)
	require.Equal(http.StatusOK, code)
	endAt := uint64(1700000500)
	code, _ = ts.do(http.MethodPatch, "/rounds/current", 2, "", &UpdateRoundRequest{EndAt: &endAt})
	require.Equal(http.StatusBadRequest, code)
	status := "Closed"
	code, _ = ts.do(http.MethodPatch, "/rounds/current", 2, "", &UpdateRoundRequest{Confirmed: true, Status: &status})
	require.Equal(http.StatusBadRequest, code)
	status = "Finished"
	code, resp = ts.do(http.MethodPatch, "/rounds/current", 2, "", &UpdateRoundRequest{Confirmed: true, EndAt: &endAt, Status: &status})
	require.Equal(http.StatusOK, code)
	receipt := Receipt{}
	decodeAs(t, resp.Object, &receipt)
	require.Equal("Finished", receipt.Round.Status)
	require.EqualValues(1700000500, receipt.Round.EndAt)
	require.Equal("5", receipt.Round.VoteCost)
}

func TestLimit(t *testing.T) {
	require := require.New(t)
	ts := newTestServer(t, 1)
	require.NoError(ts.svr.sem.Acquire(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/config", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(http.StatusTooManyRequests, rec.Code)

	ts.svr.sem.Release(1)
	code, _ := ts.do(http.MethodGet, "/config", -1, "", nil)
	require.Equal(http.StatusOK, code)
}

func TestStatusCode(t *testing.T) {
	require := require.New(t)
	for _, v := range []struct {
		err  error
		code int
	}{
		{grant.ErrUnauthorized, http.StatusForbidden},
		{errors.Wrap(grant.ErrStateConflict, "active"), http.StatusConflict},
		{grant.ErrRoundMismatch, http.StatusConflict},
		{grant.ErrRoundWindow, http.StatusUnprocessableEntity},
		{grant.ErrInsufficientFunds, http.StatusPaymentRequired},
		{grant.ErrOverflow, http.StatusBadRequest},
		{action.ErrInvalidFeePoint, http.StatusBadRequest},
		{grant.ErrNotFound, http.StatusNotFound},
		{errors.Wrap(factory.ErrTransfer, "bank"), http.StatusBadGateway},
		{lifecycle.ErrWrongState, http.StatusServiceUnavailable},
		{errors.New("disk"), http.StatusInternalServerError},
	} {
		require.Equal(v.code, statusCode(v.err), v.err.Error())
	}
}
