// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package api

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/action/protocol/grant"
)

func callerOf(req *http.Request) (address.Address, error) {
	s := req.Header.Get(CallerHeader)
	if s == "" {
		return nil, errors.Wrapf(ErrBadRequest, "missing %s header", CallerHeader)
	}
	caller, err := address.FromString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrBadRequest, "invalid caller %s", s)
	}
	return caller, nil
}

func depositOf(req *http.Request) (*big.Int, error) {
	s := req.Header.Get(DepositHeader)
	if s == "" {
		return big.NewInt(0), nil
	}
	return parseAmount(s)
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.Wrapf(ErrBadRequest, "invalid amount %s", s)
	}
	return amount, nil
}

func parseAddresses(strs []string) ([]address.Address, error) {
	addrs := make([]address.Address, 0, len(strs))
	for _, s := range strs {
		addr, err := address.FromString(s)
		if err != nil {
			return nil, errors.Wrapf(ErrBadRequest, "invalid address %s", s)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func decode(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return errors.Wrap(ErrBadRequest, err.Error())
	}
	return nil
}

// pagination reads limit and offset, the limit is capped by the range query limit
func (svr *Server) pagination(req *http.Request) (*Pagination, error) {
	p := &Pagination{Limit: svr.cfg.RangeQueryLimit}
	q := req.URL.Query()
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrBadRequest, "invalid limit %s", s)
		}
		if limit > 0 && (limit < p.Limit || p.Limit == 0) {
			p.Limit = limit
		}
	}
	if s := q.Get("offset"); s != "" {
		offset, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrBadRequest, "invalid offset %s", s)
		}
		p.Offset = offset
	}
	return p, nil
}

func projectIDOf(req *http.Request) (grant.ProjectID, error) {
	return grant.ParseProjectID(chi.URLParam(req, "round") + ":" + chi.URLParam(req, "owner"))
}

// execute runs the action on behalf of the caller and writes the receipt
func (svr *Server) execute(w http.ResponseWriter, req *http.Request, act action.Action) {
	caller, err := callerOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	deposit, err := depositOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	r, err := svr.sf.Execute(req.Context(), caller, deposit, act)
	if err != nil {
		writeError(w, err)
		return
	}
	receipt, err := toReceipt(act, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeObject(w, receipt)
}

func (svr *Server) view(req *http.Request, fn func(context.Context, protocol.StateReader) error) error {
	return svr.sf.View(req.Context(), fn)
}

func (svr *Server) getConfig(w http.ResponseWriter, req *http.Request) {
	var cfg *grant.ContractConfig
	if err := svr.view(req, func(ctx context.Context, sr protocol.StateReader) (err error) {
		cfg, err = svr.protocol.GetConfig(ctx, sr)
		return
	}); err != nil {
		writeError(w, err)
		return
	}
	writeObject(w, toConfig(cfg))
}

func (svr *Server) setConfig(w http.ResponseWriter, req *http.Request) {
	var body SetConfigRequest
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}
	act := &action.SetConfig{
		FeePoint:        body.FeePoint,
		DefaultDuration: body.DefaultDuration,
	}
	if body.DefaultVoteCost != nil {
		cost, err := parseAmount(*body.DefaultVoteCost)
		if err != nil {
			writeError(w, err)
			return
		}
		act.DefaultVoteCost = cost
	}
	svr.execute(w, req, act)
}

func (svr *Server) setOwner(w http.ResponseWriter, req *http.Request) {
	var body SetOwnerRequest
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}
	owners, err := parseAddresses([]string{body.Owner})
	if err != nil {
		writeError(w, err)
		return
	}
	svr.execute(w, req, &action.SetOwner{Owner: owners[0]})
}

func (svr *Server) extendOperators(w http.ResponseWriter, req *http.Request) {
	operators, err := operatorsOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	svr.execute(w, req, &action.ExtendOperators{Operators: operators})
}

func (svr *Server) removeOperators(w http.ResponseWriter, req *http.Request) {
	operators, err := operatorsOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	svr.execute(w, req, &action.RemoveOperators{Operators: operators})
}

func operatorsOf(req *http.Request) ([]address.Address, error) {
	var body OperatorsRequest
	if err := decode(req, &body); err != nil {
		return nil, err
	}
	return parseAddresses(body.Operators)
}

func (svr *Server) createRound(w http.ResponseWriter, req *http.Request) {
	var body CreateRoundRequest
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}
	svr.execute(w, req, &action.CreateRound{StartAt: body.StartAt, EndAt: body.EndAt})
}

func (svr *Server) createDefaultRound(w http.ResponseWriter, req *http.Request) {
	svr.execute(w, req, &action.CreateDefaultRound{})
}

func (svr *Server) updateCurrentRound(w http.ResponseWriter, req *http.Request) {
	var body UpdateRoundRequest
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}
	act := &action.UpdateCurrentRound{
		Confirmed: body.Confirmed,
		StartAt:   body.StartAt,
		EndAt:     body.EndAt,
	}
	if body.Status != nil {
		status, err := action.ParseRoundStatus(*body.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		act.Status = &status
	}
	svr.execute(w, req, act)
}

func (svr *Server) finishRound(w http.ResponseWriter, req *http.Request) {
	svr.execute(w, req, &action.FinishRound{})
}

func (svr *Server) donate(w http.ResponseWriter, req *http.Request) {
	svr.execute(w, req, &action.Donate{})
}

func (svr *Server) round(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		writeError(w, errors.Wrapf(ErrBadRequest, "invalid round id %s", chi.URLParam(req, "id")))
		return
	}
	var round *grant.Round
	if err := svr.view(req, func(ctx context.Context, sr protocol.StateReader) (err error) {
		round, err = svr.protocol.Round(ctx, sr, id)
		return
	}); err != nil {
		writeError(w, err)
		return
	}
	writeObject(w, toRound(round))
}

func (svr *Server) rounds(w http.ResponseWriter, req *http.Request) {
	page, err := svr.pagination(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var rounds []*grant.RoundWithProjects
	if err := svr.view(req, func(ctx context.Context, sr protocol.StateReader) (err error) {
		rounds, err = svr.protocol.Rounds(ctx, sr, page.Limit, page.Offset)
		return
	}); err != nil {
		writeError(w, err)
		return
	}
	ret := make([]*Round, 0, len(rounds))
	for _, r := range rounds {
		round := toRound(r.Round)
		count := r.ProjectCount
		round.ProjectCount = &count
		ret = append(ret, round)
	}
	writeArray(w, ret, page)
}

func (svr *Server) createProject(w http.ResponseWriter, req *http.Request) {
	var body CreateProjectRequest
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}
	svr.execute(w, req, &action.CreateProject{
		Title:       body.Name,
		Description: body.Description,
		URL:         body.URL,
		Image:       body.Image,
	})
}

func (svr *Server) project(w http.ResponseWriter, req *http.Request) {
	id, err := projectIDOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var project *grant.Project
	if err := svr.view(req, func(ctx context.Context, sr protocol.StateReader) (err error) {
		project, err = svr.protocol.Project(ctx, sr, id)
		return
	}); err != nil {
		writeError(w, err)
		return
	}
	writeObject(w, toProject(project))
}

func (svr *Server) projects(w http.ResponseWriter, req *http.Request) {
	svr.listProjects(w, req, func(ctx context.Context, sr protocol.StateReader, page *Pagination) ([]*grant.Project, error) {
		return svr.protocol.Projects(ctx, sr, page.Limit, page.Offset)
	})
}

func (svr *Server) projectsInRound(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		writeError(w, errors.Wrapf(ErrBadRequest, "invalid round id %s", chi.URLParam(req, "id")))
		return
	}
	svr.listProjects(w, req, func(ctx context.Context, sr protocol.StateReader, page *Pagination) ([]*grant.Project, error) {
		return svr.protocol.ProjectsInRound(ctx, sr, id, page.Limit, page.Offset)
	})
}

func (svr *Server) projectsForOwner(w http.ResponseWriter, req *http.Request) {
	owners, err := parseAddresses([]string{chi.URLParam(req, "owner")})
	if err != nil {
		writeError(w, err)
		return
	}
	svr.listProjects(w, req, func(ctx context.Context, sr protocol.StateReader, page *Pagination) ([]*grant.Project, error) {
		return svr.protocol.ProjectsForOwner(ctx, sr, owners[0], page.Limit, page.Offset)
	})
}

func (svr *Server) listProjects(
	w http.ResponseWriter,
	req *http.Request,
	list func(context.Context, protocol.StateReader, *Pagination) ([]*grant.Project, error),
) {
	page, err := svr.pagination(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var projects []*grant.Project
	if err := svr.view(req, func(ctx context.Context, sr protocol.StateReader) (err error) {
		projects, err = list(ctx, sr, page)
		return
	}); err != nil {
		writeError(w, err)
		return
	}
	writeArray(w, toProjects(projects), page)
}

func (svr *Server) share(w http.ResponseWriter, req *http.Request) {
	id, err := projectIDOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var withdrawable, total *big.Int
	if err := svr.view(req, func(ctx context.Context, sr protocol.StateReader) (err error) {
		withdrawable, total, err = svr.protocol.ComputeShare(ctx, sr, id)
		return
	}); err != nil {
		writeError(w, err)
		return
	}
	writeObject(w, &Share{Withdrawable: amountString(withdrawable), Total: amountString(total)})
}

func (svr *Server) vote(w http.ResponseWriter, req *http.Request) {
	id, err := projectIDOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var body VoteRequest
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}
	svr.execute(w, req, &action.Vote{RoundID: id.RoundID, Owner: id.Owner, Units: body.Units})
}

func (svr *Server) withdraw(w http.ResponseWriter, req *http.Request) {
	id, err := projectIDOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	var body WithdrawRequest
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	svr.execute(w, req, &action.Withdraw{RoundID: id.RoundID, Owner: id.Owner, Amount: amount})
}

func (svr *Server) votesOf(w http.ResponseWriter, req *http.Request) {
	voters, err := parseAddresses([]string{chi.URLParam(req, "voter")})
	if err != nil {
		writeError(w, err)
		return
	}
	var entries []*grant.VoterEntry
	if err := svr.view(req, func(ctx context.Context, sr protocol.StateReader) (err error) {
		entries, err = svr.protocol.VotesOf(ctx, sr, voters[0])
		return
	}); err != nil {
		writeError(w, err)
		return
	}
	ret := make([]*VoterEntry, 0, len(entries))
	for _, e := range entries {
		ret = append(ret, &VoterEntry{
			RoundID: e.Project.RoundID,
			Owner:   addressString(e.Project.Owner),
			Votes:   amountString(e.Votes),
			Grants:  amountString(e.Grants),
		})
	}
	writeArray(w, ret, nil)
}
