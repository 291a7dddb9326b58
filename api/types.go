// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package api

import (
	"encoding/hex"
	"math/big"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol/grant"
)

// ResponseType tells whether a response carries an object or an array
type ResponseType string

const (
	// ResponseTypeObject is a single object response
	ResponseTypeObject ResponseType = "object"
	// ResponseTypeArray is a list response
	ResponseTypeArray ResponseType = "array"
	// ResponseTypeError is an error response
	ResponseTypeError ResponseType = "error"
)

type (
	// Response is the envelope of every response
	Response struct {
		ResponseType ResponseType `json:"response_type"`
		Object       any          `json:"object,omitempty"`
		Array        any          `json:"array,omitempty"`
		Meta         any          `json:"meta,omitempty"`
		Error        string       `json:"error,omitempty"`
	}

	// Pagination is the meta of a list response
	Pagination struct {
		Limit  uint64 `json:"limit"`
		Offset uint64 `json:"offset"`
	}

	// Round is the json form of a round
	Round struct {
		ID              uint64 `json:"id"`
		CreatedAt       uint64 `json:"createdAt"`
		StartAt         uint64 `json:"startAt"`
		EndAt           uint64 `json:"endAt"`
		Status          string `json:"status"`
		VoteCost        string `json:"voteCost"`
		SupportPool     string `json:"supportPool"`
		PureSupportPool string `json:"pureSupportPool"`
		SupportArea     string `json:"supportArea"`
		// ProjectCount is only set by round listing
		ProjectCount *uint64 `json:"projectCount,omitempty"`
	}

	// Project is the json form of a project
	Project struct {
		RoundID     uint64 `json:"roundId"`
		Owner       string `json:"owner"`
		Name        string `json:"name"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		CreatedAt   uint64 `json:"createdAt"`
		TotalVotes  string `json:"totalVotes"`
		SupportArea string `json:"supportArea"`
		Grants      string `json:"grants"`
		Withdrawn   string `json:"withdrawn"`
	}

	// Share is the entitlement of a project
	Share struct {
		Withdrawable string `json:"withdrawable"`
		Total        string `json:"total"`
	}

	// VoterEntry is a voter's history on a project
	VoterEntry struct {
		RoundID uint64 `json:"roundId"`
		Owner   string `json:"owner"`
		Votes   string `json:"votes"`
		Grants  string `json:"grants"`
	}

	// Config is the json form of the engine parameters
	Config struct {
		Version         string   `json:"version"`
		Owner           string   `json:"owner"`
		Operators       []string `json:"operators"`
		FeePoint        uint64   `json:"feePoint"`
		FeeAmount       string   `json:"feeAmount"`
		DefaultDuration uint64   `json:"defaultDuration"`
		DefaultVoteCost string   `json:"defaultVoteCost"`
		CurrentRoundID  uint64   `json:"currentRoundId"`
		CurrentRound    *Round   `json:"currentRound,omitempty"`
	}

	// Transfer is a payout made by an action
	Transfer struct {
		Type      string `json:"type"`
		Amount    string `json:"amount"`
		Recipient string `json:"recipient"`
	}

	// Receipt is the result of an action
	Receipt struct {
		Height     uint64     `json:"height"`
		ActionHash string     `json:"actionHash"`
		Round      *Round     `json:"round,omitempty"`
		Project    *Project   `json:"project,omitempty"`
		Transfers  []Transfer `json:"transfers"`
	}

	// CreateRoundRequest opens a round, an empty window opens a default round
	CreateRoundRequest struct {
		StartAt uint64 `json:"startAt"`
		EndAt   uint64 `json:"endAt"`
	}

	// UpdateRoundRequest overrides the current round
	UpdateRoundRequest struct {
		Confirmed bool    `json:"confirmed"`
		Status    *string `json:"status,omitempty"`
		StartAt   *uint64 `json:"startAt,omitempty"`
		EndAt     *uint64 `json:"endAt,omitempty"`
	}

	// CreateProjectRequest registers a project
	CreateProjectRequest struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Image       string `json:"image"`
	}

	// VoteRequest buys vote units
	VoteRequest struct {
		Units uint64 `json:"units"`
	}

	// WithdrawRequest pays out a project
	WithdrawRequest struct {
		Amount string `json:"amount"`
	}

	// SetConfigRequest updates the engine parameters
	SetConfigRequest struct {
		FeePoint        *uint64 `json:"feePoint,omitempty"`
		DefaultDuration *uint64 `json:"defaultDuration,omitempty"`
		DefaultVoteCost *string `json:"defaultVoteCost,omitempty"`
	}

	// SetOwnerRequest transfers the ownership
	SetOwnerRequest struct {
		Owner string `json:"owner"`
	}

	// OperatorsRequest lists operators to add or remove
	OperatorsRequest struct {
		Operators []string `json:"operators"`
	}
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func addressString(addr address.Address) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

func toRound(r *grant.Round) *Round {
	if r == nil {
		return nil
	}
	return &Round{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		StartAt:         r.StartAt,
		EndAt:           r.EndAt,
		Status:          r.Status.String(),
		VoteCost:        amountString(r.VoteCost),
		SupportPool:     amountString(r.SupportPool),
		PureSupportPool: amountString(r.PureSupportPool),
		SupportArea:     amountString(r.SupportArea),
	}
}

func toProject(p *grant.Project) *Project {
	if p == nil {
		return nil
	}
	return &Project{
		RoundID:     p.RoundID,
		Owner:       addressString(p.Owner),
		Name:        p.Name,
		Description: p.Description,
		URL:         p.URL,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		TotalVotes:  amountString(p.TotalVotes),
		SupportArea: amountString(p.SupportArea),
		Grants:      amountString(p.Grants),
		Withdrawn:   amountString(p.Withdrawn),
	}
}

func toProjects(projects []*grant.Project) []*Project {
	ret := make([]*Project, 0, len(projects))
	for _, p := range projects {
		ret = append(ret, toProject(p))
	}
	return ret
}

func toConfig(cfg *grant.ContractConfig) *Config {
	ret := &Config{
		Version:         cfg.Version,
		Owner:           addressString(cfg.Owner),
		Operators:       make([]string, 0, len(cfg.Operators)),
		FeePoint:        cfg.FeePoint,
		FeeAmount:       amountString(cfg.FeeAmount),
		DefaultDuration: cfg.DefaultDuration,
		DefaultVoteCost: amountString(cfg.DefaultVoteCost),
		CurrentRoundID:  cfg.CurrentRoundID,
		CurrentRound:    toRound(cfg.CurrentRound),
	}
	for _, op := range cfg.Operators {
		ret.Operators = append(ret.Operators, addressString(op))
	}
	return ret
}

// toReceipt decodes the record returned by the action
func toReceipt(act action.Action, r *action.Receipt) (*Receipt, error) {
	ret := &Receipt{
		Height:     r.BlockHeight,
		ActionHash: hex.EncodeToString(r.ActionHash[:]),
		Transfers:  make([]Transfer, 0, len(r.TransactionLogs())),
	}
	if len(r.ReturnValue) > 0 {
		switch act.(type) {
		case *action.CreateProject, *action.Vote, *action.Withdraw:
			p := &grant.Project{}
			if err := p.Deserialize(r.ReturnValue); err != nil {
				return nil, err
			}
			ret.Project = toProject(p)
		default:
			round := &grant.Round{}
			if err := round.Deserialize(r.ReturnValue); err != nil {
				return nil, err
			}
			ret.Round = toRound(round)
		}
	}
	for _, tl := range r.TransactionLogs() {
		ret.Transfers = append(ret.Transfers, Transfer{
			Type:      tl.Type.String(),
			Amount:    amountString(tl.Amount),
			Recipient: tl.Recipient,
		})
	}
	return ret, nil
}
