// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-grant/api"
)

// ErrResponse indicates the server rejected the request
var ErrResponse = errors.New("request failed")

type (
	// Client talks to the grant api
	Client struct {
		r      *resty.Client
		caller string
	}

	envelope struct {
		ResponseType api.ResponseType `json:"response_type"`
		Object       json.RawMessage  `json:"object"`
		Array        json.RawMessage  `json:"array"`
		Meta         json.RawMessage  `json:"meta"`
		Error        string           `json:"error"`
	}

	// Page selects a slice of a list
	Page struct {
		Limit  uint64
		Offset uint64
	}
)

// New creates a client of the api at endpoint, requests are sent on behalf of caller
func New(endpoint, caller string, timeout time.Duration) *Client {
	return &Client{
		r:      resty.New().SetBaseURL(endpoint).SetTimeout(timeout),
		caller: caller,
	}
}

func (c *Client) call(method, path, deposit string, page *Page, body, out any) error {
	env := envelope{}
	req := c.r.R().SetResult(&env).SetError(&env)
	if c.caller != "" {
		req.SetHeader(api.CallerHeader, c.caller)
	}
	if deposit != "" {
		req.SetHeader(api.DepositHeader, deposit)
	}
	if page != nil {
		req.SetQueryParam("limit", strconv.FormatUint(page.Limit, 10))
		req.SetQueryParam("offset", strconv.FormatUint(page.Offset, 10))
	}
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "failed to send %s %s", method, path)
	}
	if resp.IsError() {
		return errors.Wrapf(ErrResponse, "%d: %s", resp.StatusCode(), env.Error)
	}
	if out == nil {
		return nil
	}
	payload := env.Object
	if env.ResponseType == api.ResponseTypeArray {
		payload = env.Array
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func projectPath(roundID uint64, owner string) string {
	return fmt.Sprintf("/projects/%d/%s", roundID, owner)
}

// Config returns the engine parameters
func (c *Client) Config() (*api.Config, error) {
	cfg := &api.Config{}
	if err := c.call(http.MethodGet, "/config", "", nil, nil, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetConfig updates the engine parameters
func (c *Client) SetConfig(req *api.SetConfigRequest) (*api.Receipt, error) {
	return c.execute(http.MethodPatch, "/config", "", req)
}

// SetOwner transfers the ownership, the confirmation deposit is attached
func (c *Client) SetOwner(owner string) (*api.Receipt, error) {
	return c.execute(http.MethodPut, "/owner", "1", &api.SetOwnerRequest{Owner: owner})
}

// ExtendOperators grants the operator capability
func (c *Client) ExtendOperators(operators []string) (*api.Receipt, error) {
	return c.execute(http.MethodPost, "/operators", "1", &api.OperatorsRequest{Operators: operators})
}

// RemoveOperators revokes the operator capability
func (c *Client) RemoveOperators(operators []string) (*api.Receipt, error) {
	return c.execute(http.MethodDelete, "/operators", "1", &api.OperatorsRequest{Operators: operators})
}

// CreateRound opens a round with the time window
func (c *Client) CreateRound(startAt, endAt uint64) (*api.Receipt, error) {
	return c.execute(http.MethodPost, "/rounds", "", &api.CreateRoundRequest{StartAt: startAt, EndAt: endAt})
}

// CreateDefaultRound opens a round starting now
func (c *Client) CreateDefaultRound() (*api.Receipt, error) {
	return c.execute(http.MethodPost, "/rounds/default", "", nil)
}

// UpdateCurrentRound overrides the current round
func (c *Client) UpdateCurrentRound(req *api.UpdateRoundRequest) (*api.Receipt, error) {
	return c.execute(http.MethodPatch, "/rounds/current", "", req)
}

// FinishRound closes the current round
func (c *Client) FinishRound() (*api.Receipt, error) {
	return c.execute(http.MethodPost, "/rounds/current/finish", "", nil)
}

// Donate adds amount to the current round's pool
func (c *Client) Donate(amount string) (*api.Receipt, error) {
	return c.execute(http.MethodPost, "/rounds/current/donate", amount, nil)
}

// Round returns the round
func (c *Client) Round(id uint64) (*api.Round, error) {
	round := &api.Round{}
	if err := c.call(http.MethodGet, fmt.Sprintf("/rounds/%d", id), "", nil, nil, round); err != nil {
		return nil, err
	}
	return round, nil
}

// Rounds lists the rounds
func (c *Client) Rounds(page *Page) ([]*api.Round, error) {
	var rounds []*api.Round
	if err := c.call(http.MethodGet, "/rounds", "", page, nil, &rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

// CreateProject registers the caller's project in the current round
func (c *Client) CreateProject(req *api.CreateProjectRequest) (*api.Receipt, error) {
	return c.execute(http.MethodPost, "/projects", "", req)
}

// Project returns the project
func (c *Client) Project(roundID uint64, owner string) (*api.Project, error) {
	project := &api.Project{}
	if err := c.call(http.MethodGet, projectPath(roundID, owner), "", nil, nil, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Projects lists the projects of all rounds
func (c *Client) Projects(page *Page) ([]*api.Project, error) {
	return c.projects("/projects", page)
}

// ProjectsInRound lists the projects of the round
func (c *Client) ProjectsInRound(roundID uint64, page *Page) ([]*api.Project, error) {
	return c.projects(fmt.Sprintf("/rounds/%d/projects", roundID), page)
}

// ProjectsForOwner lists the projects of the owner
func (c *Client) ProjectsForOwner(owner string, page *Page) ([]*api.Project, error) {
	return c.projects("/owners/"+owner+"/projects", page)
}

func (c *Client) projects(path string, page *Page) ([]*api.Project, error) {
	var projects []*api.Project
	if err := c.call(http.MethodGet, path, "", page, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Share returns the entitlement of the project
func (c *Client) Share(roundID uint64, owner string) (*api.Share, error) {
	share := &api.Share{}
	if err := c.call(http.MethodGet, projectPath(roundID, owner)+"/share", "", nil, nil, share); err != nil {
		return nil, err
	}
	return share, nil
}

// Vote buys units of votes for the project with the deposit
func (c *Client) Vote(roundID uint64, owner string, units uint64, deposit string) (*api.Receipt, error) {
	return c.execute(http.MethodPost, projectPath(roundID, owner)+"/votes", deposit, &api.VoteRequest{Units: units})
}

// Withdraw pays out amount to the project owner
func (c *Client) Withdraw(roundID uint64, owner, amount string) (*api.Receipt, error) {
	return c.execute(http.MethodPost, projectPath(roundID, owner)+"/withdraw", "", &api.WithdrawRequest{Amount: amount})
}

// VotesOf returns the voter's history
func (c *Client) VotesOf(voter string) ([]*api.VoterEntry, error) {
	var entries []*api.VoterEntry
	if err := c.call(http.MethodGet, "/voters/"+voter+"/votes", "", nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) execute(method, path, deposit string, body any) (*api.Receipt, error) {
	receipt := &api.Receipt{}
	if err := c.call(method, path, deposit, nil, body, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}
