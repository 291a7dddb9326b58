// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-grant/api"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	svr := httptest.NewServer(handler)
	t.Cleanup(svr.Close)
	return New(svr.URL, "io1caller", time.Second)
}

func reply(t *testing.T, w http.ResponseWriter, code int, resp *api.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestClientVote(t *testing.T) {
	require := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(http.MethodPost, req.Method)
		require.Equal("/projects/3/io1owner/votes", req.URL.Path)
		require.Equal("io1caller", req.Header.Get(api.CallerHeader))
		require.Equal("10", req.Header.Get(api.DepositHeader))
		body := api.VoteRequest{}
		require.NoError(json.NewDecoder(req.Body).Decode(&body))
		require.EqualValues(2, body.Units)
		reply(t, w, http.StatusOK, &api.Response{
			ResponseType: api.ResponseTypeObject,
			Object: &api.Receipt{
				Height:    4,
				Project:   &api.Project{RoundID: 3, Owner: "io1owner", Grants: "3"},
				Transfers: []api.Transfer{{Type: "depositRefund", Amount: "7", Recipient: "io1caller"}},
			},
		})
	})
	receipt, err := c.Vote(3, "io1owner", 2, "10")
	require.NoError(err)
	require.EqualValues(4, receipt.Height)
	require.Equal("3", receipt.Project.Grants)
	require.Len(receipt.Transfers, 1)
}

func TestClientList(t *testing.T) {
	require := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(http.MethodGet, req.Method)
		require.Equal("/rounds/1/projects", req.URL.Path)
		require.Equal("5", req.URL.Query().Get("limit"))
		require.Equal("2", req.URL.Query().Get("offset"))
		reply(t, w, http.StatusOK, &api.Response{
			ResponseType: api.ResponseTypeArray,
			Array:        []*api.Project{{Name: "a"}, {Name: "b"}},
			Meta:         &api.Pagination{Limit: 5, Offset: 2},
		})
	})
	projects, err := c.ProjectsInRound(1, &Page{Limit: 5, Offset: 2})
	require.NoError(err)
	require.Len(projects, 2)
	require.Equal("b", projects[1].Name)
}

func TestClientError(t *testing.T) {
	require := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		reply(t, w, http.StatusForbidden, &api.Response{
			ResponseType: api.ResponseTypeError,
			Error:        "unauthorized",
		})
	})
	_, err := c.FinishRound()
	require.Equal(ErrResponse, errors.Cause(err))
	require.Contains(err.Error(), "403: unauthorized")

	c = New("http://127.0.0.1:1", "", 100*time.Millisecond)
	_, err = c.Config()
	require.Error(err)
	require.NotEqual(ErrResponse, errors.Cause(err))
}
