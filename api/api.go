// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iotexproject/go-pkgs/util/httputil"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/iotexproject/iotex-grant/action/protocol/grant"
	"github.com/iotexproject/iotex-grant/config"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/state/factory"
)

const (
	// CallerHeader carries the address of the account sending the request
	CallerHeader = "X-Grant-Caller"
	// DepositHeader carries the amount attached to the request
	DepositHeader = "X-Grant-Deposit"

	_acquireTimeout = 10 * time.Second
)

// Server serves the grant engine over http
type Server struct {
	cfg      config.API
	sf       factory.Factory
	protocol *grant.Protocol
	sem      *semaphore.Weighted
	server   http.Server
}

// NewServer creates a new api server
func NewServer(cfg config.API, sf factory.Factory, p *grant.Protocol) *Server {
	svr := &Server{
		cfg:      cfg,
		sf:       sf,
		protocol: p,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrentRequests),
	}
	svr.server = httputil.Server(
		fmt.Sprintf(":%d", cfg.Port),
		svr.Handler(),
		httputil.SetTimeout(cfg.ReadTimeout, cfg.WriteTimeout, 120*time.Second),
	)
	return svr
}

// Handler returns the routes of the api
func (svr *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(svr.limit)

	r.Get("/config", svr.getConfig)
	r.Patch("/config", svr.setConfig)
	r.Put("/owner", svr.setOwner)
	r.Post("/operators", svr.extendOperators)
	r.Delete("/operators", svr.removeOperators)

	r.Route("/rounds", func(r chi.Router) {
		r.Get("/", svr.rounds)
		r.Post("/", svr.createRound)
		r.Post("/default", svr.createDefaultRound)
		r.Patch("/current", svr.updateCurrentRound)
		r.Post("/current/finish", svr.finishRound)
		r.Post("/current/donate", svr.donate)
		r.Get("/{id}", svr.round)
		r.Get("/{id}/projects", svr.projectsInRound)
	})
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", svr.projects)
		r.Post("/", svr.createProject)
		r.Get("/{round}/{owner}", svr.project)
		r.Get("/{round}/{owner}/share", svr.share)
		r.Post("/{round}/{owner}/votes", svr.vote)
		r.Post("/{round}/{owner}/withdraw", svr.withdraw)
	})
	r.Get("/owners/{owner}/projects", svr.projectsForOwner)
	r.Get("/voters/{voter}/votes", svr.votesOf)

	return otelhttp.NewHandler(r, "grant")
}

// Start starts the api server
func (svr *Server) Start(_ context.Context) error {
	ln, err := httputil.LimitListener(svr.server.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := svr.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.L().Fatal("API server failed to serve.", zap.Error(err))
		}
	}()
	log.L().Info("API server is up.", zap.String("addr", svr.server.Addr))
	return nil
}

// Stop stops the api server
func (svr *Server) Stop(ctx context.Context) error {
	return svr.server.Shutdown(ctx)
}

// limit bounds the number of requests served concurrently
func (svr *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		acquireCtx, cancel := context.WithTimeout(req.Context(), _acquireTimeout)
		defer cancel()
		if err := svr.sem.Acquire(acquireCtx, 1); err != nil {
			writeJSON(w, http.StatusTooManyRequests, &Response{
				ResponseType: ResponseTypeError,
				Error:        "too many requests",
			})
			return
		}
		defer svr.sem.Release(1)
		next.ServeHTTP(w, req)
	})
}
