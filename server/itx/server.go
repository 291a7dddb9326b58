// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package itx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/iotexproject/go-pkgs/util/httputil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action/protocol/grant"
	"github.com/iotexproject/iotex-grant/api"
	"github.com/iotexproject/iotex-grant/bank"
	"github.com/iotexproject/iotex-grant/config"
	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/pkg/lifecycle"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/pkg/probe"
	"github.com/iotexproject/iotex-grant/pkg/routine"
	"github.com/iotexproject/iotex-grant/state/factory"
)

// Server is the grant server instance containing all components.
type Server struct {
	cfg       config.Config
	ledger    *bank.Ledger
	sf        factory.Factory
	grant     *grant.Protocol
	apiServer *api.Server
	lifecycle lifecycle.Lifecycle
}

// NewServer creates a new server
func NewServer(cfg config.Config) (*Server, error) {
	return newServer(cfg, false)
}

// NewInMemTestServer creates a test server in memory
func NewInMemTestServer(cfg config.Config) (*Server, error) {
	return newServer(cfg, true)
}

func newServer(cfg config.Config, testing bool) (*Server, error) {
	var (
		dao, bankDAO db.KVStore
		err          error
	)
	if testing {
		dao, bankDAO = db.NewMemKVStore(), db.NewMemKVStore()
	} else {
		if dao, err = db.CreateKVStoreWithCache(cfg.DB); err != nil {
			return nil, errors.Wrap(err, "failed to create state db")
		}
		if bankDAO, err = db.CreateKVStore(cfg.Bank); err != nil {
			return nil, errors.Wrap(err, "failed to create bank db")
		}
	}
	grantCfg, err := cfg.Grant.ProtocolConfig()
	if err != nil {
		return nil, err
	}
	grantProtocol, err := grant.NewProtocol(grantCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create grant protocol")
	}
	ledger := bank.NewLedger(bankDAO)
	sf, err := factory.NewFactory(dao, ledger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create state factory")
	}
	if err := sf.Register(grantProtocol); err != nil {
		return nil, err
	}
	svr := &Server{
		cfg:    cfg,
		ledger: ledger,
		sf:     sf,
		grant:  grantProtocol,
	}
	// the bank store outlives the factory, which pays through it
	svr.lifecycle.AddModels(bankDAO, sf)
	if cfg.API.Port > 0 {
		svr.apiServer = api.NewServer(cfg.API, sf, grantProtocol)
		svr.lifecycle.Add(svr.apiServer)
	}
	return svr, nil
}

// Start starts the server
func (s *Server) Start(ctx context.Context) error {
	if err := s.lifecycle.OnStartSequentially(ctx); err != nil {
		return errors.Wrap(err, "error when starting grant server")
	}
	log.L().Info("Grant server is started.", zap.Uint64("height", s.sf.Height()))
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	if err := s.lifecycle.OnStopSequentially(ctx); err != nil {
		return errors.Wrap(err, "error when stopping grant server")
	}
	return nil
}

// Factory returns the state factory
func (s *Server) Factory() factory.Factory {
	return s.sf
}

// Grant returns the grant protocol
func (s *Server) Grant() *grant.Protocol {
	return s.grant
}

// Ledger returns the ledger paying out refunds and grants
func (s *Server) Ledger() *bank.Ledger {
	return s.ledger
}

// StartServer starts a grant server and blocks until the context is done
func StartServer(ctx context.Context, svr *Server, probeSvr *probe.Server, cfg config.Config) {
	if err := svr.Start(ctx); err != nil {
		log.L().Fatal("Failed to start server.", zap.Error(err))
		return
	}
	probeSvr.Ready()

	if cfg.System.HeartbeatInterval > 0 {
		task := routine.NewRecurringTask(NewHeartbeatHandler(svr).Log, cfg.System.HeartbeatInterval)
		if err := task.Start(ctx); err != nil {
			log.L().Panic("Failed to start heartbeat routine.", zap.Error(err))
		}
		defer func() {
			if err := task.Stop(ctx); err != nil {
				log.L().Panic("Failed to stop heartbeat routine.", zap.Error(err))
			}
		}()
	}

	var adminserv http.Server
	if cfg.System.HTTPAdminPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/debug/pprof/", http.HandlerFunc(pprof.Index))
		mux.Handle("/debug/pprof/cmdline", http.HandlerFunc(pprof.Cmdline))
		mux.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
		mux.Handle("/debug/pprof/symbol", http.HandlerFunc(pprof.Symbol))
		mux.Handle("/debug/pprof/trace", http.HandlerFunc(pprof.Trace))

		port := fmt.Sprintf(":%d", cfg.System.HTTPAdminPort)
		adminserv = httputil.Server(port, mux)
		go func() {
			runtime.SetMutexProfileFraction(1)
			runtime.SetBlockProfileRate(1)
			ln, err := httputil.LimitListener(adminserv.Addr)
			if err != nil {
				log.L().Error("Error when listen to profiling port.", zap.Error(err))
				return
			}
			if err := adminserv.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.L().Error("Error when serving performance profiling data.", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	probeSvr.NotReady()
	if err := adminserv.Shutdown(context.Background()); err != nil {
		log.L().Error("Error when shutting down admin server.", zap.Error(err))
	}
	if err := svr.Stop(context.Background()); err != nil {
		log.L().Panic("Failed to stop server.", zap.Error(err))
	}
}
