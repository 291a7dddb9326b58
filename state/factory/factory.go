// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"
	"math/big"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/bank"
	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/pkg/lifecycle"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/pkg/util/byteutil"
)

const _factoryNS = "Factory"

var (
	_heightKey = []byte("currentHeight")

	// ErrUnhandledAction indicates no protocol handles the action
	ErrUnhandledAction = errors.New("action is not handled by any protocol")
	// ErrTransfer indicates a payout of a committed action failed and the action is reverted
	ErrTransfer = errors.New("failed to transfer")

	_factoryMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_grant_factory_actions",
			Help: "Actions executed by the state factory.",
		},
		[]string{"action", "status"},
	)
	_heightMtc = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iotex_grant_factory_height",
		Help: "Number of actions committed by the state factory.",
	})
)

func init() {
	prometheus.MustRegister(_factoryMtc)
	prometheus.MustRegister(_heightMtc)
}

type (
	// Factory executes actions against the state one at a time
	Factory interface {
		lifecycle.StartStopper
		// Register adds a protocol, protocols are tried in the order of registration
		Register(protocol.Protocol) error
		// Height returns the number of committed actions
		Height() uint64
		// Execute runs the action sent by the caller with the attached deposit, commits the state change
		// and pays out the transfers of the receipt. Nothing is applied if it fails.
		Execute(context.Context, address.Address, *big.Int, action.Action) (*action.Receipt, error)
		// View runs the read function against the committed state
		View(context.Context, func(context.Context, protocol.StateReader) error) error
	}

	factory struct {
		lifecycle.Readiness
		mutex     sync.RWMutex
		height    uint64
		dao       db.KVStore
		bank      bank.Bank
		clock     clock.Clock
		protocols []protocol.Protocol
	}

	// Option sets Factory construction parameter
	Option func(*factory) error
)

// WithClock sets the clock stamping the actions
func WithClock(c clock.Clock) Option {
	return func(sf *factory) error {
		sf.clock = c
		return nil
	}
}

// NewFactory creates a state factory on top of the kv store, the transfers of receipts are paid by the bank
func NewFactory(dao db.KVStore, b bank.Bank, opts ...Option) (Factory, error) {
	if dao == nil {
		return nil, errors.New("kv store is nil")
	}
	if b == nil {
		return nil, errors.New("bank is nil")
	}
	sf := &factory{
		dao:   dao,
		bank:  b,
		clock: clock.New(),
	}
	for _, opt := range opts {
		if err := opt(sf); err != nil {
			log.S().Errorf("Failed to execute state factory creation option %p: %v", opt, err)
			return nil, err
		}
	}
	return sf, nil
}

func (sf *factory) Register(p protocol.Protocol) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	for _, registered := range sf.protocols {
		if registered.Name() == p.Name() {
			return errors.Errorf("protocol %s is already registered", p.Name())
		}
	}
	sf.protocols = append(sf.protocols, p)
	return nil
}

// Start starts the kv store, loads the height and creates the genesis states of the protocols
func (sf *factory) Start(ctx context.Context) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	if err := sf.dao.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start kv store")
	}
	h, err := sf.dao.Get(_factoryNS, _heightKey)
	switch errors.Cause(err) {
	case nil:
		sf.height = byteutil.BytesToUint64BigEndian(h)
	case db.ErrNotExist:
		sf.height = 0
	default:
		return errors.Wrap(err, "failed to load factory height")
	}
	ws := newWorkingSet(sf.height, sf.dao)
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{
		BlockHeight:    sf.height,
		BlockTimeStamp: sf.clock.Now(),
	})
	for _, p := range sf.protocols {
		if err := p.CreateGenesisStates(ctx, ws); err != nil {
			return errors.Wrapf(err, "failed to create genesis states of protocol %s", p.Name())
		}
	}
	if ws.cb.Size() > 0 {
		if err := ws.finalize(); err != nil {
			return err
		}
		if err := sf.dao.WriteBatch(ws.cb); err != nil {
			return errors.Wrap(err, "failed to commit genesis states")
		}
	}
	_heightMtc.Set(float64(sf.height))
	log.L().Info("State factory started.", zap.Uint64("height", sf.height))
	return sf.TurnOn()
}

func (sf *factory) Stop(ctx context.Context) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	if err := sf.TurnOff(); err != nil {
		return err
	}
	return sf.dao.Stop(ctx)
}

func (sf *factory) Height() uint64 {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	return sf.height
}

func (sf *factory) Execute(ctx context.Context, caller address.Address, deposit *big.Int, act action.Action) (*action.Receipt, error) {
	if !sf.IsReady() {
		return nil, errors.Wrap(lifecycle.ErrWrongState, "state factory is not started")
	}
	if caller == nil {
		return nil, errors.New("caller is nil")
	}
	if deposit == nil {
		deposit = big.NewInt(0)
	}
	sf.mutex.Lock()
	defer sf.mutex.Unlock()

	height := sf.height + 1
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{
		BlockHeight:    height,
		BlockTimeStamp: sf.clock.Now(),
	})
	ctx = protocol.WithActionCtx(ctx, protocol.ActionCtx{
		Caller:     caller,
		ActionHash: actionHash(height, caller, act),
		Deposit:    new(big.Int).Set(deposit),
	})
	ws := newWorkingSet(height, sf.dao)
	receipt, err := sf.handle(ctx, act, ws)
	if err != nil {
		_factoryMtc.WithLabelValues(act.Name(), "failure").Inc()
		return nil, err
	}
	if err := ws.finalize(); err != nil {
		return nil, err
	}
	undo := ws.undo()
	if err := sf.dao.WriteBatch(ws.cb); err != nil {
		_factoryMtc.WithLabelValues(act.Name(), "failure").Inc()
		return nil, errors.Wrap(err, "failed to commit working set")
	}
	for _, tl := range receipt.TransactionLogs() {
		if err := sf.transfer(ctx, tl); err != nil {
			// the action is reverted as a whole
			if rerr := sf.dao.WriteBatch(undo); rerr != nil {
				log.L().Error("Failed to revert action.", zap.Uint64("height", height), zap.Error(rerr))
				return nil, errors.Wrap(rerr, err.Error())
			}
			_factoryMtc.WithLabelValues(act.Name(), "reverted").Inc()
			return nil, err
		}
	}
	sf.height = height
	_heightMtc.Set(float64(height))
	_factoryMtc.WithLabelValues(act.Name(), "success").Inc()
	return receipt, nil
}

func (sf *factory) View(ctx context.Context, fn func(context.Context, protocol.StateReader) error) error {
	if !sf.IsReady() {
		return errors.Wrap(lifecycle.ErrWrongState, "state factory is not started")
	}
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{
		BlockHeight:    sf.height,
		BlockTimeStamp: sf.clock.Now(),
	})
	return fn(ctx, newWorkingSet(sf.height, sf.dao))
}

func (sf *factory) handle(ctx context.Context, act action.Action, ws *workingSet) (*action.Receipt, error) {
	for _, p := range sf.protocols {
		receipt, err := p.Handle(ctx, act, ws)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
	}
	return nil, errors.Wrapf(ErrUnhandledAction, "action %s", act.Name())
}

func (sf *factory) transfer(ctx context.Context, tl *action.TransactionLog) error {
	recipient, err := address.FromString(tl.Recipient)
	if err != nil {
		return errors.Wrapf(ErrTransfer, "invalid recipient %s", tl.Recipient)
	}
	if err := sf.bank.Transfer(ctx, recipient, tl.Amount); err != nil {
		return errors.Wrapf(ErrTransfer, "%s of %s to %s: %v", tl.Type, tl.Amount, tl.Recipient, err)
	}
	return nil
}

func actionHash(height uint64, caller address.Address, act action.Action) hash.Hash256 {
	data := byteutil.Uint64ToBytesBigEndian(height)
	data = append(data, caller.Bytes()...)
	data = append(data, act.Name()...)
	return hash.Hash256b(data)
}
