// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package lifecycle

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrWrongState is returned when a service is turned on twice or turned off while not ready
var ErrWrongState = errors.New("service is in wrong state")

// Readiness tracks whether a service can accept requests. The zero value is not ready.
type Readiness struct {
	ready atomic.Bool
}

// TurnOn marks the service ready
func (r *Readiness) TurnOn() error {
	if r.ready.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Wrap(ErrWrongState, "already turned on")
}

// TurnOff marks the service not ready
func (r *Readiness) TurnOff() error {
	if r.ready.CompareAndSwap(true, false) {
		return nil
	}
	return errors.Wrap(ErrWrongState, "not turned on")
}

// IsReady returns whether the service can accept requests
func (r *Readiness) IsReady() bool {
	return r.ready.Load()
}
