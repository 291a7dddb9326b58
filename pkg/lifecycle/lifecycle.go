// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package lifecycle

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type (
	// Model is a component that may be a Starter, a Stopper, or both
	Model interface{}

	// Starter starts a component
	Starter interface {
		Start(context.Context) error
	}

	// Stopper stops a component
	Stopper interface {
		Stop(context.Context) error
	}

	// StartStopper is a component with both Start and Stop
	StartStopper interface {
		Starter
		Stopper
	}

	// Lifecycle manages the start and stop of a list of models
	Lifecycle struct {
		models []Model
	}
)

// Add adds a model into the lifecycle
func (lc *Lifecycle) Add(m Model) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into the lifecycle
func (lc *Lifecycle) AddModels(m ...Model) { lc.models = append(lc.models, m...) }

// OnStart starts all models concurrently
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range lc.models {
		if starter, ok := m.(Starter); ok {
			g.Go(func() error { return starter.Start(ctx) })
		}
	}
	return g.Wait()
}

// OnStop stops all models concurrently
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range lc.models {
		if stopper, ok := m.(Stopper); ok {
			g.Go(func() error { return stopper.Stop(ctx) })
		}
	}
	return g.Wait()
}

// OnStartSequentially starts all models in the order they were added
func (lc *Lifecycle) OnStartSequentially(ctx context.Context) error {
	for _, m := range lc.models {
		if starter, ok := m.(Starter); ok {
			if err := starter.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnStopSequentially stops all models in the reverse order they were added
func (lc *Lifecycle) OnStopSequentially(ctx context.Context) error {
	for i := len(lc.models) - 1; i >= 0; i-- {
		if stopper, ok := lc.models[i].(Stopper); ok {
			if err := stopper.Stop(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
