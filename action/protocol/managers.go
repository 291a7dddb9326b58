// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-grant/state"
)

// maxKeySuffix bounds the keys under a prefix, longer than any key suffix used by the protocols
const maxKeySuffix = 64

// NamespaceOption creates an option for given namesapce
func NamespaceOption(ns string) StateOption {
	return func(sc *StateConfig) error {
		sc.Namespace = ns
		return nil
	}
}

// KeyOption sets the key for call
func KeyOption(key []byte) StateOption {
	return func(cfg *StateConfig) error {
		cfg.Key = make([]byte, len(key))
		copy(cfg.Key, key)
		return nil
	}
}

// KeyPrefixOption selects all keys starting with the prefix, in ascending order
func KeyPrefixOption(prefix []byte) StateOption {
	return func(cfg *StateConfig) error {
		cfg.MinKey = make([]byte, len(prefix))
		copy(cfg.MinKey, prefix)
		cfg.MaxKey = append(append([]byte{}, prefix...), bytes.Repeat([]byte{0xff}, maxKeySuffix)...)
		cfg.Cond = func(k, _ []byte) bool { return bytes.HasPrefix(k, prefix) }
		return nil
	}
}

// CreateStateConfig creates a config for accessing stateDB
func CreateStateConfig(opts ...StateOption) (*StateConfig, error) {
	cfg := StateConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to execute state option")
		}
	}
	if cfg.Namespace == "" {
		return nil, errors.New("namespace is required")
	}
	return &cfg, nil
}

type (
	// StateConfig is the config for accessing stateDB
	StateConfig struct {
		Namespace string // namespace used by state's storage
		Key       []byte
		MinKey    []byte
		MaxKey    []byte
		Cond      func(k, v []byte) bool
	}

	// StateOption sets parameter for access state
	StateOption func(*StateConfig) error

	// StateReader defines an interface to read stateDB
	StateReader interface {
		// State reads the state at the key into the object, state.ErrStateNotExist if missing
		State(interface{}, ...StateOption) error
		// States iterates the states selected by the options in ascending key order
		States(...StateOption) (state.Iterator, error)
	}

	// StateManager defines the stateDB interface of a working set. Writes are visible to later reads
	// of the same working set and are committed atomically or not at all.
	StateManager interface {
		StateReader
		PutState(interface{}, ...StateOption) error
		DelState(...StateOption) error
		// StorageUsage returns the bytes of storage added by the working set so far, negative if it shrank
		StorageUsage() int64
	}
)
