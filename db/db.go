// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-grant/db/batch"
	"github.com/iotexproject/iotex-grant/pkg/lifecycle"
)

var (
	// ErrNotExist indicates certain item does not exist in the database
	ErrNotExist = errors.New("not exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
	// ErrDBNotStarted indicates the DB is not started or already stopped
	ErrDBNotStarted = errors.New("DB not started")
	// ErrEmptyDBPath is the error when db path is empty
	ErrEmptyDBPath = errors.New("empty db path")
)

type (
	// Condition decides whether a <k, v> pair is selected by Filter
	Condition func(k, v []byte) bool

	// KVStore is the interface of an ordered KV store, keys in a namespace iterate in ascending byte order
	KVStore interface {
		lifecycle.StartStopper

		// Put insert or update a record identified by (namespace, key)
		Put(string, []byte, []byte) error
		// Get gets a record by (namespace, key)
		Get(string, []byte) ([]byte, error)
		// Delete deletes a record by (namespace, key)
		Delete(string, []byte) error
		// WriteBatch commits a batch atomically
		WriteBatch(batch.KVStoreBatch) error
		// Filter returns <k, v> pairs in a namespace with minKey <= k <= maxKey that meet the condition,
		// in ascending key order; an empty maxKey means no upper bound
		Filter(string, Condition, []byte, []byte) ([][]byte, [][]byte, error)
	}
)

// MatchAll is a Condition selecting every record
func MatchAll(_, _ []byte) bool { return true }
