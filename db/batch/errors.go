// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import "github.com/pkg/errors"

var (
	// ErrNotExist indicates certain item does not exist in the cache
	ErrNotExist = errors.New("not exist in cache")
	// ErrAlreadyDeleted indicates the key has been deleted
	ErrAlreadyDeleted = errors.New("already deleted")
	// ErrOutOfBound indicates an out of bound entry index
	ErrOutOfBound = errors.New("out of bound")
)
