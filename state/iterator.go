// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfBoundary indicates a read past the end of the iterator or its page
	ErrOutOfBoundary = errors.New("index is out of boundary")
	// ErrNilValue indicates a key whose state is missing
	ErrNilValue = errors.New("value is nil")
	// ErrInConsistentLength indicates keys and states of different lengths
	ErrInConsistentLength = errors.New("keys and states have inconsistent length")
)

// Iterator reads a set of states in ascending key order
type Iterator interface {
	// Size returns the number of states in the set, regardless of paging
	Size() int
	// Page narrows the iterator to limit states starting at offset and returns how many Next will
	// yield. A zero limit means no limit, an offset past the end yields an empty page.
	Page(limit, offset uint64) int
	// Next deserializes the next state and returns its key
	Next(interface{}) ([]byte, error)
}

type sliceIterator struct {
	keys   [][]byte
	states [][]byte
	next   int
	end    int
}

// NewIterator returns an iterator over serialized states sorted by key
func NewIterator(keys [][]byte, states [][]byte) (Iterator, error) {
	if len(keys) != len(states) {
		return nil, ErrInConsistentLength
	}
	return &sliceIterator{keys: keys, states: states, end: len(states)}, nil
}

func (it *sliceIterator) Size() int {
	return len(it.states)
}

func (it *sliceIterator) Page(limit, offset uint64) int {
	size := uint64(len(it.states))
	if offset >= size {
		it.next, it.end = len(it.states), len(it.states)
		return 0
	}
	end := size
	if limit > 0 && limit < size-offset {
		end = offset + limit
	}
	it.next, it.end = int(offset), int(end)
	return it.end - it.next
}

func (it *sliceIterator) Next(s interface{}) ([]byte, error) {
	if it.next >= it.end {
		return nil, ErrOutOfBoundary
	}
	i := it.next
	it.next++
	if it.states[i] == nil {
		return nil, ErrNilValue
	}
	return it.keys[i], Deserialize(s, it.states[i])
}
