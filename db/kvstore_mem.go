// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-grant/db/batch"
)

const _btreeDegree = 32

type (
	kvItem struct {
		key   []byte
		value []byte
	}

	// memKVStore is the in-memory implementation of KVStore, keyed by an ordered b-tree per namespace
	memKVStore struct {
		mutex   sync.RWMutex
		buckets map[string]*btree.BTreeG[kvItem]
	}
)

func lessItem(a, b kvItem) bool { return bytes.Compare(a.key, b.key) < 0 }

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{
		buckets: make(map[string]*btree.BTreeG[kvItem]),
	}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

// Put inserts a <key, value> record
func (m *memKVStore) Put(namespace string, key, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.put(namespace, key, value)
	return nil
}

// Get retrieves a record
func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	bucket, ok := m.buckets[namespace]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "namespace = %s doesn't exist", namespace)
	}
	item, ok := bucket.Get(kvItem{key: key})
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
	}
	return item.value, nil
}

// Delete deletes a record
func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.delete(namespace, key)
	return nil
}

// WriteBatch commits a batch
func (m *memKVStore) WriteBatch(b batch.KVStoreBatch) error {
	b.Lock()
	defer b.ClearAndUnlock()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i := 0; i < b.Size(); i++ {
		write, err := b.Entry(i)
		if err != nil {
			return err
		}
		switch write.WriteType() {
		case batch.Put:
			m.put(write.Namespace(), write.Key(), write.Value())
		case batch.Delete:
			m.delete(write.Namespace(), write.Key())
		}
	}
	return nil
}

// Filter returns <k, v> pair in a bucket that meet the condition
func (m *memKVStore) Filter(namespace string, cond Condition, minKey, maxKey []byte) ([][]byte, [][]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	bucket, ok := m.buckets[namespace]
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotExist, "namespace = %s doesn't exist", namespace)
	}
	var keys, vals [][]byte
	bucket.AscendGreaterOrEqual(kvItem{key: minKey}, func(item kvItem) bool {
		if len(maxKey) > 0 && bytes.Compare(item.key, maxKey) > 0 {
			return false
		}
		if cond(item.key, item.value) {
			keys = append(keys, item.key)
			vals = append(vals, item.value)
		}
		return true
	})
	if len(keys) == 0 {
		return nil, nil, errors.Wrap(ErrNotExist, "filter returns no match")
	}
	return keys, vals, nil
}

func (m *memKVStore) put(namespace string, key, value []byte) {
	bucket, ok := m.buckets[namespace]
	if !ok {
		bucket = btree.NewG(_btreeDegree, lessItem)
		m.buckets[namespace] = bucket
	}
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	bucket.ReplaceOrInsert(kvItem{key: k, value: v})
}

func (m *memKVStore) delete(namespace string, key []byte) {
	if bucket, ok := m.buckets[namespace]; ok {
		bucket.Delete(kvItem{key: key})
	}
}
