// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/iotexproject/go-pkgs/cache"

	"github.com/iotexproject/iotex-grant/db/batch"
)

// kvStoreWithCache is an implementation of KVStore, wrapping kvstore with LRU caches of latest states
type kvStoreWithCache struct {
	mutex       sync.RWMutex // lock for stateCaches
	store       KVStore
	stateCaches map[string]cache.LRUCache // map having lru cache to store current states for speed up
	cacheSize   int
}

// NewKvStoreWithCache wraps kvstore with stateCaches
func NewKvStoreWithCache(kvstore KVStore, cacheSize int) KVStore {
	return &kvStoreWithCache{
		store:       kvstore,
		stateCaches: make(map[string]cache.LRUCache),
		cacheSize:   cacheSize,
	}
}

// Start starts the kvStoreWithCache
func (kvc *kvStoreWithCache) Start(ctx context.Context) error {
	return kvc.store.Start(ctx)
}

// Stop stops the kvStoreWithCache
func (kvc *kvStoreWithCache) Stop(ctx context.Context) error {
	kvc.mutex.Lock()
	for _, sc := range kvc.stateCaches {
		sc.Clear()
	}
	kvc.mutex.Unlock()
	return kvc.store.Stop(ctx)
}

// Put inserts a <key, value> record into stateCaches and kvstore
func (kvc *kvStoreWithCache) Put(namespace string, key, value []byte) error {
	if err := kvc.store.Put(namespace, key, value); err != nil {
		return err
	}
	kvc.updateStateCachesIfExists(namespace, key, value)
	return nil
}

// Get retrieves a <key, value> record from stateCaches, and if not exists, retrieves from kvstore
func (kvc *kvStoreWithCache) Get(namespace string, key []byte) ([]byte, error) {
	if cachedData, isExist := kvc.getStateCaches(namespace, key); isExist {
		return cachedData, nil
	}
	kvStoreData, err := kvc.store.Get(namespace, key)
	if err != nil {
		return nil, err
	}
	// in case of read-miss, put into statecaches
	kvc.putStateCaches(namespace, key, kvStoreData)
	return kvStoreData, nil
}

// Filter returns <k, v> pair in a bucket that meet the condition
func (kvc *kvStoreWithCache) Filter(namespace string, cond Condition, minKey, maxKey []byte) ([][]byte, [][]byte, error) {
	return kvc.store.Filter(namespace, cond, minKey, maxKey)
}

// Delete deletes a record from statecaches if exists, and from kvstore
func (kvc *kvStoreWithCache) Delete(namespace string, key []byte) error {
	if err := kvc.store.Delete(namespace, key); err != nil {
		return err
	}
	kvc.deleteStateCaches(namespace, key)
	return nil
}

// WriteBatch commits a batch into kvstore, then refreshes the cached entries it touched
func (kvc *kvStoreWithCache) WriteBatch(kvsb batch.KVStoreBatch) error {
	kvsb.Lock()
	writes := make([]*batch.WriteInfo, 0, kvsb.Size())
	for i := 0; i < kvsb.Size(); i++ {
		write, err := kvsb.Entry(i)
		if err != nil {
			kvsb.Unlock()
			return err
		}
		writes = append(writes, write)
	}
	kvsb.Unlock()
	if err := kvc.store.WriteBatch(kvsb); err != nil {
		return err
	}
	for _, write := range writes {
		switch write.WriteType() {
		case batch.Put:
			kvc.updateStateCachesIfExists(write.Namespace(), write.Key(), write.Value())
		case batch.Delete:
			kvc.deleteStateCaches(write.Namespace(), write.Key())
		}
	}
	return nil
}

// ======================================
// private functions
// ======================================

// store on stateCaches
func (kvc *kvStoreWithCache) putStateCaches(namespace string, key, value []byte) {
	kvc.mutex.Lock()
	defer kvc.mutex.Unlock()
	sc, ok := kvc.stateCaches[namespace]
	if !ok {
		sc = cache.NewThreadSafeLruCache(kvc.cacheSize)
		kvc.stateCaches[namespace] = sc
	}
	sc.Add(hex.EncodeToString(key), value)
}

// get from stateCaches
func (kvc *kvStoreWithCache) getStateCaches(namespace string, key []byte) ([]byte, bool) {
	kvc.mutex.RLock()
	defer kvc.mutex.RUnlock()
	sc, ok := kvc.stateCaches[namespace]
	if !ok {
		return nil, false
	}
	data, ok := sc.Get(hex.EncodeToString(key))
	if !ok {
		return nil, false
	}
	return data.([]byte), true
}

// update on stateCaches if the key exists
func (kvc *kvStoreWithCache) updateStateCachesIfExists(namespace string, key, value []byte) {
	kvc.mutex.RLock()
	defer kvc.mutex.RUnlock()
	if sc, ok := kvc.stateCaches[namespace]; ok {
		if _, ok := sc.Get(hex.EncodeToString(key)); ok {
			sc.Add(hex.EncodeToString(key), value)
		}
	}
}

// delete from stateCaches
func (kvc *kvStoreWithCache) deleteStateCaches(namespace string, key []byte) {
	kvc.mutex.RLock()
	defer kvc.mutex.RUnlock()
	if sc, ok := kvc.stateCaches[namespace]; ok {
		sc.Remove(hex.EncodeToString(key))
	}
}
