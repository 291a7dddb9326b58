// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

type (
	// KVStoreCache is a local cache of batched <k, v> for fast query
	KVStoreCache interface {
		// Read retrieves a record
		Read(string, []byte) ([]byte, error)
		// Write puts a record into cache
		Write(string, []byte, []byte)
		// Evict marks a record deleted in cache
		Evict(string, []byte)
		// Clear clear the cache
		Clear()
	}

	node struct {
		value   []byte
		deleted bool
	}

	// kvCache implements KVStoreCache interface
	kvCache struct {
		cache map[string]map[string]*node // local cache of batched <k, v> for fast query
	}
)

// NewKVCache returns a KVCache
func NewKVCache() KVStoreCache {
	return &kvCache{
		cache: make(map[string]map[string]*node),
	}
}

// Read retrieves a record
func (c *kvCache) Read(ns string, key []byte) ([]byte, error) {
	if bucket, ok := c.cache[ns]; ok {
		if n, ok := bucket[string(key)]; ok {
			if n.deleted {
				return nil, ErrAlreadyDeleted
			}
			return n.value, nil
		}
	}
	return nil, ErrNotExist
}

// Write puts a record into cache
func (c *kvCache) Write(ns string, key, v []byte) {
	c.put(ns, key, &node{value: v})
}

// Evict marks a record deleted in cache
func (c *kvCache) Evict(ns string, key []byte) {
	c.put(ns, key, &node{deleted: true})
}

// Clear clears the cache
func (c *kvCache) Clear() {
	c.cache = make(map[string]map[string]*node)
}

func (c *kvCache) put(ns string, key []byte, n *node) {
	if _, ok := c.cache[ns]; !ok {
		c.cache[ns] = make(map[string]*node)
	}
	c.cache[ns][string(key)] = n
}
