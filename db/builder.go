// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

// CreateKVStore creates db from config
func CreateKVStore(cfg Config) (KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.DBType {
	case DBMemory:
		return NewMemKVStore(), nil
	case DBPebble:
		return NewPebbleDB(cfg), nil
	default:
		return NewBoltDB(cfg), nil
	}
}

// CreateKVStoreWithCache creates db with an LRU read cache when MaxCacheSize is positive
func CreateKVStoreWithCache(cfg Config) (KVStore, error) {
	dao, err := CreateKVStore(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.MaxCacheSize <= 0 {
		return dao, nil
	}
	return NewKvStoreWithCache(dao, cfg.MaxCacheSize), nil
}
