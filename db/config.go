// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import "github.com/pkg/errors"

const (
	// DBMemory is the in-memory store
	DBMemory = "memory"
	// DBBolt is the boltdb store
	DBBolt = "boltdb"
	// DBPebble is the pebble store
	DBPebble = "pebble"
)

// Config is the config for database
type Config struct {
	DBType string `yaml:"dbType"`
	DbPath string `yaml:"dbPath"`
	// NumRetries is the number of retries
	NumRetries uint8 `yaml:"numRetries"`
	// MaxCacheSize is the max number of records per namespace kept in the LRU read cache. 0 means disabled
	MaxCacheSize int `yaml:"maxCacheSize"`
	// ReadOnly is set db to be opened in read only mode
	ReadOnly bool `yaml:"readOnly"`
}

// DefaultConfig returns the default config
var DefaultConfig = Config{
	DBType:       DBBolt,
	DbPath:       "./grant.db",
	NumRetries:   3,
	MaxCacheSize: 1024,
}

// Validate checks the db config
func (cfg Config) Validate() error {
	switch cfg.DBType {
	case DBMemory:
		return nil
	case DBBolt, DBPebble:
		if cfg.DbPath == "" {
			return ErrEmptyDBPath
		}
		if cfg.NumRetries == 0 {
			return errors.New("numRetries must be positive")
		}
		return nil
	default:
		return errors.Errorf("unsupported db type %s", cfg.DBType)
	}
}
