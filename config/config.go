// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"math/big"
	"os"
	"time"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol/grant"
	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/pkg/log"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

var (
	// Default is the default config
	Default = Config{
		Grant: Grant{
			FeePoint:            500,
			DefaultDuration:     2678400,
			DefaultVoteCost:     "100000000000000000",
			StoragePricePerByte: "10000000000000",
		},
		DB: db.DefaultConfig,
		Bank: db.Config{
			DBType: db.DBMemory,
		},
		API: API{
			Port:                  14024,
			RangeQueryLimit:       1000,
			MaxConcurrentRequests: 64,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
		},
		System: System{
			HeartbeatInterval: 10 * time.Second,
			HTTPStatsPort:     8080,
			HTTPAdminPort:     9009,
		},
		SubLogs: make(map[string]log.GlobalConfig),
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection config validation functions
	Validates = []Validate{
		ValidateGrant,
		ValidateDB,
		ValidateAPI,
	}
)

type (
	// Grant is the config of the grant engine, applied when the contract state is created
	Grant struct {
		Owner           string   `yaml:"owner"`
		Operators       []string `yaml:"operators"`
		FeePoint        uint64   `yaml:"feePoint"`
		DefaultDuration uint64   `yaml:"defaultDuration"`
		// DefaultVoteCost is the decimal price of a vote unit
		DefaultVoteCost string `yaml:"defaultVoteCost"`
		// StoragePricePerByte is the decimal price of a byte of new state charged to voters
		StoragePricePerByte string `yaml:"storagePricePerByte"`
	}

	// API is the api service config
	API struct {
		Port int `yaml:"port"`
		// RangeQueryLimit caps the page size of list queries
		RangeQueryLimit       uint64        `yaml:"rangeQueryLimit"`
		MaxConcurrentRequests int64         `yaml:"maxConcurrentRequests"`
		ReadTimeout           time.Duration `yaml:"readTimeout"`
		WriteTimeout          time.Duration `yaml:"writeTimeout"`
	}

	// System is the system config
	System struct {
		HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
		// HTTPStatsPort is the port of the probe and metrics server, 0 disables it
		HTTPStatsPort int `yaml:"httpStatsPort"`
		// HTTPAdminPort serves pprof, 0 disables it
		HTTPAdminPort int `yaml:"httpAdminPort"`
	}

	// Config is the root config struct, each package's config should be put as its sub struct
	Config struct {
		Grant   Grant                       `yaml:"grant"`
		DB      db.Config                   `yaml:"db"`
		Bank    db.Config                   `yaml:"bank"`
		API     API                         `yaml:"api"`
		System  System                      `yaml:"system"`
		Log     log.GlobalConfig            `yaml:"log"`
		SubLogs map[string]log.GlobalConfig `yaml:"subLogs"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config paths are not empty, it will read
// from the files and override the default configs. By default, it will apply all validation functions. To bypass
// validation, use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }

// ProtocolConfig converts the grant config into the engine parameters
func (g Grant) ProtocolConfig() (grant.Config, error) {
	owner, err := address.FromString(g.Owner)
	if err != nil {
		return grant.Config{}, errors.Wrapf(ErrInvalidCfg, "invalid owner %q", g.Owner)
	}
	cfg := grant.Config{
		Owner:           owner,
		FeePoint:        g.FeePoint,
		DefaultDuration: g.DefaultDuration,
	}
	for _, op := range g.Operators {
		addr, err := address.FromString(op)
		if err != nil {
			return grant.Config{}, errors.Wrapf(ErrInvalidCfg, "invalid operator %q", op)
		}
		cfg.Operators = append(cfg.Operators, addr)
	}
	if cfg.DefaultVoteCost, err = parseAmount(g.DefaultVoteCost); err != nil {
		return grant.Config{}, errors.Wrap(err, "invalid default vote cost")
	}
	if cfg.StoragePricePerByte, err = parseAmount(g.StoragePricePerByte); err != nil {
		return grant.Config{}, errors.Wrap(err, "invalid storage price")
	}
	return cfg, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Wrapf(ErrInvalidCfg, "amount %q", s)
	}
	return v, nil
}

// ValidateGrant validates the grant engine configs
func ValidateGrant(cfg Config) error {
	if _, err := cfg.Grant.ProtocolConfig(); err != nil {
		return err
	}
	if cfg.Grant.FeePoint > action.MaxFeePoint {
		return errors.Wrapf(ErrInvalidCfg, "fee point %d exceeds %d", cfg.Grant.FeePoint, action.MaxFeePoint)
	}
	if cfg.Grant.DefaultDuration == 0 {
		return errors.Wrap(ErrInvalidCfg, "default duration should be greater than 0")
	}
	return nil
}

// ValidateDB validates the db configs
func ValidateDB(cfg Config) error {
	if err := cfg.DB.Validate(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	if err := cfg.Bank.Validate(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	if cfg.DB.DBType != db.DBMemory && cfg.DB.DBType == cfg.Bank.DBType && cfg.DB.DbPath == cfg.Bank.DbPath {
		return errors.Wrap(ErrInvalidCfg, "state and bank cannot share a db file")
	}
	return nil
}

// ValidateAPI validates the api configs
func ValidateAPI(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.Wrap(ErrInvalidCfg, "api port should be greater than 0")
	}
	if cfg.API.RangeQueryLimit == 0 {
		return errors.Wrap(ErrInvalidCfg, "range query limit should be greater than 0")
	}
	if cfg.API.MaxConcurrentRequests <= 0 {
		return errors.Wrap(ErrInvalidCfg, "max concurrent requests should be greater than 0")
	}
	return nil
}
