// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-grant/db"
	"github.com/iotexproject/iotex-grant/test/identityset"
)

func TestNewDefaultConfig(t *testing.T) {
	// default config has no owner
	_, err := New(nil)
	require.Equal(t, ErrInvalidCfg, errors.Cause(err))
}

func TestNewConfigWithoutValidation(t *testing.T) {
	cfg, err := New(nil, DoNotValidate)
	require.NoError(t, err)
	require.Equal(t, Default.Grant.FeePoint, cfg.Grant.FeePoint)
	require.Equal(t, Default.Grant.DefaultVoteCost, cfg.Grant.DefaultVoteCost)
	require.Empty(t, cfg.Grant.Owner)
	require.Equal(t, Default.DB, cfg.DB)
	require.Equal(t, Default.API, cfg.API)
}

func TestNewConfigWithWrongConfigPath(t *testing.T) {
	_, err := New([]string{"wrong_path"})
	require.Error(t, err)
}

func TestNewConfigWithOverride(t *testing.T) {
	require := require.New(t)
	t.Setenv("GRANT_DB_PATH", filepath.Join(t.TempDir(), "state.db"))
	cfgStr := `
grant:
    owner: ` + identityset.Address(0).String() + `
    operators:
        - ` + identityset.Address(1).String() + `
    feePoint: 250
    defaultVoteCost: "1000"
db:
    dbType: pebble
    dbPath: ${GRANT_DB_PATH}
api:
    port: 8000
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte(cfgStr), 0644))

	cfg, err := New([]string{path})
	require.NoError(err)
	require.Equal(uint64(250), cfg.Grant.FeePoint)
	require.Equal(Default.Grant.DefaultDuration, cfg.Grant.DefaultDuration)
	require.Equal(db.DBPebble, cfg.DB.DBType)
	require.Equal(os.Getenv("GRANT_DB_PATH"), cfg.DB.DbPath)
	require.Equal(8000, cfg.API.Port)
	require.Equal(Default.API.RangeQueryLimit, cfg.API.RangeQueryLimit)

	pcfg, err := cfg.Grant.ProtocolConfig()
	require.NoError(err)
	require.Equal(identityset.Address(0).String(), pcfg.Owner.String())
	require.Len(pcfg.Operators, 1)
	require.Equal(big.NewInt(1000).String(), pcfg.DefaultVoteCost.String())
	require.Equal("10000000000000", pcfg.StoragePricePerByte.String())
}

func TestValidateGrant(t *testing.T) {
	require := require.New(t)
	valid := Default
	valid.Grant.Owner = identityset.Address(0).String()
	require.NoError(ValidateGrant(valid))

	for _, modify := range []func(*Grant){
		func(g *Grant) { g.Owner = "" },
		func(g *Grant) { g.Operators = []string{"io1xyz"} },
		func(g *Grant) { g.FeePoint = 10001 },
		func(g *Grant) { g.DefaultDuration = 0 },
		func(g *Grant) { g.DefaultVoteCost = "-1" },
		func(g *Grant) { g.StoragePricePerByte = "one" },
	} {
		cfg := valid
		modify(&cfg.Grant)
		require.Equal(ErrInvalidCfg, errors.Cause(ValidateGrant(cfg)))
	}
}

func TestValidateDBAndAPI(t *testing.T) {
	require := require.New(t)
	cfg := Default
	require.NoError(ValidateDB(cfg))
	require.NoError(ValidateAPI(cfg))

	cfg.Bank = cfg.DB
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateDB(cfg)))
	cfg = Default
	cfg.DB.DBType = "leveldb"
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateDB(cfg)))

	cfg = Default
	cfg.API.Port = 0
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateAPI(cfg)))
	cfg = Default
	cfg.API.RangeQueryLimit = 0
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateAPI(cfg)))
	cfg = Default
	cfg.API.MaxConcurrentRequests = 0
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateAPI(cfg)))
}

func TestDefaultPrices(t *testing.T) {
	require := require.New(t)
	g := Default.Grant
	g.Owner = identityset.Address(0).String()
	pcfg, err := g.ProtocolConfig()
	require.NoError(err)
	// a vote unit costs as much as 10^4 bytes of new state
	ratio := new(big.Int).Div(pcfg.DefaultVoteCost, pcfg.StoragePricePerByte)
	require.Equal("10000", ratio.String())
	require.Zero(new(big.Int).Mod(pcfg.DefaultVoteCost, pcfg.StoragePricePerByte).Sign())
}
