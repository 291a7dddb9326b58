// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package itx

import (
	"context"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/test/identityset"
)

func TestHeartbeatHandler(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s, err := NewInMemTestServer(testConfig())
	require.NoError(err)
	handler := NewHeartbeatHandler(s)

	// not started
	handler.Log()

	require.NoError(s.Start(ctx))
	defer func() {
		require.NoError(s.Stop(ctx))
	}()
	handler.Log()
	require.Zero(testutil.ToFloat64(_heartbeatMtc.WithLabelValues("currentRound")))

	_, err = s.Factory().Execute(ctx, identityset.Address(0), nil, &action.CreateDefaultRound{})
	require.NoError(err)
	_, err = s.Factory().Execute(ctx, identityset.Address(2), big.NewInt(100), &action.Donate{})
	require.NoError(err)
	handler.Log()
	require.EqualValues(1, testutil.ToFloat64(_heartbeatMtc.WithLabelValues("currentRound")))
	require.EqualValues(2, testutil.ToFloat64(_heartbeatMtc.WithLabelValues("height")))
	require.EqualValues(95, testutil.ToFloat64(_heartbeatMtc.WithLabelValues("supportPool")))
	require.EqualValues(5, testutil.ToFloat64(_heartbeatMtc.WithLabelValues("feeAmount")))
}
