// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package itx

import (
	"context"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/action/protocol/grant"
	"github.com/iotexproject/iotex-grant/pkg/log"
)

var _heartbeatMtc = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "iotex_grant_heartbeat_status",
		Help: "Grant server heartbeat status.",
	},
	[]string{"status_type"},
)

func init() {
	prometheus.MustRegister(_heartbeatMtc)
}

// HeartbeatHandler is the handler to periodically log the system key metrics
type HeartbeatHandler struct {
	s *Server
}

// NewHeartbeatHandler instantiates a HeartbeatHandler instance
func NewHeartbeatHandler(s *Server) *HeartbeatHandler {
	return &HeartbeatHandler{s: s}
}

// Log executes the logging logic
func (h *HeartbeatHandler) Log() {
	var cfg *grant.ContractConfig
	if err := h.s.sf.View(context.Background(), func(ctx context.Context, sr protocol.StateReader) (err error) {
		cfg, err = h.s.grant.GetConfig(ctx, sr)
		return
	}); err != nil {
		log.L().Error("Failed to read grant config.", zap.Error(err))
		return
	}
	paid, err := h.s.ledger.TotalPaid()
	if err != nil {
		log.L().Error("Failed to read total payout.", zap.Error(err))
		return
	}
	height := h.s.sf.Height()
	fields := []zap.Field{
		zap.Uint64("height", height),
		zap.Uint64("currentRound", cfg.CurrentRoundID),
		zap.String("feeAmount", cfg.FeeAmount.String()),
		zap.String("totalPaid", paid.String()),
	}
	if round := cfg.CurrentRound; round != nil {
		fields = append(fields,
			zap.Stringer("roundStatus", round.Status),
			zap.String("supportPool", round.SupportPool.String()),
			zap.String("supportArea", round.SupportArea.String()))
		_heartbeatMtc.WithLabelValues("supportPool").Set(toFloat(round.SupportPool))
	}
	log.L().Info("Grant status.", fields...)

	_heartbeatMtc.WithLabelValues("height").Set(float64(height))
	_heartbeatMtc.WithLabelValues("currentRound").Set(float64(cfg.CurrentRoundID))
	_heartbeatMtc.WithLabelValues("feeAmount").Set(toFloat(cfg.FeeAmount))
	_heartbeatMtc.WithLabelValues("totalPaid").Set(toFloat(paid))
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
