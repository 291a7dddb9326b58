// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol/grant"
	"github.com/iotexproject/iotex-grant/pkg/lifecycle"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/state/factory"
)

// ErrBadRequest indicates a malformed request
var ErrBadRequest = errors.New("bad request")

// statusCode maps an engine error to the http status
func statusCode(err error) int {
	switch errors.Cause(err) {
	case grant.ErrUnauthorized:
		return http.StatusForbidden
	case grant.ErrStateConflict, grant.ErrRoundMismatch:
		return http.StatusConflict
	case grant.ErrRoundWindow:
		return http.StatusUnprocessableEntity
	case grant.ErrInsufficientFunds:
		return http.StatusPaymentRequired
	case grant.ErrOverflow, grant.ErrInvalidArgument, ErrBadRequest,
		action.ErrInvalidAmount, action.ErrInvalidAddress, action.ErrInvalidVotes,
		action.ErrInvalidTimeWindow, action.ErrInvalidFeePoint, action.ErrUnknownStatus:
		return http.StatusBadRequest
	case grant.ErrNotFound:
		return http.StatusNotFound
	case factory.ErrTransfer:
		return http.StatusBadGateway
	case lifecycle.ErrWrongState:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.L().Warn("Failed to send http response.", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		log.L().Error("Failed to serve request.", zap.Error(err))
	}
	writeJSON(w, code, &Response{ResponseType: ResponseTypeError, Error: err.Error()})
}

func writeObject(w http.ResponseWriter, obj any) {
	writeJSON(w, http.StatusOK, &Response{ResponseType: ResponseTypeObject, Object: obj})
}

func writeArray(w http.ResponseWriter, arr any, meta any) {
	writeJSON(w, http.StatusOK, &Response{ResponseType: ResponseTypeArray, Array: arr, Meta: meta})
}
