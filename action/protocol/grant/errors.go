// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import "github.com/pkg/errors"

var (
	// ErrUnauthorized indicates the caller lacks the owner or operator capability, or the required
	// payment confirmation is missing
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStateConflict indicates the action conflicts with the current state
	ErrStateConflict = errors.New("state conflict")
	// ErrRoundMismatch indicates the action targets a round other than the current one
	ErrRoundMismatch = errors.New("round mismatch")
	// ErrRoundWindow indicates the round is not inside its active window
	ErrRoundWindow = errors.New("round is not active")
	// ErrInsufficientFunds indicates the amount exceeds the deposit or the withdrawable balance
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrOverflow indicates an amount exceeds the 128-bit range
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrNotFound indicates an unknown round or project
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed action fields
	ErrInvalidArgument = errors.New("invalid argument")
)
