// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import "github.com/pkg/errors"

// RoundStatus is the lifecycle status of a round
type RoundStatus uint8

const (
	// RoundActive is the status of a round that accepts votes inside its time window
	RoundActive RoundStatus = iota
	// RoundFinished is the status of a closed round
	RoundFinished
)

// ErrUnknownStatus indicates an unrecognized round status
var ErrUnknownStatus = errors.New("unknown round status")

func (s RoundStatus) String() string {
	switch s {
	case RoundActive:
		return "Active"
	case RoundFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// ParseRoundStatus parses the name of a round status
func ParseRoundStatus(s string) (RoundStatus, error) {
	switch s {
	case "Active":
		return RoundActive, nil
	case "Finished":
		return RoundFinished, nil
	default:
		return 0, errors.Wrapf(ErrUnknownStatus, "status %q", s)
	}
}

type (
	// CreateRound opens a new round with an explicit time window
	CreateRound struct {
		StartAt uint64
		EndAt   uint64
	}

	// CreateDefaultRound opens a new round starting now and lasting the default duration
	CreateDefaultRound struct{}

	// UpdateCurrentRound overrides fields of the current round, only the non-nil ones are applied
	UpdateCurrentRound struct {
		Confirmed bool
		Status    *RoundStatus
		StartAt   *uint64
		EndAt     *uint64
	}

	// FinishRound closes the current round once it is out of its window
	FinishRound struct{}

	// Donate adds the attached deposit to the current round's support pool
	Donate struct{}
)

// Name returns the action name
func (*CreateRound) Name() string { return "createRound" }

// SanityCheck validates the time window
func (act *CreateRound) SanityCheck() error {
	if act.StartAt >= act.EndAt {
		return errors.Wrapf(ErrInvalidTimeWindow, "start %d, end %d", act.StartAt, act.EndAt)
	}
	return nil
}

// Name returns the action name
func (*CreateDefaultRound) Name() string { return "createDefaultRound" }

// SanityCheck always passes
func (*CreateDefaultRound) SanityCheck() error { return nil }

// Name returns the action name
func (*UpdateCurrentRound) Name() string { return "updateCurrentRound" }

// SanityCheck validates the status, the confirmation flag is checked after authorization
func (act *UpdateCurrentRound) SanityCheck() error {
	if act.Status != nil && *act.Status != RoundActive && *act.Status != RoundFinished {
		return errors.Wrapf(ErrUnknownStatus, "status %d", *act.Status)
	}
	return nil
}

// Name returns the action name
func (*FinishRound) Name() string { return "finishRound" }

// SanityCheck always passes
func (*FinishRound) SanityCheck() error { return nil }

// Name returns the action name
func (*Donate) Name() string { return "donate" }

// Payable accepts the attached deposit
func (*Donate) Payable() {}

// SanityCheck always passes
func (*Donate) SanityCheck() error { return nil }
