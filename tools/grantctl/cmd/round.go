// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-grant/api"
)

var (
	_confirmed bool
	_status    string
	_startAt   uint64
	_endAt     uint64
)

var _roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Manage funding rounds",
}

var _roundCreateCmd = &cobra.Command{
	Use:   "create START END",
	Short: "Open a round with the time window in unix seconds, or the default window without arguments",
	Args:  cobra.RangeArgs(0, 2),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		c := newClient()
		switch len(args) {
		case 0:
			return c.CreateDefaultRound()
		case 2:
			start, err := parseUint(args[0])
			if err != nil {
				return nil, err
			}
			end, err := parseUint(args[1])
			if err != nil {
				return nil, err
			}
			return c.CreateRound(start, end)
		default:
			return nil, errWindow
		}
	}),
}

var _roundUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Override fields of the current round",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string) (any, error) {
		req := &api.UpdateRoundRequest{Confirmed: _confirmed}
		if cmd.Flags().Changed("status") {
			req.Status = &_status
		}
		if cmd.Flags().Changed("start") {
			req.StartAt = &_startAt
		}
		if cmd.Flags().Changed("end") {
			req.EndAt = &_endAt
		}
		return newClient().UpdateCurrentRound(req)
	}),
}

var _roundFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Close the current round",
	Args:  cobra.NoArgs,
	RunE: run(func(*cobra.Command, []string) (any, error) {
		return newClient().FinishRound()
	}),
}

var _roundDonateCmd = &cobra.Command{
	Use:   "donate AMOUNT",
	Short: "Donate to the current round's pool",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		return newClient().Donate(args[0])
	}),
}

var _roundGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a round",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		id, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}
		return newClient().Round(id)
	}),
}

var _roundListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rounds",
	Args:  cobra.NoArgs,
	RunE: run(func(*cobra.Command, []string) (any, error) {
		return newClient().Rounds(page())
	}),
}

func init() {
	_roundUpdateCmd.Flags().BoolVar(&_confirmed, "confirm", false, "confirm the update")
	_roundUpdateCmd.Flags().StringVar(&_status, "status", "", "Active or Finished")
	_roundUpdateCmd.Flags().Uint64Var(&_startAt, "start", 0, "start time in unix seconds")
	_roundUpdateCmd.Flags().Uint64Var(&_endAt, "end", 0, "end time in unix seconds")
	addPageFlags(_roundListCmd)
	_roundCmd.AddCommand(_roundCreateCmd, _roundUpdateCmd, _roundFinishCmd, _roundDonateCmd, _roundGetCmd, _roundListCmd)
}
