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
	_feePoint        uint64
	_defaultDuration uint64
	_defaultVoteCost string
)

var _configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update the engine parameters",
}

var _configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the engine parameters",
	Args:  cobra.NoArgs,
	RunE: run(func(*cobra.Command, []string) (any, error) {
		return newClient().Config()
	}),
}

var _configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the engine parameters, only the given flags are applied",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string) (any, error) {
		req := &api.SetConfigRequest{}
		if cmd.Flags().Changed("fee-point") {
			req.FeePoint = &_feePoint
		}
		if cmd.Flags().Changed("duration") {
			req.DefaultDuration = &_defaultDuration
		}
		if cmd.Flags().Changed("vote-cost") {
			req.DefaultVoteCost = &_defaultVoteCost
		}
		return newClient().SetConfig(req)
	}),
}

var _ownerCmd = &cobra.Command{
	Use:   "owner NEW_OWNER",
	Short: "Transfer the ownership",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		return newClient().SetOwner(args[0])
	}),
}

var _operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Grant or revoke the operator capability",
}

var _operatorAddCmd = &cobra.Command{
	Use:   "add ADDRESS...",
	Short: "Grant the operator capability",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		return newClient().ExtendOperators(args)
	}),
}

var _operatorRemoveCmd = &cobra.Command{
	Use:   "remove ADDRESS...",
	Short: "Revoke the operator capability",
	Args:  cobra.MinimumNArgs(1),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		return newClient().RemoveOperators(args)
	}),
}

func init() {
	_configSetCmd.Flags().Uint64Var(&_feePoint, "fee-point", 0, "fee in units of 1/10000")
	_configSetCmd.Flags().Uint64Var(&_defaultDuration, "duration", 0, "default round duration in seconds")
	_configSetCmd.Flags().StringVar(&_defaultVoteCost, "vote-cost", "", "price of a vote unit of new rounds")
	_configCmd.AddCommand(_configGetCmd, _configSetCmd)
	_operatorCmd.AddCommand(_operatorAddCmd, _operatorRemoveCmd)
}
