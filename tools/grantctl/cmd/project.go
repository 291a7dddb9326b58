// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-grant/api"
)

var errWindow = errors.New("requires both start and end")

var (
	_name        string
	_description string
	_url         string
	_image       string
	_listRound   uint64
	_listOwner   string
	_deposit     string
)

var _projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var _projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register the caller's project in the current round",
	Args:  cobra.NoArgs,
	RunE: run(func(*cobra.Command, []string) (any, error) {
		return newClient().CreateProject(&api.CreateProjectRequest{
			Name:        _name,
			Description: _description,
			URL:         _url,
			Image:       _image,
		})
	}),
}

var _projectGetCmd = &cobra.Command{
	Use:   "get ROUND OWNER",
	Short: "Show a project",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		round, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}
		return newClient().Project(round, args[1])
	}),
}

var _projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects, optionally of a round or an owner",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string) (any, error) {
		c := newClient()
		switch {
		case cmd.Flags().Changed("round"):
			return c.ProjectsInRound(_listRound, page())
		case _listOwner != "":
			return c.ProjectsForOwner(_listOwner, page())
		default:
			return c.Projects(page())
		}
	}),
}

var _projectShareCmd = &cobra.Command{
	Use:   "share ROUND OWNER",
	Short: "Show the entitlement of a project",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		round, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}
		return newClient().Share(round, args[1])
	}),
}

var _projectVoteCmd = &cobra.Command{
	Use:   "vote ROUND OWNER UNITS",
	Short: "Buy vote units for a project with the deposit",
	Args:  cobra.ExactArgs(3),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		round, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}
		units, err := parseUint(args[2])
		if err != nil {
			return nil, err
		}
		return newClient().Vote(round, args[1], units, _deposit)
	}),
}

var _projectWithdrawCmd = &cobra.Command{
	Use:   "withdraw ROUND OWNER AMOUNT",
	Short: "Pay out part of a project's entitlement to its owner",
	Args:  cobra.ExactArgs(3),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		round, err := parseUint(args[0])
		if err != nil {
			return nil, err
		}
		return newClient().Withdraw(round, args[1], args[2])
	}),
}

var _voterCmd = &cobra.Command{
	Use:   "votes VOTER",
	Short: "Show the votes of a voter",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(_ *cobra.Command, args []string) (any, error) {
		return newClient().VotesOf(args[0])
	}),
}

func init() {
	_projectCreateCmd.Flags().StringVar(&_name, "name", "", "project name")
	_projectCreateCmd.Flags().StringVar(&_description, "description", "", "project description")
	_projectCreateCmd.Flags().StringVar(&_url, "url", "", "project url")
	_projectCreateCmd.Flags().StringVar(&_image, "image", "", "project image")
	_projectListCmd.Flags().Uint64Var(&_listRound, "round", 0, "list the projects of the round")
	_projectListCmd.Flags().StringVar(&_listOwner, "owner", "", "list the projects of the owner")
	addPageFlags(_projectListCmd)
	_projectVoteCmd.Flags().StringVar(&_deposit, "deposit", "", "amount attached to pay for the votes")
	_ = _projectVoteCmd.MarkFlagRequired("deposit")
	_projectCmd.AddCommand(_projectCreateCmd, _projectGetCmd, _projectListCmd, _projectShareCmd, _projectVoteCmd, _projectWithdrawCmd)
}
