// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-grant/pkg/version"
	"github.com/iotexproject/iotex-grant/tools/grantctl/client"
)

var (
	_endpoint string
	_caller   string
	_timeout  time.Duration
	_limit    uint64
	_offset   uint64
)

// RootCmd is the root command of grantctl
var RootCmd = &cobra.Command{
	Use:   "grantctl",
	Short: "Command-line interface of the grant server",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&_endpoint, "endpoint", "http://localhost:14024", "grant api endpoint")
	RootCmd.PersistentFlags().StringVar(&_caller, "caller", "", "address sending the request")
	RootCmd.PersistentFlags().DurationVar(&_timeout, "timeout", 10*time.Second, "request timeout")
	RootCmd.AddCommand(_versionCmd, _configCmd, _roundCmd, _projectCmd, _voterCmd, _ownerCmd, _operatorCmd)
}

var _versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of grantctl",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return output(cmd, map[string]string{
			"packageVersion":  version.PackageVersion,
			"packageCommitID": version.PackageCommitID,
			"gitStatus":       version.GitStatus,
			"goVersion":       version.GoVersion,
			"buildTime":       version.BuildTime,
		})
	},
}

func newClient() *client.Client {
	return client.New(_endpoint, _caller, _timeout)
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&_limit, "limit", 0, "max number of items, 0 for the server limit")
	cmd.Flags().Uint64Var(&_offset, "offset", 0, "number of items to skip")
}

func page() *client.Page {
	return &client.Page{Limit: _limit, Offset: _offset}
}

// output prints the result as indented json
func output(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// run silences the usage once the arguments are accepted
func run(f func(cmd *cobra.Command, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ret, err := f(cmd, args)
		if err != nil {
			return err
		}
		return output(cmd, ret)
	}
}

func parseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid number %q", s)
	}
	return v, nil
}
