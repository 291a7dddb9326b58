// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Usage:
//   go build -o ./bin/server ./server
//   ./bin/server -config-path=./config.yaml
//

package main

import (
	"context"
	"flag"
	"fmt"
	glog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/config"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/pkg/probe"
	"github.com/iotexproject/iotex-grant/pkg/version"
	"github.com/iotexproject/iotex-grant/server/itx"
)

// _configPaths is a comma separated list of yaml files, later files override earlier ones
var _configPaths string

func init() {
	flag.StringVar(&_configPaths, "config-path", "", "Config paths, separated by comma")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr,
			"usage: server -config-path=[string]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var paths []string
	if _configPaths != "" {
		paths = strings.Split(_configPaths, ",")
	}
	cfg, err := config.New(paths)
	if err != nil {
		glog.Fatalln("Failed to new config.", zap.Error(err))
	}
	initLogger(cfg)
	log.L().Info("Grant server.",
		zap.String("version", version.PackageVersion),
		zap.String("commit", version.PackageCommitID),
		zap.String("buildTime", version.BuildTime),
		zap.String("goVersion", version.GoVersion))

	probeSvr := probe.New(cfg.System.HTTPStatsPort)
	if err := probeSvr.Start(ctx); err != nil {
		log.L().Fatal("Failed to start probe server.", zap.Error(err))
	}
	defer func() {
		if err := probeSvr.Stop(context.Background()); err != nil {
			log.L().Error("Error when stopping probe server.", zap.Error(err))
		}
	}()

	svr, err := itx.NewServer(cfg)
	if err != nil {
		log.L().Fatal("Failed to create server.", zap.Error(err))
	}
	itx.StartServer(ctx, svr, probeSvr, cfg)
}

func initLogger(cfg config.Config) {
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		glog.Println("Cannot config global logger, use default one: ", err)
	}
}
