package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devaraj-kavali/spark/driver"
)

func main() {
	if err := newDriverCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDriverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driver",
		Short: "start a driver session and report its resource profile setup",
		// The config layer owns flag parsing, pass everything through.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriver(args)
		},
	}
	return cmd
}

func runDriver(args []string) error {
	cfg := driver.NewConfig()
	err := cfg.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := driver.InitLogger(cfg); err != nil {
		return err
	}
	log.L().Info("Driver config", zap.String("config", cfg.String()))

	session, err := driver.NewSession(cfg)
	if err != nil {
		return err
	}

	defaultRP := session.Manager().DefaultProfile()
	cpus, err := session.Manager().TaskCPUsForProfileID(defaultRP.ID())
	if err != nil {
		return err
	}
	log.L().Info("Default resource profile",
		zap.String("app-id", session.AppID()),
		zap.Any("executor-resources", defaultRP.ExecutorResources()),
		zap.Any("task-resources", defaultRP.TaskResources()),
		zap.Int("task-cpus", cpus),
		zap.String("limiting-resource", defaultRP.LimitingResource()),
		zap.Int("max-tasks-per-executor", defaultRP.MaxTasksPerExecutor()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return session.Close(ctx)
}
