package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/bundler-infra/specrun"
	"github.com/bundler-infra/specrun/bundle"
	"github.com/bundler-infra/specrun/flags"
	"github.com/bundler-infra/specrun/runner"
	"github.com/bundler-infra/specrun/service"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "specrun"
	app.Usage = "Bundled Test Run Orchestrator"
	app.Description = "specrun assembles a test bundle configuration, optionally narrows the suite to selected spec files, and drives an external test runner"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)

	ctx := ctxinterrupt.WithSignalWaiterMain(context.Background())
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())
	oplog.SetupDefaults()

	cfg, err := specrun.NewConfig(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}

	svc := service.New(cfg.ServiceAddr)
	svc.Start(ctx.Context)

	factory := &runner.ExecFactory{Command: ctx.String(flags.RunnerCommand.Name)}
	coordinator, err := specrun.New(ctx.Context, cfg, bundle.NewFileBuilder(), factory, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	// Relay run events into the log and shut the app down once the event
	// stream completes.
	go func() {
		for ev := range coordinator.Events() {
			if ev.Success {
				logger.Info("Run event", "success", true, "result", ev.Result)
			} else {
				logger.Error("Run event", "success", false, "result", ev.Result)
			}
		}
		svc.Shutdown()
		closeApp(nil)
	}()

	return coordinator, nil
}
