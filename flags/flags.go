package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "SPECRUN"

var (
	Spec = &cli.StringFlag{
		Name:    "spec",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SPEC"),
		Usage:   "Spec selector narrowing the suite (path or glob, with or without the .spec suffix)",
	}
	SpecUpdate = &cli.BoolFlag{
		Name:    "spec-update",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SPEC_UPDATE"),
		Usage:   "Rewrite the generated entry file and exit without starting the runner",
	}
	Watch = &cli.BoolFlag{
		Name:    "watch",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WATCH"),
		Usage:   "Keep the runner alive and re-run on file changes",
	}
	Browsers = &cli.StringFlag{
		Name:    "browsers",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BROWSERS"),
		Usage:   "Comma-separated browser list handed to the runner (eg. 'Chrome,Firefox')",
	}
	Reporters = &cli.StringSliceFlag{
		Name:    "reporters",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORTERS"),
		Usage:   "Runner reporters; repeatable, each value may itself be comma-separated",
	}
	FrameworkConfig = &cli.StringFlag{
		Name:     "framework-config",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "FRAMEWORK_CONFIG"),
		Usage:    "Path to the test-framework config file (eg. 'specrun.yaml')",
	}
	BundlerConfig = &cli.StringFlag{
		Name:     "bundler-config",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "BUNDLER_CONFIG"),
		Usage:    "Path to the bundler config file",
	}
	ProjectRoot = &cli.StringFlag{
		Name:     "project-root",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "PROJECT_ROOT"),
		Usage:    "Project root directory",
	}
	SourceRoot = &cli.StringFlag{
		Name:     "source-root",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "SOURCE_ROOT"),
		Usage:    "Source root the spec selector resolves against, relative to the project root (eg. 'src')",
	}
	RunnerCommand = &cli.StringFlag{
		Name:    "runner-cmd",
		Value:   "karma start",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUNNER_CMD"),
		Usage:   "External test runner invocation the run delegates to",
	}
	ServiceAddr = &cli.StringFlag{
		Name:    "service-addr",
		Value:   ":7310",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVICE_ADDR"),
		Usage:   "Listen address for the health and metrics endpoints",
	}
)

var requiredFlags = []cli.Flag{
	FrameworkConfig,
	BundlerConfig,
	ProjectRoot,
	SourceRoot,
}

var optionalFlags = []cli.Flag{
	Spec,
	SpecUpdate,
	Watch,
	Browsers,
	Reporters,
	RunnerCommand,
	ServiceAddr,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
