package specrun

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/bundler-infra/specrun/flags"
	"github.com/bundler-infra/specrun/project"
	"github.com/bundler-infra/specrun/types"
)

// Config holds the orchestrator configuration for one run.
type Config struct {
	Options   types.RunOptions
	Framework *project.Config

	// ServiceAddr is the health/metrics listen address, used by cmd.
	ServiceAddr string

	Log log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	frameworkConfig := ctx.String(flags.FrameworkConfig.Name)
	bundlerConfig := ctx.String(flags.BundlerConfig.Name)
	projectRoot := ctx.String(flags.ProjectRoot.Name)
	sourceRoot := ctx.String(flags.SourceRoot.Name)

	if frameworkConfig == "" {
		return nil, errors.New("framework config path is required")
	}
	if bundlerConfig == "" {
		return nil, errors.New("bundler config path is required")
	}
	if projectRoot == "" {
		return nil, errors.New("project root is required")
	}
	if sourceRoot == "" {
		return nil, errors.New("source root is required")
	}

	absFrameworkConfig, err := filepath.Abs(frameworkConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for framework config: %w", err)
	}
	absBundlerConfig, err := filepath.Abs(bundlerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for bundler config: %w", err)
	}
	absProjectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for project root: %w", err)
	}

	opts := types.RunOptions{
		Spec:            ctx.String(flags.Spec.Name),
		SpecUpdate:      ctx.Bool(flags.SpecUpdate.Name),
		Browsers:        ctx.String(flags.Browsers.Name),
		Reporters:       ctx.StringSlice(flags.Reporters.Name),
		FrameworkConfig: absFrameworkConfig,
		BundlerConfig:   absBundlerConfig,
		ProjectRoot:     absProjectRoot,
		// Kept as given: the selector strip rule and the search dir both
		// treat the source root as relative to the project root.
		SourceRoot: sourceRoot,
	}

	// Watch is tri-state: unset leaves the runner's default in place.
	if ctx.IsSet(flags.Watch.Name) {
		watch := ctx.Bool(flags.Watch.Name)
		opts.Watch = &watch
	}

	if opts.SpecUpdate && opts.Spec == "" {
		log.Warn("Ignoring spec-update: no spec selector given")
		opts.SpecUpdate = false
	}

	framework, err := project.Load(absFrameworkConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load framework config: %w", err)
	}
	framework.ApplyDefaults(&opts)

	return &Config{
		Options:     opts,
		Framework:   framework,
		ServiceAddr: ctx.String(flags.ServiceAddr.Name),
		Log:         log,
	}, nil
}
