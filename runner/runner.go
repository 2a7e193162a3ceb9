// Package runner defines the capability interface for the external test
// runner and the translation from run options into runner options.
//
// The original system discovered the runner from the project's dependency
// tree at run time. Here the host application injects a Factory at startup
// instead; the orchestrator only ever talks to these narrow interfaces.
package runner

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/bundler-infra/specrun/bundle"
	"github.com/bundler-infra/specrun/types"
)

// Options configures one runner server for a single run.
type Options struct {
	// ConfigFile is the test-framework configuration file path.
	ConfigFile string

	// Browsers and Reporters are already split and empty-filtered.
	Browsers  []string
	Reporters []string

	// SingleRun, when set, tells the runner to exit after one pass. It is
	// the negation of the caller's watch option.
	SingleRun *bool

	// BundleConfig is the assembled bundler configuration, handed to the
	// runner by value for the duration of the run.
	BundleConfig bundle.Config

	// OnSuccess and OnFailure relay individual run outcomes. Under watch
	// mode either may fire many times before the server completes.
	OnSuccess func()
	OnFailure func()

	Log log.Logger
}

// Factory creates runner servers. onComplete fires exactly once, when the
// server itself shuts down, independent of individual success or failure
// callbacks.
type Factory interface {
	CreateServer(opts Options, onComplete func()) (Server, error)
}

// Server is one started instance of the external test runner.
type Server interface {
	Start(ctx context.Context) error
}

// Stopper is optionally implemented by servers that support teardown.
// Servers without it are simply abandoned on cancellation.
type Stopper interface {
	Stop(ctx context.Context) error
}

// BuildOptions normalizes run options into runner options: the browser
// list splits on commas, reporters flatten then split then drop empties,
// and the single-run flag is the negation of watch when watch is set.
func BuildOptions(opts types.RunOptions, cfg bundle.Config, log log.Logger) Options {
	var singleRun *bool
	if opts.Watch != nil {
		v := !*opts.Watch
		singleRun = &v
	}

	return Options{
		ConfigFile:   opts.FrameworkConfig,
		Browsers:     splitList(opts.Browsers),
		Reporters:    splitList(opts.Reporters...),
		SingleRun:    singleRun,
		BundleConfig: cfg,
		Log:          log,
	}
}

// splitList splits each entry on commas and drops empty elements.
func splitList(entries ...string) []string {
	var out []string
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
