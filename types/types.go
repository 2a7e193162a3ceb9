// Package types contains shared types used across the specrun orchestrator
package types

import "errors"

// RunState represents the possible states of a run lifecycle
type RunState string

const (
	RunStateIdle           RunState = "idle"
	RunStateConfigBuilding RunState = "config-building"
	RunStateSynthesizeOnly RunState = "synthesize-only"
	RunStateFullRun        RunState = "full-run"
	RunStateCompleted      RunState = "completed"
	RunStateFailed         RunState = "failed"
	RunStateCancelled      RunState = "cancelled"
)

// Terminal returns true once the run can no longer change state.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateFailed || s == RunStateCancelled
}

// RunEvent is emitted to the caller for every test-run outcome. Terminal
// events carry Success only; the synthesize-only path additionally carries
// ResultSpecsUpdated.
type RunEvent struct {
	Success bool
	Result  string
}

// ResultSpecsUpdated is the Result value of the early-exit event emitted
// when the run only rewrites the generated entry file.
const ResultSpecsUpdated = "specs updated"

// RunOptions is the read-only input to a single run.
type RunOptions struct {
	// Spec narrows the suite to files matching the selector. May be an
	// absolute-style path, a path relative to SourceRoot, or a glob, with
	// or without the .spec suffix.
	Spec string

	// SpecUpdate rewrites the generated entry file and exits without
	// starting the runner. Only meaningful when Spec is set.
	SpecUpdate bool

	// Watch keeps the runner alive across file changes. Nil means the
	// runner decides; when set, the runner's single-run flag is its
	// negation.
	Watch *bool

	// Browsers is a comma-joined browser list handed to the runner.
	Browsers string

	// Reporters are runner reporter names, each entry possibly itself
	// comma-joined.
	Reporters []string

	FrameworkConfig string // test-framework config file path
	BundlerConfig   string // bundler config file path
	ProjectRoot     string
	SourceRoot      string // relative to ProjectRoot
}

var (
	// ErrNoMatch is returned when a spec selector expands to zero files.
	// Always fatal to the run, never retried.
	ErrNoMatch = errors.New("Specified spec glob does not match any files")

	// ErrRunnerStart wraps failures propagated opaquely from the external
	// runner's start call.
	ErrRunnerStart = errors.New("test runner failed to start")
)
