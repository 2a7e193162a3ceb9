package specrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/bundler-infra/specrun/bundle"
	"github.com/bundler-infra/specrun/entryfile"
	"github.com/bundler-infra/specrun/metrics"
	"github.com/bundler-infra/specrun/runner"
	"github.com/bundler-infra/specrun/specs"
	"github.com/bundler-infra/specrun/types"
)

// Coordinator implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &Coordinator{}

// Coordinator drives one orchestrated test run: it assembles the bundler
// configuration, optionally narrows the suite by synthesizing a filtered
// entry file, starts the external runner and relays its callbacks as run
// events. One Coordinator serves one run; overlapping runs against the same
// project root need external serialization because the generated entry file
// is not locked against concurrent writers.
type Coordinator struct {
	config    *Config
	version   string
	assembler *bundle.Assembler
	factory   runner.Factory

	runID   string
	started time.Time

	mu        sync.Mutex
	state     types.RunState
	passCount int
	failCount int
	specCount int
	closed    bool

	events    chan types.RunEvent
	runCancel context.CancelFunc
	server    runner.Server
	startDone chan struct{}

	running atomic.Bool
}

func New(ctx context.Context, config *Config, builder bundle.Builder, factory runner.Factory, version string) (*Coordinator, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if factory == nil {
		return nil, errors.New("runner factory is required")
	}

	config.Log.Debug("Creating coordinator with config",
		"projectRoot", config.Options.ProjectRoot,
		"sourceRoot", config.Options.SourceRoot,
		"spec", config.Options.Spec)

	assembler, err := bundle.NewAssembler(builder, config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create config assembler: %w", err)
	}

	return &Coordinator{
		config:    config,
		version:   version,
		assembler: assembler,
		factory:   factory,
		runID:     uuid.NewString(),
		state:     types.RunStateIdle,
		events:    make(chan types.RunEvent, 32),
	}, nil
}

// Events is the run's output stream. It is closed when the run reaches a
// terminal state; under watch mode many events may arrive before that.
func (c *Coordinator) Events() <-chan types.RunEvent {
	return c.events
}

// State returns the current lifecycle state.
func (c *Coordinator) State() types.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start runs the orchestration up to and including runner startup, then
// returns; events keep flowing until the runner completes or Stop is
// called. Start implements the cliapp.Lifecycle interface.
func (c *Coordinator) Start(ctx context.Context) error {
	c.config.Log.Info("Starting specrun", "run_id", c.runID, "version", c.version)
	c.running.Store(true)
	c.started = time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	c.runCancel = cancel

	opts := c.config.Options
	searchDir := filepath.Join(opts.ProjectRoot, opts.SourceRoot)

	c.setState(types.RunStateConfigBuilding)
	merged, err := c.assembler.Assemble(bundle.BuildContext{
		ProjectRoot:     opts.ProjectRoot,
		SourceRoot:      opts.SourceRoot,
		BundlerConfig:   opts.BundlerConfig,
		FrameworkConfig: opts.FrameworkConfig,
	}, "")
	if err != nil {
		return c.fail("config", err)
	}

	if opts.Spec != "" {
		c.setState(types.RunStateSynthesizeOnly)

		pattern := specs.Normalize(opts.Spec, opts.SourceRoot)
		resolved, err := specs.Resolve(pattern, searchDir)
		if err != nil {
			return c.fail("spec resolution", err)
		}
		c.mu.Lock()
		c.specCount = len(resolved)
		c.mu.Unlock()

		template := c.config.Framework.EntryTemplate(searchDir)
		generated := entryfile.GeneratedPath(template)
		if err := entryfile.Synthesize(template, resolved, generated); err != nil {
			return c.fail("entry synthesis", err)
		}
		c.assembler.RetargetEntry(merged, generated)

		c.config.Log.Info("Synthesized entry file",
			"pattern", pattern,
			"specs", len(resolved),
			"generated", generated)
	}

	if opts.SpecUpdate {
		c.terminate(types.RunStateCompleted, &types.RunEvent{Success: true, Result: types.ResultSpecsUpdated})
		return nil
	}

	ropts := runner.BuildOptions(opts, merged, c.config.Log)
	ropts.OnSuccess = func() { c.relay(true) }
	ropts.OnFailure = func() { c.relay(false) }

	server, err := c.factory.CreateServer(ropts, c.onServerComplete)
	if err != nil {
		return c.fail("runner", fmt.Errorf("%w: %v", types.ErrRunnerStart, err))
	}
	c.server = server
	c.startDone = make(chan struct{})

	c.setState(types.RunStateFullRun)
	go func() {
		defer close(c.startDone)
		if err := server.Start(runCtx); err != nil {
			_ = c.fail("runner", fmt.Errorf("%w: %v", types.ErrRunnerStart, err))
		}
	}()

	return nil
}

// Stop cancels the run. The only guaranteed teardown is stopping the
// runner when it supports stopping, after its start call has resolved;
// cancellation never emits a failure event. Stop implements the
// cliapp.Lifecycle interface.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.terminate(types.RunStateCancelled, nil)
	if c.runCancel != nil {
		c.runCancel()
	}

	if stopper, ok := c.server.(runner.Stopper); ok {
		select {
		case <-c.startDone:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := stopper.Stop(ctx); err != nil {
			c.config.Log.Error("Error stopping test runner", "error", err)
			return err
		}
	}

	c.config.Log.Info("specrun stopped", "run_id", c.runID)
	return nil
}

// Stopped returns true once the run is no longer live.
// Stopped implements the cliapp.Lifecycle interface.
func (c *Coordinator) Stopped() bool {
	return !c.running.Load()
}

// relay converts one runner callback into a run event.
func (c *Coordinator) relay(success bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	result := "fail"
	if success {
		c.passCount++
		result = "pass"
	} else {
		c.failCount++
	}
	c.mu.Unlock()

	metrics.RecordRunEvent(c.runID, result)
	c.emit(types.RunEvent{Success: success})
}

// onServerComplete fires once, when the runner server itself shuts down;
// it terminates the event stream regardless of individual test outcomes.
func (c *Coordinator) onServerComplete() {
	c.config.Log.Info("Test runner server completed", "run_id", c.runID)
	c.terminate(types.RunStateCompleted, nil)
}

// fail handles any error raised during config building, synthesis or
// runner startup: log once, count it, convert to a single terminal failure
// event. Errors never cross the event-stream boundary.
func (c *Coordinator) fail(stage string, err error) error {
	c.config.Log.Error(err.Error(), "stage", stage, "run_id", c.runID)
	metrics.RecordErrorDetails(stage, err)
	c.terminate(types.RunStateFailed, &types.RunEvent{Success: false})
	return err
}

func (c *Coordinator) setState(state types.RunState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Log.Debug("Run state transition", "from", c.state, "to", state)
	c.state = state
}

// emit delivers an event without ever blocking a runner callback; a caller
// that stops draining loses events past the buffer.
func (c *Coordinator) emit(ev types.RunEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.config.Log.Warn("Dropping run event, caller is not draining", "success", ev.Success)
	}
}

// terminate moves the run into a terminal state exactly once, optionally
// emitting a final event before the stream closes.
func (c *Coordinator) terminate(state types.RunState, final *types.RunEvent) {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.config.Log.Debug("Run state transition", "from", c.state, "to", state)
	c.state = state
	if final != nil && !c.closed {
		c.events <- *final
	}
	if !c.closed {
		close(c.events)
		c.closed = true
	}
	specCount := c.specCount
	c.mu.Unlock()

	c.running.Store(false)
	metrics.RecordRun(c.runID, resultLabel(state), specCount, time.Since(c.started))
	c.printSummaryTable(state)
}

func resultLabel(state types.RunState) string {
	switch state {
	case types.RunStateCompleted:
		return "pass"
	case types.RunStateCancelled:
		return "cancelled"
	default:
		return "fail"
	}
}

// printSummaryTable prints the outcome of the run to the console.
func (c *Coordinator) printSummaryTable(state types.RunState) {
	opts := c.config.Options

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("specrun Results (%s)", formatDuration(time.Since(c.started))))

	t.AppendHeader(table.Row{
		"Run", "Spec Selector", "Specs", "Passed", "Failed", "Status",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Run", WidthMax: 12},
		{Name: "Spec Selector", WidthMax: 50},
		{Name: "Specs", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
	})

	c.mu.Lock()
	passed, failed, specCount := c.passCount, c.failCount, c.specCount
	c.mu.Unlock()

	selector := opts.Spec
	if selector == "" {
		selector = "(all specs)"
	}
	t.AppendRow(table.Row{
		c.runID[:8],
		selector,
		specCount,
		passed,
		failed,
		getStateString(state),
	})

	switch state {
	case types.RunStateCompleted:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.RunStateCancelled:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.Render()
}

// getStateString returns a colored string representing the terminal state
func getStateString(state types.RunState) string {
	switch state {
	case types.RunStateCompleted:
		return "✓ completed"
	case types.RunStateCancelled:
		return "- cancelled"
	default:
		return "✗ failed"
	}
}

// formatDuration formats the duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
