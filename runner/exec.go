package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// ExecFactory adapts an external runner binary (eg. a karma-style CLI) to
// the Factory interface. The binary is handed the framework config file
// and the normalized browser, reporter and single-run options; its exit
// code maps to one success or failure callback.
type ExecFactory struct {
	// Command is the runner invocation, eg. "karma start".
	Command string
}

func (f *ExecFactory) CreateServer(opts Options, onComplete func()) (Server, error) {
	if strings.TrimSpace(f.Command) == "" {
		return nil, errors.New("runner command is required")
	}

	parts := strings.Fields(f.Command)
	args := parts[1:]
	if opts.ConfigFile != "" {
		args = append(args, opts.ConfigFile)
	}
	if len(opts.Browsers) > 0 {
		args = append(args, "--browsers", strings.Join(opts.Browsers, ","))
	}
	if len(opts.Reporters) > 0 {
		args = append(args, "--reporters", strings.Join(opts.Reporters, ","))
	}
	if opts.SingleRun != nil {
		if *opts.SingleRun {
			args = append(args, "--single-run")
		} else {
			args = append(args, "--no-single-run")
		}
	}

	return &execServer{
		bin:        parts[0],
		args:       args,
		opts:       opts,
		onComplete: onComplete,
	}, nil
}

type execServer struct {
	bin        string
	args       []string
	opts       Options
	onComplete func()

	mu  sync.Mutex
	cmd *exec.Cmd
}

// Start runs the external binary to completion. onComplete fires when the
// process exits, whatever the outcome.
func (s *execServer) Start(ctx context.Context) error {
	defer s.onComplete()

	cmd := exec.CommandContext(ctx, s.bin, s.args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	log.Debug("Running test runner command", "command", cmd.String())
	err := cmd.Run()
	output := stdout.String() + stderr.String()
	log.Debug("Test runner output", "output", output)

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			if s.opts.OnFailure != nil {
				s.opts.OnFailure()
			}
			return nil
		}
		return fmt.Errorf("starting runner %s: %w", s.bin, err)
	}

	if s.opts.OnSuccess != nil {
		s.opts.OnSuccess()
	}
	return nil
}

// Stop kills the runner process if it is still alive.
func (s *execServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		return s.cmd.Process.Kill()
	}
	return nil
}
