package vcs

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultWaitDelay is how long Run keeps reading output after the process
// exits or the context ends. A child that inherits the output pipes, such as
// a backgrounded hook, cannot hold Run open past it.
const DefaultWaitDelay = 2 * time.Second

// Result holds the outcome of an external command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external commands. A process that starts and exits non-zero
// is reported through Result.ExitCode with a nil error; the error return is
// for failures to run at all (binary missing, context expired).
type Runner interface {
	Run(ctx context.Context, name string, args []string, dir string) (Result, error)
}

// ExecRunner is the os/exec implementation of Runner.
type ExecRunner struct {
	// WaitDelay overrides DefaultWaitDelay.
	WaitDelay time.Duration
}

// Run executes name with args in dir and captures its output.
func (r ExecRunner) Run(ctx context.Context, name string, args []string, dir string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		// The process exited 0 but something else still held its pipes.
		if errors.Is(err, exec.ErrWaitDelay) {
			return res, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}
