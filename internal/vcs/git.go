// Package vcs initializes version control in a freshly scaffolded project.
//
// Initialization is best-effort: callers log a failure and keep the project.
// The git CLI is preferred so the user's init.defaultBranch and templates
// apply; when git is not installed the repository is created with go-git.
package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
)

// DefaultTimeout bounds a single init.
const DefaultTimeout = 10 * time.Second

// Method names how a repository was initialized.
type Method string

const (
	MethodNone  Method = ""
	MethodCLI   Method = "git"
	MethodGoGit Method = "go-git"
)

// Initializer creates a repository in dir.
type Initializer interface {
	Init(ctx context.Context, dir string) (Method, error)
}

// Git initializes repositories with the git CLI, falling back to go-git.
type Git struct {
	// Runner runs the git binary. Defaults to ExecRunner.
	Runner Runner

	// Timeout bounds the whole init. Defaults to DefaultTimeout.
	Timeout time.Duration

	// LookPath locates the git binary. Defaults to exec.LookPath.
	LookPath func(string) (string, error)

	// Fallback enables go-git when the git binary is missing.
	Fallback bool
}

// NewGit returns a Git initializer with defaults and the go-git fallback on.
func NewGit(timeout time.Duration) *Git {
	return &Git{Timeout: timeout, Fallback: true}
}

// Init runs "git init" in dir.
func (g *Git) Init(ctx context.Context, dir string) (Method, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lookPath := g.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	bin, err := lookPath("git")
	if err != nil {
		if !g.Fallback {
			return MethodNone, fmt.Errorf("git not found in PATH: %w", err)
		}
		if _, err := git.PlainInit(dir, false); err != nil {
			return MethodNone, fmt.Errorf("go-git init %s: %w", dir, err)
		}
		return MethodGoGit, nil
	}

	runner := g.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	res, err := runner.Run(ctx, bin, []string{"init"}, dir)
	if err != nil {
		return MethodNone, fmt.Errorf("git init: %w", err)
	}
	if res.ExitCode != 0 {
		out := strings.TrimSpace(res.Stderr)
		if out == "" {
			out = strings.TrimSpace(res.Stdout)
		}
		return MethodNone, fmt.Errorf("git init exited %d: %s", res.ExitCode, out)
	}
	return MethodCLI, nil
}
