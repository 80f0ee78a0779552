package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// stubRunner records calls and returns a canned result.
type stubRunner struct {
	res   Result
	err   error
	calls []string
	dirs  []string
	wait  bool
}

func (s *stubRunner) Run(ctx context.Context, name string, args []string, dir string) (Result, error) {
	s.calls = append(s.calls, name+" "+strings.Join(args, " "))
	s.dirs = append(s.dirs, dir)
	if s.wait {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}
	return s.res, s.err
}

func foundGit(string) (string, error) { return "/usr/bin/git", nil }

func missingGit(string) (string, error) { return "", exec.ErrNotFound }

func TestGitInit_UsesCLI(t *testing.T) {
	r := &stubRunner{}
	g := &Git{Runner: r, LookPath: foundGit}

	method, err := g.Init(context.Background(), "/tmp/proj")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if method != MethodCLI {
		t.Errorf("method = %q, want %q", method, MethodCLI)
	}
	if len(r.calls) != 1 || r.calls[0] != "/usr/bin/git init" {
		t.Errorf("calls = %v", r.calls)
	}
	if r.dirs[0] != "/tmp/proj" {
		t.Errorf("dir = %q", r.dirs[0])
	}
}

func TestGitInit_NonZeroExit(t *testing.T) {
	r := &stubRunner{res: Result{ExitCode: 128, Stderr: "fatal: cannot mkdir .git\n"}}
	g := &Git{Runner: r, LookPath: foundGit}

	_, err := g.Init(context.Background(), "/tmp/proj")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exited 128") || !strings.Contains(err.Error(), "cannot mkdir") {
		t.Errorf("err = %v", err)
	}
}

func TestGitInit_RunnerError(t *testing.T) {
	boom := errors.New("exec format error")
	g := &Git{Runner: &stubRunner{err: boom}, LookPath: foundGit}

	_, err := g.Init(context.Background(), "/tmp/proj")
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestGitInit_Timeout(t *testing.T) {
	g := &Git{Runner: &stubRunner{wait: true}, LookPath: foundGit, Timeout: 20 * time.Millisecond}

	start := time.Now()
	_, err := g.Init(context.Background(), "/tmp/proj")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Init did not honor its timeout")
	}
}

func TestGitInit_MissingWithoutFallback(t *testing.T) {
	r := &stubRunner{}
	g := &Git{Runner: r, LookPath: missingGit}

	_, err := g.Init(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("expected error when git is missing and fallback is off")
	}
	if len(r.calls) != 0 {
		t.Errorf("runner called: %v", r.calls)
	}
}

func TestGitInit_GoGitFallback(t *testing.T) {
	dir := t.TempDir()
	g := &Git{LookPath: missingGit, Fallback: true}

	method, err := g.Init(context.Background(), dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if method != MethodGoGit {
		t.Errorf("method = %q, want %q", method, MethodGoGit)
	}
	if info, err := os.Stat(filepath.Join(dir, ".git")); err != nil || !info.IsDir() {
		t.Errorf(".git not created: %v", err)
	}
}

func TestGitInit_RealGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	method, err := NewGit(0).Init(context.Background(), dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if method != MethodCLI {
		t.Errorf("method = %q", method)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git", "HEAD")); err != nil {
		t.Errorf(".git/HEAD missing: %v", err)
	}
}

func TestExecRunner_ExitCode(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	res, err := ExecRunner{}.Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2; exit 3"}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" || strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("res = %+v", res)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "drfkit-no-such-binary", nil, "")
	if err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestExecRunner_LeakedPipeDoesNotBlock(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := ExecRunner{WaitDelay: 100 * time.Millisecond}

	t.Run("exit", func(t *testing.T) {
		start := time.Now()
		res, err := r.Run(context.Background(), "sh", []string{"-c", "sleep 30 & echo started"}, "")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if res.ExitCode != 0 {
			t.Errorf("ExitCode = %d", res.ExitCode)
		}
		if time.Since(start) > 10*time.Second {
			t.Error("Run waited for the background child")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := r.Run(ctx, "sh", []string{"-c", "sleep 30 & sleep 30"}, "")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
		if time.Since(start) > 10*time.Second {
			t.Error("Run did not return after the timeout")
		}
	})
}
