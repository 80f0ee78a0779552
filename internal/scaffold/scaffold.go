package scaffold

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drfkit/drfkit/internal/config"
	"github.com/drfkit/drfkit/internal/copier"
	"github.com/drfkit/drfkit/internal/envfile"
	"github.com/drfkit/drfkit/internal/errors"
	"github.com/drfkit/drfkit/internal/metrics"
	"github.com/drfkit/drfkit/internal/rewrite"
	"github.com/drfkit/drfkit/internal/secret"
	"github.com/drfkit/drfkit/internal/templates"
	"github.com/drfkit/drfkit/internal/vcs"
)

const (
	tracerName  = "github.com/drfkit/drfkit/internal/scaffold"
	stagePrefix = ".drfkit-stage-"
)

// Step names, used for spans, metrics and progress.
const (
	StepCopy    = "copy"
	StepRewrite = "rewrite"
	StepEnv     = "env"
	StepPublish = "publish"
	StepVCS     = "vcs"
)

// Options configures a scaffold run.
type Options struct {
	// ProjectName is the destination directory name and the value
	// substituted for the placeholder.
	ProjectName string

	// ParentDir is the directory the project is created in.
	ParentDir string

	// FS is the filesystem rooted at ParentDir.
	// Default: osfs.New(ParentDir).
	FS billy.Filesystem

	// Bundle is the template tree. Default: templates.Embedded().
	Bundle templates.Bundle

	// Exclude lists names skipped during copy.
	// Default: copier.DefaultExcludes().
	Exclude copier.ExcludeSet

	// Debug is written to .env as DEBUG=True or DEBUG=False.
	Debug bool

	// ExtraEnv adds keys to .env after the generated ones.
	ExtraEnv map[string]string

	// Force writes into a non-empty destination instead of failing.
	Force bool

	// KeepEnv preserves keys of an existing .env in a forced destination.
	KeepEnv bool

	// Git initializes a repository in the new project.
	Git bool

	// VCS performs the initialization. Default: vcs.NewGit(vcs.DefaultTimeout).
	VCS vcs.Initializer

	// Logger receives structured progress and warnings. Default: discard.
	Logger *slog.Logger

	// Tracer creates spans. Default: the global otel tracer.
	Tracer trace.Tracer

	// Metrics records the run, if set.
	Metrics *metrics.Recorder

	// Secret generates SECRET_KEY. Default: secret.Generate.
	Secret func() string

	// Progress is called with the name of each step as it starts.
	Progress func(step string)
}

// Result describes a successful run.
type Result struct {
	// Path is the project directory, ParentDir/ProjectName.
	Path string

	Dirs  int
	Files int
	Bytes int64

	// Rewritten counts files whose placeholder was substituted.
	Rewritten int

	// Binary counts files left untouched as binary.
	Binary int

	// Excluded lists template paths skipped by the exclusion set.
	Excluded []string

	// Env lists the keys written to .env, in file order.
	Env []string

	// VCS is how the repository was initialized, if at all.
	VCS vcs.Method

	// Staged reports whether the tree was published from a staging directory.
	Staged bool

	// Warnings holds problems that did not stop the run: E155 rewrite
	// failures, E156 VCS failures and E101 for .env keys that could not be
	// kept.
	Warnings []error

	Duration time.Duration
}

type runner struct {
	opts    Options
	fs      billy.Filesystem
	root    string
	log     *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Recorder
	result  *Result
}

// Run scaffolds opts.ProjectName under opts.ParentDir.
// Fatal errors are *errors.ScaffoldError values; no Result is returned with
// them.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	r, err := newRunner(opts)
	if err != nil {
		opts.Metrics.ObserveRun(err)
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "scaffold.run",
		trace.WithAttributes(
			attribute.String("drfkit.project", opts.ProjectName),
			attribute.String("drfkit.template", r.opts.Bundle.Name),
		),
	)
	defer span.End()

	err = r.run(ctx)
	r.metrics.ObserveRun(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("scaffold failed", "project", opts.ProjectName, "error", err)
		return nil, err
	}

	r.result.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("drfkit.files", r.result.Files),
		attribute.Int("drfkit.warnings", len(r.result.Warnings)),
	)
	span.SetStatus(codes.Ok, "")
	r.log.Info("scaffold complete",
		"path", r.result.Path,
		"files", r.result.Files,
		"rewritten", r.result.Rewritten,
		"duration", r.result.Duration,
	)
	return r.result, nil
}

func newRunner(opts Options) (*runner, error) {
	if opts.FS == nil {
		parent := opts.ParentDir
		if parent == "" {
			parent = "."
		}
		abs, err := filepath.Abs(parent)
		if err != nil {
			return nil, errors.New(errors.CodeDestinationUnwritable).WithPath(parent).Wrap(err)
		}
		opts.ParentDir = abs
		opts.FS = osfs.New(abs)
	}
	if opts.Bundle.FS == nil {
		opts.Bundle = templates.Embedded()
	}
	if opts.Exclude == nil {
		opts.Exclude = copier.DefaultExcludes()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Secret == nil {
		opts.Secret = secret.Generate
	}
	if opts.Git && opts.VCS == nil {
		opts.VCS = vcs.NewGit(vcs.DefaultTimeout)
	}

	root := opts.ParentDir
	if root == "" {
		root = opts.FS.Root()
	}

	return &runner{
		opts:    opts,
		fs:      opts.FS,
		root:    root,
		log:     opts.Logger.With("project", opts.ProjectName),
		tracer:  opts.Tracer,
		metrics: opts.Metrics,
		result:  &Result{Path: filepath.Join(root, opts.ProjectName)},
	}, nil
}

func (r *runner) run(ctx context.Context) error {
	name := r.opts.ProjectName
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := config.ValidateEnv(r.opts.ExtraEnv); err != nil {
		return err
	}
	if err := r.opts.Bundle.Verify(); err != nil {
		return err
	}

	dest := name
	state, err := r.inspect(dest)
	if err != nil {
		return err
	}

	var existingEnv map[string]string
	if !state.staged && r.opts.KeepEnv {
		// Read before the copy can overwrite it with a template .env.
		existingEnv = r.readEnv(r.fs.Join(dest, envfile.FileName))
	}

	target := dest
	if state.staged {
		target = stagePrefix + uuid.NewString()
		if err := r.fs.MkdirAll(target, 0o755); err != nil {
			return errors.New(errors.CodeDestinationUnwritable).
				WithPath(filepath.Join(r.root, target)).
				Wrap(err)
		}
		defer func() {
			if !r.result.Staged {
				r.cleanup(target)
			}
		}()
		r.log.Debug("staging", "dir", target)
	}

	if err := r.step(ctx, StepCopy, func(context.Context) error { return r.copy(target) }); err != nil {
		return err
	}
	if err := r.step(ctx, StepRewrite, func(context.Context) error { return r.rewrite(target) }); err != nil {
		return err
	}
	if err := r.step(ctx, StepEnv, func(context.Context) error { return r.writeEnv(target, existingEnv) }); err != nil {
		return err
	}
	if state.staged {
		err := r.step(ctx, StepPublish, func(context.Context) error {
			return r.publish(target, dest, state.replaceEmpty)
		})
		if err != nil {
			return err
		}
	}

	if r.opts.Git {
		// Best-effort: the error is recorded on the span and as a warning.
		_ = r.step(ctx, StepVCS, r.initVCS)
	}
	return nil
}

// step runs fn in a child span and records its duration.
func (r *runner) step(ctx context.Context, name string, fn func(context.Context) error) error {
	if r.opts.Progress != nil {
		r.opts.Progress(name)
	}
	ctx, span := r.tracer.Start(ctx, "scaffold."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	r.metrics.ObserveStep(name, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

type destState struct {
	staged       bool
	replaceEmpty bool
}

// inspect decides how dest is written.
func (r *runner) inspect(dest string) (destState, error) {
	full := filepath.Join(r.root, dest)

	info, err := r.fs.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return destState{staged: true}, nil
		}
		return destState{}, errors.New(errors.CodeDestinationUnwritable).WithPath(full).Wrap(err)
	}
	if !info.IsDir() {
		return destState{}, errors.New(errors.CodeDestinationUnwritable).
			WithPath(full).
			WithDetail("A file with the project name already exists.").
			WithSuggestion("Choose another project name or remove the file")
	}

	entries, err := r.fs.ReadDir(dest)
	if err != nil {
		return destState{}, errors.New(errors.CodeDestinationUnwritable).WithPath(full).Wrap(err)
	}
	if len(entries) == 0 {
		return destState{staged: true, replaceEmpty: true}, nil
	}
	if !r.opts.Force {
		return destState{}, errors.New(errors.CodeDestinationNotEmpty).WithPath(full)
	}

	r.log.Warn("writing into existing directory", "dir", full, "entries", len(entries))
	return destState{}, nil
}

func (r *runner) copy(target string) error {
	stats, err := copier.Copy(r.opts.Bundle.FS, ".", r.fs, target, r.opts.Exclude)
	if err != nil {
		return errors.FromError(err, errors.CodeCopyFailure)
	}

	r.result.Dirs = stats.Dirs
	r.result.Files = stats.Files
	r.result.Bytes = stats.Bytes
	r.result.Excluded = stats.Excluded
	r.metrics.ObserveCopy(stats.Files, stats.Bytes, len(stats.Excluded))

	r.log.Debug("copied template",
		"files", stats.Files,
		"dirs", stats.Dirs,
		"bytes", stats.Bytes,
		"excluded", len(stats.Excluded),
	)
	return nil
}

func (r *runner) rewrite(target string) error {
	// Excluded names are skipped here too: a forced run rewrites in place,
	// next to the user's own .git and virtualenv.
	report, err := rewrite.Rewrite(r.fs, target, templates.Placeholder, r.opts.ProjectName,
		rewrite.WithLogger(r.log),
		rewrite.WithSkip(r.opts.Exclude))
	if err != nil {
		return errors.New(errors.CodeDestinationUnwritable).
			WithPath(filepath.Join(r.root, target)).
			Wrap(err)
	}

	failed := 0
	if report.Errors != nil {
		failed = len(report.Errors.Errors)
		r.result.Warnings = append(r.result.Warnings, report.Errors.Errors...)
	}
	r.result.Rewritten = report.Rewritten
	r.result.Binary = report.Binary
	r.metrics.ObserveRewrite(report.Rewritten, report.Binary, failed)

	r.log.Debug("rewrote placeholders",
		"visited", report.Visited,
		"rewritten", report.Rewritten,
		"binary", report.Binary,
		"failed", failed,
	)
	return nil
}

func (r *runner) writeEnv(target string, existing map[string]string) error {
	debug := "False"
	if r.opts.Debug {
		debug = "True"
	}
	entries := []envfile.Entry{
		{Key: envfile.KeySecret, Value: r.opts.Secret()},
		{Key: envfile.KeyDebug, Value: debug},
		{Key: envfile.KeyProjectName, Value: r.opts.ProjectName},
	}

	keys := make([]string, 0, len(r.opts.ExtraEnv))
	for k := range r.opts.ExtraEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entries = append(entries, envfile.Entry{Key: k, Value: r.opts.ExtraEnv[k]})
	}

	if existing != nil {
		entries = envfile.Merge(existing, entries)
	}

	path := r.fs.Join(target, envfile.FileName)
	if err := envfile.Write(r.fs, path, entries); err != nil {
		return errors.New(errors.CodeDestinationUnwritable).
			WithPath(filepath.Join(r.root, path)).
			Wrap(err)
	}

	for _, e := range entries {
		r.result.Env = append(r.result.Env, e.Key)
	}
	r.log.Debug("wrote env file", "keys", len(entries), "kept", len(existing))
	return nil
}

// readEnv returns the parsed file at path, or nil when it is absent or
// unreadable. Keys that cannot be written back are dropped with a warning.
func (r *runner) readEnv(path string) map[string]string {
	vals, err := envfile.Read(r.fs, path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("ignoring unreadable env file", "path", path, "error", err)
		}
		return nil
	}

	var dropped []string
	for k := range vals {
		if !envfile.ValidKey(k) {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)
	for _, k := range dropped {
		delete(vals, k)
		warn := errors.New(errors.CodeInvalidConfigValue).
			WithPath(filepath.Join(r.root, path)).
			WithDetail(fmt.Sprintf("Key %q in the existing .env is not a valid variable name and was not kept.", k)).
			WithSuggestion("Rename the key and add it back with --env")
		r.result.Warnings = append(r.result.Warnings, warn)
		r.log.Warn("dropping env key", "key", k, "path", path)
	}
	return vals
}

func (r *runner) publish(stage, dest string, replaceEmpty bool) error {
	full := filepath.Join(r.root, dest)
	if replaceEmpty {
		if err := r.fs.Remove(dest); err != nil {
			return errors.New(errors.CodeDestinationUnwritable).WithPath(full).Wrap(err)
		}
	}
	if err := r.fs.Rename(stage, dest); err != nil {
		return errors.New(errors.CodeDestinationUnwritable).
			WithPath(full).
			WithDetail("The finished project could not be moved into place. Another run may have created it first.").
			Wrap(err)
	}
	r.result.Staged = true
	return nil
}

func (r *runner) cleanup(stage string) {
	if err := util.RemoveAll(r.fs, stage); err != nil {
		r.log.Warn("could not remove staging directory", "dir", stage, "error", err)
		return
	}
	r.log.Debug("removed staging directory", "dir", stage)
}

func (r *runner) initVCS(ctx context.Context) error {
	method, err := r.opts.VCS.Init(ctx, r.result.Path)
	if err != nil {
		warn := errors.New(errors.CodeVCSInitFailure).WithPath(r.result.Path).Wrap(err)
		r.result.Warnings = append(r.result.Warnings, warn)
		r.log.Warn("repository not initialized", "error", strings.TrimSpace(err.Error()))
		return warn
	}
	r.result.VCS = method
	r.log.Debug("initialized repository", "method", string(method))
	return nil
}
