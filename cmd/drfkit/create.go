package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/drfkit/drfkit/internal/config"
	"github.com/drfkit/drfkit/internal/copier"
	"github.com/drfkit/drfkit/internal/errors"
	"github.com/drfkit/drfkit/internal/metrics"
	"github.com/drfkit/drfkit/internal/scaffold"
	"github.com/drfkit/drfkit/internal/templates"
	"github.com/drfkit/drfkit/internal/vcs"
)

type createFlags struct {
	dir         string
	template    string
	exclude     []string
	noGit       bool
	gitTimeout  time.Duration
	force       bool
	keepEnv     bool
	noDebug     bool
	env         []string
	configPath  string
	metricsFile string
}

var stepMessages = map[string]string{
	scaffold.StepCopy:    "Copying template...",
	scaffold.StepRewrite: "Filling in the project name...",
	scaffold.StepEnv:     "Writing .env with a new SECRET_KEY...",
	scaffold.StepPublish: "Moving project into place...",
	scaffold.StepVCS:     "Initializing git repository...",
}

func createCmd(g *globalFlags) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new Django REST Framework project",
		Long: `Create a new Django REST Framework project named <name>.

The project is created in --dir (default: the current directory). Names
matching --exclude are skipped at every depth, in addition to version
control metadata, virtual environments and editor settings.

An existing non-empty directory is refused unless --force is given, which
writes the template over it in place. Forced runs are not staged, so do
not run two of them against the same directory at once.

Examples:
  drfkit create blog_api
  drfkit create blog_api --dir ~/src --no-git
  drfkit create blog_api --template ./my-skeleton --exclude node_modules
  drfkit create blog_api --env DATABASE_URL=postgres://localhost/blog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := resolveCreate(cmd, &f, args[0])
			if err != nil {
				return err
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), g.verbose)
			return runCreate(cmd.Context(), cmd.OutOrStdout(), opts, cfg)
		},
	}

	cmd.Flags().StringVarP(&f.dir, "dir", "d", ".", "Directory to create the project in")
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "Template directory (default: built-in DRF skeleton)")
	cmd.Flags().StringArrayVarP(&f.exclude, "exclude", "x", nil, "Extra entry name to skip (repeatable)")
	cmd.Flags().BoolVar(&f.noGit, "no-git", false, "Do not initialize a git repository")
	cmd.Flags().DurationVar(&f.gitTimeout, "git-timeout", vcs.DefaultTimeout, "Time limit for git init")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Write into an existing non-empty directory")
	cmd.Flags().BoolVar(&f.keepEnv, "keep-env", false, "With --force, keep keys of an existing .env")
	cmd.Flags().BoolVar(&f.noDebug, "no-debug", false, "Write DEBUG=False to .env")
	cmd.Flags().StringArrayVarP(&f.env, "env", "e", nil, "Extra KEY=VALUE for .env (repeatable)")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file (default: drfkit.yaml in the user config dir)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")

	return cmd
}

// resolveCreate merges the config file with the flags the user set.
func resolveCreate(cmd *cobra.Command, f *createFlags, name string) (scaffold.Options, *config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return scaffold.Options{}, nil, err
	}

	if cmd.Flags().Changed("template") {
		cfg.Template = f.template
	}
	if cmd.Flags().Changed("no-debug") {
		cfg.Debug = !f.noDebug
	}
	if cmd.Flags().Changed("no-git") {
		cfg.Git.Enabled = !f.noGit
	}
	if cmd.Flags().Changed("git-timeout") {
		cfg.Git.Timeout = f.gitTimeout.String()
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	cfg.Exclude = append(cfg.Exclude, f.exclude...)

	flagEnv, err := parseEnvFlags(f.env)
	if err != nil {
		return scaffold.Options{}, nil, err
	}
	if len(flagEnv) > 0 {
		merged := make(map[string]string, len(cfg.Env)+len(flagEnv))
		for k, v := range cfg.Env {
			merged[k] = v
		}
		for k, v := range flagEnv {
			merged[k] = v
		}
		cfg.Env = merged
	}

	if err := cfg.Validate(); err != nil {
		return scaffold.Options{}, nil, err
	}

	exclude := copier.DefaultExcludes()
	exclude.Add(cfg.Exclude...)

	var initializer vcs.Initializer
	if cfg.Git.Enabled {
		git := vcs.NewGit(cfg.GitTimeout())
		git.Fallback = cfg.Git.Fallback
		initializer = git
	}

	opts := scaffold.Options{
		ProjectName: name,
		ParentDir:   f.dir,
		Bundle:      templates.Resolve(cfg.Template),
		Exclude:     exclude,
		Debug:       cfg.Debug,
		ExtraEnv:    cfg.Env,
		Force:       f.force,
		KeepEnv:     f.keepEnv,
		Git:         cfg.Git.Enabled,
		VCS:         initializer,
	}
	return opts, cfg, nil
}

// parseEnvFlags turns repeated KEY=VALUE flags into a map. Later flags win.
func parseEnvFlags(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.New(errors.CodeInvalidConfigValue).
				WithDetail(fmt.Sprintf("--env %q is not in KEY=VALUE form", p))
		}
		out[k] = v
	}
	if err := config.ValidateEnv(out); err != nil {
		return nil, err
	}
	return out, nil
}

func runCreate(ctx context.Context, w io.Writer, opts scaffold.Options, cfg *config.Config) error {
	printBanner(w)
	fmt.Fprintf(w, "  Creating %s from %s...\n", opts.ProjectName, opts.Bundle.Name)
	if path := cfg.Path(); path != "" {
		fmt.Fprintf(w, "  Using config %s\n", path)
	}
	fmt.Fprintln(w)

	metricsFile := cfg.MetricsFile
	if metricsFile != "" {
		opts.Metrics = metrics.New(metrics.WithConstLabels(prometheus.Labels{"template": opts.Bundle.Name}))
	}
	opts.Progress = func(step string) {
		if msg, ok := stepMessages[step]; ok {
			info(w, "%s", msg)
		}
	}

	res, err := scaffold.Run(ctx, opts)

	if metricsFile != "" {
		if werr := opts.Metrics.WriteTextfile(metricsFile); werr != nil {
			warn(w, "Could not write metrics to %s: %v", metricsFile, werr)
		}
	}
	if err != nil {
		return err
	}

	for _, warning := range res.Warnings {
		if se, ok := errors.As(warning); ok {
			warn(w, "%s", se.FormatCompact())
			continue
		}
		warn(w, "%v", warning)
	}

	fmt.Fprintln(w)
	success(w, "Created %s/ (%d files in %s)", res.Path, res.Files, res.Duration.Round(time.Millisecond))
	if res.VCS != vcs.MethodNone {
		info(w, "Initialized git repository (%s)", res.VCS)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  To get started:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "    cd %s\n", relativeOrAbs(res.Path))
	fmt.Fprintln(w, "    python -m venv .venv && . .venv/bin/activate")
	fmt.Fprintln(w, "    pip install -r requirements.txt")
	fmt.Fprintln(w, "    python manage.py migrate")
	fmt.Fprintln(w, "    python manage.py runserver")
	fmt.Fprintln(w)

	return nil
}

// relativeOrAbs shortens path relative to the working directory when it is
// below it.
func relativeOrAbs(path string) string {
	wd, err := filepath.Abs(".")
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
