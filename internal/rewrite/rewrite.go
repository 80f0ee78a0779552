// Package rewrite replaces a literal placeholder token in every text file of
// a tree.
//
// Files that are not valid UTF-8, or that contain a NUL byte, are treated as
// binary assets and left untouched. A file that cannot be read or written is
// recorded as an E155 error on the Report and the pass continues with the
// remaining files. Changed files are written to a sibling temp file and
// renamed over the original.
package rewrite

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/drfkit/drfkit/internal/copier"
	"github.com/drfkit/drfkit/internal/errors"
)

// Report summarizes a rewrite pass.
type Report struct {
	// Visited counts regular files examined.
	Visited int

	// Rewritten counts files whose content changed.
	Rewritten int

	// Binary counts files skipped as non-text.
	Binary int

	// Skipped counts entries passed over by WithSkip. A skipped directory
	// counts once.
	Skipped int

	// Errors collects file-scoped E155 failures.
	Errors *multierror.Error
}

// Err returns the accumulated file-scoped errors, or nil.
func (r Report) Err() error {
	return r.Errors.ErrorOrNil()
}

// Option configures a rewrite pass.
type Option func(*rewriter)

// WithLogger sets the logger used for skipped and failed files.
func WithLogger(l *slog.Logger) Option {
	return func(r *rewriter) {
		r.log = l
	}
}

// WithSkip leaves entries whose base name is in names untouched, along with
// everything below a matching directory.
func WithSkip(names copier.ExcludeSet) Option {
	return func(r *rewriter) {
		r.skip = names
	}
}

type rewriter struct {
	fs     billy.Filesystem
	token  []byte
	value  []byte
	skip   copier.ExcludeSet
	log    *slog.Logger
	report Report
}

// Rewrite replaces every occurrence of token with value in the text files
// under root. It returns an error only when token is empty or root cannot be
// listed; per-file problems are reported on the Report.
func Rewrite(fsys billy.Filesystem, root, token, value string, opts ...Option) (Report, error) {
	if token == "" {
		return Report{}, fmt.Errorf("rewrite: empty token")
	}
	r := &rewriter{
		fs:    fsys,
		token: []byte(token),
		value: []byte(value),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	root = filepath.Clean(root)
	err := util.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if p == root {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", root)
			}
			return nil
		}
		if err != nil {
			r.fail(p, err)
			return nil
		}
		if r.skip.Has(info.Name()) {
			r.report.Skipped++
			r.log.Debug("skipping excluded entry", "path", p)
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			r.visit(p, info.Mode().Perm())
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("rewrite: read %s: %w", root, err)
	}
	return r.report, nil
}

func (r *rewriter) visit(p string, perm os.FileMode) {
	r.report.Visited++

	data, err := r.read(p)
	if err != nil {
		r.fail(p, err)
		return
	}
	if !isText(data) {
		r.report.Binary++
		r.log.Debug("skipping binary file", "path", p)
		return
	}

	out := bytes.ReplaceAll(data, r.token, r.value)
	if bytes.Equal(out, data) {
		return
	}
	if err := r.write(p, out, perm); err != nil {
		r.fail(p, err)
		return
	}
	r.report.Rewritten++
	r.log.Debug("rewrote file", "path", p)
}

func (r *rewriter) read(p string) ([]byte, error) {
	f, err := r.fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// write replaces p through a sibling temp file, so a failed write leaves the
// original content in place.
func (r *rewriter) write(p string, data []byte, perm os.FileMode) (err error) {
	tmp := r.fs.Join(filepath.Dir(p), "."+filepath.Base(p)+".drfkit-"+uuid.NewString())
	f, err := r.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.fs.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return r.fs.Rename(tmp, p)
}

func (r *rewriter) fail(p string, err error) {
	se := errors.New(errors.CodeRewriteFailure).WithPath(p).Wrap(err)
	r.report.Errors = multierror.Append(r.report.Errors, se)
	r.log.Warn("rewrite failed, file left as copied", "path", p, "error", err)
}

// isText reports whether data decodes as UTF-8 and has no NUL bytes.
func isText(data []byte) bool {
	return bytes.IndexByte(data, 0) < 0 && utf8.Valid(data)
}
