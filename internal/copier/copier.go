// Package copier materializes a template tree into a destination filesystem.
//
// The source is any io/fs.FS (the embedded bundle, os.DirFS, fstest.MapFS);
// the destination is a go-billy filesystem so the same code writes to disk in
// production and to memory in tests. Entries whose base name is in the
// exclusion set are skipped together with everything below them.
//
// Symbolic links and other irregular entries are rejected with E154: a
// template bundle is expected to be a plain tree, and following links could
// pull content from outside it.
//
// Copy is not transactional. A failure leaves whatever was already written;
// callers that need all-or-nothing behavior copy into a staging directory.
package copier

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"

	"github.com/drfkit/drfkit/internal/errors"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Stats summarizes a copy.
type Stats struct {
	Dirs  int
	Files int
	Bytes int64

	// Excluded lists the source paths skipped because of the exclusion set.
	Excluded []string
}

// Copy copies srcDir in src into dstDir in dst, skipping excluded names.
// srcDir uses io/fs path syntax ("." for the root).
func Copy(src fs.FS, srcDir string, dst billy.Filesystem, dstDir string, exclude ExcludeSet) (Stats, error) {
	info, err := fs.Stat(src, srcDir)
	if err != nil {
		return Stats{}, errors.New(errors.CodeTemplateMissing).WithPath(srcDir).Wrap(err)
	}
	if !info.IsDir() {
		return Stats{}, errors.New(errors.CodeTemplateMissing).
			WithPath(srcDir).
			Wrap(fmt.Errorf("not a directory"))
	}

	c := &copier{src: src, dst: dst, exclude: exclude}
	err = c.copyDir(srcDir, dstDir)
	return c.stats, err
}

type copier struct {
	src     fs.FS
	dst     billy.Filesystem
	exclude ExcludeSet
	stats   Stats
}

func (c *copier) copyDir(srcDir, dstDir string) error {
	if err := c.dst.MkdirAll(dstDir, dirPerm); err != nil {
		return errors.New(errors.CodeCopyFailure).WithPath(dstDir).Wrap(err)
	}
	c.stats.Dirs++

	entries, err := fs.ReadDir(c.src, srcDir)
	if err != nil {
		return errors.New(errors.CodeCopyFailure).WithPath(srcDir).Wrap(err)
	}

	for _, ent := range entries {
		name := ent.Name()
		srcPath := path.Join(srcDir, name)
		dstPath := c.dst.Join(dstDir, name)

		if c.exclude.Has(name) {
			c.stats.Excluded = append(c.stats.Excluded, srcPath)
			continue
		}

		mode := ent.Type()
		switch {
		case mode&fs.ModeSymlink != 0:
			return errors.New(errors.CodeSymlinkRejected).WithPath(srcPath)
		case ent.IsDir():
			if err := c.copyDir(srcPath, dstPath); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := c.copyFile(srcPath, dstPath); err != nil {
				return errors.FromError(err, errors.CodeCopyFailure).WithPath(srcPath)
			}
		default:
			return errors.New(errors.CodeSymlinkRejected).
				WithPath(srcPath).
				WithDetail(fmt.Sprintf("Template bundles must contain only regular files and directories; found %s.", mode))
		}
	}
	return nil
}

func (c *copier) copyFile(srcPath, dstPath string) (err error) {
	in, err := c.src.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	// Embedded bundles report 0444; copies must stay editable.
	perm := info.Mode().Perm() | 0o200
	if info.Mode().Perm() == 0 {
		perm = filePerm
	}

	out, err := c.dst.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	n, err := io.Copy(out, in)
	if err != nil {
		return err
	}
	c.stats.Files++
	c.stats.Bytes += n
	return nil
}
