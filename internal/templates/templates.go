package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/drfkit/drfkit/internal/errors"
)

// Placeholder is the token replaced with the project name.
const Placeholder = "{{project_name}}"

//go:embed all:django
var djangoFS embed.FS

// Bundle is a read-only template tree.
type Bundle struct {
	// Name describes the bundle in messages.
	Name string

	// FS is the tree, rooted at the template root.
	FS fs.FS

	// Root is the on-disk directory backing FS, empty for the embedded bundle.
	Root string
}

// Embedded returns the Django REST Framework bundle compiled into drfkit.
func Embedded() Bundle {
	sub, err := fs.Sub(djangoFS, "django")
	if err != nil {
		panic(err)
	}
	return Bundle{Name: "django (embedded)", FS: sub}
}

// Dir returns a bundle read from a directory on disk.
func Dir(path string) Bundle {
	return Bundle{Name: path, FS: os.DirFS(path), Root: path}
}

// Resolve returns Dir(path), or the embedded bundle when path is empty.
func Resolve(path string) Bundle {
	if path == "" {
		return Embedded()
	}
	return Dir(path)
}

// Verify checks that the bundle exists, is a directory and is not empty.
// It never writes anything.
func (b Bundle) Verify() error {
	missing := func(cause error) error {
		return errors.New(errors.CodeTemplateMissing).
			WithPath(b.Name).
			WithSuggestion("Reinstall drfkit, or pass --template with an existing template directory").
			Wrap(cause)
	}

	if b.FS == nil {
		return missing(fmt.Errorf("no template filesystem"))
	}
	if b.Root != "" {
		info, err := os.Stat(b.Root)
		if err != nil {
			return missing(err)
		}
		if !info.IsDir() {
			return missing(fmt.Errorf("not a directory"))
		}
	}

	entries, err := fs.ReadDir(b.FS, ".")
	if err != nil {
		return missing(err)
	}
	if len(entries) == 0 {
		return missing(fmt.Errorf("template directory is empty"))
	}
	return nil
}
