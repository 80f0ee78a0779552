package templates

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/drfkit/drfkit/internal/errors"
)

func TestEmbedded_ContainsSkeleton(t *testing.T) {
	b := Embedded()
	if err := b.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	expected := []string{
		"manage.py",
		"requirements.txt",
		"README.md",
		".gitignore",
		"config/__init__.py",
		"config/settings.py",
		"config/urls.py",
		"config/wsgi.py",
		"config/asgi.py",
		"app/__init__.py",
		"app/models.py",
		"app/serializers.py",
		"app/views.py",
		"app/urls.py",
		"app/admin.py",
		"app/apps.py",
		"app/tests.py",
		"app/migrations/__init__.py",
		"static/favicon.ico",
	}
	for _, name := range expected {
		if _, err := fs.Stat(b.FS, name); err != nil {
			t.Errorf("embedded bundle missing %s: %v", name, err)
		}
	}
}

func TestEmbedded_UsesPlaceholder(t *testing.T) {
	b := Embedded()
	for _, name := range []string{"README.md", "app/models.py", "config/settings.py", "config/urls.py"} {
		data, err := fs.ReadFile(b.FS, name)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), Placeholder) {
			t.Errorf("%s does not reference %s", name, Placeholder)
		}
	}
}

func TestEmbedded_FaviconIsBinary(t *testing.T) {
	data, err := fs.ReadFile(Embedded().FS, "static/favicon.ico")
	if err != nil {
		t.Fatal(err)
	}
	if utf8.Valid(data) && !strings.ContainsRune(string(data), 0) {
		t.Error("favicon.ico should exercise the binary path")
	}
}

func TestEmbedded_NoExcludedEntries(t *testing.T) {
	err := fs.WalkDir(Embedded().FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch d.Name() {
		case ".git", "venv", ".venv", ".vscode", "__pycache__":
			t.Errorf("embedded bundle ships %s", p)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDir_Verify(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		err := Dir(filepath.Join(t.TempDir(), "nope")).Verify()
		if !errors.Is(err, errors.CodeTemplateMissing) {
			t.Errorf("err = %v, want E150", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := Dir(t.TempDir()).Verify()
		if !errors.Is(err, errors.CodeTemplateMissing) {
			t.Errorf("err = %v, want E150", err)
		}
	})

	t.Run("file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		err := Dir(p).Verify()
		if !errors.Is(err, errors.CodeTemplateMissing) {
			t.Errorf("err = %v, want E150", err)
		}
	})

	t.Run("populated", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "manage.py"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := Dir(dir).Verify(); err != nil {
			t.Errorf("Verify: %v", err)
		}
	})
}

func TestBundle_VerifyNilFS(t *testing.T) {
	if err := (Bundle{Name: "broken"}).Verify(); !errors.Is(err, errors.CodeTemplateMissing) {
		t.Errorf("err = %v, want E150", err)
	}
}

func TestResolve(t *testing.T) {
	if b := Resolve(""); b.Root != "" {
		t.Errorf("Resolve(\"\").Root = %q, want embedded", b.Root)
	}
	if b := Resolve("/srv/tpl"); b.Root != "/srv/tpl" {
		t.Errorf("Resolve root = %q", b.Root)
	}
}
