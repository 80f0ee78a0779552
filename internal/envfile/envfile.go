// Package envfile renders and reads the .env file written into new projects.
package envfile

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/joho/godotenv"
)

// FileName is the name of the generated environment file.
const FileName = ".env"

// Keys drfkit always writes.
const (
	KeySecret      = "SECRET_KEY"
	KeyDebug       = "DEBUG"
	KeyProjectName = "PROJECT_NAME"
)

// Reserved reports whether key is one drfkit generates itself.
func Reserved(key string) bool {
	return key == KeySecret || key == KeyDebug || key == KeyProjectName
}

const header = `# Generated by drfkit.
# SECRET_KEY is a development-only value and is not safe for production.
`

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Entry is one KEY=VALUE line.
type Entry struct {
	Key   string
	Value string
}

// ValidKey reports whether key can be used as an environment variable name.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Render returns the file content for entries, in order.
func Render(entries []Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(header)
	for _, e := range entries {
		if !ValidKey(e.Key) {
			return nil, fmt.Errorf("envfile: invalid key %q", e.Key)
		}
		b.WriteString(e.Key)
		b.WriteByte('=')
		b.WriteString(quote(e.Value))
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

// Write creates or truncates path and writes entries to it.
func Write(fsys billy.Filesystem, path string, entries []Entry) (err error) {
	data, err := Render(entries)
	if err != nil {
		return err
	}
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = f.Write(data)
	return err
}

// Read parses an existing env file.
func Read(fsys billy.Filesystem, path string) (map[string]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vals, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("envfile: parse %s: %w", path, err)
	}
	return vals, nil
}

// Merge returns fresh followed by the keys of existing that fresh does not
// set, sorted by key.
func Merge(existing map[string]string, fresh []Entry) []Entry {
	seen := make(map[string]struct{}, len(fresh))
	out := make([]Entry, 0, len(fresh)+len(existing))
	for _, e := range fresh {
		seen[e.Key] = struct{}{}
		out = append(out, e)
	}

	keys := make([]string, 0, len(existing))
	for k := range existing {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: existing[k]})
	}
	return out
}

// quote leaves plain values bare. Values with whitespace, comment or
// expansion characters are single-quoted, which dotenv readers take
// literally; values that contain a single quote or a line break fall back to
// double quotes with backslash escapes, including \$ so nothing expands.
func quote(v string) string {
	if !strings.ContainsAny(v, " \t\r\n#\"'`\\$") {
		return v
	}
	if !strings.ContainsAny(v, "'\r\n") {
		return "'" + v + "'"
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "\n", `\n`, "\r", `\r`)
	return `"` + r.Replace(v) + `"`
}
