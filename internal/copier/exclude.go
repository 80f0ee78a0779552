package copier

import "sort"

// ExcludeSet holds entry base names that are skipped, with their whole
// subtree, at every level of a copy.
type ExcludeSet map[string]struct{}

// defaultExcludes are version-control metadata, virtual environments, editor
// settings and packaging artifacts.
var defaultExcludes = []string{
	".git", ".hg", ".svn",
	"venv", ".venv",
	".vscode", ".idea",
	".vsix", "__pycache__", ".DS_Store",
}

// NewExcludeSet returns a set containing names. Empty names are ignored.
func NewExcludeSet(names ...string) ExcludeSet {
	s := make(ExcludeSet, len(names))
	s.Add(names...)
	return s
}

// DefaultExcludes returns a new set with the names drfkit always skips.
func DefaultExcludes() ExcludeSet {
	return NewExcludeSet(defaultExcludes...)
}

// Has reports whether name is excluded. A nil set excludes nothing.
func (s ExcludeSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts names into the set.
func (s ExcludeSet) Add(names ...string) {
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
}

// Names returns the excluded names, sorted.
func (s ExcludeSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
