package scaffold

import (
	"strings"
	"unicode"

	"github.com/drfkit/drfkit/internal/errors"
	"github.com/drfkit/drfkit/internal/templates"
)

// ValidateName checks that name can be used both as a directory name and as
// the substitution value.
func ValidateName(name string) error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeInvalidProjectName).
			WithDetail(detail).
			WithSuggestion("Use a name like 'blog_api' or 'BlogApi'")
	}

	switch {
	case name == "":
		return invalid("The project name is empty.")
	case name == "." || name == "..":
		return invalid("The project name cannot be '.' or '..'.")
	case strings.ContainsAny(name, `/\`):
		return invalid("The project name cannot contain path separators.")
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return invalid("The project name cannot contain whitespace.")
	case strings.Contains(name, templates.Placeholder) || strings.ContainsAny(name, "{}"):
		return invalid("The project name cannot contain braces or the placeholder token.")
	case unicode.IsDigit(rune(name[0])):
		return invalid("The project name cannot start with a digit.")
	case strings.HasPrefix(name, stagePrefix):
		return invalid("The project name is reserved for drfkit staging directories.")
	}
	return nil
}
