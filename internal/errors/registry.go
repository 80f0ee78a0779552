package errors

import "sort"

// Registered error codes.
const (
	CodeInvalidConfig         = "E100"
	CodeInvalidConfigValue    = "E101"
	CodeInvalidProjectName    = "E140"
	CodeTemplateMissing       = "E150"
	CodeDestinationUnwritable = "E151"
	CodeDestinationNotEmpty   = "E152"
	CodeCopyFailure           = "E153"
	CodeSymlinkRejected       = "E154"
	CodeRewriteFailure        = "E155"
	CodeVCSInitFailure        = "E156"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid drfkit config",
		Detail:   "The drfkit configuration file could not be read or parsed.",
		DocURL:   "https://drfkit.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
		DocURL:   "https://drfkit.dev/docs/errors/E101",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Invalid project name",
		Detail:   "Project names become a directory name and are substituted into source files, so they cannot contain whitespace, path separators or braces, and cannot start with a digit.",
		DocURL:   "https://drfkit.dev/docs/errors/E140",
	},

	// ============================================
	// Scaffold Errors (E150-E169)
	// ============================================

	"E150": {
		Category: CategoryTemplate,
		Message:  "Template bundle missing",
		Detail:   "The template directory shipped with drfkit does not exist or is empty. This is a packaging problem, not a usage error.",
		DocURL:   "https://drfkit.dev/docs/errors/E150",
	},
	"E151": {
		Category: CategoryFilesystem,
		Message:  "Destination not writable",
		Detail:   "The destination directory could not be created or written.",
		DocURL:   "https://drfkit.dev/docs/errors/E151",
	},
	"E152": {
		Category: CategoryCLI,
		Message:  "Destination directory is not empty",
		Detail:   "A non-empty directory with this name already exists. Scaffolding into it would overwrite files.",
		DocURL:   "https://drfkit.dev/docs/errors/E152",
	},
	"E153": {
		Category: CategoryFilesystem,
		Message:  "Copy failed",
		Detail:   "A template file or directory could not be copied. A staged run publishes nothing; a forced run may leave files written so far.",
		DocURL:   "https://drfkit.dev/docs/errors/E153",
	},
	"E154": {
		Category: CategoryTemplate,
		Message:  "Symbolic link in template",
		Detail:   "Template bundles must contain only regular files and directories.",
		DocURL:   "https://drfkit.dev/docs/errors/E154",
	},
	"E155": {
		Category: CategoryFilesystem,
		Message:  "Placeholder rewrite failed",
		Detail:   "A copied file could not be rewritten. It was left as copied and the scaffold continued.",
		DocURL:   "https://drfkit.dev/docs/errors/E155",
	},
	"E156": {
		Category: CategoryVCS,
		Message:  "Version control init failed",
		Detail:   "The project was created but the repository could not be initialized.",
		DocURL:   "https://drfkit.dev/docs/errors/E156",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// IsFatal reports whether an error code aborts a scaffold.
func IsFatal(code string) bool {
	switch code {
	case CodeRewriteFailure, CodeVCSInitFailure:
		return false
	}
	return true
}
