// Package errors provides structured, actionable error messages for drfkit.
//
// Every failure the scaffolder can report has a registered code that maps to
// a category, a short message, a longer explanation and a documentation URL.
// Call sites attach the path involved, a hint, and the underlying cause.
//
// # Error Categories
//
//   - cli: bad arguments (invalid project name, occupied destination)
//   - template: problems with the template bundle (missing, symlinks)
//   - filesystem: copy, rewrite and write failures in the destination
//   - vcs: version control initialization
//   - config: drfkit.yaml / drfkit.json problems
//
// # Fatal and Non-Fatal Codes
//
// E155 (rewrite failure) and E156 (version control init failure) are
// reported as warnings; a scaffold that hits them still succeeds. All other
// codes abort the run.
//
// # Usage
//
//	err := errors.New(errors.CodeTemplateMissing).
//	    WithPath("/usr/share/drfkit/django").
//	    WithSuggestion("Reinstall drfkit or pass --template")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E150: Template bundle missing
//	//
//	//   /usr/share/drfkit/django
//	//
//	//   The template directory shipped with drfkit does not exist or is empty.
//	//
//	//   Hint: Reinstall drfkit or pass --template
//	//
//	//   Learn more: https://drfkit.dev/docs/errors/E150
package errors
