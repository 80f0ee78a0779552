// Package scaffold creates a new project from a template bundle.
//
// Run validates the project name and the bundle, then materializes the tree:
//
//  1. copy the bundle, skipping excluded names
//  2. replace {{project_name}} in every text file
//  3. write .env with a fresh SECRET_KEY, DEBUG and PROJECT_NAME
//  4. publish the result at ParentDir/ProjectName
//  5. optionally initialize a git repository
//
// When the destination does not exist (or is an empty directory), steps 1-3
// run in a hidden staging directory next to it which is renamed into place
// only after they all succeed. A failed run therefore leaves no destination
// behind. Two runs racing for the same destination cannot interleave: the
// rename of the slower one fails and it reports E151.
//
// A non-empty destination is refused with E152 unless Force is set, in which
// case files are written in place over the existing tree. Forced runs are
// not staged and are not protected against concurrent runs. Entries with an
// excluded name, such as the project's own .git or venv, are never
// rewritten. With KeepEnv, keys of the existing .env that are not valid
// variable names are dropped with an E101 warning.
//
// Repository initialization is best-effort. Its failure is logged and
// reported in Result.Warnings but never fails the run. Rewrite failures on
// individual files are handled the same way.
//
// Every step runs in an OpenTelemetry span under "scaffold.run". Without a
// tracer provider installed these are no-ops.
package scaffold
