// Package buildinfo holds the metadata the version subcommand prints,
// overridden at link time the way the teacher's build replaces its own
// version package's variables.
package buildinfo

var (
	Version      = "0.1.0"
	Toolname     = "p-vector"
	Organization = "unknown"
	BuildDate    = "unknown"
	CommitSHA    = "unknown"
)
