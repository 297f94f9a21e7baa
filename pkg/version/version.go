// Package version provides build information for the halyard binary.
package version

import "fmt"

// Build information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("halyard %s (commit %s, built %s)", Version, Commit, BuildTime)
}
