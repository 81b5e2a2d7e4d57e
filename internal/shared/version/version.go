// Package version carries the build identity stamped in at link time.
package version

import "fmt"

// Set via -ldflags "-X github.com/orris-inc/tokengate/internal/shared/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String renders the full build identity for the version command and the
// server boot log.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
