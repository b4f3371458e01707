// Package version holds build-time version information, injected via
// -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)

// String returns a single-line version description.
func String() string {
	return fmt.Sprintf("autodox %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}
