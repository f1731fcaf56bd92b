// Package version holds build metadata injected at link time with
// -ldflags "-X github.com/danihelis/algorithms/pkg/version.Version=...".
package version

import "fmt"

// Build metadata. Defaults apply to development builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the one-line version banner printed by the CLI.
func String() string {
	return fmt.Sprintf("segtree %s (commit: %s, built: %s)", Version, Commit, Date)
}
