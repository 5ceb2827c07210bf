package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/zensite/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Banner is the one-line greeting printed before a build.
func Banner() string {
	return fmt.Sprintf("zensite %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
