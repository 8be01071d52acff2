// Package version provides build-time version information.
package version

// Set at build time with -ldflags "-X solar-annotator/internal/version.Version=...".
var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
