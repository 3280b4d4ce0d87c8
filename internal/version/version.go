package version

import "fmt"

// Name of the application
const Name = "FormGuard"

var (
	// Version is the semantic version
	Version = "0.1.0"
	// BuildTime is set during build via ldflags
	BuildTime = "unknown"
	// GitCommit is set during build via ldflags
	GitCommit = "unknown"
)

// Full returns the version with build metadata when it was injected.
func Full() string {
	if BuildTime == "unknown" || GitCommit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}

// Info describes the running build for health and status responses.
func Info() map[string]string {
	return map[string]string{
		"service":    Name,
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	}
}
