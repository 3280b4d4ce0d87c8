package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	assert.Equal(t, Version, Full())

	originalBuildTime, originalGitCommit := BuildTime, GitCommit
	t.Cleanup(func() {
		BuildTime = originalBuildTime
		GitCommit = originalGitCommit
	})

	GitCommit = "abcdef"
	assert.Equal(t, Version, Full(), "partial build info is ignored")

	BuildTime = "2026-01-01"
	assert.Equal(t, Version+" (commit: abcdef, built: 2026-01-01)", Full())
}

func TestInfo(t *testing.T) {
	info := Info()
	assert.Equal(t, "FormGuard", info["service"])
	assert.Equal(t, Version, info["version"])
	assert.Contains(t, info, "git_commit")
	assert.Contains(t, info, "build_time")
}
