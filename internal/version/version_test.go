package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"release with commit", Info{Version: "v1.2.0", GitCommit: "abc1234def"}, "v1.2.0 (abc1234)"},
		{"dev with commit", Info{Version: "dev", GitCommit: "abc1234def"}, "dev-abc1234"},
		{"no commit", Info{Version: "v1.2.0", GitCommit: "unknown"}, "v1.2.0"},
		{"short commit", Info{Version: "v1.2.0", GitCommit: "abc"}, "v1.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Short())
		})
	}
}

func TestDetailed(t *testing.T) {
	info := Info{
		Version:   "v1.2.0",
		GitCommit: "abc1234",
		BuildTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
		Modified:  true,
	}

	assert.Equal(t, "Version: v1.2.0\nCommit: abc1234 (modified)\nBuilt: 2024-05-01T12:00:00Z\nGo: go1.24.4\nPlatform: linux/amd64", info.Detailed())

	info.GitCommit = "unknown"
	info.BuildTime = time.Time{}
	assert.Equal(t, "Version: v1.2.0\nGo: go1.24.4\nPlatform: linux/amd64", info.Detailed())
}

func TestGetUsesStampedValues(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })

	Version = "v0.3.0"
	GitCommit = "0123456789"
	BuildTime = "2024-01-02T03:04:05Z"

	info := Get()
	assert.Equal(t, "v0.3.0", info.Version)
	assert.Equal(t, "0123456789", info.GitCommit)
	assert.Equal(t, 2024, info.BuildTime.Year())
	assert.True(t, info.IsRelease())
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestParseBuildTime(t *testing.T) {
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
	assert.Equal(t, 15, parseBuildTime("2024-01-02 15:04:05").Hour())
	assert.Equal(t, 2024, parseBuildTime("2024-01-02T15:04:05").Year())
}
