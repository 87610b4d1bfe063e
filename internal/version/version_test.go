package version

import (
	"strings"
	"testing"
)

func setBuildInfo(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version = origVersion
		Commit = origCommit
		BuildTime = origBuildTime
	})
	Version, Commit, BuildTime = version, commit, buildTime
}

func TestString(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		setBuildInfo(t, "dev", "unknown", "unknown")

		result := String()

		if !strings.Contains(result, "dev") {
			t.Errorf("String() = %q, should contain 'dev'", result)
		}
		if !strings.Contains(result, "built unknown") {
			t.Errorf("String() = %q, should contain 'built unknown'", result)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		setBuildInfo(t, "1.2.3", "abc1234", "2024-01-15T10:00:00Z")

		expected := "1.2.3 (abc1234) built 2024-01-15T10:00:00Z"
		if result := String(); result != expected {
			t.Errorf("String() = %q, want %q", result, expected)
		}
	})
}

func TestUserAgent(t *testing.T) {
	setBuildInfo(t, "1.2.3", "abc1234", "unknown")

	if got, want := UserAgent(), "okxexport/1.2.3"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}

func TestDefaultValues(t *testing.T) {
	// Might be overwritten by ldflags in production builds
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
}
