package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValue(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestBanner(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "1.2.3"
	GitCommit = ""
	BuildDate = ""
	if got := Banner(); got != "stitch 1.2.3" {
		t.Errorf("Banner() = %q", got)
	}

	GitCommit = "abc123"
	BuildDate = "2024-01-15T10:30:00Z"
	got := Banner()
	if !strings.Contains(got, "(abc123)") || !strings.Contains(got, "built 2024-01-15T10:30:00Z") {
		t.Errorf("Banner() = %q", got)
	}
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()

	// Simulates build-time ldflags.
	Version = "1.2.3"
	if Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", Version, "1.2.3")
	}
}
