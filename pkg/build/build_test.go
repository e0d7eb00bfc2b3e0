// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origInfo    Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origInfo = info

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	info = origInfo

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		want        Info
	}{
		{
			"Unstamped build keeps dev defaults",
			"", "", "", "",
			Info{Name: "audiovis", Time: "unknown", Commit: "unknown", Version: "dev"},
		},
		{
			"Fully stamped build",
			"audiovis", "2026-08-31T10:00:00Z", "abcdef123", "v1.2.0",
			Info{Name: "audiovis", Time: "2026-08-31T10:00:00Z", Commit: "abcdef123", Version: "v1.2.0"},
		},
		{
			"Partially stamped build keeps remaining defaults",
			"", "", "abcdef123", "v1.2.0",
			Info{Name: "audiovis", Time: "unknown", Commit: "abcdef123", Version: "v1.2.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info = Info{Name: "audiovis", Time: "unknown", Commit: "unknown", Version: "dev"}
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			Initialize()

			if got := Get(); got != tt.want {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	i := Info{Name: "audiovis", Time: "2026-08-31", Commit: "abcdef1", Version: "v1.0.0"}
	s := i.String()
	for _, part := range []string{"audiovis", "v1.0.0", "abcdef1", "2026-08-31"} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}
