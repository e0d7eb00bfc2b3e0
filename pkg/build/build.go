// SPDX-License-Identifier: MIT
//
// Package build carries metadata stamped into the binary with -ldflags:
// application name, build timestamp, Git commit, and semantic version.
// Development builds without ldflags fall back to "dev" placeholders.
package build

import "fmt"

// Info is the resolved build metadata for the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Populated by -ldflags at link time; empty during plain go builds.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	info = Info{
		Name:    "audiovis",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies any stamped ldflags values into the Info record. Call
// once early in startup, before anything reads the metadata.
func Initialize() {
	if buildName != "" {
		info.Name = buildName
	}
	if buildTime != "" {
		info.Time = buildTime
	}
	if buildCommit != "" {
		info.Commit = buildCommit
	}
	if buildVersion != "" {
		info.Version = buildVersion
	}
}

// Get returns the current build metadata.
func Get() Info {
	return info
}

// String renders the metadata in the form used by the --version flag.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}
