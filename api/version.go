package api

import (
	"fmt"
	"strconv"
)

// Version contains versioning information for the service
type Version struct {
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// These values are set during build time with -ldflags "-X"
var (
	// Major version number
	VersionMajor = "0"
	// Minor version number
	VersionMinor = "1"
	// Patch version number
	VersionPatch = "0"
	// GitCommit is the git commit hash from build
	GitCommit = "development"
	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// GetVersion returns the current application version
func GetVersion() Version {
	return Version{
		Major:     parseIntOrZero(VersionMajor),
		Minor:     parseIntOrZero(VersionMinor),
		Patch:     parseIntOrZero(VersionPatch),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// parseIntOrZero parses an integer from a string, returning 0 on failure
func parseIntOrZero(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// SemVer renders major.minor.patch
func (v Version) SemVer() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// GetVersionString returns the version as a formatted string
func GetVersionString() string {
	v := GetVersion()
	return fmt.Sprintf("notes %s (%s - built %s)", v.SemVer(), v.GitCommit, v.BuildDate)
}
