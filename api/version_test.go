package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	origMajor, origMinor, origPatch, origCommit := VersionMajor, VersionMinor, VersionPatch, GitCommit
	t.Cleanup(func() {
		VersionMajor, VersionMinor, VersionPatch, GitCommit = origMajor, origMinor, origPatch, origCommit
	})

	VersionMajor, VersionMinor, VersionPatch, GitCommit = "1", "4", "x", "abc123"

	v := GetVersion()
	assert.Equal(t, 1, v.Major)
	assert.Equal(t, 4, v.Minor)
	assert.Equal(t, 0, v.Patch)
	assert.Equal(t, "1.4.0", v.SemVer())
	assert.Contains(t, GetVersionString(), "notes 1.4.0 (abc123")
}
