package upgrade

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-([a-zA-Z0-9.-]+))?$`)

// Version is a parsed semantic version.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// ParseVersion parses strings like "0.8.2", "v0.8.2", "0.9.0-rc.1".
func ParseVersion(s string) (*Version, error) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return nil, fmt.Errorf("invalid version format: %q", s)
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	patch, _ := strconv.Atoi(matches[3])

	return &Version{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Prerelease: matches[4],
	}, nil
}

// String returns the version without a leading "v".
func (v *Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns 1 if v > other, 0 if equal, -1 if v < other.
// A release outranks any prerelease of the same triple.
func (v *Version) Compare(other *Version) int {
	for _, pair := range [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	} {
		if pair[0] != pair[1] {
			if pair[0] > pair[1] {
				return 1
			}
			return -1
		}
	}

	if v.Prerelease == "" && other.Prerelease != "" {
		return 1
	}
	if v.Prerelease != "" && other.Prerelease == "" {
		return -1
	}
	return strings.Compare(v.Prerelease, other.Prerelease)
}

// IsNewerThan reports whether remote is strictly newer than current.
// Returns an error when either string does not parse as a semantic version.
func IsNewerThan(remote, current string) (bool, error) {
	r, err := ParseVersion(remote)
	if err != nil {
		return false, fmt.Errorf("remote version: %w", err)
	}
	c, err := ParseVersion(current)
	if err != nil {
		return false, fmt.Errorf("current version: %w", err)
	}
	return r.Compare(c) > 0, nil
}
