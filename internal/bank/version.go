package bank

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrMalformedVersion is returned for marker text that is not
// major.minor.patch.
var ErrMalformedVersion = errors.New("malformed version")

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version is the installed memory bank version. The zero value is 0.0.0.
type Version struct {
	v *semver.Version
}

// NewVersion returns major.minor.patch.
func NewVersion(major, minor, patch uint64) Version {
	return Version{v: semver.New(major, minor, patch, "", "")}
}

// ParseVersion parses "major.minor.patch". Anything else, including a "v"
// prefix or pre-release suffix, returns the zero Version and
// ErrMalformedVersion.
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}

	parts := make([]uint64, 3)
	for i := range parts {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
		}
		parts[i] = n
	}
	return NewVersion(parts[0], parts[1], parts[2]), nil
}

func (v Version) sem() *semver.Version {
	if v.v == nil {
		return semver.New(0, 0, 0, "", "")
	}
	return v.v
}

// IncrementPatch returns v with the patch component advanced by one.
func (v Version) IncrementPatch() Version {
	next := v.sem().IncPatch()
	return Version{v: &next}
}

// String returns "major.minor.patch".
func (v Version) String() string {
	return v.sem().String()
}
