// Package version parses and orders Galv API release versions.
// A version is the strict three-part form X.Y.Z extracted from the backend
// settings file; anything looser (prerelease suffixes, partial versions,
// build metadata) is rejected.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrMalformed is returned when text does not contain a valid X.Y.Z version
// or when the expected API_VERSION assignment is missing entirely.
var ErrMalformed = errors.New("malformed version")

var (
	grammar = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

	// assignment matches a Python-style settings line such as:
	//   API_VERSION = "2.1.0"
	assignment = regexp.MustCompile(`(?m)^\s*API_VERSION\s*=\s*"([^"]*)"`)
)

// Version is an immutable (major, minor, patch) triple.
// The zero value is 0.0.0; Versions are comparable with ==.
type Version struct {
	major uint64
	minor uint64
	patch uint64
}

// New constructs a Version from its components.
func New(major, minor, patch uint64) Version {
	return Version{major: major, minor: minor, patch: patch}
}

// Parse parses strict X.Y.Z text into a Version.
// Returns ErrMalformed for anything outside the grammar.
func Parse(text string) (Version, error) {
	if !grammar.MatchString(text) {
		return Version{}, fmt.Errorf("%q does not match X.Y.Z: %w", text, ErrMalformed)
	}

	v, err := semver.StrictNewVersion(text)
	if err != nil {
		return Version{}, fmt.Errorf("%q: %w", text, ErrMalformed)
	}

	return Version{major: v.Major(), minor: v.Minor(), patch: v.Patch()}, nil
}

// ParseTag parses a release tag name of the form vX.Y.Z.
// The leading v is mandatory; tags without it are not release tags.
func ParseTag(name string) (Version, error) {
	rest, ok := strings.CutPrefix(name, "v")
	if !ok {
		return Version{}, fmt.Errorf("tag %q lacks v prefix: %w", name, ErrMalformed)
	}
	return Parse(rest)
}

// Extract scans configuration source text for an API_VERSION assignment and
// parses its value. It is a pure function of the input text.
func Extract(source string) (Version, error) {
	m := assignment.FindStringSubmatch(source)
	if m == nil {
		return Version{}, fmt.Errorf("no API_VERSION assignment found: %w", ErrMalformed)
	}
	return Parse(m[1])
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.major }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.minor }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.patch }

// String renders the version as X.Y.Z.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// TagName renders the version as a release tag, vX.Y.Z.
func (v Version) TagName() string {
	return "v" + v.String()
}

// Compare orders two versions lexicographically by (major, minor, patch).
// It returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	if c := compareUint(v.major, o.major); c != 0 {
		return c
	}
	if c := compareUint(v.minor, o.minor); c != 0 {
		return c
	}
	return compareUint(v.patch, o.patch)
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o are the same version.
func (v Version) Equal(o Version) bool { return v == o }

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
