// SPDX-License-Identifier: MPL-2.0

package version

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// versionRegex matches artifact versions such as "1", "1.2", "1.2.3", "1.2.3-beta.1"
// and "0.0NONE". The qualifier may follow the numeric part directly or after a
// '-' or '.' separator.
var versionRegex = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:[-.]?([0-9A-Za-z][0-9A-Za-z.\-+_]*))?$`)

// Version is a parsed artifact version. The zero value is version 0.0.0.
//
// Parsing never fails: a string that does not look like a version becomes
// 0.0.0 with the whole string as its qualifier, so every declared version
// remains comparable.
//
// Numeric components past the patch level, as in "1.2.3.4" or the build part
// of "1.20.1-47.1.3", are release components kept in Extra.
type Version struct {
	Major     int
	Minor     int
	Patch     int
	Extra     []int
	Qualifier string
	Original  string
}

// qualifierRank orders the well-known qualifiers. Unknown qualifiers rank
// after all of them.
var qualifierRank = map[string]int{
	"alpha":     0,
	"a":         0,
	"beta":      1,
	"b":         1,
	"milestone": 2,
	"m":         2,
	"rc":        3,
	"cr":        3,
	"snapshot":  4,
}

// Parse parses s into a Version.
func Parse(s string) Version {
	s = strings.TrimSpace(s)
	v := Version{Original: s}

	m := versionRegex.FindStringSubmatch(s)
	if m == nil {
		v.Qualifier = s
		return v
	}

	var err error
	if v.Major, err = strconv.Atoi(m[1]); err != nil {
		return Version{Original: s, Qualifier: s}
	}
	if m[2] != "" {
		if v.Minor, err = strconv.Atoi(m[2]); err != nil {
			return Version{Original: s, Qualifier: s}
		}
	}
	if m[3] != "" {
		if v.Patch, err = strconv.Atoi(m[3]); err != nil {
			return Version{Original: s, Qualifier: s}
		}
	}
	v.Qualifier = m[4]
	if extra, ok := numericComponents(v.Qualifier); ok {
		v.Extra, v.Qualifier = extra, ""
	}

	return v
}

// numericComponents splits a qualifier made only of dot-separated numbers.
func numericComponents(q string) ([]int, bool) {
	if q == "" {
		return nil, false
	}
	parts := strings.Split(q, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return nil, false
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// String returns the version as it was declared.
func (v Version) String() string {
	if v.Original != "" {
		return v.Original
	}
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	for _, n := range v.Extra {
		s += "." + strconv.Itoa(n)
	}
	if v.Qualifier != "" {
		s += "-" + v.Qualifier
	}
	return s
}

// MajorSegment returns the leading dot-separated segment of a raw version string.
func MajorSegment(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Compare compares two versions.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	for i := range max(len(v.Extra), len(other.Extra)) {
		if c := compareInt(extraAt(v.Extra, i), extraAt(other.Extra, i)); c != 0 {
			return c
		}
	}

	// Qualified versions have lower precedence than the plain release.
	switch {
	case v.Qualifier == other.Qualifier:
		return 0
	case v.Qualifier == "":
		return 1
	case other.Qualifier == "":
		return -1
	}

	return compareQualifiers(v.Qualifier, other.Qualifier)
}

// Equal reports whether v and other denote the same version.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

func extraAt(extra []int, i int) int {
	if i < len(extra) {
		return extra[i]
	}
	return 0
}

// compareQualifiers orders qualifiers by their leading well-known name
// (alpha < beta < milestone < rc < snapshot < anything else), then by what
// follows the name.
func compareQualifiers(a, b string) int {
	nameA, restA := splitQualifier(a)
	nameB, restB := splitQualifier(b)
	rankA, knownA := qualifierRank[nameA]
	rankB, knownB := qualifierRank[nameB]

	switch {
	case knownA && knownB:
		if c := compareInt(rankA, rankB); c != 0 {
			return c
		}
		return compareQualifierRest(restA, restB)
	case knownA:
		return -1
	case knownB:
		return 1
	}
	return compareQualifierRest(a, b)
}

// splitQualifier splits "rc1" into ("rc", "1") and "beta.2" into ("beta", "2").
// The name is lower-cased.
func splitQualifier(q string) (name, rest string) {
	i := strings.IndexFunc(q, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < 'A' || r > 'Z')
	})
	if i < 0 {
		return strings.ToLower(q), ""
	}
	return strings.ToLower(q[:i]), strings.TrimLeft(q[i:], ".-_")
}

// compareQualifierRest orders qualifier remainders numerically when both are
// numbers, with semantic version pre-release precedence when both are valid
// pre-release identifiers, and lexically (case-insensitive) otherwise.
func compareQualifierRest(a, b string) int {
	if a == b {
		return 0
	}
	if na, errA := strconv.Atoi(a); errA == nil {
		if nb, errB := strconv.Atoi(b); errB == nil {
			return compareInt(na, nb)
		}
	}
	sa, sb := "v0.0.0-"+a, "v0.0.0-"+b
	if semver.IsValid(sa) && semver.IsValid(sb) {
		return semver.Compare(sa, sb)
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
