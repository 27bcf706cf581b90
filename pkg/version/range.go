// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRange is the sentinel error wrapped by InvalidRangeError.
var ErrInvalidRange = errors.New("invalid version range")

type (
	// InvalidRangeError is returned when a range specification cannot be parsed.
	InvalidRangeError struct {
		Spec   string
		Reason string
	}

	// Restriction is a single interval of acceptable versions.
	// A nil bound is unbounded on that side.
	Restriction struct {
		Lower          *Version
		LowerInclusive bool
		Upper          *Version
		UpperInclusive bool
	}

	// Range is a set of acceptable versions expressed with Maven range syntax:
	//
	//	[1.0,)       1.0 <= v
	//	(,2.0]       v <= 2.0
	//	[1.0,2.0)    1.0 <= v < 2.0
	//	[1.0]        v == 1.0
	//	[1,2),[3,)   either interval
	//	1.0          recommended version, any version is accepted
	//	*            any version
	//
	// The zero value accepts every version.
	Range struct {
		spec         string
		recommended  *Version
		restrictions []Restriction
	}
)

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid version range %q: %s", e.Spec, e.Reason)
}

// Unwrap returns ErrInvalidRange so callers can use errors.Is for programmatic detection.
func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// Any returns a range that accepts every version.
func Any() Range {
	return Range{spec: "*"}
}

// MustParseRange is like ParseRange but panics on error. Intended for constants and tests.
func MustParseRange(spec string) Range {
	r, err := ParseRange(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// ParseRange parses a range specification.
func ParseRange(spec string) (Range, error) {
	s := strings.TrimSpace(spec)
	if s == "" || s == "*" {
		return Range{spec: s}, nil
	}

	r := Range{spec: s}
	rest := s
	var lastUpper *Version

	for strings.HasPrefix(rest, "[") || strings.HasPrefix(rest, "(") {
		end := strings.IndexAny(rest, "])")
		if end < 0 {
			return Range{}, &InvalidRangeError{Spec: spec, Reason: "unbounded range"}
		}

		restriction, err := parseRestriction(spec, rest[:end+1])
		if err != nil {
			return Range{}, err
		}
		if lastUpper != nil && (restriction.Lower == nil || restriction.Lower.Compare(*lastUpper) < 0) {
			return Range{}, &InvalidRangeError{Spec: spec, Reason: "ranges overlap"}
		}
		lastUpper = restriction.Upper
		r.restrictions = append(r.restrictions, restriction)

		rest = strings.TrimSpace(rest[end+1:])
		if strings.HasPrefix(rest, ",") {
			rest = strings.TrimSpace(rest[1:])
			if rest == "" {
				return Range{}, &InvalidRangeError{Spec: spec, Reason: "trailing comma"}
			}
		}
	}

	if rest != "" {
		if len(r.restrictions) > 0 {
			return Range{}, &InvalidRangeError{Spec: spec, Reason: "only fully qualified sets are allowed in multiple set scenario"}
		}
		if strings.ContainsAny(rest, "[](),") {
			return Range{}, &InvalidRangeError{Spec: spec, Reason: "unbalanced brackets"}
		}
		v := Parse(rest)
		r.recommended = &v
	}

	return r, nil
}

func parseRestriction(spec, s string) (Restriction, error) {
	lowerInclusive := s[0] == '['
	upperInclusive := s[len(s)-1] == ']'
	body := strings.TrimSpace(s[1 : len(s)-1])

	lowerStr, upperStr, hasComma := strings.Cut(body, ",")
	if !hasComma {
		// A single version is only valid as an exact match: [1.0]
		if !lowerInclusive || !upperInclusive || body == "" {
			return Restriction{}, &InvalidRangeError{Spec: spec, Reason: "single version must be surrounded by []"}
		}
		v := Parse(body)
		return Restriction{Lower: &v, LowerInclusive: true, Upper: &v, UpperInclusive: true}, nil
	}
	if strings.Contains(upperStr, ",") {
		return Restriction{}, &InvalidRangeError{Spec: spec, Reason: "too many commas"}
	}

	var res Restriction
	res.LowerInclusive = lowerInclusive
	res.UpperInclusive = upperInclusive

	if lowerStr = strings.TrimSpace(lowerStr); lowerStr != "" {
		v := Parse(lowerStr)
		res.Lower = &v
	}
	if upperStr = strings.TrimSpace(upperStr); upperStr != "" {
		v := Parse(upperStr)
		res.Upper = &v
	}

	if res.Lower != nil && res.Upper != nil {
		c := res.Lower.Compare(*res.Upper)
		if c > 0 || (c == 0 && !(lowerInclusive && upperInclusive)) {
			return Restriction{}, &InvalidRangeError{Spec: spec, Reason: "lower bound is greater than upper bound"}
		}
	}

	return res, nil
}

// ContainsVersion reports whether v is acceptable to the range.
func (r Range) ContainsVersion(v Version) bool {
	if len(r.restrictions) == 0 {
		return true
	}
	for _, res := range r.restrictions {
		if res.ContainsVersion(v) {
			return true
		}
	}
	return false
}

// Recommended returns the bare recommended version, if the range was declared as one.
func (r Range) Recommended() (Version, bool) {
	if r.recommended == nil {
		return Version{}, false
	}
	return *r.recommended, true
}

// Restrictions returns a copy of the range intervals.
func (r Range) Restrictions() []Restriction {
	out := make([]Restriction, len(r.restrictions))
	copy(out, r.restrictions)
	return out
}

// String returns the range specification as declared.
func (r Range) String() string {
	if r.spec == "" {
		return "*"
	}
	return r.spec
}

// ContainsVersion reports whether v falls inside the interval.
func (res Restriction) ContainsVersion(v Version) bool {
	if res.Lower != nil {
		c := v.Compare(*res.Lower)
		if c < 0 || (c == 0 && !res.LowerInclusive) {
			return false
		}
	}
	if res.Upper != nil {
		c := v.Compare(*res.Upper)
		if c > 0 || (c == 0 && !res.UpperInclusive) {
			return false
		}
	}
	return true
}
