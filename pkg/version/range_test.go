// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"testing"
)

func TestRange_ContainsVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"[1.0,)", "2.0", true},
		{"[1.0,)", "1.0", true},
		{"[1.0,)", "0.5", false},
		{"(1.0,)", "1.0", false},
		{"(,2.0]", "2.0", true},
		{"(,2.0)", "2.0", false},
		{"[1.0,2.0)", "1.9.9", true},
		{"[1.0,2.0)", "2.0-beta", true},
		{"[1.0]", "1.0.0", true},
		{"[1.0]", "1.0.1", false},
		{"[1,2),[3,)", "2.5", false},
		{"[1,2),[3,)", "3.1", true},
		{"1.0", "0.1", true},
		{"*", "0.0NONE", true},
		{"", "42", true},
		{"[4,)", "4.0.12", true},
		{"[1.2.3,)", "1.2.3.4", true},
		{"[1.2.3,1.2.4)", "1.2.3.4", true},
		{"(,1.20.1]", "1.20.1-47.1.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"_"+tt.version, func(t *testing.T) {
			t.Parallel()
			r, err := ParseRange(tt.spec)
			if err != nil {
				t.Fatalf("ParseRange(%q) returned error: %v", tt.spec, err)
			}
			if got := r.ContainsVersion(Parse(tt.version)); got != tt.want {
				t.Errorf("ParseRange(%q).ContainsVersion(%q) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestParseRange_Invalid(t *testing.T) {
	t.Parallel()

	tests := []string{
		"[1.0",
		"(1.0)",
		"[2.0,1.0]",
		"[1.0,2.0,3.0]",
		"[1,3),[2,4)",
		"[1,2),",
		"[1,2)1.0",
		"1.0]",
	}

	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			t.Parallel()
			_, err := ParseRange(spec)
			if err == nil {
				t.Fatalf("ParseRange(%q) expected error", spec)
			}
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("error should wrap ErrInvalidRange, got: %v", err)
			}
			var rangeErr *InvalidRangeError
			if !errors.As(err, &rangeErr) || rangeErr.Spec != spec {
				t.Errorf("expected InvalidRangeError for %q, got %v", spec, err)
			}
		})
	}
}

func TestRange_Recommended(t *testing.T) {
	t.Parallel()

	r := MustParseRange("1.2")
	v, ok := r.Recommended()
	if !ok || v.String() != "1.2" {
		t.Errorf("Recommended() = %v, %v; want 1.2, true", v, ok)
	}
	if len(r.Restrictions()) != 0 {
		t.Errorf("bare version should carry no restrictions, got %v", r.Restrictions())
	}

	if _, ok := MustParseRange("[1.2,)").Recommended(); ok {
		t.Error("bracketed range should not have a recommended version")
	}
}

func TestRange_String(t *testing.T) {
	t.Parallel()

	if got := (Range{}).String(); got != "*" {
		t.Errorf("zero Range String() = %q, want *", got)
	}
	if got := MustParseRange("[1.0,)").String(); got != "[1.0,)" {
		t.Errorf("String() = %q, want [1.0,)", got)
	}
}
