// SPDX-License-Identifier: MPL-2.0

// Package supportmatrix evaluates version compatibility checks with an
// injected table of overrides for known-bad or legacy version declarations.
package supportmatrix

import "github.com/modloader/modloader/pkg/version"

// KindLanguageLoader is the matrix kind consulted when matching a language
// provider against the range an archive requests.
const KindLanguageLoader = "languageloader"

type (
	// Override forces the outcome of a compatibility check for one subject.
	// When an override matches, Accept is used verbatim and the regular
	// range check is skipped.
	Override struct {
		// Subject identifies what is being checked (e.g. a language name).
		Subject string `json:"subject"`
		// Kind is the matrix the override applies to (e.g. KindLanguageLoader).
		Kind string `json:"kind"`
		// Accept is the forced result.
		Accept bool `json:"accept"`
	}

	// Predicate is the regular compatibility check used when no override matches.
	Predicate func(subjectID string, r version.Range) bool

	key struct {
		subject string
		kind    string
	}

	// Matrix is an immutable override table. The zero value and a nil
	// *Matrix have no overrides.
	Matrix struct {
		overrides map[key]bool
	}
)

// New builds a Matrix from overrides. Later entries for the same
// (Subject, Kind) replace earlier ones.
func New(overrides ...Override) *Matrix {
	m := &Matrix{overrides: make(map[key]bool, len(overrides))}
	for _, o := range overrides {
		m.overrides[key{subject: o.Subject, kind: o.Kind}] = o.Accept
	}
	return m
}

// Lookup returns the override for (subjectID, kind), if any.
func (m *Matrix) Lookup(subjectID, kind string) (accept, ok bool) {
	if m == nil {
		return false, false
	}
	accept, ok = m.overrides[key{subject: subjectID, kind: kind}]
	return accept, ok
}

// Test evaluates a compatibility check for subjectID against r. An override
// registered for (subjectID, kind) decides the outcome without calling
// predicate; otherwise predicate decides.
func (m *Matrix) Test(r version.Range, subjectID, kind string, predicate Predicate) bool {
	if accept, ok := m.Lookup(subjectID, kind); ok {
		return accept
	}
	return predicate(subjectID, r)
}

// Len returns the number of overrides in the table.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.overrides)
}
