// SPDX-License-Identifier: MPL-2.0

package language

import (
	"errors"
	"fmt"

	"github.com/modloader/modloader/pkg/version"
)

var (
	// ErrMissingLanguage is the sentinel error wrapped by MissingLanguageError.
	ErrMissingLanguage = errors.New("missing language provider")
	// ErrLanguageVersionMismatch is the sentinel error wrapped by LanguageVersionMismatchError.
	ErrLanguageVersionMismatch = errors.New("language provider version mismatch")
	// ErrUnversionedProvider is the sentinel error wrapped by UnversionedProviderError.
	ErrUnversionedProvider = errors.New("unversioned language provider")
	// ErrDuplicateProvider is the sentinel error wrapped by DuplicateProviderError.
	ErrDuplicateProvider = errors.New("duplicate language provider")
)

type (
	// MissingLanguageError is returned when an archive requests a language
	// provider that is not registered.
	MissingLanguageError struct {
		Archive  string
		Language string
		Range    version.Range
	}

	// LanguageVersionMismatchError is returned when the registered provider's
	// version is outside the range an archive requests.
	LanguageVersionMismatchError struct {
		Archive  string
		Language string
		Range    version.Range
		Found    version.Version
	}

	// UnversionedProviderError is returned when no implementation version can
	// be resolved for a provider.
	UnversionedProviderError struct {
		Name     string
		Location string
	}

	// DuplicateProviderError is returned under DuplicateReject when two
	// providers share a name.
	DuplicateProviderError struct {
		Name           string
		FirstLocation  string
		SecondLocation string
	}
)

// Error implements the error interface.
func (e *MissingLanguageError) Error() string {
	return fmt.Sprintf("missing language %s version %s wanted by %s", e.Language, e.Range, e.Archive)
}

// Unwrap returns ErrMissingLanguage so callers can use errors.Is for programmatic detection.
func (e *MissingLanguageError) Unwrap() error { return ErrMissingLanguage }

// Error implements the error interface.
func (e *LanguageVersionMismatchError) Error() string {
	return fmt.Sprintf("language %s version %s wanted by %s, found %s", e.Language, e.Range, e.Archive, e.Found)
}

// Unwrap returns ErrLanguageVersionMismatch so callers can use errors.Is for programmatic detection.
func (e *LanguageVersionMismatchError) Unwrap() error { return ErrLanguageVersionMismatch }

// Error implements the error interface.
func (e *UnversionedProviderError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("failed to find implementation version for language provider %s (%s)", e.Name, e.Location)
	}
	return fmt.Sprintf("failed to find implementation version for language provider %s", e.Name)
}

// Unwrap returns ErrUnversionedProvider so callers can use errors.Is for programmatic detection.
func (e *UnversionedProviderError) Unwrap() error { return ErrUnversionedProvider }

// Error implements the error interface.
func (e *DuplicateProviderError) Error() string {
	return fmt.Sprintf(
		"language provider %q registered twice:\n  - %s\n  - %s",
		e.Name, displayLocation(e.FirstLocation), displayLocation(e.SecondLocation))
}

// Unwrap returns ErrDuplicateProvider so callers can use errors.Is for programmatic detection.
func (e *DuplicateProviderError) Unwrap() error { return ErrDuplicateProvider }

func displayLocation(loc string) string {
	if loc == "" {
		return "(built-in)"
	}
	return loc
}
