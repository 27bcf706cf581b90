// SPDX-License-Identifier: MPL-2.0

package modfile

import (
	"errors"
	"fmt"
)

var (
	// ErrModFileParse is the sentinel error wrapped by ModFileParseError.
	ErrModFileParse = errors.New("mod file metadata could not be parsed")

	// ErrMissingModMetadata is returned by IdentifyMods for a MOD archive
	// without a metadata file.
	ErrMissingModMetadata = errors.New("mod archive has no mod metadata")

	// ErrUnknownType is the sentinel error wrapped by UnknownTypeError.
	ErrUnknownType = errors.New("unknown mod file type")

	// ErrNotIdentified is returned when languages are resolved before IdentifyMods succeeded.
	ErrNotIdentified = errors.New("mod file has not been identified")

	// ErrLanguagesResolved is returned when languages were already resolved.
	ErrLanguagesResolved = errors.New("mod file languages already resolved")

	// ErrScanAlreadyRequested is returned when a second scan is registered for an archive.
	ErrScanAlreadyRequested = errors.New("scan already requested")

	// ErrScanAlreadySettled is returned when a scan outcome is committed twice.
	ErrScanAlreadySettled = errors.New("scan result already set")

	// ErrScanNotRequested is returned by ScanResult when no scan was ever requested.
	ErrScanNotRequested = errors.New("scan not requested")

	// ErrUnexpectedScanFailure is the sentinel error wrapped by UnexpectedScanFailureError.
	ErrUnexpectedScanFailure = errors.New("unexpected scan failure")

	errScanNotSettled = errors.New("scan finished without a result")
)

type (
	// ModFileParseError is returned when the metadata parser fails.
	ModFileParseError struct {
		File string
		Err  error
	}

	// UnknownTypeError is returned when the FMLModType manifest attribute
	// holds a value that is not a known Type.
	UnknownTypeError struct {
		File  string
		Value string
	}

	// UnexpectedScanFailureError is returned by every ScanResult call after a
	// failed scan. A new value is built on each call; callers should test for
	// ErrUnexpectedScanFailure rather than the cause.
	UnexpectedScanFailureError struct {
		File string
		Err  error
	}
)

// Error implements the error interface.
func (e *ModFileParseError) Error() string {
	return fmt.Sprintf("failed to parse mod metadata of %s: %v", e.File, e.Err)
}

// Unwrap returns ErrModFileParse and the parser error.
func (e *ModFileParseError) Unwrap() []error { return []error{ErrModFileParse, e.Err} }

// Error implements the error interface.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: unknown %s %q (expected one of %v)", e.File, AttrModType, e.Value, Types())
}

// Unwrap returns ErrUnknownType so callers can use errors.Is for programmatic detection.
func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// Error implements the error interface.
func (e *UnexpectedScanFailureError) Error() string {
	return fmt.Sprintf("unexpected failure scanning %s: %v", e.File, e.Err)
}

// Unwrap returns ErrUnexpectedScanFailure and the scan error.
func (e *UnexpectedScanFailureError) Unwrap() []error {
	return []error{ErrUnexpectedScanFailure, e.Err}
}
