// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"

	"github.com/modloader/modloader/internal/issue"
	"github.com/modloader/modloader/pkg/language"
	"github.com/modloader/modloader/pkg/locator"
	"github.com/modloader/modloader/pkg/modfile"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates an archive that was dropped from the run.
	SeverityError Severity = "error"
)

const (
	// CodeConfigLoadFailed means the configuration could not be loaded and defaults apply.
	CodeConfigLoadFailed DiagnosticCode = "config_load_failed"
	// CodeModsDirUnavailable means a configured mods directory could not be listed.
	CodeModsDirUnavailable DiagnosticCode = "mods_dir_unavailable"
	// CodeArchiveUnreadable means a candidate could not be opened as an archive.
	CodeArchiveUnreadable DiagnosticCode = "archive_unreadable"
	// CodeUnknownModType means the manifest declares an unsupported FMLModType.
	CodeUnknownModType DiagnosticCode = "unknown_mod_type"
	// CodeModMetadataInvalid means the mod metadata file could not be parsed.
	CodeModMetadataInvalid DiagnosticCode = "mod_metadata_invalid"
	// CodeMissingModMetadata means a MOD archive has no metadata file.
	CodeMissingModMetadata DiagnosticCode = "missing_mod_metadata"
	// CodeNestedArchiveLoadFailed means an embedded archive could not be loaded.
	CodeNestedArchiveLoadFailed DiagnosticCode = "nested_archive_load_failed"
	// CodeMissingLanguage means a required language provider is not registered.
	CodeMissingLanguage DiagnosticCode = "missing_language"
	// CodeLanguageVersionMismatch means the registered provider version is out of range.
	CodeLanguageVersionMismatch DiagnosticCode = "language_version_mismatch"
	// CodeScanFailed means the content scan of an archive failed.
	CodeScanFailed DiagnosticCode = "scan_failed"
	// CodeIdentificationFailed covers any other identification failure.
	CodeIdentificationFailed DiagnosticCode = "identification_failed"
)

var (
	// ErrInvalidSeverity is returned when a Severity value is not recognized.
	ErrInvalidSeverity = errors.New("invalid severity")
	// ErrInvalidDiagnosticCode is returned when a DiagnosticCode value is not recognized.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")

	codeIssues = map[DiagnosticCode]issue.Id{
		CodeConfigLoadFailed:        issue.ConfigLoadFailedId,
		CodeModsDirUnavailable:      issue.ModsDirNotFoundId,
		CodeArchiveUnreadable:       issue.ArchiveUnreadableId,
		CodeUnknownModType:          issue.UnknownModTypeId,
		CodeModMetadataInvalid:      issue.ModMetadataInvalidId,
		CodeMissingModMetadata:      issue.MissingModMetadataId,
		CodeNestedArchiveLoadFailed: issue.NestedArchiveLoadFailedId,
		CodeMissingLanguage:         issue.MissingLanguageId,
		CodeLanguageVersionMismatch: issue.LanguageVersionMismatchId,
		CodeScanFailed:              issue.ScanFailedId,
		CodeIdentificationFailed:    0,
	}
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// Diagnostic is a structured discovery problem returned to callers
	// (rather than written to stderr) so the CLI decides how to render it.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "missing_language").
		Code DiagnosticCode
		// Message is the human-readable description.
		Message string
		// Path is the archive or directory the diagnostic is about (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)

// IsValid returns whether the Severity is one of the defined severities,
// and a list of validation errors if it is not.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidSeverity, string(s))}
	}
}

// IsValid returns whether the DiagnosticCode is one of the defined codes,
// and a list of validation errors if it is not.
func (c DiagnosticCode) IsValid() (bool, []error) {
	if _, ok := codeIssues[c]; ok {
		return true, nil
	}
	return false, []error{fmt.Errorf("%w: %q", ErrInvalidDiagnosticCode, string(c))}
}

// String returns the string representation of the DiagnosticCode.
func (c DiagnosticCode) String() string { return string(c) }

// Issue returns the catalog entry explaining the code, if there is one.
func (c DiagnosticCode) Issue() (*issue.Issue, bool) {
	id := codeIssues[c]
	if id == 0 {
		return nil, false
	}
	is := issue.Get(id)
	return is, is != nil
}

// NewDiagnostic creates a Diagnostic with the given severity, code and message.
func NewDiagnostic(severity Severity, code DiagnosticCode, message string) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message}
}

// NewDiagnosticWithPath creates a Diagnostic with an associated path.
func NewDiagnosticWithPath(severity Severity, code DiagnosticCode, message, path string) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message, Path: path}
}

// NewDiagnosticWithCause creates a Diagnostic with a path and underlying error.
func NewDiagnosticWithCause(severity Severity, code DiagnosticCode, message, path string, cause error) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message, Path: path, Cause: cause}
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
	if d.Path != "" {
		s += " (" + d.Path + ")"
	}
	return s
}

// classify maps an archive error to its diagnostic code.
func classify(err error) DiagnosticCode {
	switch {
	case errors.Is(err, modfile.ErrUnknownType):
		return CodeUnknownModType
	case errors.Is(err, modfile.ErrModFileParse):
		return CodeModMetadataInvalid
	case errors.Is(err, modfile.ErrMissingModMetadata):
		return CodeMissingModMetadata
	case errors.Is(err, locator.ErrModFileLoad):
		return CodeNestedArchiveLoadFailed
	case errors.Is(err, language.ErrMissingLanguage):
		return CodeMissingLanguage
	case errors.Is(err, language.ErrLanguageVersionMismatch):
		return CodeLanguageVersionMismatch
	case errors.Is(err, modfile.ErrUnexpectedScanFailure):
		return CodeScanFailed
	default:
		return CodeIdentificationFailed
	}
}

func errorDiagnostic(message, path string, err error) Diagnostic {
	return NewDiagnosticWithCause(SeverityError, classify(err), message, path, err)
}
