// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modloader/modloader/internal/logging"
	"github.com/modloader/modloader/pkg/language"
	"github.com/modloader/modloader/pkg/side"
	"github.com/modloader/modloader/pkg/supportmatrix"
)

// DefaultHostVersion is the loader version reported to language providers
// when host_version is not configured.
const DefaultHostVersion = "4.1.0"

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidLanguageProvider is the sentinel error wrapped by InvalidLanguageProviderError.
	ErrInvalidLanguageProvider = errors.New("invalid language provider entry")
	// ErrInvalidVersionOverride is the sentinel error wrapped by InvalidVersionOverrideError.
	ErrInvalidVersionOverride = errors.New("invalid version override")
)

type (
	// LanguageProviderEntry registers a language provider explicitly.
	LanguageProviderEntry struct {
		// Name is the language name archives refer to.
		Name string `json:"name" mapstructure:"name"`
		// Version is the provider version; empty means unversioned.
		Version string `json:"version,omitempty" mapstructure:"version"`
		// Path is an optional location. A directory marks a development provider.
		Path string `json:"path,omitempty" mapstructure:"path"`
	}

	// VersionOverride forces the outcome of a version check.
	VersionOverride struct {
		Subject string `json:"subject" mapstructure:"subject"`
		Kind    string `json:"kind" mapstructure:"kind"`
		Accept  bool   `json:"accept" mapstructure:"accept"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level string `json:"level" mapstructure:"level"`
		File  string `json:"file,omitempty" mapstructure:"file"`
	}

	// Config holds the application configuration.
	Config struct {
		// ModsDirs are scanned for mod archives.
		ModsDirs []string `json:"mods_dirs" mapstructure:"mods_dirs"`
		// LanguageDirs are scanned for language provider archives.
		LanguageDirs []string `json:"language_dirs" mapstructure:"language_dirs"`
		// LanguageProviders are registered before those found in LanguageDirs.
		LanguageProviders []LanguageProviderEntry `json:"language_providers" mapstructure:"language_providers"`
		// VersionOverrides force version check results; the last entry for a key wins.
		VersionOverrides []VersionOverride `json:"version_overrides" mapstructure:"version_overrides"`
		// DuplicateLanguages is "replace" or "reject".
		DuplicateLanguages language.DuplicatePolicy `json:"duplicate_languages" mapstructure:"duplicate_languages"`
		// HostVersion is the loader version.
		HostVersion string `json:"host_version" mapstructure:"host_version"`
		// Workers bounds concurrent identification; 0 means one per CPU.
		Workers int `json:"workers" mapstructure:"workers"`
		// ScanWorkers bounds concurrent scans; 0 means one per CPU.
		ScanWorkers int `json:"scan_workers" mapstructure:"scan_workers"`
		// Side is "client" or "server".
		Side string `json:"side" mapstructure:"side"`
		// Log configures logging.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// InvalidLanguageProviderError is returned for an unusable language_providers entry.
	InvalidLanguageProviderError struct {
		Index  int
		Reason string
	}

	// InvalidVersionOverrideError is returned for an unusable version_overrides entry.
	InvalidVersionOverrideError struct {
		Index  int
		Reason string
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ModsDirs:           []string{"mods"},
		LanguageDirs:       []string{},
		LanguageProviders:  []LanguageProviderEntry{},
		VersionOverrides:   []VersionOverride{},
		DuplicateLanguages: language.DuplicateReplace,
		HostVersion:        DefaultHostVersion,
		Side:               "client",
		Log:                LogConfig{Level: "info"},
	}
}

// IsValid reports whether every field holds a usable value.
// CUE validates file contents; this also covers defaults and environment overrides.
func (c Config) IsValid() (bool, []error) {
	var errs []error

	if !c.DuplicateLanguages.IsValid() {
		errs = append(errs, fmt.Errorf("duplicate_languages: invalid policy %q", c.DuplicateLanguages))
	}
	if strings.TrimSpace(c.HostVersion) == "" {
		errs = append(errs, errors.New("host_version: must not be empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: must be >= 0, got %d", c.Workers))
	}
	if c.ScanWorkers < 0 {
		errs = append(errs, fmt.Errorf("scan_workers: must be >= 0, got %d", c.ScanWorkers))
	}
	if _, err := side.Parse(c.Side); err != nil {
		errs = append(errs, fmt.Errorf("side: %w", err))
	}
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: invalid level %q", c.Log.Level))
	}
	for i, p := range c.LanguageProviders {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, &InvalidLanguageProviderError{Index: i, Reason: "name must not be empty"})
		}
	}
	for i, o := range c.VersionOverrides {
		switch {
		case strings.TrimSpace(o.Subject) == "":
			errs = append(errs, &InvalidVersionOverrideError{Index: i, Reason: "subject must not be empty"})
		case strings.TrimSpace(o.Kind) == "":
			errs = append(errs, &InvalidVersionOverrideError{Index: i, Reason: "kind must not be empty"})
		}
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (e *InvalidLanguageProviderError) Error() string {
	return fmt.Sprintf("language_providers[%d]: %s", e.Index, e.Reason)
}

// Unwrap returns ErrInvalidLanguageProvider for errors.Is() compatibility.
func (e *InvalidLanguageProviderError) Unwrap() error { return ErrInvalidLanguageProvider }

// Error implements the error interface.
func (e *InvalidVersionOverrideError) Error() string {
	return fmt.Sprintf("version_overrides[%d]: %s", e.Index, e.Reason)
}

// Unwrap returns ErrInvalidVersionOverride for errors.Is() compatibility.
func (e *InvalidVersionOverrideError) Unwrap() error { return ErrInvalidVersionOverride }

// ParsedSide returns the configured side, Client when unset or invalid.
func (c Config) ParsedSide() side.Side {
	s, err := side.Parse(c.Side)
	if err != nil {
		return side.Client
	}
	return s
}

// Matrix builds the version override table. Entries repeating an earlier
// (subject, kind) replace it and are reported on logger.
func (c Config) Matrix(logger *slog.Logger) *supportmatrix.Matrix {
	if logger == nil {
		logger = slog.Default()
	}

	overrides := make([]supportmatrix.Override, 0, len(c.VersionOverrides))
	seen := make(map[[2]string]int, len(c.VersionOverrides))
	for i, o := range c.VersionOverrides {
		key := [2]string{o.Subject, o.Kind}
		if first, dup := seen[key]; dup {
			logger.Warn("version override repeated, last entry wins",
				"subject", o.Subject, "kind", o.Kind, "first", first, "index", i)
		}
		seen[key] = i
		overrides = append(overrides, supportmatrix.Override{Subject: o.Subject, Kind: o.Kind, Accept: o.Accept})
	}

	return supportmatrix.New(overrides...)
}

// StaticProviders returns the explicitly configured language providers.
func (c Config) StaticProviders() language.StaticSource {
	src := make(language.StaticSource, 0, len(c.LanguageProviders))
	for _, p := range c.LanguageProviders {
		src = append(src, language.NewStatic(p.Name, p.Version, p.Path))
	}
	return src
}

// LoggingConfig returns the logger configuration.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, File: c.Log.File}
}
