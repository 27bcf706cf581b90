// SPDX-License-Identifier: MPL-2.0

// Package modinfo reads the mod metadata file packaged inside an archive.
//
// The metadata file is TOML:
//
//	modLoader = "javafml"
//	loaderVersion = "[4,)"
//	license = "MIT"
//
//	[[mods]]
//	modId = "examplemod"
//	version = "${file.jarVersion}"
//
//	[[mixins]]
//	config = "examplemod.mixins.json"
//
//	[[accessTransformers]]
//	file = "META-INF/accesstransformer.cfg"
package modinfo

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/modloader/modloader/pkg/version"
)

const (
	// MetadataFile is the metadata location inside an archive.
	MetadataFile = "META-INF/neoforge.mods.toml"
	// LegacyMetadataFile is read when MetadataFile is absent.
	LegacyMetadataFile = "META-INF/mods.toml"

	// DefaultLanguage is the language provider used when metadata names none.
	DefaultLanguage = "javafml"
)

var (
	// ErrInvalidModID is the sentinel error wrapped by InvalidModIDError.
	ErrInvalidModID = errors.New("invalid mod id")

	modIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)
)

type (
	// InvalidModIDError is returned when a declared mod id does not match the
	// mod id naming rules.
	InvalidModIDError struct {
		ModID string
	}

	// FileInfo is the metadata record of one archive. One archive may package
	// several mods.
	FileInfo struct {
		// ModLoader is the default language provider for the mods in the file.
		ModLoader string
		// LoaderVersion is the range of ModLoader versions the file accepts.
		LoaderVersion version.Range
		// License is the declared license.
		License string
		// Mods lists the declared mods in file order.
		Mods []ModInfo
		// Mixins lists mixin configuration names, unvalidated.
		Mixins []string
		// AccessTransformers lists declared access transformer paths.
		// Only meaningful when AccessTransformersDeclared is true.
		AccessTransformers []string
		// AccessTransformersDeclared is true when the file declares the
		// accessTransformers table, even if it is empty.
		AccessTransformersDeclared bool
		// Properties are free-form file properties.
		Properties map[string]any
		// Dependencies maps a mod id to its declared dependencies.
		Dependencies map[string][]Dependency
	}

	// ModInfo describes one declared mod.
	ModInfo struct {
		ModID       string
		Version     string
		DisplayName string
		Description string
		// ModLoader overrides the file-level language provider for this mod.
		ModLoader string
		// LoaderVersion is the accepted range for ModLoader; zero when ModLoader is empty.
		LoaderVersion version.Range
	}

	// Dependency is a declared dependency of a mod. Dependencies are reported,
	// never resolved into a load order.
	Dependency struct {
		ModID        string
		Type         string
		VersionRange version.Range
		Side         string
	}

	// LanguageSpec is a required language provider and the accepted version range.
	LanguageSpec struct {
		Name  string
		Range version.Range
	}
)

// Error implements the error interface.
func (e *InvalidModIDError) Error() string {
	return fmt.Sprintf("invalid mod id %q: must match %s", e.ModID, modIDRegex.String())
}

// Unwrap returns ErrInvalidModID so callers can use errors.Is for programmatic detection.
func (e *InvalidModIDError) Unwrap() error { return ErrInvalidModID }

// String implements fmt.Stringer.
func (s LanguageSpec) String() string {
	return s.Name + "@" + s.Range.String()
}

// RequiredLanguages returns the language providers the file needs, in
// declaration order: the file-level loader first, then per-mod loaders.
// Duplicate (name, range) pairs are reported once.
func (fi *FileInfo) RequiredLanguages() []LanguageSpec {
	if fi == nil {
		return nil
	}

	seen := make(map[string]bool)
	var specs []LanguageSpec
	add := func(name string, r version.Range) {
		k := name + "\x00" + r.String()
		if seen[k] {
			return
		}
		seen[k] = true
		specs = append(specs, LanguageSpec{Name: name, Range: r})
	}

	add(fi.ModLoader, fi.LoaderVersion)
	for _, m := range fi.Mods {
		if m.ModLoader != "" {
			add(m.ModLoader, m.LoaderVersion)
		}
	}

	return specs
}

// ModIDs returns the declared mod ids in file order.
func (fi *FileInfo) ModIDs() []string {
	if fi == nil {
		return nil
	}
	ids := make([]string, len(fi.Mods))
	for i, m := range fi.Mods {
		ids[i] = m.ModID
	}
	return ids
}
