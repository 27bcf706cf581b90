// SPDX-License-Identifier: MPL-2.0

// Package modfile holds the in-memory record of one discovered archive: its
// type, parsed metadata, extracted resources, resolved language providers and
// the outcome of its content scan.
package modfile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/modloader/modloader/pkg/jar"
	"github.com/modloader/modloader/pkg/language"
	"github.com/modloader/modloader/pkg/modinfo"
	"github.com/modloader/modloader/pkg/scan"
	"github.com/modloader/modloader/pkg/version"
)

const (
	// AttrModType is the manifest attribute holding the archive Type.
	AttrModType = "FMLModType"

	// NoneVersion is the archive version used when the manifest declares none.
	NoneVersion = "0.0NONE"

	// CoreModsFile maps coremod names to script paths inside the archive.
	CoreModsFile = "META-INF/coremods.json"

	// DefaultAccessTransformer is used when metadata declares no access transformers.
	DefaultAccessTransformer = "META-INF/accesstransformer.cfg"
)

const (
	TypeMod          Type = "MOD"
	TypeLibrary      Type = "LIBRARY"
	TypeGameLibrary  Type = "GAMELIBRARY"
	TypeLangProvider Type = "LANGPROVIDER"
)

const (
	StateUnidentified State = iota
	StateIdentified
	StateLanguageResolved
	StateScanned
	StateScanFailed
)

type (
	// Type classifies an archive.
	Type string

	// State is the position of a ModFile in its identification lifecycle.
	State int

	// Parser reads the metadata record of an archive. It returns (nil, nil)
	// when the archive carries no metadata.
	Parser func(fsys fs.FS, subst map[string]any) (*modinfo.FileInfo, error)

	// LanguageFinder resolves a required language provider.
	LanguageFinder interface {
		FindLanguage(archive language.Archive, name string, accepted version.Range) (*language.Handle, error)
	}

	// Option configures a ModFile.
	Option func(*ModFile)

	// ModFile is one discovered archive.
	//
	// Identification (IdentifyMods, IdentifyLanguage) is driven by a single
	// caller. Accessors and the scan methods are safe for concurrent use.
	ModFile struct {
		jar        *jar.Jar
		modType    Type
		jarVersion string
		parser     Parser
		scanner    scan.Scanner
		logger     *slog.Logger

		mu                 sync.Mutex
		state              State
		fileProperties     map[string]any
		info               *modinfo.FileInfo
		coreMods           []*CoreModFile
		mixinConfigs       []string
		accessTransformers []string
		languages          []*language.Handle

		scanMu        sync.Mutex
		scanRequested bool
		pendingScan   *scan.Future
		result        scanCell
	}
)

// Types returns the known archive types.
func Types() []Type {
	return []Type{TypeMod, TypeLibrary, TypeGameLibrary, TypeLangProvider}
}

// IsValid reports whether t is a known Type.
func (t Type) IsValid() bool {
	return slices.Contains(Types(), t)
}

// String implements fmt.Stringer.
func (t Type) String() string { return string(t) }

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUnidentified:
		return "unidentified"
	case StateIdentified:
		return "identified"
	case StateLanguageResolved:
		return "language-resolved"
	case StateScanned:
		return "scanned"
	case StateScanFailed:
		return "scan-failed"
	default:
		return "unknown"
	}
}

// WithParser replaces the metadata parser. The default is modinfo.Parse.
func WithParser(p Parser) Option {
	return func(f *ModFile) { f.parser = p }
}

// WithScanner replaces the content scanner used by CompileContent.
func WithScanner(s scan.Scanner) Option {
	return func(f *ModFile) { f.scanner = s }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *ModFile) { f.logger = l }
}

// WithType forces the archive type instead of reading the manifest.
func WithType(t Type) Option {
	return func(f *ModFile) { f.modType = t }
}

// New wraps an opened archive. The archive type comes from the FMLModType
// manifest attribute (MOD when absent) and the version from
// Implementation-Version (NoneVersion when absent).
func New(j *jar.Jar, opts ...Option) (*ModFile, error) {
	f := &ModFile{
		jar:        j,
		jarVersion: NoneVersion,
		parser:     modinfo.Parse,
		scanner:    scan.ArchiveScanner{},
		logger:     slog.Default(),
		result:     newScanCell(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.modType == "" {
		f.modType = TypeMod
		if v, ok := j.Manifest().Value(AttrModType); ok {
			f.modType = Type(strings.TrimSpace(v))
		}
	}
	if !f.modType.IsValid() {
		return nil, &UnknownTypeError{File: j.FileName(), Value: string(f.modType)}
	}

	if v, ok := j.Manifest().Value(jar.AttrImplementationVersion); ok && strings.TrimSpace(v) != "" {
		f.jarVersion = strings.TrimSpace(v)
	}

	return f, nil
}

// Jar returns the underlying archive.
func (f *ModFile) Jar() *jar.Jar { return f.jar }

// Path returns the primary path of the archive, its identity within a discovery run.
func (f *ModFile) Path() string { return f.jar.Path() }

// FileName returns the archive file name.
func (f *ModFile) FileName() string { return f.jar.FileName() }

// Type returns the archive type.
func (f *ModFile) Type() Type { return f.modType }

// JarVersion returns the declared archive version.
func (f *ModFile) JarVersion() version.Version { return version.Parse(f.jarVersion) }

// FindResource returns the archive path of a resource. It does not check existence.
func (f *ModFile) FindResource(elems ...string) (string, error) {
	return jar.Resource(elems...)
}

// SetFileProperties replaces the file properties exposed through SubstitutionMap.
func (f *ModFile) SetFileProperties(props map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileProperties = maps.Clone(props)
}

// SubstitutionMap returns the values available to ${file.<key>} placeholders:
// jarVersion plus the file properties.
func (f *ModFile) SubstitutionMap() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.substitutionMapLocked()
}

func (f *ModFile) substitutionMapLocked() map[string]any {
	m := make(map[string]any, len(f.fileProperties)+1)
	for k, v := range f.fileProperties {
		m[k] = v
	}
	m["jarVersion"] = f.jarVersion
	return m
}

// State returns the lifecycle state.
func (f *ModFile) State() State {
	if settled, err := f.result.peek(); settled {
		if err != nil {
			return StateScanFailed
		}
		return StateScanned
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ModFileInfo returns the parsed metadata, nil before identification or for
// library archives without metadata.
func (f *ModFile) ModFileInfo() *modinfo.FileInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info
}

// ModInfos returns the declared mods in file order.
func (f *ModFile) ModInfos() []modinfo.ModInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.info == nil {
		return nil
	}
	return slices.Clone(f.info.Mods)
}

// CoreMods returns the coremod scripts found by IdentifyMods.
func (f *ModFile) CoreMods() []*CoreModFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.coreMods)
}

// MixinConfigs returns the declared mixin configuration names.
func (f *ModFile) MixinConfigs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.mixinConfigs)
}

// AccessTransformers returns the access transformer paths that exist in the archive.
func (f *ModFile) AccessTransformers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.accessTransformers)
}

// Languages returns the resolved language providers, parallel to
// ModFileInfo().RequiredLanguages(). Nil until IdentifyLanguage succeeds.
func (f *ModFile) Languages() []*language.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.languages)
}

// IdentifyMods parses the archive metadata and extracts coremods, mixin
// configs and access transformers. A MOD archive without metadata fails with
// ErrMissingModMetadata; other types are accepted without metadata.
func (f *ModFile) IdentifyMods() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state >= StateLanguageResolved {
		return ErrLanguagesResolved
	}

	info, err := f.parser(f.jar.FS(), f.substitutionMapLocked())
	if err != nil {
		return &ModFileParseError{File: f.FileName(), Err: err}
	}

	f.info = info
	f.coreMods, f.mixinConfigs, f.accessTransformers = nil, nil, nil

	if info == nil {
		if f.modType == TypeMod {
			return &missingMetadataError{file: f.FileName()}
		}
		f.state = StateIdentified
		return nil
	}
	if info.Properties != nil {
		f.fileProperties = maps.Clone(info.Properties)
	}

	f.logger.Debug("loading mod file", "file", f.Path(), "languages", info.RequiredLanguages())

	f.coreMods = f.readCoreMods()
	for _, cm := range f.coreMods {
		f.logger.Debug("found coremod", "source", cm.DebugSource())
	}

	f.mixinConfigs = slices.Clone(info.Mixins)
	for _, mc := range f.mixinConfigs {
		f.logger.Debug("found mixin config", "config", mc)
	}

	f.accessTransformers = f.resolveAccessTransformers(info)
	f.state = StateIdentified

	return nil
}

func (f *ModFile) readCoreMods() []*CoreModFile {
	data, err := f.jar.ReadFile(CoreModsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		f.logger.Error("failed to read coremods list", "file", f.Path(), "error", err)
		return nil
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		f.logger.Error("invalid coremods list", "file", f.Path(), "error", err)
		return nil
	}

	names := slices.Sorted(maps.Keys(entries))
	coreMods := make([]*CoreModFile, 0, len(names))
	for _, name := range names {
		p, err := jar.Resource(entries[name])
		if err != nil {
			f.logger.Error("invalid coremod path", "file", f.Path(), "coremod", name, "error", err)
			continue
		}
		coreMods = append(coreMods, &CoreModFile{name: name, path: p, file: f})
	}
	return coreMods
}

func (f *ModFile) resolveAccessTransformers(info *modinfo.FileInfo) []string {
	if !info.AccessTransformersDeclared {
		if f.jar.Exists(DefaultAccessTransformer) {
			return []string{DefaultAccessTransformer}
		}
		return nil
	}

	var out []string
	for _, declared := range info.AccessTransformers {
		p, err := jar.Resource(declared)
		if err != nil || !f.jar.Exists(p) {
			f.logger.Error("access transformer file does not exist",
				"path", declared, "file", f.FileName(), "mods", info.ModIDs())
			continue
		}
		out = append(out, p)
	}
	return out
}

// IdentifyLanguage resolves every required language provider through finder,
// in declaration order. It succeeds at most once; the first failure is
// returned and leaves the archive unresolved.
func (f *ModFile) IdentifyLanguage(finder LanguageFinder) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.state == StateUnidentified:
		return ErrNotIdentified
	case f.state >= StateLanguageResolved:
		return ErrLanguagesResolved
	}

	specs := f.info.RequiredLanguages()
	handles := make([]*language.Handle, 0, len(specs))
	for _, spec := range specs {
		h, err := finder.FindLanguage(f, spec.Name, spec.Range)
		if err != nil {
			return err
		}
		handles = append(handles, h)
	}

	f.languages = handles
	f.state = StateLanguageResolved

	return nil
}

// Close releases the underlying archive.
func (f *ModFile) Close() error {
	return f.jar.Close()
}

// String implements fmt.Stringer.
func (f *ModFile) String() string {
	return "Mod File: " + f.Path()
}

type missingMetadataError struct {
	file string
}

func (e *missingMetadataError) Error() string {
	return e.file + ": " + ErrMissingModMetadata.Error()
}

func (e *missingMetadataError) Unwrap() error { return ErrMissingModMetadata }
