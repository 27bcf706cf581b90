// SPDX-License-Identifier: MPL-2.0

package language

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modloader/modloader/pkg/jar"
)

// AttrLanguageProvider is the manifest attribute naming the language provider
// packaged in an archive.
const AttrLanguageProvider = "FMLLanguageProvider"

type (
	// Provider is a language-runtime adapter plugin.
	Provider interface {
		// Name is the unique language name archives refer to (e.g. "javafml").
		Name() string
		// ResolveVersion returns the version tag embedded at build time, if any.
		ResolveVersion() (string, bool)
		// Location is where the provider was loaded from; a directory marks an
		// unpacked development provider. Empty for built-in providers.
		Location() string
	}

	// Source discovers language providers.
	Source interface {
		Discover(ctx context.Context) ([]Provider, error)
	}

	// StaticProvider is a Provider with fixed attributes.
	StaticProvider struct {
		name     string
		tag      string
		location string
	}

	// StaticSource is a Source returning a fixed list of providers.
	StaticSource []Provider

	// ArchiveSource discovers providers packaged as archives (or unpacked
	// directories) whose manifest carries the FMLLanguageProvider attribute.
	// The version tag is the manifest Implementation-Version.
	ArchiveSource struct {
		Dirs   []string
		Logger *slog.Logger
	}
)

// NewStatic creates a provider. An empty tag means the provider has no
// embedded version.
func NewStatic(name, tag, location string) *StaticProvider {
	return &StaticProvider{name: name, tag: tag, location: location}
}

// Name implements Provider.
func (p *StaticProvider) Name() string { return p.name }

// ResolveVersion implements Provider.
func (p *StaticProvider) ResolveVersion() (string, bool) {
	return p.tag, p.tag != ""
}

// Location implements Provider.
func (p *StaticProvider) Location() string { return p.location }

// String implements fmt.Stringer.
func (p *StaticProvider) String() string {
	return "language provider " + p.name
}

// Discover implements Source.
func (s StaticSource) Discover(context.Context) ([]Provider, error) {
	return append([]Provider(nil), s...), nil
}

// Discover implements Source. Missing directories are skipped; archives that
// cannot be opened are logged and skipped.
func (s ArchiveSource) Discover(ctx context.Context) ([]Provider, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	for _, dir := range s.Dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read language provider directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("language provider discovery canceled: %w", err)
			}
			if !entry.IsDir() && !isArchiveName(entry.Name()) {
				continue
			}

			p := filepath.Join(dir, entry.Name())
			provider, ok := readArchiveProvider(p, logger)
			if ok {
				providers = append(providers, provider)
			}
		}
	}

	return providers, nil
}

func readArchiveProvider(p string, logger *slog.Logger) (Provider, bool) {
	j, err := jar.Open(p)
	if err != nil {
		logger.Warn("failed to open language provider archive", "path", p, "error", err)
		return nil, false
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Debug("failed to close language provider archive", "path", p, "error", closeErr)
		}
	}()

	name, ok := j.Manifest().Value(AttrLanguageProvider)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, false
	}
	tag, _ := j.Manifest().Value(jar.AttrImplementationVersion)

	return NewStatic(strings.TrimSpace(name), strings.TrimSpace(tag), p), true
}

func isArchiveName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jar" || ext == ".zip"
}
