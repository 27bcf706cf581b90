// SPDX-License-Identifier: MPL-2.0

package language

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/modloader/modloader/pkg/supportmatrix"
	"github.com/modloader/modloader/pkg/version"
)

const (
	// DuplicateReplace keeps the last provider registered under a name and
	// logs a warning. This is the default.
	DuplicateReplace DuplicatePolicy = "replace"
	// DuplicateReject fails registry construction when two providers share a name.
	DuplicateReject DuplicatePolicy = "reject"
)

type (
	// DuplicatePolicy decides what happens when two providers share a name.
	DuplicatePolicy string

	// Options configure registry construction.
	Options struct {
		// HostVersion is the host loader version. Its major segment versions
		// unpacked development providers that carry no version tag.
		HostVersion string
		// Duplicates is the duplicate-name policy; empty means DuplicateReplace.
		Duplicates DuplicatePolicy
		// Matrix holds version check overrides; nil means none.
		Matrix *supportmatrix.Matrix
		// Logger receives registry diagnostics; nil means slog.Default().
		Logger *slog.Logger
	}

	// Handle is a registered provider together with its resolved version.
	Handle struct {
		Name     string
		Version  version.Version
		Provider Provider
	}

	// Archive is the identity of the archive requesting a language.
	Archive interface {
		FileName() string
	}

	// Registry indexes providers by name. It is read-only after NewRegistry
	// returns and safe for concurrent use.
	Registry struct {
		handles map[string]*Handle
		matrix  *supportmatrix.Matrix
		logger  *slog.Logger
	}
)

// IsValid reports whether the policy is recognised.
func (p DuplicatePolicy) IsValid() bool {
	switch p {
	case "", DuplicateReplace, DuplicateReject:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (h *Handle) String() string {
	return h.Name + " " + h.Version.String()
}

// NewRegistry discovers providers from sources, in order, and registers them.
func NewRegistry(ctx context.Context, opts Options, sources ...Source) (*Registry, error) {
	if !opts.Duplicates.IsValid() {
		return nil, fmt.Errorf("invalid duplicate provider policy %q", opts.Duplicates)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		handles: make(map[string]*Handle),
		matrix:  opts.Matrix,
		logger:  logger,
	}

	for _, src := range sources {
		providers, err := src.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to discover language providers: %w", err)
		}
		for _, p := range providers {
			if err := r.register(p, opts); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

func (r *Registry) register(p Provider, opts Options) error {
	impl, ok := p.ResolveVersion()
	if !ok && isDir(p.Location()) {
		impl = version.MajorSegment(opts.HostVersion)
	}
	if impl == "" {
		r.logger.Error("found unversioned language provider", "provider", p.Name(), "location", p.Location())
		return &UnversionedProviderError{Name: p.Name(), Location: p.Location()}
	}

	if prev, exists := r.handles[p.Name()]; exists {
		if opts.Duplicates == DuplicateReject {
			return &DuplicateProviderError{
				Name:           p.Name(),
				FirstLocation:  prev.Provider.Location(),
				SecondLocation: p.Location(),
			}
		}
		r.logger.Warn("replacing language provider registered under the same name",
			"provider", p.Name(),
			"previous_version", prev.Version.String(),
			"previous_location", prev.Provider.Location(),
			"location", p.Location())
	}

	h := &Handle{Name: p.Name(), Version: version.Parse(impl), Provider: p}
	r.handles[p.Name()] = h
	r.logger.Debug("found language provider", "provider", h.Name, "version", h.Version.String())

	return nil
}

// FindLanguage returns the provider registered under name if its version is
// accepted by accepted, or by a version matrix override for (name, "languageloader").
func (r *Registry) FindLanguage(archive Archive, name string, accepted version.Range) (*Handle, error) {
	fileName := archive.FileName()

	h, ok := r.handles[name]
	if !ok {
		r.logger.Error("missing language", "language", name, "range", accepted.String(), "file", fileName)
		return nil, &MissingLanguageError{Archive: fileName, Language: name, Range: accepted}
	}

	supported := r.matrix.Test(accepted, name, supportmatrix.KindLanguageLoader, func(_ string, rng version.Range) bool {
		return rng.ContainsVersion(h.Version)
	})
	if !supported {
		r.logger.Error("language version mismatch",
			"language", name, "range", accepted.String(), "file", fileName, "found", h.Version.String())
		return nil, &LanguageVersionMismatchError{Archive: fileName, Language: name, Range: accepted, Found: h.Version}
	}

	return h, nil
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (*Handle, bool) {
	h, ok := r.handles[name]
	return h, ok
}

// Handles returns all registered handles sorted by name.
func (r *Registry) Handles() []*Handle {
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.handles)
}

func isDir(p string) bool {
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
