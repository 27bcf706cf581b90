// SPDX-License-Identifier: MPL-2.0

package language

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/modloader/modloader/pkg/supportmatrix"
	"github.com/modloader/modloader/pkg/version"
)

type fakeArchive string

func (a fakeArchive) FileName() string { return string(a) }

type failingSource struct{ err error }

func (s failingSource) Discover(context.Context) ([]Provider, error) { return nil, s.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T, opts Options, providers ...Provider) *Registry {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	r, err := NewRegistry(context.Background(), opts, StaticSource(providers))
	if err != nil {
		t.Fatalf("NewRegistry() returned error: %v", err)
	}
	return r
}

func TestRegistry_FindLanguage(t *testing.T) {
	t.Parallel()

	overrides := supportmatrix.New(supportmatrix.Override{
		Subject: "examplelang",
		Kind:    supportmatrix.KindLanguageLoader,
		Accept:  true,
	})

	tests := []struct {
		name     string
		provider string
		matrix   *supportmatrix.Matrix
		wantErr  error
	}{
		{"in_range", "2.0", nil, nil},
		{"lower_bound", "1.0", nil, nil},
		{"below_range", "0.5", nil, ErrLanguageVersionMismatch},
		{"below_range_with_override", "0.5", overrides, nil},
		{"four_segment_in_range", "1.0.0.4", nil, nil},
		{"build_suffix_in_range", "1.0-47.1.3", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRegistry(t, Options{Matrix: tt.matrix}, NewStatic("examplelang", tt.provider, ""))

			h, err := r.FindLanguage(fakeArchive("example.jar"), "examplelang", version.MustParseRange("[1.0,)"))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("FindLanguage() returned error: %v", err)
				}
				if h.Name != "examplelang" || h.Version.String() != tt.provider {
					t.Errorf("FindLanguage() = %v", h)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FindLanguage() error = %v, want %v", err, tt.wantErr)
			}
			var mismatch *LanguageVersionMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected LanguageVersionMismatchError, got %T", err)
			}
			if mismatch.Archive != "example.jar" || mismatch.Found.String() != tt.provider || mismatch.Range.String() != "[1.0,)" {
				t.Errorf("mismatch error = %+v", mismatch)
			}
		})
	}
}

func TestRegistry_FindLanguage_MatchesRangeCheck(t *testing.T) {
	t.Parallel()

	versions := []string{"0.5", "1.0", "1.5", "2.0", "3.0-beta", "3.0"}
	ranges := []string{"[1.0,)", "(,2.0]", "[1.0,2.0)", "[3.0]", "*", "2.0"}

	for _, withOverride := range []bool{false, true} {
		var matrix *supportmatrix.Matrix
		if withOverride {
			matrix = supportmatrix.New(supportmatrix.Override{Subject: "lang", Kind: supportmatrix.KindLanguageLoader, Accept: true})
		}
		for _, v := range versions {
			r := newTestRegistry(t, Options{Matrix: matrix}, NewStatic("lang", v, ""))
			for _, spec := range ranges {
				rng := version.MustParseRange(spec)
				want := withOverride || rng.ContainsVersion(version.Parse(v))
				_, err := r.FindLanguage(fakeArchive("a.jar"), "lang", rng)
				if got := err == nil; got != want {
					t.Errorf("override=%v FindLanguage(lang@%s) with provider %s succeeded=%v, want %v (err: %v)",
						withOverride, spec, v, got, want, err)
				}
			}
		}
	}
}

func TestRegistry_MissingLanguage(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, Options{}, NewStatic("javafml", "4.0", ""))

	_, err := r.FindLanguage(fakeArchive("example.jar"), "examplelang", version.MustParseRange("[1.0,)"))
	if !errors.Is(err, ErrMissingLanguage) {
		t.Fatalf("FindLanguage() error = %v, want ErrMissingLanguage", err)
	}
	var missing *MissingLanguageError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingLanguageError, got %T", err)
	}
	if missing.Archive != "example.jar" || missing.Language != "examplelang" || missing.Range.String() != "[1.0,)" {
		t.Errorf("missing error = %+v", missing)
	}
}

func TestRegistry_VersionResolution(t *testing.T) {
	t.Parallel()

	devDir := t.TempDir()

	tests := []struct {
		name     string
		provider Provider
		want     string
		wantErr  bool
	}{
		{"embedded_tag", NewStatic("lang", "3.2.1", devDir), "3.2.1", false},
		{"dev_directory_falls_back_to_host_major", NewStatic("lang", "", devDir), "4", false},
		{"built_in_without_tag", NewStatic("lang", "", ""), "", true},
		{"missing_location_without_tag", NewStatic("lang", "", devDir+"/missing"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := NewRegistry(context.Background(),
				Options{HostVersion: "4.0.12", Logger: discardLogger()},
				StaticSource{tt.provider})
			if tt.wantErr {
				if !errors.Is(err, ErrUnversionedProvider) {
					t.Fatalf("NewRegistry() error = %v, want ErrUnversionedProvider", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRegistry() returned error: %v", err)
			}
			h, ok := r.Lookup("lang")
			if !ok || h.Version.String() != tt.want {
				t.Errorf("Lookup() = %v, %v; want version %s", h, ok, tt.want)
			}
		})
	}
}

func TestRegistry_DuplicatePolicy(t *testing.T) {
	t.Parallel()

	first := NewStatic("lang", "1.0", "/providers/first.jar")
	second := NewStatic("lang", "2.0", "/providers/second.jar")

	t.Run("replace_is_default", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t, Options{}, first, second)
		h, _ := r.Lookup("lang")
		if h.Provider != second || h.Version.String() != "2.0" {
			t.Errorf("last registration should win, got %v from %s", h, h.Provider.Location())
		}
		if r.Len() != 1 {
			t.Errorf("Len() = %d, want 1", r.Len())
		}
	})

	t.Run("reject", func(t *testing.T) {
		t.Parallel()
		_, err := NewRegistry(context.Background(),
			Options{Duplicates: DuplicateReject, Logger: discardLogger()},
			StaticSource{first, second})
		var dup *DuplicateProviderError
		if !errors.As(err, &dup) {
			t.Fatalf("NewRegistry() error = %v, want DuplicateProviderError", err)
		}
		if dup.FirstLocation != "/providers/first.jar" || dup.SecondLocation != "/providers/second.jar" {
			t.Errorf("duplicate error = %+v", dup)
		}
		if !errors.Is(err, ErrDuplicateProvider) {
			t.Error("error should wrap ErrDuplicateProvider")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		if _, err := NewRegistry(context.Background(), Options{Duplicates: "merge"}); err == nil {
			t.Error("NewRegistry() should reject an unknown policy")
		}
	})
}

func TestRegistry_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := NewRegistry(context.Background(), Options{Logger: discardLogger()}, failingSource{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("NewRegistry() error = %v, want %v", err, boom)
	}
}

func TestRegistry_Handles(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, Options{},
		NewStatic("zeta", "1", ""),
		NewStatic("alpha", "1", ""),
	)
	hs := r.Handles()
	if len(hs) != 2 || hs[0].Name != "alpha" || hs[1].Name != "zeta" {
		t.Errorf("Handles() = %v", hs)
	}
}
