// SPDX-License-Identifier: MPL-2.0

// Package locator reads optional resources from discovered archives and loads
// the archives nested inside them.
package locator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/modloader/modloader/internal/logging"
	"github.com/modloader/modloader/pkg/jar"
	"github.com/modloader/modloader/pkg/modfile"
)

// ErrModFileLoad is the sentinel error wrapped by ModFileLoadError.
var ErrModFileLoad = errors.New("failed to load nested mod file")

type (
	// ModFileLoadError is returned when an archive nested in another one
	// cannot be loaded. Container names the containing archive.
	ModFileLoadError struct {
		Container string
		Path      string
		Err       error
	}

	// Locator loads resources and nested archives. It is safe for concurrent use.
	Locator struct {
		logger *slog.Logger
		opts   []modfile.Option
	}
)

// Error implements the error interface.
func (e *ModFileLoadError) Error() string {
	return fmt.Sprintf("failed to load mod file %s from %s: %v", e.Path, e.Container, e.Err)
}

// Unwrap returns ErrModFileLoad and the cause.
func (e *ModFileLoadError) Unwrap() []error { return []error{ErrModFileLoad, e.Err} }

// New creates a Locator. opts are applied to every nested ModFile it loads.
func New(logger *slog.Logger, opts ...modfile.Option) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{logger: logger, opts: opts}
}

// LoadResourceFromModFile reads a resource of f. It never fails: an absent
// resource is reported at trace level, any other error is logged, and both
// return false. A cancelled ctx counts as a failure.
func (l *Locator) LoadResourceFromModFile(ctx context.Context, f *modfile.ModFile, p string) ([]byte, bool) {
	if err := ctx.Err(); err != nil {
		l.logger.ErrorContext(ctx, "failed to load resource from mod file",
			"path", p, "file", IdentifyMod(f), "error", err)
		return nil, false
	}

	data, err := f.Jar().ReadFile(p)
	switch {
	case err == nil:
		return data, true
	case errors.Is(err, fs.ErrNotExist):
		l.logger.Log(ctx, logging.LevelTrace, "resource not present in mod file",
			"path", p, "file", IdentifyMod(f))
	default:
		l.logger.ErrorContext(ctx, "failed to load resource from mod file",
			"path", p, "file", IdentifyMod(f), "error", err)
	}
	return nil, false
}

// LoadModFileFrom loads the archive stored at p inside f. The nested archive
// is held in memory and named "<container path>!/<p>".
func (l *Locator) LoadModFileFrom(f *modfile.ModFile, p string) (*modfile.ModFile, error) {
	nested, err := l.loadModFileFrom(f, p)
	if err != nil {
		l.logger.Error("failed to load mod file", "path", p, "file", IdentifyMod(f), "error", err)
		return nil, &ModFileLoadError{Container: IdentifyMod(f), Path: p, Err: err}
	}
	return nested, nil
}

func (l *Locator) loadModFileFrom(f *modfile.ModFile, p string) (*modfile.ModFile, error) {
	resource, err := f.FindResource(p)
	if err != nil {
		return nil, err
	}
	data, err := f.Jar().ReadFile(resource)
	if err != nil {
		return nil, err
	}
	j, err := jar.OpenBytes(f.Path()+"!/"+resource, data)
	if err != nil {
		return nil, err
	}
	return modfile.New(j, l.opts...)
}

// IdentifyMod returns the display identity of f used in diagnostics and for
// de-duplication.
func IdentifyMod(f *modfile.ModFile) string {
	return f.FileName()
}
