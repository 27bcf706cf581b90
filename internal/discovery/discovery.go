// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/modloader/modloader/internal/config"
	"github.com/modloader/modloader/internal/issue"
	"github.com/modloader/modloader/pkg/jar"
	"github.com/modloader/modloader/pkg/language"
	"github.com/modloader/modloader/pkg/locator"
	"github.com/modloader/modloader/pkg/modfile"
	"github.com/modloader/modloader/pkg/scan"
	"github.com/modloader/modloader/pkg/side"
)

type (
	// Option configures a Discovery.
	Option func(*Discovery)

	// Discovery runs discovery passes over the configured mods directories.
	Discovery struct {
		cfg      *config.Config
		logger   *slog.Logger
		modsDirs []string
		sources  []language.Source
		parser   modfile.Parser
		scanner  scan.Scanner
		noScan   bool
	}

	// Archive is an archive that survived a discovery run.
	Archive struct {
		// File is the identified, language-resolved archive.
		File *modfile.ModFile
		// Source indicates where the archive was found.
		Source Source
		// Container names the enclosing archive for SourceJarInJar.
		Container string
	}

	// Result is the outcome of a discovery run.
	Result struct {
		// RunID identifies the run in logs.
		RunID string
		// Side is the side the run was performed for.
		Side side.Side
		// Languages lists the registered language providers.
		Languages []*language.Handle
		// Archives lists the archives that were identified and resolved,
		// top-level archives first, each group in path order.
		Archives []*Archive
		// Diagnostics lists every problem found during the run.
		Diagnostics []Diagnostic
	}
)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Discovery) { d.logger = l }
}

// WithModsDirs replaces the configured mods directories.
func WithModsDirs(dirs ...string) Option {
	return func(d *Discovery) { d.modsDirs = dirs }
}

// WithLanguageSources adds language provider sources after the configured ones.
func WithLanguageSources(sources ...language.Source) Option {
	return func(d *Discovery) { d.sources = append(d.sources, sources...) }
}

// WithParser replaces the mod metadata parser.
func WithParser(p modfile.Parser) Option {
	return func(d *Discovery) { d.parser = p }
}

// WithScanner replaces the content scanner.
func WithScanner(s scan.Scanner) Option {
	return func(d *Discovery) { d.scanner = s }
}

// WithoutScan skips content scanning.
func WithoutScan() Option {
	return func(d *Discovery) { d.noScan = true }
}

// New creates a Discovery for cfg.
func New(cfg *config.Config, opts ...Option) *Discovery {
	d := &Discovery{cfg: cfg, logger: slog.Default(), modsDirs: cfg.ModsDirs}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run performs one discovery pass. The side from the configuration is
// attached to the context seen by scanners and language sources.
//
// Only configuration problems (an unusable language provider set) and
// cancellation return an error; per-archive problems become diagnostics.
func (d *Discovery) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Side: d.cfg.ParsedSide()}
	ctx = side.WithSide(ctx, res.Side)
	logger := d.logger.With("run_id", res.RunID)

	logger.Info("starting mod discovery", "side", res.Side, "mods_dirs", d.modsDirs)

	registry, err := d.buildRegistry(ctx, logger)
	if err != nil {
		return nil, err
	}
	res.Languages = registry.Handles()

	modOpts := d.modfileOptions(logger)

	top := d.identifyTopLevel(ctx, res, modOpts)
	if err := ctx.Err(); err != nil {
		closeAll(top, logger)
		return nil, fmt.Errorf("mod discovery canceled: %w", err)
	}

	nested := d.identifyNested(ctx, res, top, locator.New(logger, modOpts...))
	archives := append(top, nested...)

	archives = d.resolveLanguages(res, archives, registry, logger)
	if !d.noScan {
		archives = d.scan(ctx, res, archives, logger)
	}
	if err := ctx.Err(); err != nil {
		closeAll(archives, logger)
		return nil, fmt.Errorf("mod discovery canceled: %w", err)
	}
	res.Archives = archives

	for _, diag := range res.Diagnostics {
		logger.Debug("discovery diagnostic", "code", diag.Code, "path", diag.Path, "message", diag.Message)
	}
	logger.Info("mod discovery finished",
		"archives", len(res.Archives), "languages", len(res.Languages), "diagnostics", len(res.Diagnostics))

	return res, nil
}

// Languages builds the language provider registry alone and returns its
// handles sorted by name.
func (d *Discovery) Languages(ctx context.Context) ([]*language.Handle, error) {
	registry, err := d.buildRegistry(side.WithSide(ctx, d.cfg.ParsedSide()), d.logger)
	if err != nil {
		return nil, err
	}
	return registry.Handles(), nil
}

func (d *Discovery) buildRegistry(ctx context.Context, logger *slog.Logger) (*language.Registry, error) {
	dirs := append(append([]string(nil), d.cfg.LanguageDirs...), d.modsDirs...)
	sources := []language.Source{
		d.cfg.StaticProviders(),
		language.ArchiveSource{Dirs: dirs, Logger: logger},
	}
	sources = append(sources, d.sources...)

	registry, err := language.NewRegistry(ctx, language.Options{
		HostVersion: d.cfg.HostVersion,
		Duplicates:  d.cfg.DuplicateLanguages,
		Matrix:      d.cfg.Matrix(logger),
		Logger:      logger,
	}, sources...)
	if err != nil {
		ec := issue.NewErrorContext().WithOperation("register language providers")
		switch {
		case errors.Is(err, language.ErrDuplicateProvider):
			ec = ec.WithSuggestion("Remove one of the providers or set duplicate_languages: \"replace\"")
		case errors.Is(err, language.ErrUnversionedProvider):
			ec = ec.WithSuggestion("Set a version for the provider in language_providers or its Implementation-Version")
		}
		return nil, ec.Wrap(err).BuildError()
	}
	return registry, nil
}

func (d *Discovery) modfileOptions(logger *slog.Logger) []modfile.Option {
	opts := []modfile.Option{modfile.WithLogger(logger)}
	if d.parser != nil {
		opts = append(opts, modfile.WithParser(d.parser))
	}
	if d.scanner != nil {
		opts = append(opts, modfile.WithScanner(d.scanner))
	}
	return opts
}

func (d *Discovery) workers() int {
	if d.cfg.Workers > 0 {
		return d.cfg.Workers
	}
	return runtime.NumCPU()
}

// forEach calls fn for 0..n-1 with at most workers() calls in flight.
// It stops starting calls once ctx is done.
func (d *Discovery) forEach(ctx context.Context, n int, fn func(i int)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	_ = g.Wait() // cancellation is reported by Run
}

// identifyTopLevel opens and identifies every candidate in the mods directories.
func (d *Discovery) identifyTopLevel(ctx context.Context, res *Result, modOpts []modfile.Option) []*Archive {
	var candidates []string
	for _, dir := range d.modsDirs {
		found, err := listCandidates(dir)
		if err != nil {
			msg := "cannot read mods directory"
			if errors.Is(err, os.ErrNotExist) {
				msg = "mods directory does not exist"
			}
			res.Diagnostics = append(res.Diagnostics,
				NewDiagnosticWithCause(SeverityWarning, CodeModsDirUnavailable, msg, dir, err))
			continue
		}
		candidates = append(candidates, found...)
	}

	archives := make([]*Archive, len(candidates))
	diags := make([]*Diagnostic, len(candidates))
	d.forEach(ctx, len(candidates), func(i int) {
		f, diag := openModFile(candidates[i], modOpts)
		if diag != nil {
			diags[i] = diag
			return
		}
		archives[i] = &Archive{File: f, Source: SourceModsDir}
	})

	return collect(res, archives, diags)
}

func openModFile(p string, modOpts []modfile.Option) (*modfile.ModFile, *Diagnostic) {
	j, err := jar.Open(p)
	if err != nil {
		diag := NewDiagnosticWithCause(SeverityError, CodeArchiveUnreadable, "cannot open archive", p, err)
		return nil, &diag
	}
	f, err := modfile.New(j, modOpts...)
	if err != nil {
		_ = j.Close()
		diag := errorDiagnostic("cannot read archive manifest", p, err)
		return nil, &diag
	}
	if err := f.IdentifyMods(); err != nil {
		_ = f.Close()
		diag := errorDiagnostic("cannot identify mods", p, err)
		return nil, &diag
	}
	return f, nil
}

// identifyNested loads the archives embedded in top and identifies them.
func (d *Discovery) identifyNested(ctx context.Context, res *Result, top []*Archive, loc *locator.Locator) []*Archive {
	containers := make([]*modfile.ModFile, len(top))
	for i, a := range top {
		containers[i] = a.File
	}

	loaded, failures := loc.JarInJar(ctx, containers)
	for _, err := range failures {
		path := ""
		var le *locator.ModFileLoadError
		if errors.As(err, &le) {
			path = le.Container
		}
		res.Diagnostics = append(res.Diagnostics, errorDiagnostic("cannot load embedded archives", path, err))
	}

	archives := make([]*Archive, len(loaded))
	diags := make([]*Diagnostic, len(loaded))
	d.forEach(ctx, len(loaded), func(i int) {
		f := loaded[i]
		if err := f.IdentifyMods(); err != nil {
			_ = f.Close()
			diag := errorDiagnostic("cannot identify embedded mods", f.Path(), err)
			diags[i] = &diag
			return
		}
		archives[i] = &Archive{File: f, Source: SourceJarInJar, Container: containerOf(f.Path())}
	})

	return collect(res, archives, diags)
}

// resolveLanguages resolves the language providers of every archive and
// drops the archives that fail.
func (d *Discovery) resolveLanguages(res *Result, archives []*Archive, registry *language.Registry, logger *slog.Logger) []*Archive {
	kept := archives[:0]
	for _, a := range archives {
		if err := a.File.IdentifyLanguage(registry); err != nil {
			logger.Error("cannot resolve language provider", "file", a.File.Path(), "error", err)
			res.Diagnostics = append(res.Diagnostics, errorDiagnostic("cannot resolve language provider", a.File.Path(), err))
			closeArchive(a, logger)
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// scan submits every archive to a scan pool, waits for the pool and drops
// the archives whose scan failed.
func (d *Discovery) scan(ctx context.Context, res *Result, archives []*Archive, logger *slog.Logger) []*Archive {
	pool := scan.NewPool(d.cfg.ScanWorkers)
	for _, a := range archives {
		if err := modfile.SubmitScan(ctx, pool, a.File); err != nil {
			logger.Warn("scan not submitted", "file", a.File.Path(), "error", err)
		}
	}
	pool.Wait()

	kept := archives[:0]
	for _, a := range archives {
		if _, err := a.File.ScanResult(); err != nil {
			res.Diagnostics = append(res.Diagnostics, errorDiagnostic("content scan failed", a.File.Path(), err))
			closeArchive(a, logger)
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// collect appends the diagnostics in slot order and returns the surviving archives.
func collect(res *Result, archives []*Archive, diags []*Diagnostic) []*Archive {
	var out []*Archive
	for i := range archives {
		if diags[i] != nil {
			res.Diagnostics = append(res.Diagnostics, *diags[i])
		}
		if archives[i] != nil {
			out = append(out, archives[i])
		}
	}
	return out
}

// containerOf returns the enclosing archive of a nested archive path
// of the form "outer!/inner".
func containerOf(p string) string {
	for i := len(p) - 2; i >= 0; i-- {
		if p[i] == '!' && p[i+1] == '/' {
			return p[:i]
		}
	}
	return ""
}

func closeArchive(a *Archive, logger *slog.Logger) {
	if err := a.File.Close(); err != nil {
		logger.Debug("failed to close archive", "file", a.File.Path(), "error", err)
	}
}

func closeAll(archives []*Archive, logger *slog.Logger) {
	for _, a := range archives {
		closeArchive(a, logger)
	}
}

// Mods returns the archives of type MOD.
func (r *Result) Mods() []*Archive {
	var out []*Archive
	for _, a := range r.Archives {
		if a.File.Type() == modfile.TypeMod {
			out = append(out, a)
		}
	}
	return out
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Close releases every archive in the result.
func (r *Result) Close() error {
	var errs []error
	for _, a := range r.Archives {
		if err := a.File.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
