// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/modloader/modloader/internal/config"
	"github.com/modloader/modloader/internal/discovery"
	"github.com/modloader/modloader/internal/logging"
	"github.com/modloader/modloader/pkg/language"
)

type (
	configPathContextKey struct{}

	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: Cobra handlers receive an App and delegate through its services.
	App struct {
		Config      ConfigProvider
		Discovery   DiscoveryService
		Diagnostics DiagnosticRenderer
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Discovery   DiscoveryService
		Diagnostics DiagnosticRenderer
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// DiscoverRequest captures the discovery inputs of one CLI invocation.
	DiscoverRequest struct {
		// ModsDirs replaces the configured mods directories when not empty.
		ModsDirs []string
		// NoScan skips content scanning.
		NoScan bool
		// Side overrides the configured side when not empty.
		Side string
		// Verbose lowers the console log level to debug.
		Verbose bool
	}

	// DiscoveryService runs discovery and returns configuration diagnostics
	// alongside the result.
	DiscoveryService interface {
		Discover(ctx context.Context, req DiscoverRequest) (*discovery.Result, []discovery.Diagnostic, error)
		Languages(ctx context.Context, req DiscoverRequest) ([]*language.Handle, []discovery.Diagnostic, error)
	}

	// DiagnosticRenderer renders structured diagnostics.
	DiagnosticRenderer interface {
		Render(ctx context.Context, diags []discovery.Diagnostic, stderr io.Writer)
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	appDiscoveryService struct {
		config ConfigProvider
		stderr io.Writer
	}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Discovery == nil {
		deps.Discovery = &appDiscoveryService{config: deps.Config, stderr: deps.Stderr}
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}

	return &App{
		Config:      deps.Config,
		Discovery:   deps.Discovery,
		Diagnostics: deps.Diagnostics,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}, nil
}

// contextWithConfigPath attaches the explicit --config value to the context.
func contextWithConfigPath(ctx context.Context, configPath string) context.Context {
	return context.WithValue(ctx, configPathContextKey{}, configPath)
}

// configPathFromContext extracts the explicit config path from context.
func configPathFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(configPathContextKey{}).(string); ok {
		return v
	}
	return ""
}

// Discover loads the configuration, applies the request and runs discovery.
func (s *appDiscoveryService) Discover(ctx context.Context, req DiscoverRequest) (*discovery.Result, []discovery.Diagnostic, error) {
	d, cfgDiags, closer, err := s.newDiscovery(ctx, req)
	if err != nil {
		return nil, cfgDiags, err
	}
	defer closer.Close()

	res, err := d.Run(ctx)
	return res, cfgDiags, err
}

// Languages loads the configuration and lists the registered language providers.
func (s *appDiscoveryService) Languages(ctx context.Context, req DiscoverRequest) ([]*language.Handle, []discovery.Diagnostic, error) {
	d, cfgDiags, closer, err := s.newDiscovery(ctx, req)
	if err != nil {
		return nil, cfgDiags, err
	}
	defer closer.Close()

	handles, err := d.Languages(ctx)
	return handles, cfgDiags, err
}

func (s *appDiscoveryService) newDiscovery(ctx context.Context, req DiscoverRequest) (*discovery.Discovery, []discovery.Diagnostic, io.Closer, error) {
	cfg, cfgDiags := loadConfigWithFallback(ctx, s.config, configPathFromContext(ctx))

	if req.Side != "" {
		cfg.Side = req.Side
		if valid, errs := cfg.IsValid(); !valid {
			return nil, cfgDiags, nil, errors.Join(errs...)
		}
	}

	logCfg := cfg.LoggingConfig()
	if req.Verbose {
		logCfg.Level = "debug"
	}
	logger, closer, err := logging.New(s.stderr, logCfg)
	if err != nil {
		return nil, cfgDiags, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	opts := []discovery.Option{discovery.WithLogger(logger)}
	if len(req.ModsDirs) > 0 {
		opts = append(opts, discovery.WithModsDirs(req.ModsDirs...))
	}
	if req.NoScan {
		opts = append(opts, discovery.WithoutScan())
	}

	return discovery.New(cfg, opts...), cfgDiags, closer, nil
}

// loadConfigWithFallback loads configuration via the provider. On failure it
// returns defaults with a diagnostic so callers stay operational.
//
// An explicit --config path that fails to load is an error diagnostic; a
// broken default file is an error too, while a missing config directory is
// only a warning.
func loadConfigWithFallback(ctx context.Context, provider ConfigProvider, configPath string) (*config.Config, []discovery.Diagnostic) {
	cfg, err := provider.Load(ctx, config.LoadOptions{ConfigFilePath: configPath})
	if err == nil {
		return cfg, nil
	}

	if configPath != "" {
		return config.DefaultConfig(), []discovery.Diagnostic{
			discovery.NewDiagnosticWithCause(discovery.SeverityError, discovery.CodeConfigLoadFailed,
				"failed to load config", configPath, err),
		}
	}

	severity := discovery.SeverityError
	if errors.Is(err, os.ErrNotExist) {
		severity = discovery.SeverityWarning
	}
	return config.DefaultConfig(), []discovery.Diagnostic{
		discovery.NewDiagnosticWithCause(severity, discovery.CodeConfigLoadFailed,
			"failed to load config, using defaults", "", err),
	}
}

// Render writes structured diagnostics to stderr with lipgloss styling.
func (r *defaultDiagnosticRenderer) Render(_ context.Context, diags []discovery.Diagnostic, stderr io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == discovery.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		msg := diag.Message
		if diag.Cause != nil {
			msg += ": " + diag.Cause.Error()
		}
		if diag.Path != "" {
			_, _ = fmt.Fprintf(stderr, "%s: %s (%s)\n", prefix, msg, diag.Path)
			continue
		}
		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, msg)
	}
}
