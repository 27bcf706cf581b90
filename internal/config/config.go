// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/modloader/modloader/internal/issue"
	"github.com/modloader/modloader/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "modloader"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. MODLOADER_WORKERS.
	EnvPrefix = "MODLOADER"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the modloader configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// Load resolves and loads the configuration. The returned path is the file
// that was read, or "" when only defaults (and environment overrides) apply.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'modloader config dump' to see a valid configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check environment variables starting with " + EnvPrefix + "_").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("mods_dirs", d.ModsDirs)
	v.SetDefault("language_dirs", d.LanguageDirs)
	v.SetDefault("language_providers", d.LanguageProviders)
	v.SetDefault("version_overrides", d.VersionOverrides)
	v.SetDefault("duplicate_languages", string(d.DuplicateLanguages))
	v.SetDefault("host_version", d.HostVersion)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("scan_workers", d.ScanWorkers)
	v.SetDefault("side", d.Side)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// resolvePath picks the config file: the explicit file, then the config
// directory, then the current directory.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'modloader config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}

	if opts.SkipWorkingDir {
		return "", nil
	}
	if p := ConfigFileName + "." + ConfigFileExt; fileExists(p) {
		return p, nil
	}
	return "", nil
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
// The file decodes to a map rather than a struct so that fields it leaves out
// keep their Viper defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(configSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", err)
	}

	userValue := cctx.CompileBytes(data, cue.Filename(path))
	if err := userValue.Err(); err != nil {
		return cueutil.FormatError(err, path)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Init writes the default configuration into dir (ConfigDir() when empty)
// unless a config file is already there. It returns the file path and
// whether the file was created.
func Init(dir string) (string, bool, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", false, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, issue.WrapWithContext(err, "create config directory", dir)
	}

	p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(p) {
		return p, false, nil
	}
	if err := os.WriteFile(p, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, issue.WrapWithContext(err, "write config file", p)
	}
	return p, true, nil
}

// GenerateCUE renders cfg as a config file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// modloader configuration\n\n")

	writeList := func(key string, items []string) {
		if len(items) == 0 {
			fmt.Fprintf(&sb, "%s: []\n", key)
			return
		}
		fmt.Fprintf(&sb, "%s: [\n", key)
		for _, it := range items {
			fmt.Fprintf(&sb, "\t%q,\n", it)
		}
		sb.WriteString("]\n")
	}
	writeList("mods_dirs", cfg.ModsDirs)
	writeList("language_dirs", cfg.LanguageDirs)

	if len(cfg.LanguageProviders) > 0 {
		sb.WriteString("\nlanguage_providers: [\n")
		for _, p := range cfg.LanguageProviders {
			fmt.Fprintf(&sb, "\t{name: %q", p.Name)
			if p.Version != "" {
				fmt.Fprintf(&sb, ", version: %q", p.Version)
			}
			if p.Path != "" {
				fmt.Fprintf(&sb, ", path: %q", p.Path)
			}
			sb.WriteString("},\n")
		}
		sb.WriteString("]\n")
	}

	if len(cfg.VersionOverrides) > 0 {
		sb.WriteString("\nversion_overrides: [\n")
		for _, o := range cfg.VersionOverrides {
			fmt.Fprintf(&sb, "\t{subject: %q, kind: %q, accept: %v},\n", o.Subject, o.Kind, o.Accept)
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "duplicate_languages: %q\n", string(cfg.DuplicateLanguages))
	fmt.Fprintf(&sb, "host_version: %q\n", cfg.HostVersion)
	fmt.Fprintf(&sb, "workers: %d\n", cfg.Workers)
	fmt.Fprintf(&sb, "scan_workers: %d\n", cfg.ScanWorkers)
	fmt.Fprintf(&sb, "side: %q\n", cfg.Side)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Fprintf(&sb, "\tfile: %q\n", cfg.Log.File)
	}
	sb.WriteString("}\n")

	return sb.String()
}
