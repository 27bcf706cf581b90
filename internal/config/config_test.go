// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/modloader/modloader/internal/issue"
	"github.com/modloader/modloader/internal/testutil"
	"github.com/modloader/modloader/pkg/language"
	"github.com/modloader/modloader/pkg/side"
	"github.com/modloader/modloader/pkg/supportmatrix"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), content)
	return dir
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("APPDATA takes precedence over the home directory on Windows")
	}

	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))
	t.Setenv("XDG_CONFIG_HOME", "")

	want := filepath.Join(home, ".config", AppName)
	if runtime.GOOS == "darwin" {
		want = filepath.Join(home, "Library", "Application Support", AppName)
	}

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), SkipWorkingDir: true})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}

	want := DefaultConfig()
	if !slices.Equal(cfg.ModsDirs, want.ModsDirs) || cfg.DuplicateLanguages != language.DuplicateReplace ||
		cfg.HostVersion != DefaultHostVersion || cfg.Side != "client" || cfg.Log.Level != "info" {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `
mods_dirs: ["/srv/mods", "/srv/extra"]
language_dirs: ["/srv/languages"]
language_providers: [
	{name: "javafml", version: "4.1.0"},
	{name: "examplelang", version: "2.0", path: "/srv/examplelang"},
]
version_overrides: [
	{subject: "examplelang", accept: true},
	{subject: "legacy", kind: "custom", accept: false},
]
duplicate_languages: "reject"
workers: 4
side: "server"
log: level: "debug"
`)

	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	if !slices.Equal(cfg.ModsDirs, []string{"/srv/mods", "/srv/extra"}) {
		t.Errorf("ModsDirs = %v", cfg.ModsDirs)
	}
	if len(cfg.LanguageProviders) != 2 || cfg.LanguageProviders[1].Path != "/srv/examplelang" {
		t.Errorf("LanguageProviders = %+v", cfg.LanguageProviders)
	}
	if len(cfg.VersionOverrides) != 2 || cfg.VersionOverrides[0].Kind != supportmatrix.KindLanguageLoader {
		t.Errorf("VersionOverrides = %+v (kind should default to languageloader)", cfg.VersionOverrides)
	}
	if cfg.DuplicateLanguages != language.DuplicateReject || cfg.Workers != 4 || cfg.ParsedSide() != side.Server {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.HostVersion != DefaultHostVersion {
		t.Errorf("Log/HostVersion = %+v / %s", cfg.Log, cfg.HostVersion)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"negative_workers", `workers: -1`, "workers"},
		{"unknown_field", `container_engine: "docker"`, "container_engine"},
		{"bad_side", `side: "both"`, "side"},
		{"bad_override", `version_overrides: [{subject: "x"}]`, "version_overrides"},
		{"syntax", `mods_dirs: [`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: writeConfig(t, tt.content)})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Operation != "load configuration" {
				t.Errorf("expected actionable load error, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, _, err := Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || len(ae.Suggestions) == 0 {
		t.Fatalf("Load() error = %v, want ActionableError with suggestions", err)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MODLOADER_WORKERS", "3")
	t.Setenv("MODLOADER_LOG_LEVEL", "trace")

	cfg, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: writeConfig(t, `workers: 8`), SkipWorkingDir: true})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Workers != 3 || cfg.Log.Level != "trace" {
		t.Errorf("env overrides not applied: workers=%d level=%s", cfg.Workers, cfg.Log.Level)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("MODLOADER_SIDE", "sideways")

	_, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), SkipWorkingDir: true})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.LanguageDirs = []string{"/srv/languages"}
	cfg.LanguageProviders = []LanguageProviderEntry{{Name: "examplelang", Version: "2.0"}}
	cfg.VersionOverrides = []VersionOverride{{Subject: "examplelang", Kind: supportmatrix.KindLanguageLoader, Accept: true}}
	cfg.Log.File = "/var/log/modloader.log"

	got, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: writeConfig(t, GenerateCUE(cfg))})
	if err != nil {
		t.Fatalf("generated config does not load: %v\n%s", err, GenerateCUE(cfg))
	}
	if got.LanguageProviders[0] != cfg.LanguageProviders[0] || got.VersionOverrides[0] != cfg.VersionOverrides[0] ||
		got.Log != cfg.Log || !slices.Equal(got.LanguageDirs, cfg.LanguageDirs) {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	p, created, err := Init(dir)
	if err != nil || !created {
		t.Fatalf("Init() = %q, %v, %v", p, created, err)
	}
	if _, created, err = Init(dir); err != nil || created {
		t.Errorf("second Init() created=%v err=%v", created, err)
	}

	if _, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir}); err != nil || path != p {
		t.Errorf("Load() after Init() = %q, %v", path, err)
	}
}

func TestInit_Unwritable(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "blocker")
	testutil.MustWriteFile(t, blocker, "not a directory")

	_, _, err := Init(filepath.Join(blocker, "modloader"))
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Init() error = %v, want ActionableError", err)
	}
	if ae.Operation != "create config directory" || ae.Resource != filepath.Join(blocker, "modloader") {
		t.Errorf("ActionableError = %+v", ae)
	}
}

func TestConfig_Matrix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.VersionOverrides = []VersionOverride{
		{Subject: "examplelang", Kind: supportmatrix.KindLanguageLoader, Accept: false},
		{Subject: "examplelang", Kind: supportmatrix.KindLanguageLoader, Accept: true},
	}

	m := cfg.Matrix(slog.New(slog.NewTextHandler(&buf, nil)))
	if accept, ok := m.Lookup("examplelang", supportmatrix.KindLanguageLoader); !ok || !accept {
		t.Errorf("Lookup() = %v, %v; want last entry to win", accept, ok)
	}
	if !strings.Contains(buf.String(), "version override repeated") {
		t.Errorf("duplicate override not logged: %s", buf.String())
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if valid, errs := cfg.IsValid(); !valid {
		t.Fatalf("DefaultConfig() invalid: %v", errs)
	}

	cfg.Side = "up"
	cfg.Log.Level = "loud"
	cfg.ScanWorkers = -2
	cfg.LanguageProviders = []LanguageProviderEntry{{Name: " "}}
	valid, errs := cfg.IsValid()
	if valid || len(errs) != 1 {
		t.Fatalf("IsValid() = %v, %v", valid, errs)
	}
	var ic *InvalidConfigError
	if !errors.As(errs[0], &ic) || len(ic.FieldErrors) != 4 {
		t.Errorf("expected 4 field errors, got %v", errs[0])
	}
	if !errors.Is(ic.FieldErrors[3], ErrInvalidLanguageProvider) {
		t.Errorf("last field error = %v", ic.FieldErrors[3])
	}
}

func TestProvider_Load(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: writeConfig(t, `scan_workers: 2`)})
	if err != nil || cfg.ScanWorkers != 2 {
		t.Errorf("Provider.Load() = %+v, %v", cfg, err)
	}
}
