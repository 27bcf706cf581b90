// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modloader/modloader/internal/config"
	"github.com/modloader/modloader/internal/issue"
)

// newConfigCommand creates the `modloader config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modloader configuration",
		Long: `Manage modloader configuration.

Configuration is stored in:
  - Linux: ~/.config/modloader/config.cue
  - macOS: ~/Library/Application Support/modloader/config.cue
  - Windows: %APPDATA%\modloader\config.cue

Every key can be overridden with a MODLOADER_ environment variable,
for example MODLOADER_WORKERS=4 or MODLOADER_LOG_LEVEL=debug.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: configPathFromContext(cmd.Context())})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init [dir]",
		Short: "Create default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return initConfig(app, dir)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, path, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: configPathFromContext(ctx)})
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render(explainStyle); renderErr == nil {
			_, _ = fmt.Fprint(app.stderr, rendered)
		}
		return err
	}

	w := app.stdout
	key := func(k string) string { return NameStyle.Render(k) }
	val := func(v any) string { return SuccessStyle.Render(fmt.Sprint(v)) }
	list := func(items []string) string {
		if len(items) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return val(strings.Join(items, ", "))
	}

	_, _ = fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	_, _ = fmt.Fprintln(w)
	if path == "" {
		_, _ = fmt.Fprintf(w, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		_, _ = fmt.Fprintf(w, "%s: %s\n", key("Config file"), path)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "%s: %s\n", key("mods_dirs"), list(cfg.ModsDirs))
	_, _ = fmt.Fprintf(w, "%s: %s\n", key("language_dirs"), list(cfg.LanguageDirs))
	_, _ = fmt.Fprintf(w, "%s: %s\n", key("duplicate_languages"), val(cfg.DuplicateLanguages))
	_, _ = fmt.Fprintf(w, "%s: %s\n", key("host_version"), val(cfg.HostVersion))
	_, _ = fmt.Fprintf(w, "%s: %s\n", key("workers"), val(workersLabel(cfg.Workers)))
	_, _ = fmt.Fprintf(w, "%s: %s\n", key("scan_workers"), val(workersLabel(cfg.ScanWorkers)))
	_, _ = fmt.Fprintf(w, "%s: %s\n", key("side"), val(cfg.Side))
	_, _ = fmt.Fprintf(w, "%s: %s\n", key("log.level"), val(cfg.Log.Level))
	if cfg.Log.File != "" {
		_, _ = fmt.Fprintf(w, "%s: %s\n", key("log.file"), val(cfg.Log.File))
	}

	if len(cfg.LanguageProviders) > 0 {
		_, _ = fmt.Fprintln(w, sectionStyle.Render("Language providers"))
		for _, p := range cfg.LanguageProviders {
			_, _ = fmt.Fprintf(w, "  %s %s %s\n", key(p.Name), p.Version, SubtitleStyle.Render(p.Path))
		}
	}
	if len(cfg.VersionOverrides) > 0 {
		_, _ = fmt.Fprintln(w, sectionStyle.Render("Version overrides"))
		for _, o := range cfg.VersionOverrides {
			verdict := SuccessStyle.Render("accept")
			if !o.Accept {
				verdict = ErrorStyle.Render("reject")
			}
			_, _ = fmt.Fprintf(w, "  %s/%s %s\n", key(o.Subject), o.Kind, verdict)
		}
	}

	return nil
}

func workersLabel(n int) string {
	if n <= 0 {
		return "auto"
	}
	return fmt.Sprint(n)
}

func showConfigPath(ctx context.Context, app *App) error {
	_, path, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: configPathFromContext(ctx)})
	if err != nil {
		// An invalid file still has a location.
		var ae *issue.ActionableError
		if errors.As(err, &ae) && ae.Resource != "" {
			_, _ = fmt.Fprintln(app.stdout, ae.Resource)
			return nil
		}
		return err
	}
	if path != "" {
		_, _ = fmt.Fprintln(app.stdout, path)
		return nil
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(app.stdout, "%s %s\n", filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt),
		SubtitleStyle.Render("(not created, using defaults)"))
	return nil
}

func initConfig(app *App, dir string) error {
	path, created, err := config.Init(dir)
	if err != nil {
		return err
	}
	if !created {
		_, _ = fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("Config file already exists:"), path)
		return nil
	}
	_, _ = fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created config file:"), path)
	return nil
}
