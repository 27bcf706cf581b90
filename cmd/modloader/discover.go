// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modloader/modloader/internal/discovery"
	"github.com/modloader/modloader/pkg/language"
)

// explainStyle is the glamour style used by --explain.
const explainStyle = "dark"

type discoverFlags struct {
	explain bool
	noScan  bool
	strict  bool
	side    string
}

func newDiscoverCommand(app *App, root *rootFlags) *cobra.Command {
	flags := &discoverFlags{}

	cmd := &cobra.Command{
		Use:   "discover [mods-dir...]",
		Short: "Discover mod archives",
		Long: `Discover mod archives in the given directories, or in the configured
mods_dirs when none are given.

Archives that cannot be read, identified or resolved are reported as
diagnostics and left out of the result. Use --explain for guidance on
each kind of problem.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := DiscoverRequest{
				ModsDirs: args,
				NoScan:   flags.noScan,
				Side:     flags.side,
				Verbose:  root.verbose,
			}
			return runDiscover(cmd.Context(), app, req, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.explain, "explain", false, "explain each kind of diagnostic")
	cmd.Flags().BoolVar(&flags.noScan, "no-scan", false, "skip content scanning")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit with status 1 when any archive was dropped")
	cmd.Flags().StringVar(&flags.side, "side", "", "side to discover for (client or server)")

	return cmd
}

func runDiscover(ctx context.Context, app *App, req DiscoverRequest, flags *discoverFlags) error {
	res, cfgDiags, err := app.Discovery.Discover(ctx, req)
	app.Diagnostics.Render(ctx, cfgDiags, app.stderr)
	if err != nil {
		return errors.New(formatErrorForDisplay(err, req.Verbose))
	}
	defer func() { _ = res.Close() }()

	renderResult(app.stdout, res)
	app.Diagnostics.Render(ctx, res.Diagnostics, app.stderr)

	if flags.explain {
		if err := explainDiagnostics(app.stdout, append(cfgDiags, res.Diagnostics...)); err != nil {
			return err
		}
	}

	if flags.strict && res.HasErrors() {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d archive(s) dropped", countErrors(res.Diagnostics))}
	}
	return nil
}

// renderResult prints the surviving archives grouped by type, then the languages.
func renderResult(w io.Writer, res *discovery.Result) {
	_, _ = fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Discovery"),
		SubtitleStyle.Render(fmt.Sprintf("(run %s, side %s)", res.RunID, res.Side)))

	if len(res.Archives) == 0 {
		_, _ = fmt.Fprintln(w, SubtitleStyle.Render("  no archives found"))
	}
	for _, a := range res.Archives {
		f := a.File
		line := fmt.Sprintf("  %s %s %s", SuccessStyle.Render("✓"), NameStyle.Render(f.FileName()),
			SubtitleStyle.Render(fmt.Sprintf("[%s %s, %s]", f.Type(), f.JarVersion(), f.State())))
		if a.Source == discovery.SourceJarInJar {
			line += SubtitleStyle.Render(" in " + a.Container)
		}
		_, _ = fmt.Fprintln(w, line)

		for _, m := range f.ModInfos() {
			_, _ = fmt.Fprintf(w, "      %s %s\n", m.ModID, SubtitleStyle.Render(m.Version))
		}
		if langs := f.Languages(); len(langs) > 0 {
			_, _ = fmt.Fprintf(w, "      %s %s\n", SubtitleStyle.Render("languages:"), joinHandles(langs))
		}
	}

	_, _ = fmt.Fprintln(w, sectionStyle.Render("Languages"))
	renderHandles(w, res.Languages)
}

func renderHandles(w io.Writer, handles []*language.Handle) {
	if len(handles) == 0 {
		_, _ = fmt.Fprintln(w, SubtitleStyle.Render("  no language providers registered"))
		return
	}
	for _, h := range handles {
		loc := h.Provider.Location()
		if loc == "" {
			loc = "built-in"
		}
		_, _ = fmt.Fprintf(w, "  %s %s %s\n", NameStyle.Render(h.Name), h.Version, SubtitleStyle.Render(loc))
	}
}

func joinHandles(handles []*language.Handle) string {
	parts := make([]string, len(handles))
	for i, h := range handles {
		parts[i] = h.String()
	}
	return strings.Join(parts, ", ")
}

// explainDiagnostics renders the catalog entry of every distinct diagnostic
// code, in order of first appearance.
func explainDiagnostics(w io.Writer, diags []discovery.Diagnostic) error {
	seen := make(map[discovery.DiagnosticCode]bool)
	for _, d := range diags {
		if seen[d.Code] {
			continue
		}
		seen[d.Code] = true

		is, ok := d.Code.Issue()
		if !ok {
			continue
		}
		rendered, err := is.Render(explainStyle)
		if err != nil {
			return fmt.Errorf("failed to render guidance for %s: %w", d.Code, err)
		}
		_, _ = fmt.Fprint(w, rendered)
	}
	return nil
}

func countErrors(diags []discovery.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == discovery.SeverityError {
			n++
		}
	}
	return n
}
