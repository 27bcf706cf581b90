// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newLanguagesCommand(app *App, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "languages [mods-dir...]",
		Short: "List registered language providers",
		Long: `List the language providers from language_providers, language_dirs
and the mods directories, with their resolved versions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			handles, cfgDiags, err := app.Discovery.Languages(ctx, DiscoverRequest{ModsDirs: args, Verbose: root.verbose})
			app.Diagnostics.Render(ctx, cfgDiags, app.stderr)
			if err != nil {
				return errors.New(formatErrorForDisplay(err, root.verbose))
			}

			_, _ = fmt.Fprintln(app.stdout, TitleStyle.Render("Language providers"))
			renderHandles(app.stdout, handles)
			return nil
		},
	}
}
