package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubsite"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Pre-render the site into the output directory",
	Long: `Render every post, the index, the 404 page, the sitemap and the RSS feed
into out_dir and copy the public directory alongside them. Requires
mode "static".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Export(cmd.Context())
		if errors.Is(err, pubsite.ErrExportServerMode) {
			return fmt.Errorf("%w (set mode: static or pass --mode static)", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d pages in %s %s\n",
			successStyle.Render("✓ built"),
			res.Pages,
			res.Duration.Round(time.Millisecond),
			dimStyle.Render("→ "+app.Config.OutDir))
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("✗ %d pages failed", res.Failed)))
			return err
		}
		return nil
	},
}
