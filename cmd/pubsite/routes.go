package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/pubsite/page"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the post routes a static build renders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		slugs, err := app.Pages.EnumerateRoutes()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, slug := range slugs {
			fmt.Fprintln(out, page.Route(slug))
		}
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d routes", len(slugs))))
		return nil
	},
}
