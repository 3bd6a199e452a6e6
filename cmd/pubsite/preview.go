package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <slug>",
	Short: "Render a post's Markdown in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		post, err := app.Store.GetBySlug(args[0])
		if err != nil {
			return err
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return err
		}
		body, err := r.Render(post.Body)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(post.Title))
		if d := post.DateString(); d != "" {
			fmt.Fprintln(out, dimStyle.Render(d))
		}
		fmt.Fprint(out, body)
		return nil
	},
}
