package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/pubsite/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new site in directory <name>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNew(cmd.OutOrStdout(), args[0], time.Now())
	},
}

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName   string
	SiteName      string
	SessionSecret string
	Date          string
	Year          int
}

// scaffoldRenames maps template names that cannot be embedded as-is.
var scaffoldRenames = map[string]string{
	"dotenv":    ".env.example",
	"gitignore": ".gitignore",
}

func runNew(out io.Writer, dir string, now time.Time) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return fmt.Errorf("generate session secret")
	}
	name := filepath.Base(dir)
	data := scaffoldData{
		ProjectName:   name,
		SiteName:      toTitle(name),
		SessionSecret: hex.EncodeToString(key),
		Date:          now.Format(time.DateOnly),
		Year:          now.Year(),
	}

	fmt.Fprintln(out, titleStyle.Render("Creating "+data.SiteName))

	const root = "templates"
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, strings.TrimSuffix(rel, ".tmpl"))
		if renamed, ok := scaffoldRenames[filepath.Base(target)]; ok {
			target = filepath.Join(filepath.Dir(target), renamed)
		}
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		src, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		f, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("create %s: %w", target, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		fmt.Fprintln(out, dimStyle.Render("  created "+target))
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, successStyle.Render("Done!")+" Next steps:")
	fmt.Fprintf(out, "\n  cd %s\n  pubsite serve\n\n", dir)
	fmt.Fprintln(out, "Write posts in content/posts, then run 'pubsite build --mode static' to export.")
	return nil
}

// toTitle converts a hyphenated name to title case: "my-blog" -> "My Blog".
func toTitle(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}
