package pubsite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/eringen/pubsite/views"
)

// ErrExportServerMode is returned by Export when the site is configured for
// server mode.
var ErrExportServerMode = errors.New("static export requires mode \"static\"")

// BuildResult summarizes one static export.
type BuildResult struct {
	Pages    int
	Failed   int
	Duration time.Duration
}

// Export pre-renders every page into the output filesystem. The output is
// emptied first. A post that fails to render does not stop the build; its
// error is joined into the returned error and the remaining pages are still
// written. Errors reading the content store abort the build.
func (a *App) Export(ctx context.Context) (BuildResult, error) {
	start := time.Now()
	var res BuildResult
	if a.Config.Mode != ModeStatic {
		return res, ErrExportServerMode
	}
	if err := a.Config.Validate(); err != nil {
		return res, fmt.Errorf("pubsite: %w", err)
	}
	a.Cache.Invalidate()

	slugs, err := a.Pages.EnumerateRoutes()
	if err != nil {
		return res, fmt.Errorf("enumerate routes: %w", err)
	}
	if err := cleanDir(a.outFS); err != nil {
		return res, fmt.Errorf("clean output: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(route string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", route, err))
		res.Failed++
		mu.Unlock()
	}
	written := func() {
		mu.Lock()
		res.Pages++
		mu.Unlock()
	}

	p := pool.New().WithMaxGoroutines(a.Config.Concurrency)
	for _, slug := range slugs {
		p.Go(func() {
			route := "/posts/" + slug + "/"
			if err := ctx.Err(); err != nil {
				fail(route, err)
				return
			}
			pg, err := a.Pages.BuildPostPage(slug)
			if err != nil {
				a.Log.PostSkipped(slug, err)
				fail(route, err)
				return
			}
			file := path.Join("posts", slug, "index.html")
			if err := a.writeComponent(ctx, file, pg.Component()); err != nil {
				fail(route, err)
				return
			}
			a.Log.PageWritten(route, file)
			written()
		})
	}
	p.Wait()

	if err := a.exportSitePages(ctx, &res); err != nil {
		errs = append(errs, err)
	}

	res.Duration = time.Since(start)
	a.Log.BuildCompleted(res.Pages, res.Failed, res.Duration)
	return res, errors.Join(errs...)
}

// exportSitePages writes everything that is not a post page. Any failure
// here is fatal to the export.
func (a *App) exportSitePages(ctx context.Context, res *BuildResult) error {
	idx, err := a.Pages.BuildIndex()
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	pages := []struct {
		route, file string
		c           templ.Component
	}{
		{"/", "index.html", idx.Component()},
		{"/404", "404.html", views.NotFound(a.Pages.Site)},
	}
	for _, pg := range pages {
		if err := a.writeComponent(ctx, pg.file, pg.c); err != nil {
			return fmt.Errorf("%s: %w", pg.route, err)
		}
		a.Log.PageWritten(pg.route, pg.file)
		res.Pages++
	}

	posts, err := a.Cache.ListPosts()
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	var buf bytes.Buffer
	if err := writeSitemap(&buf, a.Config.URL, posts); err != nil {
		return fmt.Errorf("sitemap: %w", err)
	}
	if err := a.writeFile("sitemap.xml", buf.Bytes()); err != nil {
		return err
	}
	buf.Reset()
	if err := writeFeed(&buf, a.Pages.Site, posts, a.Pages.Rules); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	if err := a.writeFile("feed.xml", buf.Bytes()); err != nil {
		return err
	}
	buf.Reset()
	if err := a.Highlight.WriteCSS(&buf); err != nil {
		return fmt.Errorf("highlight css: %w", err)
	}
	if err := a.writeFile(strings.TrimPrefix(highlightCSSPath, "/"), buf.Bytes()); err != nil {
		return err
	}

	assets, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		return err
	}
	if err := copyFS(a.outFS, "_assets", assets); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	if err := copyFS(a.outFS, ".", a.publicFS); err != nil {
		return fmt.Errorf("public: %w", err)
	}
	if _, err := fs.Stat(a.publicFS, "robots.txt"); err != nil {
		if err := a.writeFile("robots.txt", []byte(robotsTxt(a.Config.URL))); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) writeComponent(ctx context.Context, name string, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return a.writeFile(name, buf.Bytes())
}

func (a *App) writeFile(name string, data []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := a.outFS.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(a.outFS, name, data, 0o644)
}

// cleanDir empties the root of fsys without removing the root itself.
func cleanDir(fsys afero.Fs) error {
	if err := fsys.MkdirAll(".", 0o755); err != nil {
		return err
	}
	entries, err := afero.ReadDir(fsys, ".")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := fsys.RemoveAll(e.Name()); err != nil {
			return err
		}
	}
	return nil
}

// copyFS copies every regular file of src under dir in dst. A missing src
// root copies nothing.
func copyFS(dst afero.Fs, dir string, src fs.FS) error {
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := path.Join(dir, p)
		if d.IsDir() {
			return dst.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		return afero.WriteFile(dst, target, data, 0o644)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
