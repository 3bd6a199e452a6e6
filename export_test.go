package pubsite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/logger"
)

func newExportApp(t *testing.T, cfg SiteConfig, posts fstest.MapFS) (*App, afero.Fs) {
	t.Helper()
	out := afero.NewBasePathFs(afero.NewMemMapFs(), "/out")
	if cfg.Mode == "" {
		cfg.Mode = ModeStatic
	}
	cfg.URL = "https://blog.example.com"
	a := New(cfg,
		WithLogger(logger.Discard()),
		WithContentFS(posts),
		WithPublicFS(testPublic(t)),
		WithOutputFS(out),
	)
	return a, out
}

func readOut(t *testing.T, out afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(out, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestExport(t *testing.T) {
	a, out := newExportApp(t, SiteConfig{}, testPosts())
	if err := afero.WriteFile(out, "stale.html", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := a.Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if res.Pages != 5 || res.Failed != 0 {
		t.Errorf("result = %+v, want 5 pages and no failures", res)
	}

	for _, name := range []string{
		"index.html",
		"404.html",
		"posts/hello-world/index.html",
		"posts/second/index.html",
		"posts/third/index.html",
		"sitemap.xml",
		"feed.xml",
		"robots.txt",
		"styles/highlight.css",
		"_assets/site.css",
		"_assets/nav.js",
		"images/photo.png",
		"favicon.ico",
	} {
		if ok, _ := afero.Exists(out, name); !ok {
			t.Errorf("missing %s", name)
		}
	}
	if ok, _ := afero.Exists(out, "stale.html"); ok {
		t.Error("stale output was not removed")
	}

	post := readOut(t, out, "posts/second/index.html")
	if !strings.Contains(post, `src="/images/photo.png"`) {
		t.Error("static pages should reference images directly")
	}
	if strings.Contains(post, imageEndpoint) {
		t.Error("static pages must not use the image optimizer")
	}
	if !strings.Contains(readOut(t, out, "robots.txt"), "Sitemap: https://blog.example.com/sitemap.xml") {
		t.Error("robots.txt missing sitemap line")
	}
}

func TestExportMatchesServerRender(t *testing.T) {
	a, out := newExportApp(t, SiteConfig{}, testPosts())
	if _, err := a.Export(context.Background()); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer a.Close()

	rec := doRequest(a, "GET", "/posts/third/", "")
	if got := readOut(t, out, "posts/third/index.html"); got != rec.Body.String() {
		t.Error("exported page differs from the served page")
	}
}

func TestExportContinuesPastBrokenPost(t *testing.T) {
	posts := testPosts()
	posts["broken.md"] = &fstest.MapFile{Data: []byte("---\ntitle: [unclosed\n---\nbody\n")}
	a, out := newExportApp(t, SiteConfig{}, posts)

	res, err := a.Export(context.Background())
	if !errors.Is(err, content.ErrMalformedFrontMatter) {
		t.Fatalf("Export error = %v, want ErrMalformedFrontMatter", err)
	}
	if !strings.Contains(err.Error(), "/posts/broken/") {
		t.Errorf("error %q does not name the route", err)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}
	if ok, _ := afero.Exists(out, "posts/second/index.html"); !ok {
		t.Error("healthy posts should still be written")
	}
	if ok, _ := afero.Exists(out, "posts/broken/index.html"); ok {
		t.Error("broken post should not be written")
	}
}

func TestExportRequiresStaticMode(t *testing.T) {
	a, _ := newExportApp(t, SiteConfig{Mode: ModeServer}, testPosts())
	if _, err := a.Export(context.Background()); !errors.Is(err, ErrExportServerMode) {
		t.Errorf("Export error = %v, want ErrExportServerMode", err)
	}
}

func TestExportStoreUnavailable(t *testing.T) {
	out := afero.NewBasePathFs(afero.NewMemMapFs(), "/out")
	if err := afero.WriteFile(out, "index.html", []byte("previous build"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := New(SiteConfig{Mode: ModeStatic},
		WithLogger(logger.Discard()),
		WithContentFS(os.DirFS(filepath.Join(t.TempDir(), "missing"))),
		WithPublicFS(fstest.MapFS{}),
		WithOutputFS(out),
	)

	_, err := a.Export(context.Background())
	if !errors.Is(err, content.ErrStoreUnavailable) {
		t.Fatalf("Export error = %v, want ErrStoreUnavailable", err)
	}
	if got := readOut(t, out, "index.html"); got != "previous build" {
		t.Error("output should be untouched when the store is unavailable")
	}
}

func TestExportRefusesSourceOutDir(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"content/posts/a.md": "---\ntitle: A\ndate: 2024-01-01\n---\n\nBody\n",
		"site.yaml":          "name: Mine\n",
		"public/robots.txt":  "User-agent: *\n",
	}
	for name, body := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		outDir string
	}{
		{"project root", root},
		{"content parent", filepath.Join(root, "content")},
		{"public dir", filepath.Join(root, "public")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(SiteConfig{
				Mode:       ModeStatic,
				ContentDir: filepath.Join(root, "content", "posts"),
				PublicDir:  filepath.Join(root, "public"),
				OutDir:     tt.outDir,
			}, WithLogger(logger.Discard()))

			_, err := a.Export(context.Background())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Export error = %v, want ErrInvalidConfig", err)
			}
			for name, body := range files {
				got, err := os.ReadFile(filepath.Join(root, name))
				if err != nil {
					t.Fatalf("%s: %v", name, err)
				}
				if string(got) != body {
					t.Errorf("%s was modified", name)
				}
			}
		})
	}
}

func TestExportCancelled(t *testing.T) {
	a, _ := newExportApp(t, SiteConfig{}, testPosts())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := a.Export(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Export error = %v, want context.Canceled", err)
	}
	if res.Failed != 3 {
		t.Errorf("Failed = %d, want 3", res.Failed)
	}
}
