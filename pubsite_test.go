package pubsite

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/eringen/pubsite/logger"
)

func testPosts() fstest.MapFS {
	return fstest.MapFS{
		"hello-world.md": {Data: []byte("---\ntitle: Hello World\ndescription: First words\ndate: 2024-01-10\n---\n# Hello\n\nSee [the docs](https://example.org/docs).\n")},
		"second.md":      {Data: []byte("---\ntitle: Second Post\ndate: 2024-02-01\n---\n## Part one\n\n![A photo](/images/photo.png)\n")},
		"third.mdx":      {Data: []byte("+++\ntitle = \"Third\"\ndate = 2024-03-05\n+++\nBody with `code`.\n")},
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testPublic(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"images/photo.png": {Data: testPNG(t, 1200, 600)},
		"images/logo.svg":  {Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)},
		"favicon.ico":      {Data: []byte("ico")},
	}
}

// newTestApp builds an App over in-memory posts and assets with its
// databases in a temp dir. Setup has already run.
func newTestApp(t *testing.T, cfg SiteConfig, posts fstest.MapFS) *App {
	t.Helper()
	dir := t.TempDir()
	if cfg.URL == "" {
		cfg.URL = "https://blog.example.com"
	}
	if cfg.Name == "" {
		cfg.Name = "Test Blog"
	}
	cfg.Images.CachePath = filepath.Join(dir, "images.db")
	cfg.AnalyticsDatabasePath = filepath.Join(dir, "analytics.db")
	a := New(cfg,
		WithLogger(logger.Discard()),
		WithContentFS(posts),
		WithPublicFS(testPublic(t)),
	)
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return a
}

func doRequest(a *App, method, target string, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}
