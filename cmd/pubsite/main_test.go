package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eringen/pubsite"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func resetFlags(t *testing.T) {
	t.Helper()
	cfgFile = ""
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	resetFlags(t)

	site := "name: From File\nurl: https://example.com\nimages:\n  quality: 60\npost_cache_ttl: 90s\n"
	if err := os.WriteFile("site.yaml", []byte(site), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PUBSITE_IMAGES_WIDTHS", "320,640")
	t.Setenv("BLOG_FOOTER_TEXT", "legacy footer")
	t.Setenv("ENV", "static")

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Name != "From File" || cfg.URL != "https://example.com" {
		t.Errorf("site = %q %q", cfg.Name, cfg.URL)
	}
	if cfg.Images.Quality != 60 {
		t.Errorf("images.quality = %d, want 60", cfg.Images.Quality)
	}
	if len(cfg.Images.Widths) != 2 || cfg.Images.Widths[0] != 320 || cfg.Images.Widths[1] != 640 {
		t.Errorf("images.widths = %v, want [320 640]", cfg.Images.Widths)
	}
	if cfg.PostCacheTTL != 90*time.Second {
		t.Errorf("post_cache_ttl = %v, want 90s", cfg.PostCacheTTL)
	}
	if cfg.FooterText != "legacy footer" {
		t.Errorf("footer_text = %q", cfg.FooterText)
	}
	if cfg.Mode != pubsite.ModeStatic {
		t.Errorf("mode = %q, want static from ENV", cfg.Mode)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	resetFlags(t)

	if err := os.WriteFile("site.yaml", []byte("mode: server\naddr: \":4000\"\nname: File\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(".env", []byte("PUBSITE_NAME=Dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PUBSITE_NAME") })
	t.Setenv("ENV", "static")
	if err := rootCmd.PersistentFlags().Set("addr", ":5000"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Name != "Dotenv" {
		t.Errorf("name = %q, want the .env value", cfg.Name)
	}
	if cfg.Addr != ":5000" {
		t.Errorf("addr = %q, want the flag value", cfg.Addr)
	}
	if cfg.Mode != pubsite.ModeServer {
		t.Errorf("mode = %q, want server from site.yaml over ENV", cfg.Mode)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	resetFlags(t)
	cfgFile = "nope.yaml"
	t.Cleanup(func() { cfgFile = "" })

	if _, err := loadConfig(rootCmd); err == nil {
		t.Fatal("expected an error for a missing --config file")
	}
}

func TestRunNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-blog")
	var out bytes.Buffer
	now := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	if err := runNew(&out, dir, now); err != nil {
		t.Fatalf("runNew failed: %v", err)
	}

	for _, name := range []string{
		"site.yaml",
		".env.example",
		".gitignore",
		"content/posts/hello-world.md",
		"public/robots.txt",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	site, _ := os.ReadFile(filepath.Join(dir, "site.yaml"))
	if !strings.Contains(string(site), `name: "My Blog"`) {
		t.Errorf("site.yaml does not name the site:\n%s", site)
	}
	post, _ := os.ReadFile(filepath.Join(dir, "content/posts/hello-world.md"))
	if !strings.Contains(string(post), "date: 2024-05-06") {
		t.Errorf("post has no date:\n%s", post)
	}
	env, _ := os.ReadFile(filepath.Join(dir, ".env.example"))
	if strings.Contains(string(env), "{{") || !strings.Contains(string(env), "PUBSITE_SESSION_SECRET=") {
		t.Errorf("unexpected .env.example:\n%s", env)
	}

	if err := runNew(&out, dir, now); err == nil {
		t.Error("expected an error when the directory exists")
	}
}

func TestRoutesCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	resetFlags(t)

	posts := filepath.Join(dir, "content", "posts", "2024")
	if err := os.MkdirAll(posts, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"a.md": "---\ntitle: A\n---\n",
		"b.md": "---\ntitle: B\n---\n",
	} {
		if err := os.WriteFile(filepath.Join(posts, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	rootCmd.AddCommand(cmd)
	t.Cleanup(func() { rootCmd.RemoveCommand(cmd) })

	if err := routesCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("routes failed: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "/posts/a/\n/posts/b/\n") {
		t.Errorf("routes output = %q", got)
	}
}

func TestToTitle(t *testing.T) {
	tests := map[string]string{
		"my-blog": "My Blog",
		"myblog":  "Myblog",
		"a-b-c":   "A B C",
	}
	for in, want := range tests {
		if got := toTitle(in); got != want {
			t.Errorf("toTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
