package pubsite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/eringen/pubsite/logger"
	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/views"
)

// Mode selects how the site is produced.
type Mode string

const (
	// ModeServer renders pages per request and serves the image optimizer.
	ModeServer Mode = "server"
	// ModeStatic pre-renders every page and leaves images unprocessed.
	ModeStatic Mode = "static"
)

// SiteConfig holds all configuration for a pubsite site.
type SiteConfig struct {
	Name        string `mapstructure:"name"`        // Site name (default "Blog")
	URL         string `mapstructure:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"description"` // Site description for RSS and meta tags
	Author      string `mapstructure:"author"`      // Author name for JSON-LD
	FooterText  string `mapstructure:"footer_text"` // Footer line on every page

	Mode       Mode   `mapstructure:"mode"`        // static or server (default server)
	ContentDir string `mapstructure:"content_dir"` // Post root (default "content/posts")
	PublicDir  string `mapstructure:"public_dir"`  // Asset root served at "/" (default "public")
	OutDir     string `mapstructure:"out_dir"`     // Static export target (default "out")
	Addr       string `mapstructure:"addr"`        // Listen address (default ":3000")

	Images         ImageConfig   `mapstructure:"images"`
	HighlightStyle string        `mapstructure:"highlight_style"` // chroma style (default "github")
	PostCacheTTL   time.Duration `mapstructure:"post_cache_ttl"`  // default 5m
	Concurrency    int           `mapstructure:"concurrency"`     // export workers (default 8)
	LogLevel       string        `mapstructure:"log_level"`

	AnalyticsEnabled      bool          `mapstructure:"analytics_enabled"`
	AnalyticsDatabasePath string        `mapstructure:"analytics_database_path"` // default "data/analytics.db"
	AnalyticsRetention    time.Duration `mapstructure:"analytics_retention"`     // default 365 days

	AdminPassword string `mapstructure:"admin_password"` // plain text or a bcrypt hash
	SessionSecret string `mapstructure:"session_secret"`
	CookieSecure  bool   `mapstructure:"cookie_secure"` // Set true for HTTPS
}

// ImageConfig tunes the server-mode image optimizer.
type ImageConfig struct {
	Widths          []int         `mapstructure:"widths"`            // allowed output widths
	Quality         int           `mapstructure:"quality"`           // default JPEG quality (default 75)
	MinimumCacheTTL time.Duration `mapstructure:"minimum_cache_ttl"` // default 1h
	CachePath       string        `mapstructure:"cache_path"`        // default "data/images.db"
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Mode == "" {
		c.Mode = ModeServer
	}
	if c.ContentDir == "" {
		c.ContentDir = "content/posts"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.OutDir == "" {
		c.OutDir = "out"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if len(c.Images.Widths) == 0 {
		c.Images.Widths = markdown.DefaultImageWidths
	}
	if c.Images.Quality == 0 {
		c.Images.Quality = 75
	}
	if c.Images.MinimumCacheTTL == 0 {
		c.Images.MinimumCacheTTL = time.Hour
	}
	if c.Images.CachePath == "" {
		c.Images.CachePath = "data/images.db"
	}
	if c.HighlightStyle == "" {
		c.HighlightStyle = "github"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.AnalyticsRetention == 0 {
		c.AnalyticsRetention = 365 * 24 * time.Hour
	}
}

// Validate reports configuration that cannot work.
func (c *SiteConfig) Validate() error {
	if c.Mode != ModeServer && c.Mode != ModeStatic {
		return fmt.Errorf("%w: mode %q, want %q or %q", ErrInvalidConfig, c.Mode, ModeStatic, ModeServer)
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("%w: images.quality %d out of range 1-100", ErrInvalidConfig, c.Images.Quality)
	}
	for _, w := range c.Images.Widths {
		if w <= 0 {
			return fmt.Errorf("%w: images.widths contains %d", ErrInvalidConfig, w)
		}
	}
	if c.Mode == ModeStatic {
		if err := c.checkOutDir(); err != nil {
			return err
		}
	}
	if c.AnalyticsEnabled {
		if c.AdminPassword == "" {
			return fmt.Errorf("%w: admin_password is required when analytics is enabled", ErrInvalidConfig)
		}
		if c.SessionSecret == "" {
			return fmt.Errorf("%w: session_secret is required when analytics is enabled", ErrInvalidConfig)
		}
	}
	return nil
}

// checkOutDir refuses an out_dir that holds the working directory or a
// source directory. Export empties out_dir before writing.
func (c *SiteConfig) checkOutDir() error {
	out, err := absPath(c.OutDir)
	if err != nil {
		return fmt.Errorf("%w: out_dir: %v", ErrInvalidConfig, err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("%w: working directory: %v", ErrInvalidConfig, err)
	}
	for _, src := range []struct{ key, dir string }{
		{"the working directory", wd},
		{"content_dir", c.ContentDir},
		{"public_dir", c.PublicDir},
	} {
		dir, err := absPath(src.dir)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, src.key, err)
		}
		if within(out, dir) {
			return fmt.Errorf("%w: out_dir %q contains %s", ErrInvalidConfig, c.OutDir, src.key)
		}
	}
	return nil
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// within reports whether p is root or lies below it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SiteData is the immutable site metadata handed to every view.
func (c *SiteConfig) SiteData() views.SiteData {
	return views.SiteData{
		Name:        c.Name,
		FooterText:  c.FooterText,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
		Analytics:   c.AnalyticsEnabled,
	}
}

// ImageOptions configures the image rule for the current mode.
func (c *SiteConfig) ImageOptions() markdown.ImageOptions {
	return markdown.ImageOptions{
		Optimize: c.Mode == ModeServer,
		Endpoint: imageEndpoint,
		Widths:   c.Images.Widths,
		Quality:  c.Images.Quality,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger replaces the default stderr logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithContentFS reads posts from fsys instead of ContentDir.
// The content watcher is disabled for such sites.
func WithContentFS(fsys fs.FS) Option {
	return func(a *App) {
		a.contentFS = fsys
	}
}

// WithPublicFS serves assets from fsys instead of PublicDir.
func WithPublicFS(fsys fs.FS) Option {
	return func(a *App) {
		a.publicFS = fsys
	}
}

// WithOutputFS writes static exports to fsys instead of OutDir.
func WithOutputFS(fsys afero.Fs) Option {
	return func(a *App) {
		a.outFS = fsys
	}
}
