package pubsite

import (
	"errors"
	"testing"
	"time"
)

func TestSiteConfigDefaults(t *testing.T) {
	var c SiteConfig
	c.setDefaults()

	if c.Name != "Blog" || c.URL != "http://localhost:3000" || c.Mode != ModeServer {
		t.Errorf("site defaults = %q %q %q", c.Name, c.URL, c.Mode)
	}
	if c.ContentDir != "content/posts" || c.PublicDir != "public" || c.OutDir != "out" {
		t.Errorf("path defaults = %q %q %q", c.ContentDir, c.PublicDir, c.OutDir)
	}
	if c.Images.Quality != 75 || c.Images.MinimumCacheTTL != time.Hour || len(c.Images.Widths) == 0 {
		t.Errorf("image defaults = %+v", c.Images)
	}
	if c.PostCacheTTL != 5*time.Minute || c.Concurrency != 8 {
		t.Errorf("PostCacheTTL = %v, Concurrency = %d", c.PostCacheTTL, c.Concurrency)
	}

	custom := SiteConfig{Name: "Mine", Concurrency: 2}
	custom.setDefaults()
	if custom.Name != "Mine" || custom.Concurrency != 2 {
		t.Errorf("setDefaults overwrote explicit values: %+v", custom)
	}
}

func TestSiteConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SiteConfig)
		wantErr bool
	}{
		{"defaults", func(*SiteConfig) {}, false},
		{"static mode", func(c *SiteConfig) { c.Mode = ModeStatic }, false},
		{"unknown mode", func(c *SiteConfig) { c.Mode = "edge" }, true},
		{"quality too high", func(c *SiteConfig) { c.Images.Quality = 101 }, true},
		{"negative width", func(c *SiteConfig) { c.Images.Widths = []int{640, -1} }, true},
		{"static out is working directory", func(c *SiteConfig) {
			c.Mode = ModeStatic
			c.OutDir = "."
		}, true},
		{"static out is parent of working directory", func(c *SiteConfig) {
			c.Mode = ModeStatic
			c.OutDir = ".."
		}, true},
		{"static out holds content", func(c *SiteConfig) {
			c.Mode = ModeStatic
			c.OutDir = "content"
		}, true},
		{"static out holds public", func(c *SiteConfig) {
			c.Mode = ModeStatic
			c.PublicDir = "site/public"
			c.OutDir = "site/"
		}, true},
		{"static out equals public", func(c *SiteConfig) {
			c.Mode = ModeStatic
			c.OutDir = "public"
		}, true},
		{"static out shares a name prefix", func(c *SiteConfig) {
			c.Mode = ModeStatic
			c.ContentDir = "outside/posts"
			c.OutDir = "out"
		}, false},
		{"server mode ignores out_dir", func(c *SiteConfig) { c.OutDir = "." }, false},
		{"analytics without password", func(c *SiteConfig) {
			c.AnalyticsEnabled = true
			c.SessionSecret = "x"
		}, true},
		{"analytics without secret", func(c *SiteConfig) {
			c.AnalyticsEnabled = true
			c.AdminPassword = "x"
		}, true},
		{"analytics configured", func(c *SiteConfig) {
			c.AnalyticsEnabled = true
			c.AdminPassword = "x"
			c.SessionSecret = "y"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c SiteConfig
			c.setDefaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestImageOptionsByMode(t *testing.T) {
	c := SiteConfig{Mode: ModeStatic}
	c.setDefaults()
	if c.ImageOptions().Optimize {
		t.Error("static mode should not optimize images")
	}
	c.Mode = ModeServer
	opts := c.ImageOptions()
	if !opts.Optimize || opts.Endpoint != imageEndpoint {
		t.Errorf("server ImageOptions = %+v", opts)
	}
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	a := New(SiteConfig{Mode: "edge"})
	if err := a.Setup(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Setup() = %v, want ErrInvalidConfig", err)
	}
}
