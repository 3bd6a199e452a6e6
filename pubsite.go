// Package pubsite is a Markdown blog that can be exported as a static site or
// served with server-side rendering, built with Echo and templ.
//
// Posts are read from Markdown/MDX files, resolved by slug, rendered through
// the markdown package's substitution rules and assembled into pages by the
// page package. The App wires those together with an HTTP server, a static
// exporter, an image optimizer, a content watcher and optional link analytics.
package pubsite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"

	"github.com/eringen/pubsite/analytics"
	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/logger"
	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/page"
)

// App is the central pubsite application. It wires together the content
// store, cache, renderer, handlers and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *content.Store
	Cache     *PostCache
	Pages     *page.Assembler
	Highlight *markdown.Highlighter
	Images    *ImageStore
	Log       *logger.Logger

	loginLimiter   *LoginLimiter
	analyticsStore *analytics.Store
	analytics      *analytics.Handler
	customRoutes   []func(*App)
	contentFS      fs.FS
	publicFS       fs.FS
	outFS          afero.Fs
	stops          []func()
	watchContent   bool
	ready          bool
}

// New creates an App. Defaults are applied to cfg; nothing is opened until
// Setup, Start or Export runs.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Log == nil {
		a.Log = logger.Parse(os.Stderr, cfg.LogLevel)
	}
	if a.contentFS == nil {
		a.contentFS = os.DirFS(cfg.ContentDir)
		a.watchContent = true
	}
	if a.publicFS == nil {
		a.publicFS = os.DirFS(cfg.PublicDir)
	}
	if a.outFS == nil {
		a.outFS = afero.NewBasePathFs(afero.NewOsFs(), cfg.OutDir)
	}

	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.Store = content.NewStore(a.contentFS)
	a.Cache = NewPostCache(a.Store, cfg.PostCacheTTL)
	a.Highlight = markdown.NewHighlighter(cfg.HighlightStyle)

	rules := markdown.DefaultRules(cfg.URL, a.publicFS, cfg.ImageOptions())
	if cfg.AnalyticsEnabled {
		rules = markdown.WithAttribution(rules)
	}
	a.Pages = &page.Assembler{
		Resolver: a.Cache,
		Site:     a.Config.SiteData(),
		Rules:    rules,
		HTML:     markdown.HTMLOptions{Highlighter: a.Highlight},
	}
	return a
}

// Setup validates the config, opens the databases the mode needs and
// registers middleware and routes. Start calls it; tests call it directly
// and drive a.Echo with httptest.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("pubsite: %w", err)
	}

	if a.Config.Mode == ModeServer {
		images, err := NewImageStore(a.Config.Images.CachePath)
		if err != nil {
			return fmt.Errorf("pubsite: init image cache: %w", err)
		}
		a.Images = images
		a.stops = append(a.stops, images.StartPruneScheduler(a.Config.Images.MinimumCacheTTL, a.Log))
	}

	if a.Config.AnalyticsEnabled {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
		a.stops = append(a.stops, a.loginLimiter.Stop)

		store, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("pubsite: init analytics: %w", err)
		}
		a.analyticsStore = store
		if err := analytics.InitSalt(store); err != nil {
			return fmt.Errorf("pubsite: init analytics salt: %w", err)
		}
		a.analytics = analytics.NewHandler(store, a.Log)
		a.stops = append(a.stops,
			a.analytics.Close,
			store.StartCleanupScheduler(a.Config.AnalyticsRetention, 24*time.Hour, a.Log))
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start serves the site until ctx is cancelled, then shuts down gracefully.
// When posts come from ContentDir, edits invalidate the post cache.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.watchContent && a.watchable() {
		go func() {
			if err := a.Watch(ctx, a.Config.ContentDir); err != nil {
				a.Log.Error("content watcher stopped", "error", err)
			}
		}()
	}

	errc := make(chan error, 1)
	go func() {
		a.Log.Info("listening", "addr", a.Config.Addr, "mode", a.Config.Mode, "url", a.Config.URL)
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("pubsite: shutdown: %w", err)
	}
	return nil
}

// watchable reports whether posts are read from ContentDir on disk.
func (a *App) watchable() bool {
	info, err := os.Stat(a.Config.ContentDir)
	return err == nil && info.IsDir()
}

// Close stops background work and closes the databases.
func (a *App) Close() error {
	for _, stop := range a.stops {
		stop()
	}
	a.stops = nil
	var errs []error
	if a.Images != nil {
		errs = append(errs, a.Images.Close())
	}
	if a.analyticsStore != nil {
		errs = append(errs, a.analyticsStore.Close())
	}
	return errors.Join(errs...)
}
