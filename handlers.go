package pubsite

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/views"
)

const highlightCSSPath = views.HighlightCSSPath

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets (stylesheet, navigation and tracking scripts).
	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/_assets/*", echo.WrapHandler(http.StripPrefix("/_assets/", http.FileServer(http.FS(assets)))))
	e.GET(highlightCSSPath, a.handleHighlightCSS)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/", a.handleHome)
	e.GET("/posts/", handlePostsRedirect)
	e.GET("/posts/:slug/", a.handlePost)

	if a.Config.Mode == ModeServer {
		e.GET(imageEndpoint, a.handleImage)
	}

	if a.Config.AnalyticsEnabled {
		mw := a.adminMiddleware()
		admin := e.Group("/admin", mw...)
		admin.GET("/", a.handleAdmin)
		admin.POST("/login/", a.handleAdminLogin)
		admin.POST("/logout/", handleAdminLogout)
		a.analytics.RegisterRoutes(e, append(mw[:len(mw):len(mw)], requireAdmin)...)
	}

	// Everything else comes from the public directory, served at the root.
	e.GET("/*", a.handlePublic)
}

func (a *App) handleHome(c echo.Context) error {
	idx, err := a.Pages.BuildIndex()
	if err != nil {
		return err
	}
	return Render(c, idx.Component())
}

func (a *App) handlePost(c echo.Context) error {
	p, err := a.Pages.BuildPostPage(c.Param("slug"))
	if errors.Is(err, content.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(a.Pages.Site))
	}
	if err != nil {
		return err
	}
	return Render(c, p.Component())
}

func handlePostsRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeSitemap(&buf, a.Config.URL, posts); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", buf.Bytes())
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeFeed(&buf, a.Pages.Site, posts, a.Pages.Rules); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", buf.Bytes())
}

func (a *App) handleRobots(c echo.Context) error {
	if data, err := fs.ReadFile(a.publicFS, "robots.txt"); err == nil {
		return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, data)
	}
	return c.String(http.StatusOK, robotsTxt(a.Config.URL))
}

func (a *App) handleHighlightCSS(c echo.Context) error {
	var buf bytes.Buffer
	if err := a.Highlight.WriteCSS(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", buf.Bytes())
}

func (a *App) handlePublic(c echo.Context) error {
	name, ok := assetName(c.Request().URL.Path)
	if !ok {
		return echo.ErrNotFound
	}
	info, err := fs.Stat(a.publicFS, name)
	if err != nil || info.IsDir() {
		return echo.ErrNotFound
	}
	return echo.StaticFileHandler(name, a.publicFS)(c)
}

func robotsTxt(siteURL string) string {
	return fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", strings.TrimRight(siteURL, "/"))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	site := a.Pages.Site
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(site))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Log.Error("server error",
			"uri", c.Request().RequestURI,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err)
		_ = RenderStatus(c, code, views.ServerError(site))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
