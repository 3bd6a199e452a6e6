package views

import "github.com/a-h/templ"

// Asset paths of the stylesheet and scripts shipped with the binary.
const (
	StylesheetPath   = "/_assets/site.css"
	NavScriptPath    = "/_assets/nav.js"
	TrackScriptPath  = "/_assets/track.js"
	HighlightCSSPath = "/styles/highlight.css"
)

// Layout wraps body in the document shell shared by every page.
func Layout(site SiteData, meta PageMeta, body templ.Component) templ.Component {
	return component(func(p *page) {
		p.raw(`<!DOCTYPE html><html lang="en" class="theme-compiled"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1.0">`)
		p.raw("<title>")
		p.text(PageTitle(meta.Title, site.Name))
		p.raw("</title>")
		if meta.Description != "" {
			p.raw(`<meta name="description"`)
			p.attr("content", meta.Description)
			p.raw(">")
		}
		if meta.URL != "" {
			p.raw(`<link rel="canonical"`)
			p.href(meta.URL)
			p.raw(`><meta property="og:url"`)
			p.attr("content", meta.URL)
			p.raw(">")
		}
		p.raw(`<meta property="og:title"`)
		p.attr("content", PageTitle(meta.Title, site.Name))
		p.raw(`><meta property="og:site_name"`)
		p.attr("content", site.Name)
		p.raw(">")
		if meta.OGType != "" {
			p.raw(`<meta property="og:type"`)
			p.attr("content", meta.OGType)
			p.raw(">")
		}
		p.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"`)
		p.attr("title", site.Name)
		p.raw(">")
		p.raw(`<link rel="stylesheet" href="`, StylesheetPath, `">`)
		p.raw(`<link rel="stylesheet" href="`, HighlightCSSPath, `">`)
		if meta.JSONLD != "" {
			p.raw(`<script type="application/ld+json">`, meta.JSONLD, `</script>`)
		}
		p.raw(`<script src="`, NavScriptPath, `" defer></script>`)
		if site.Analytics {
			p.raw(`<script src="`, TrackScriptPath, `" defer></script>`)
		}
		p.raw(`</head><body class="antialiased theme-bejamas">`)
		p.render(body)
		p.raw("</body></html>")
	})
}

// Header renders the site name linking home.
func Header(site SiteData) templ.Component {
	return component(func(p *page) {
		p.raw(`<header class="site-header"><a class="site-name" href="/" data-nav="prefetch">`)
		p.text(site.Name)
		p.raw("</a></header>")
	})
}

// Footer renders the configured footer text.
func Footer(site SiteData) templ.Component {
	return component(func(p *page) {
		p.raw(`<footer class="site-footer">`)
		if site.FooterText != "" {
			p.raw("<p>")
			p.text(site.FooterText)
			p.raw("</p>")
		}
		p.raw("</footer>")
	})
}
