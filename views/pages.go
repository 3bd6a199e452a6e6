package views

import (
	"net/http"

	"github.com/a-h/templ"
)

// Post renders a full post page with its previous/next navigation.
func Post(d PostData) templ.Component {
	meta := PageMeta{
		Title:       d.Post.Title,
		Description: d.Post.Description,
		URL:         PostURL(d.Site, d.Post.Slug),
		OGType:      "article",
		JSONLD:      BlogPostingJsonLD(d.Site, d.Post),
	}
	return Layout(d.Site, meta, component(func(p *page) {
		p.render(Header(d.Site))
		p.raw(`<article class="post"><header><h1 class="post-title">`)
		p.text(d.Post.Title)
		p.raw("</h1>")
		if d.Post.Description != "" {
			p.raw(`<p class="post-description">`)
			p.text(d.Post.Description)
			p.raw("</p>")
		}
		if d.Post.Date != "" {
			p.raw(`<time class="post-date"`)
			p.attr("datetime", d.Post.Date)
			p.raw(">")
			p.text(d.Post.Date)
			p.raw("</time>")
		}
		p.raw(`</header><main><article class="prose">`)
		p.render(d.Body)
		p.raw("</article></main>")
		if d.Previous != nil || d.Next != nil {
			p.raw(`<nav class="post-nav">`)
			navLink(p, d.Previous, "Previous", "post-nav-previous")
			navLink(p, d.Next, "Next", "post-nav-next")
			p.raw("</nav>")
		}
		p.raw("</article>")
		p.render(Footer(d.Site))
	}))
}

func navLink(p *page, l *NavLink, label, class string) {
	if l == nil {
		return
	}
	p.raw(`<a class="post-nav-link `, class, `"`)
	p.href(l.Href)
	p.raw(` data-nav="prefetch"><p class="post-nav-label">`, label, `</p><h4>`)
	p.text(l.Title)
	p.raw("</h4></a>")
}

// Home renders the post listing, newest first.
func Home(d IndexData) templ.Component {
	meta := PageMeta{
		Description: d.Site.Description,
		URL:         BuildURL(d.Site.URL),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(d.Site),
	}
	return Layout(d.Site, meta, component(func(p *page) {
		p.render(Header(d.Site))
		p.raw(`<main class="post-list">`)
		if len(d.Posts) == 0 {
			p.raw(`<p class="empty">No posts yet.</p>`)
		} else {
			p.raw("<ul>")
			for _, post := range d.Posts {
				p.raw(`<li class="post-summary"><a`)
				p.href(post.Link)
				p.raw(` data-nav="prefetch">`)
				if post.Date != "" {
					p.raw(`<p class="post-date">`)
					p.text(post.Date)
					p.raw("</p>")
				}
				p.raw("<h2>")
				p.text(post.Title)
				p.raw("</h2>")
				if post.Description != "" {
					p.raw("<p>")
					p.text(post.Description)
					p.raw("</p>")
				}
				p.raw("</a></li>")
			}
			p.raw("</ul>")
		}
		p.raw("</main>")
		p.render(Footer(d.Site))
	}))
}

// NotFound renders the 404 page.
func NotFound(site SiteData) templ.Component {
	return ErrorPage(site, http.StatusNotFound, "This page could not be found.")
}

// ServerError renders the 500 page.
func ServerError(site SiteData) templ.Component {
	return ErrorPage(site, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// ErrorPage renders a status page with a short message.
func ErrorPage(site SiteData, code int, message string) templ.Component {
	title := http.StatusText(code)
	return Layout(site, PageMeta{Title: title}, component(func(p *page) {
		p.render(Header(site))
		p.raw(`<main class="error-page"><h1>`)
		p.text(title)
		p.raw("</h1><p>")
		p.text(message)
		p.raw(`</p><a href="/" data-nav="prefetch">Back to all posts</a></main>`)
		p.render(Footer(site))
	}))
}
