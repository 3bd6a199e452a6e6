// Package page assembles everything a post page needs from the post
// resolver and the renderer.
package page

import (
	"fmt"

	"github.com/a-h/templ"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/views"
)

// Resolver is the read side of the content store.
type Resolver interface {
	ListSlugs() ([]string, error)
	GetBySlug(slug string) (content.Post, error)
	GetNeighbors(slug string) (content.Neighbors, error)
	ListPosts() ([]content.Post, error)
}

// Ref identifies an adjacent post.
type Ref struct {
	Slug  string
	Title string
}

// PostPage is the fully assembled display unit for one post.
type PostPage struct {
	Site     views.SiteData
	Post     content.Post
	Body     *markdown.Document
	Previous *Ref
	Next     *Ref
	HTML     markdown.HTMLOptions
}

// IndexPage lists every well-formed post, newest first.
type IndexPage struct {
	Site  views.SiteData
	Posts []content.Post
}

// Assembler builds pages. It holds no per-page state and is safe for
// concurrent use when its Resolver is.
type Assembler struct {
	Resolver Resolver
	Site     views.SiteData
	Rules    markdown.Rules
	HTML     markdown.HTMLOptions
}

// BuildPostPage resolves slug, renders its body and attaches its neighbors.
// Errors from the resolver and renderer are returned unchanged apart from
// added context.
func (a *Assembler) BuildPostPage(slug string) (PostPage, error) {
	post, err := a.Resolver.GetBySlug(slug)
	if err != nil {
		return PostPage{}, err
	}
	nb, err := a.Resolver.GetNeighbors(slug)
	if err != nil {
		return PostPage{}, err
	}
	doc, err := markdown.Render(post.Body, a.Rules)
	if err != nil {
		return PostPage{}, fmt.Errorf("render %s: %w", slug, err)
	}
	return PostPage{
		Site:     a.Site,
		Post:     post,
		Body:     doc,
		Previous: ref(nb.Previous),
		Next:     ref(nb.Next),
		HTML:     a.HTML,
	}, nil
}

// EnumerateRoutes returns the slug of every page to pre-render.
func (a *Assembler) EnumerateRoutes() ([]string, error) {
	return a.Resolver.ListSlugs()
}

// BuildIndex lists the posts for the home page.
func (a *Assembler) BuildIndex() (IndexPage, error) {
	posts, err := a.Resolver.ListPosts()
	if err != nil {
		return IndexPage{}, err
	}
	return IndexPage{Site: a.Site, Posts: posts}, nil
}

func ref(p *content.Post) *Ref {
	if p == nil {
		return nil
	}
	return &Ref{Slug: p.Slug, Title: p.Title}
}

// Component returns the page as a full HTML document.
func (p PostPage) Component() templ.Component {
	return views.Post(views.PostData{
		Site:     p.Site,
		Post:     postView(p.Post),
		Body:     p.Body.Component(p.HTML),
		Previous: navLink(p.Previous),
		Next:     navLink(p.Next),
	})
}

// Component returns the index as a full HTML document.
func (p IndexPage) Component() templ.Component {
	posts := make([]views.PostView, len(p.Posts))
	for i, post := range p.Posts {
		posts[i] = postView(post)
	}
	return views.Home(views.IndexData{Site: p.Site, Posts: posts})
}

// Route returns the canonical path of the post with the given slug.
func Route(slug string) string {
	return content.Post{Slug: slug}.Link()
}

func postView(p content.Post) views.PostView {
	return views.PostView{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Date:        p.DateString(),
		Link:        p.Link(),
	}
}

func navLink(r *Ref) *views.NavLink {
	if r == nil {
		return nil
	}
	return &views.NavLink{Href: Route(r.Slug), Title: r.Title}
}
