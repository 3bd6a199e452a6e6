package views

import "github.com/a-h/templ"

// SiteData holds site-wide settings loaded once at startup.
// Every page receives it so nothing is hardcoded.
type SiteData struct {
	Name        string
	FooterText  string
	URL         string
	Description string
	Author      string

	// Analytics adds the attribution script to every page.
	Analytics bool
}

// PageMeta carries per-page SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
}

// PostView is the metadata of a post as shown in pages and listings.
type PostView struct {
	Slug        string
	Title       string
	Description string
	Date        string
	Link        string
}

// NavLink points at an adjacent post.
type NavLink struct {
	Href  string
	Title string
}

// PostData is everything the post page renders.
type PostData struct {
	Site     SiteData
	Post     PostView
	Body     templ.Component
	Previous *NavLink
	Next     *NavLink
}

// IndexData is everything the home page renders.
type IndexData struct {
	Site  SiteData
	Posts []PostView
}

// DashboardRow is one line of an admin statistics table.
type DashboardRow struct {
	Label string
	Count int
}

// DashboardData is the attribution summary shown to the admin.
type DashboardData struct {
	Period         string
	TotalEvents    int
	UniqueVisitors int
	TopTargets     []DashboardRow
	TopPages       []DashboardRow
	Referrers      []DashboardRow
}
