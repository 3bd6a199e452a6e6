// Package content reads blog posts from a directory of Markdown/MDX files.
//
// A post's slug is its file name without the extension. Front-matter at the top of
// each file supplies the title, description and ordering metadata. The store is
// read-only: nothing in this package writes to it.
package content

import (
	"net/url"
	"strings"
	"time"
)

// Post is a single parsed content file.
type Post struct {
	Slug        string
	Title       string
	Description string
	Date        time.Time // zero when the front-matter has no date
	Order       int
	File        string // path relative to the store root, slash separated
	Body        string
}

// Link returns the canonical route for the post, with the slug path-escaped.
func (p Post) Link() string {
	return "/posts/" + url.PathEscape(p.Slug) + "/"
}

// DateString formats the post date as YYYY-MM-DD, or "" when undated.
func (p Post) DateString() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format("2006-01-02")
}

// Neighbors are the posts adjacent to one post in navigation order.
// Previous is the older post, Next the newer one. Either may be nil.
type Neighbors struct {
	Previous *Post
	Next     *Post
}

// Compare orders posts newest first: by date, then by order, then by file path.
// It returns a negative number when a sorts before b.
func Compare(a, b Post) int {
	if !a.Date.Equal(b.Date) {
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	}
	if a.Order != b.Order {
		if a.Order > b.Order {
			return -1
		}
		return 1
	}
	return strings.Compare(a.File, b.File)
}
