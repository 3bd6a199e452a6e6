package pubsite

import (
	"encoding/xml"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/views"
)

// feedLimit caps the number of items in feed.xml.
const feedLimit = 20

type rssXML struct {
	XMLName      xml.Name   `xml:"rss"`
	Version      string     `xml:"version,attr"`
	XMLNSContent string     `xml:"xmlns:content,attr"`
	Channel      rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Content     string `xml:"content:encoded,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

var feedPolicy = bluemonday.UGCPolicy()

// feedBody renders a post body for content:encoded with link and image
// URLs made absolute against postURL. Posts that fail to render are listed
// with their description only.
func feedBody(p content.Post, postURL string, rules markdown.Rules) string {
	doc, err := markdown.Render(p.Body, rules)
	if err != nil {
		return ""
	}
	if base, err := url.Parse(postURL); err == nil {
		absolutize(doc, base)
	}
	return feedPolicy.Sanitize(doc.HTML(markdown.HTMLOptions{}))
}

func absolutize(doc *markdown.Document, base *url.URL) {
	doc.Walk(func(n *markdown.Node) bool {
		switch n.Kind {
		case markdown.KindLink:
			n.Href = resolveRef(base, n.Href)
		case markdown.KindImage:
			n.Src = resolveRef(base, n.Src)
			if n.SrcSet != "" {
				n.SrcSet = resolveSrcSet(base, n.SrcSet)
			}
		}
		return true
	})
}

func resolveRef(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}

// resolveSrcSet resolves each "url descriptor" candidate of a srcset.
func resolveSrcSet(base *url.URL, srcset string) string {
	parts := strings.Split(srcset, ", ")
	for i, part := range parts {
		ref, desc, _ := strings.Cut(strings.TrimSpace(part), " ")
		parts[i] = strings.TrimSpace(resolveRef(base, ref) + " " + desc)
	}
	return strings.Join(parts, ", ")
}

// writeFeed writes an RSS 2.0 feed of the newest posts.
func writeFeed(w io.Writer, site views.SiteData, posts []content.Post, rules markdown.Rules) error {
	if len(posts) > feedLimit {
		posts = posts[:feedLimit]
	}
	items := make([]rssItem, 0, len(posts))
	var latest time.Time
	for _, p := range posts {
		postURL := views.BuildURL(site.URL, "posts", p.Slug)
		item := rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Description,
			Content:     feedBody(p, postURL, rules),
			GUID:        postURL,
		}
		if !p.Date.IsZero() {
			item.PubDate = p.Date.Format(time.RFC1123Z)
			if p.Date.After(latest) {
				latest = p.Date
			}
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version:      "2.0",
		XMLNSContent: "http://purl.org/rss/1.0/modules/content/",
		Channel: rssChannel{
			Title:       site.Name,
			Link:        views.BuildURL(site.URL),
			Description: site.Description,
			Items:       items,
		},
	}
	if !latest.IsZero() {
		feed.Channel.LastBuildDate = latest.Format(time.RFC1123Z)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(feed)
}
