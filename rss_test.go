package pubsite

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/views"
)

func TestFeedBodyAbsoluteURLs(t *testing.T) {
	post := content.Post{
		Slug: "a",
		Body: "[next](/posts/b/) [top](#top) [rel](notes/) [go](https://go.dev/)\n\n![cat](/images/photo.png)\n",
	}
	tests := []struct {
		name     string
		optimize bool
		contains []string
	}{
		{"static", false, []string{
			`href="https://blog.example.com/posts/b/"`,
			`href="https://blog.example.com/posts/a/#top"`,
			`href="https://blog.example.com/posts/a/notes/"`,
			`href="https://go.dev/"`,
			`src="https://blog.example.com/images/photo.png"`,
		}},
		{"optimized", true, []string{
			`href="https://blog.example.com/posts/b/"`,
			`src="https://blog.example.com/_image?`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := markdown.DefaultRules("https://blog.example.com", testPublic(t), markdown.ImageOptions{Optimize: tt.optimize})
			got := feedBody(post, "https://blog.example.com/posts/a/", rules)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("feed body missing %s\n%s", want, got)
				}
			}
			for _, bad := range []string{`="/`, `="#`, ` /_image`} {
				if strings.Contains(got, bad) {
					t.Errorf("feed body keeps a relative URL %s\n%s", bad, got)
				}
			}
		})
	}
}

func TestWriteFeedEscapesSlugs(t *testing.T) {
	site := views.SiteData{Name: "Blog", URL: "https://blog.example.com"}
	posts := []content.Post{{Slug: "c#-notes", Title: "C# notes", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}}

	var buf bytes.Buffer
	if err := writeFeed(&buf, site, posts, markdown.Rules{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<link>https://blog.example.com/posts/c%23-notes/</link>") {
		t.Errorf("feed link not escaped:\n%s", buf.String())
	}
}
