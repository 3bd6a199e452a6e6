package views

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

var testSite = SiteData{
	Name:       "Field Notes",
	FooterText: "© 2024 Field Notes",
	URL:        "https://example.com",
	Author:     "Sam",
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return sb.String()
}

func TestPost(t *testing.T) {
	got := render(t, Post(PostData{
		Site:     testSite,
		Post:     PostView{Slug: "b", Title: "Second <Post>", Description: "About b", Date: "2024-02-01"},
		Body:     templ.Raw("<p>body text</p>"),
		Previous: &NavLink{Href: "/posts/a/", Title: "First"},
	}))
	for _, want := range []string{
		`<html lang="en"`,
		`<meta name="viewport" content="width=device-width, initial-scale=1.0">`,
		"<title>Second &lt;Post&gt; - Field Notes</title>",
		`<meta name="description" content="About b">`,
		`<link rel="canonical" href="https://example.com/posts/b/">`,
		`<h1 class="post-title">Second &lt;Post&gt;</h1>`,
		"<p>body text</p>",
		`href="/posts/a/" data-nav="prefetch"><p class="post-nav-label">Previous</p><h4>First</h4>`,
		"© 2024 Field Notes",
		`"@type":"BlogPosting"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Post output missing %q", want)
		}
	}
	if strings.Contains(got, "post-nav-next") {
		t.Error("absent Next must not render a link")
	}
	if strings.Contains(got, TrackScriptPath) {
		t.Error("tracking script must only load when analytics is enabled")
	}
}

func TestPostWithoutNeighbors(t *testing.T) {
	got := render(t, Post(PostData{Site: testSite, Post: PostView{Slug: "only", Title: "Only"}}))
	if strings.Contains(got, "post-nav") {
		t.Error("post without neighbors must not render navigation")
	}
	if strings.Contains(got, `name="description"`) {
		t.Error("empty description must not render a meta tag")
	}
}

func TestHome(t *testing.T) {
	site := testSite
	site.Analytics = true
	got := render(t, Home(IndexData{Site: site, Posts: []PostView{
		{Slug: "b", Title: "B", Link: "/posts/b/", Date: "2024-02-01"},
		{Slug: "a", Title: "A", Link: "/posts/a/"},
	}}))
	if i, j := strings.Index(got, "<h2>B</h2>"), strings.Index(got, "<h2>A</h2>"); i < 0 || j < 0 || i > j {
		t.Errorf("posts should be listed in the given order: %q", got)
	}
	if !strings.Contains(got, "<title>Field Notes</title>") {
		t.Error("home title should be the site name")
	}
	if !strings.Contains(got, TrackScriptPath) {
		t.Error("tracking script missing with analytics enabled")
	}
	if empty := render(t, Home(IndexData{Site: testSite})); !strings.Contains(empty, "No posts yet.") {
		t.Error("empty listing should say so")
	}
}

func TestErrorPages(t *testing.T) {
	tests := []struct {
		c    templ.Component
		want string
	}{
		{NotFound(testSite), "<h1>Not Found</h1>"},
		{ServerError(testSite), "<h1>Internal Server Error</h1>"},
	}
	for _, tt := range tests {
		if got := render(t, tt.c); !strings.Contains(got, tt.want) {
			t.Errorf("error page missing %q", tt.want)
		}
	}
}

func TestUnsafeNavHref(t *testing.T) {
	got := render(t, Post(PostData{
		Site: testSite,
		Post: PostView{Slug: "x", Title: "X"},
		Next: &NavLink{Href: "javascript:alert(1)", Title: "bad"},
	}))
	if strings.Contains(got, "javascript:") {
		t.Error("unsafe href must be sanitized")
	}
}

func TestAdminPages(t *testing.T) {
	login := render(t, AdminLogin(testSite, true, "tok<en>"))
	if !strings.Contains(login, "Invalid password.") || !strings.Contains(login, `value="tok&lt;en&gt;"`) {
		t.Errorf("login page = %q", login)
	}

	dash := render(t, AdminDashboard(testSite, DashboardData{
		Period:         "7d",
		TotalEvents:    12,
		UniqueVisitors: 12345,
		TopTargets:     []DashboardRow{{Label: "https://golang.org", Count: 5}},
	}, "tok"))
	for _, want := range []string{
		`<a class="active" href="/admin/?period=7d">7d</a>`,
		"<td>https://golang.org</td><td>5</td>",
		"<dd>12</dd>",
		"<dd>12,345</dd>",
	} {
		if !strings.Contains(dash, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segs     []string
		expected string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"posts", "hello"}, "https://example.com/posts/hello/"},
		{"https://example.com/blog/", []string{"posts", "x"}, "https://example.com/blog/posts/x/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.expected {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.expected)
		}
	}
}
