package page

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/markdown"
	"github.com/eringen/pubsite/views"
)

func newAssembler(posts fstest.MapFS) *Assembler {
	return &Assembler{
		Resolver: content.NewStore(posts),
		Site:     views.SiteData{Name: "Site", URL: "https://example.com", FooterText: "footer"},
		Rules:    markdown.DefaultRules("https://example.com", fstest.MapFS{}, markdown.ImageOptions{}),
	}
}

func TestBuildPostPageNeighbors(t *testing.T) {
	a := newAssembler(fstest.MapFS{
		"a.md": {Data: []byte("---\ntitle: A\norder: 1\n---\nfirst\n")},
		"b.md": {Data: []byte("---\ntitle: B\norder: 2\n---\n# Hi\n")},
	})

	tests := []struct {
		slug     string
		previous *Ref
		next     *Ref
	}{
		{"b", &Ref{Slug: "a", Title: "A"}, nil},
		{"a", nil, &Ref{Slug: "b", Title: "B"}},
	}
	for _, tt := range tests {
		p, err := a.BuildPostPage(tt.slug)
		if err != nil {
			t.Fatalf("BuildPostPage(%q) failed: %v", tt.slug, err)
		}
		if p.Post.Slug != tt.slug {
			t.Errorf("BuildPostPage(%q).Post.Slug = %q", tt.slug, p.Post.Slug)
		}
		if !refEqual(p.Previous, tt.previous) {
			t.Errorf("BuildPostPage(%q).Previous = %+v, want %+v", tt.slug, p.Previous, tt.previous)
		}
		if !refEqual(p.Next, tt.next) {
			t.Errorf("BuildPostPage(%q).Next = %+v, want %+v", tt.slug, p.Next, tt.next)
		}
	}
}

func TestBuildPostPageHTML(t *testing.T) {
	a := newAssembler(fstest.MapFS{
		"a.md": {Data: []byte("---\ntitle: A\norder: 1\n---\nfirst\n")},
		"b.md": {Data: []byte("---\ntitle: B\ndescription: About B\norder: 2\n---\n## Hi there\n")},
	})
	p, err := a.BuildPostPage("b")
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := p.Component().Render(context.Background(), &sb); err != nil {
		t.Fatal(err)
	}
	got := sb.String()
	for _, want := range []string{
		"<title>B - Site</title>",
		`<h2 id="hi-there">`,
		`href="/posts/a/"`,
		"footer",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("page HTML missing %q", want)
		}
	}
}

func TestBuildPostPageErrors(t *testing.T) {
	a := newAssembler(fstest.MapFS{
		"bad.md": {Data: []byte("---\ntitle: [\n---\n")},
		"img.md": {Data: []byte("![](/img/missing.png)\n")},
	})
	tests := []struct {
		slug string
		want error
	}{
		{"missing", content.ErrNotFound},
		{"bad", content.ErrMalformedFrontMatter},
		{"img", markdown.ErrImageResolution},
	}
	for _, tt := range tests {
		_, err := a.BuildPostPage(tt.slug)
		if !errors.Is(err, tt.want) {
			t.Errorf("BuildPostPage(%q) error = %v, want %v", tt.slug, err, tt.want)
		}
	}
}

func TestEnumerateRoutes(t *testing.T) {
	a := newAssembler(fstest.MapFS{
		"one.md":             {Data: []byte("1")},
		"2023/two.mdx":       {Data: []byte("2")},
		"2023/deep/three.md": {Data: []byte("3")},
		"readme.txt":         {Data: []byte("x")},
	})
	routes, err := a.EnumerateRoutes()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "three", "two"}
	if strings.Join(routes, ",") != strings.Join(want, ",") {
		t.Errorf("EnumerateRoutes = %v, want %v", routes, want)
	}
}

func TestBuildIndex(t *testing.T) {
	a := newAssembler(fstest.MapFS{
		"old.md": {Data: []byte("---\ntitle: Old\ndate: 2023-01-01\n---\n")},
		"new.md": {Data: []byte("---\ntitle: New\ndate: 2024-01-01\n---\n")},
	})
	idx, err := a.BuildIndex()
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Posts) != 2 || idx.Posts[0].Slug != "new" {
		t.Errorf("BuildIndex posts = %+v, want new first", idx.Posts)
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		slug, want string
	}{
		{"hello", "/posts/hello/"},
		{"c#-notes", "/posts/c%23-notes/"},
		{"what?", "/posts/what%3F/"},
		{"two words", "/posts/two%20words/"},
	}
	for _, tt := range tests {
		if got := Route(tt.slug); got != tt.want {
			t.Errorf("Route(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

func refEqual(a, b *Ref) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
