package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// HTMLOptions controls HTML output.
type HTMLOptions struct {
	// Highlighter colours fenced code with a language tag. Nil leaves code plain.
	Highlighter *Highlighter
}

// Component returns a templ.Component that writes the document as HTML.
func (d *Document) Component(opts HTMLOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		d.WriteHTML(&buf, opts)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// HTML returns the document as an HTML string.
func (d *Document) HTML(opts HTMLOptions) string {
	var buf bytes.Buffer
	d.WriteHTML(&buf, opts)
	return buf.String()
}

// WriteHTML writes the HTML representation of the document to buf.
func (d *Document) WriteHTML(buf *bytes.Buffer, opts HTMLOptions) {
	hw := htmlWriter{buf: buf, opts: opts}
	hw.nodes(d.Children)
}

type htmlWriter struct {
	buf        *bytes.Buffer
	opts       HTMLOptions
	imageCount int
	inAnchor   bool
}

var voidTags = map[string]bool{"br": true, "hr": true, "input": true}

func (w *htmlWriter) nodes(nodes []*Node) {
	for _, n := range nodes {
		w.node(n)
	}
}

func (w *htmlWriter) node(n *Node) {
	switch n.Kind {
	case KindText:
		w.buf.WriteString(html.EscapeString(n.Text))
	case KindParagraph:
		w.open("p", n.Class, n.Attrs)
		w.nodes(n.Children)
		w.buf.WriteString("</p>")
	case KindHeading:
		w.heading(n)
	case KindLink:
		w.link(n)
	case KindImage:
		w.image(n)
	case KindInlineCode:
		w.open("code", n.Class, n.Attrs)
		w.buf.WriteString(html.EscapeString(n.Text))
		w.buf.WriteString("</code>")
	case KindFencedCode:
		w.codeBlock(n)
	case KindElement:
		w.open(n.Tag, n.Class, n.Attrs)
		if voidTags[n.Tag] {
			return
		}
		w.nodes(n.Children)
		w.buf.WriteString("</" + n.Tag + ">")
	}
}

func (w *htmlWriter) open(tag, class string, attrs []Attr) {
	w.buf.WriteString("<" + tag)
	if class != "" {
		w.attr("class", class)
	}
	w.attrs(attrs)
	w.buf.WriteString(">")
}

func (w *htmlWriter) attr(key, val string) {
	w.buf.WriteString(" " + key)
	if val != "" {
		w.buf.WriteString(`="` + html.EscapeString(val) + `"`)
	}
}

func (w *htmlWriter) attrs(attrs []Attr) {
	for _, a := range attrs {
		w.attr(a.Key, a.Val)
	}
}

func (w *htmlWriter) heading(n *Node) {
	tag := "h" + strconv.Itoa(min(max(n.Level, 1), 6))
	w.buf.WriteString("<" + tag)
	if n.Anchor != "" {
		w.attr("id", n.Anchor)
	}
	w.attrs(n.Attrs)
	w.buf.WriteString(">")
	if n.Anchor == "" || w.inAnchor {
		w.nodes(n.Children)
	} else {
		w.buf.WriteString(`<a class="heading-anchor" href="#` + html.EscapeString(n.Anchor) + `">`)
		w.inAnchor = true
		w.nodes(n.Children)
		w.inAnchor = false
		w.buf.WriteString("</a>")
	}
	w.buf.WriteString("</" + tag + ">")
}

func (w *htmlWriter) link(n *Node) {
	href := SafeURL(n.Href)
	if href == "" || w.inAnchor {
		w.nodes(n.Children)
		return
	}
	w.buf.WriteString("<a")
	w.attr("href", href)
	if n.Title != "" {
		w.attr("title", n.Title)
	}
	switch {
	case n.Internal:
		w.attr("data-nav", "prefetch")
	case isAbsoluteURL(href):
		w.attr("rel", "noopener noreferrer")
	}
	w.attrs(n.Attrs)
	w.buf.WriteString(">")
	w.inAnchor = true
	w.nodes(n.Children)
	w.inAnchor = false
	w.buf.WriteString("</a>")
}

func (w *htmlWriter) image(n *Node) {
	src := SafeURL(n.Src)
	if src == "" {
		w.buf.WriteString(html.EscapeString(n.Alt))
		return
	}
	w.imageCount++
	w.buf.WriteString("<img")
	if w.imageCount == 1 {
		w.attr("fetchpriority", "high")
	} else {
		w.attr("loading", "lazy")
	}
	if n.Width > 0 && n.Height > 0 {
		w.attr("width", strconv.Itoa(n.Width))
		w.attr("height", strconv.Itoa(n.Height))
	}
	w.buf.WriteString(` alt="` + html.EscapeString(n.Alt) + `"`)
	w.attr("src", src)
	if n.SrcSet != "" {
		w.attr("srcset", n.SrcSet)
		w.attr("sizes", "100vw")
	}
	if n.Title != "" {
		w.attr("title", n.Title)
	}
	w.attrs(n.Attrs)
	w.buf.WriteString(` decoding="async"/>`)
}

func (w *htmlWriter) codeBlock(n *Node) {
	lang := html.EscapeString(n.Lang)
	if n.Lang != "" {
		w.buf.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + lang + `">` + lang + `</span>`)
	}
	if n.Lang != "" && w.opts.Highlighter != nil {
		var hl bytes.Buffer
		if ok, err := w.opts.Highlighter.Highlight(&hl, n.Lang, n.Text); ok && err == nil {
			w.buf.WriteString(`<pre class="code-block chroma">`)
			w.open("code", n.Class, n.Attrs)
			w.buf.Write(hl.Bytes())
			w.buf.WriteString("</code></pre></div>")
			return
		}
	}
	w.buf.WriteString(`<pre class="code-block">`)
	w.open("code", n.Class, n.Attrs)
	w.buf.WriteString(html.EscapeString(n.Text))
	w.buf.WriteString("</code></pre>")
	if n.Lang != "" {
		w.buf.WriteString("</div>")
	}
}

// SafeURL returns raw trimmed when it is safe to emit as a link or image target,
// or "" when it is not. Relative references are allowed; absolute URLs must use
// http, https, mailto or tel.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}

func isAbsoluteURL(href string) bool {
	u, err := url.Parse(href)
	return err == nil && (u.Scheme != "" || u.Host != "")
}
