package markdown

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	emojiast "github.com/yuin/goldmark-emoji/ast"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM, emoji.Emoji))

// Parse converts a Markdown/MDX body into a Document. It never fails.
func Parse(body string) *Document {
	src := []byte(body)
	root := md.Parser().Parse(gtext.NewReader(src))
	c := converter{src: src}
	return &Document{Children: c.children(root)}
}

type converter struct {
	src []byte
}

func (c *converter) children(n ast.Node) []*Node {
	var out []*Node
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		out = appendMerged(out, c.convert(ch)...)
	}
	return out
}

// appendMerged appends nodes to out, joining adjacent text nodes.
func appendMerged(out []*Node, nodes ...*Node) []*Node {
	for _, n := range nodes {
		if n.Kind == KindText && len(out) > 0 && out[len(out)-1].Kind == KindText {
			out[len(out)-1].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

func (c *converter) convert(n ast.Node) []*Node {
	switch n := n.(type) {
	case *ast.Paragraph:
		return []*Node{{Kind: KindParagraph, Children: c.children(n)}}
	case *ast.TextBlock:
		return c.children(n)
	case *ast.Heading:
		children := c.children(n)
		return []*Node{{Kind: KindHeading, Level: n.Level, Text: PlainText(children), Children: children}}
	case *ast.ThematicBreak:
		return []*Node{element("hr", nil)}
	case *ast.CodeBlock:
		return []*Node{{Kind: KindFencedCode, Text: c.lines(n.Lines())}}
	case *ast.FencedCodeBlock:
		var lang string
		if n.Info != nil {
			lang = string(n.Language(c.src))
		}
		return []*Node{{Kind: KindFencedCode, Lang: lang, Text: c.lines(n.Lines())}}
	case *ast.Blockquote:
		return []*Node{element("blockquote", c.children(n))}
	case *ast.List:
		if n.IsOrdered() {
			var attrs []Attr
			if n.Start > 1 {
				attrs = append(attrs, Attr{Key: "start", Val: strconv.Itoa(n.Start)})
			}
			return []*Node{element("ol", c.children(n), attrs...)}
		}
		return []*Node{element("ul", c.children(n))}
	case *ast.ListItem:
		return []*Node{element("li", c.children(n))}
	case *ast.HTMLBlock:
		raw := c.lines(n.Lines())
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.src))
		}
		return []*Node{{Kind: KindParagraph, Children: []*Node{text(strings.TrimRight(raw, "\n"))}}}
	case *ast.Text:
		out := []*Node{text(string(n.Segment.Value(c.src)))}
		switch {
		case n.HardLineBreak():
			out = append(out, element("br", nil))
		case n.SoftLineBreak():
			out[0].Text += "\n"
		}
		return out
	case *ast.String:
		return []*Node{text(string(n.Value))}
	case *ast.CodeSpan:
		code := strings.ReplaceAll(PlainText(c.children(n)), "\n", " ")
		return []*Node{{Kind: KindInlineCode, Text: code}}
	case *ast.Emphasis:
		tag := "em"
		if n.Level >= 2 {
			tag = "strong"
		}
		return []*Node{element(tag, c.children(n))}
	case *ast.Link:
		return []*Node{{Kind: KindLink, Href: string(n.Destination), Title: string(n.Title), Children: c.children(n)}}
	case *ast.AutoLink:
		return []*Node{{Kind: KindLink, Href: string(n.URL(c.src)), Children: []*Node{text(string(n.Label(c.src)))}}}
	case *ast.Image:
		return []*Node{{Kind: KindImage, Src: string(n.Destination), Title: string(n.Title), Alt: PlainText(c.children(n))}}
	case *ast.RawHTML:
		return []*Node{text(c.lines(n.Segments))}
	case *east.Table:
		return []*Node{c.table(n)}
	case *east.Strikethrough:
		return []*Node{element("del", c.children(n))}
	case *emojiast.Emoji:
		if n.Value == nil || len(n.Value.Unicode) == 0 {
			return []*Node{text(":" + string(n.ShortName) + ":")}
		}
		return []*Node{text(string(n.Value.Unicode))}
	case *east.TaskCheckBox:
		attrs := []Attr{{Key: "type", Val: "checkbox"}, {Key: "disabled", Val: ""}}
		if n.IsChecked {
			attrs = append(attrs, Attr{Key: "checked", Val: ""})
		}
		return []*Node{element("input", nil, attrs...)}
	default:
		return c.children(n)
	}
}

func (c *converter) table(t *east.Table) *Node {
	var head, body []*Node
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *east.TableHeader:
			head = append(head, element("tr", c.cells(row, "th")))
		case *east.TableRow:
			body = append(body, element("tr", c.cells(row, "td")))
		}
	}
	var children []*Node
	if len(head) > 0 {
		children = append(children, element("thead", head))
	}
	if len(body) > 0 {
		children = append(children, element("tbody", body))
	}
	return element("table", children)
}

func (c *converter) cells(row ast.Node, tag string) []*Node {
	var out []*Node
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		tc, ok := cell.(*east.TableCell)
		if !ok {
			continue
		}
		var attrs []Attr
		if tc.Alignment != east.AlignNone {
			attrs = append(attrs, Attr{Key: "style", Val: "text-align:" + tc.Alignment.String()})
		}
		out = append(out, element(tag, c.children(tc), attrs...))
	}
	return out
}

func (c *converter) lines(segs *gtext.Segments) string {
	var b bytes.Buffer
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(c.src))
	}
	return b.String()
}
