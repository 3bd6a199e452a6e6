// Package markdown turns post bodies into a tree of renderable nodes and writes
// that tree as HTML through a templ component.
//
// Parsing never fails: raw HTML, JSX and syntax the tree has no kind for degrade
// to plain text. Substitution rules run over the parsed tree before output and
// are where headings get anchors, links get classified and images get resolved.
package markdown

import "strings"

// Kind identifies the variant of a Node.
type Kind uint8

const (
	KindText Kind = iota
	KindParagraph
	KindHeading
	KindLink
	KindImage
	KindInlineCode
	KindFencedCode
	KindElement
)

var kindNames = [...]string{
	KindText:       "text",
	KindParagraph:  "paragraph",
	KindHeading:    "heading",
	KindLink:       "link",
	KindImage:      "image",
	KindInlineCode: "inline-code",
	KindFencedCode: "fenced-code",
	KindElement:    "element",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Attr is an extra HTML attribute carried by a node.
type Attr struct {
	Key string
	Val string
}

// Node is one element of a rendered post. Which fields are meaningful depends on Kind:
//
//   - Text: Text
//   - Heading: Level, Text (visible text), Anchor, Children
//   - Link: Href, Title, Internal, Children
//   - Image: Src, SrcSet, Alt, Title, Width, Height
//   - InlineCode, FencedCode: Text, Lang, Class
//   - Element: Tag, Children
//
// Attrs and Class apply to every kind that renders a tag.
type Node struct {
	Kind     Kind
	Tag      string
	Level    int
	Text     string
	Anchor   string
	Href     string
	Title    string
	Internal bool
	Src      string
	SrcSet   string
	Alt      string
	Width    int
	Height   int
	Lang     string
	Class    string
	Attrs    []Attr
	Children []*Node
}

// Document is the root of a rendered post.
type Document struct {
	Children []*Node
}

// Walk calls fn for every node in document order. Returning false skips the
// node's children.
func (d *Document) Walk(fn func(*Node) bool) {
	walk(d.Children, fn)
}

func walk(nodes []*Node, fn func(*Node) bool) {
	for _, n := range nodes {
		if fn(n) {
			walk(n.Children, fn)
		}
	}
}

// PlainText returns the visible text of nodes with all markup removed.
func PlainText(nodes []*Node) string {
	var b strings.Builder
	writePlain(&b, nodes)
	return b.String()
}

func writePlain(b *strings.Builder, nodes []*Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText, KindInlineCode, KindFencedCode:
			b.WriteString(n.Text)
		case KindImage:
			b.WriteString(n.Alt)
		default:
			writePlain(b, n.Children)
		}
	}
}

func text(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

func element(tag string, children []*Node, attrs ...Attr) *Node {
	return &Node{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}
