package markdown

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"

	_ "golang.org/x/image/webp"
)

// ErrImageResolution is returned when a local image cannot be found or decoded
// under the asset root.
var ErrImageResolution = errors.New("image resolution failed")

// PlainCodeClass decorates code that carries no language tag.
const PlainCodeClass = "code-plain"

// Rule transforms one node. It receives a copy and returns the replacement.
type Rule func(Node) (Node, error)

// Rules maps a node kind to the rule applied to every node of that kind.
type Rules map[Kind]Rule

// Render parses body and applies rules to the resulting tree.
func Render(body string, rules Rules) (*Document, error) {
	doc := Parse(body)
	if err := doc.Apply(rules); err != nil {
		return nil, err
	}
	return doc, nil
}

// Apply runs rules over the document, children before parents. Every failing
// node is reported; the tree is left partially rewritten on error.
func (d *Document) Apply(rules Rules) error {
	return errors.Join(apply(d.Children, rules)...)
}

func apply(nodes []*Node, rules Rules) []error {
	var errs []error
	for _, n := range nodes {
		errs = append(errs, apply(n.Children, rules)...)
		rule, ok := rules[n.Kind]
		if !ok {
			continue
		}
		out, err := rule(*n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*n = out
	}
	return errs
}

// Anchor derives a heading id from its visible text. Letters and digits are
// lowercased and kept, every other run of characters becomes a single dash.
// Texts with no letters or digits get a stable hashed id.
func Anchor(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			dash = true
			continue
		}
		if dash && b.Len() > 0 {
			b.WriteByte('-')
		}
		dash = false
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		h := fnv.New32a()
		h.Write([]byte(s))
		return fmt.Sprintf("section-%08x", h.Sum32())
	}
	return b.String()
}

// HeadingRule assigns each heading its anchor.
func HeadingRule() Rule {
	return func(n Node) (Node, error) {
		n.Anchor = Anchor(n.Text)
		return n, nil
	}
}

// LinkRule marks links to pages on the site as internal. siteURL is the
// absolute base URL of the site; absolute links to the same host count as
// internal. Fragment-only links and links to files with a non-page extension
// (feeds, images, downloads) are not. The href itself is never rewritten.
func LinkRule(siteURL string) Rule {
	var host string
	if u, err := url.Parse(siteURL); err == nil {
		host = strings.ToLower(u.Host)
	}
	return func(n Node) (Node, error) {
		n.Internal = isInternal(n.Href, host)
		return n, nil
	}
}

func isInternal(href, host string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	if !isPagePath(u) {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return host != "" && strings.ToLower(u.Host) == host
	}
	return false
}

func isPagePath(u *url.URL) bool {
	if u.Path == "" && u.Host == "" {
		return u.RawQuery != ""
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case "", ".html", ".htm":
		return true
	}
	return false
}

// ImageOptions controls how local images are emitted.
type ImageOptions struct {
	// Optimize routes images through the on-demand optimizer. It is off for
	// static export, where images are published as-is.
	Optimize bool
	Endpoint string
	Widths   []int
	Quality  int
}

// DefaultImageWidths are the srcset candidates used when none are configured.
var DefaultImageWidths = []int{640, 828, 1080, 1920}

func (o ImageOptions) withDefaults() ImageOptions {
	if o.Endpoint == "" {
		o.Endpoint = "/_image"
	}
	if len(o.Widths) == 0 {
		o.Widths = DefaultImageWidths
	}
	if o.Quality <= 0 {
		o.Quality = 75
	}
	return o
}

// OptimizedURL returns the optimizer URL serving src at width w.
func (o ImageOptions) OptimizedURL(src string, w int) string {
	o = o.withDefaults()
	q := url.Values{}
	q.Set("url", src)
	q.Set("w", strconv.Itoa(w))
	q.Set("q", strconv.Itoa(o.Quality))
	return o.Endpoint + "?" + q.Encode()
}

// ImageRule resolves local images against assets, fills in alt text and
// intrinsic dimensions, and in optimize mode points the image at the optimizer.
// Remote http(s) images are passed through untouched apart from alt text.
func ImageRule(assets fs.FS, opts ImageOptions) Rule {
	opts = opts.withDefaults()
	return func(n Node) (Node, error) {
		if n.Alt == "" {
			n.Alt = AltFromSrc(n.Src)
		}
		if isRemote(n.Src) {
			return n, nil
		}
		name, ok := assetName(n.Src)
		if !ok {
			return n, fmt.Errorf("%w: %q is not a local asset path", ErrImageResolution, n.Src)
		}
		f, err := assets.Open(name)
		if err != nil {
			return n, fmt.Errorf("%w: %s: %v", ErrImageResolution, n.Src, err)
		}
		defer f.Close()

		svg := strings.EqualFold(path.Ext(name), ".svg")
		if !svg {
			cfg, _, err := image.DecodeConfig(f)
			if err != nil {
				return n, fmt.Errorf("%w: %s: %v", ErrImageResolution, n.Src, err)
			}
			n.Width, n.Height = cfg.Width, cfg.Height
		}
		src := "/" + name
		if !opts.Optimize {
			n.Src = src
			return n, nil
		}

		widths := candidateWidths(opts.Widths, n.Width)
		if svg {
			n.Src = opts.OptimizedURL(src, widths[len(widths)-1])
			return n, nil
		}
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = opts.OptimizedURL(src, w) + " " + strconv.Itoa(w) + "w"
		}
		n.SrcSet = strings.Join(parts, ", ")
		n.Src = opts.OptimizedURL(src, widths[len(widths)-1])
		return n, nil
	}
}

// candidateWidths returns the configured widths not wider than intrinsic, or the
// smallest configured width when the image is narrower than all of them.
func candidateWidths(widths []int, intrinsic int) []int {
	var out []int
	for _, w := range widths {
		if intrinsic <= 0 || w <= intrinsic {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		smallest := widths[0]
		for _, w := range widths[1:] {
			smallest = min(smallest, w)
		}
		out = []int{smallest}
	}
	return out
}

// AltFromSrc derives alt text from an image path: "/img/cat.png" gives "cat".
func AltFromSrc(src string) string {
	p := src
	if u, err := url.Parse(src); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func isRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https" || (s == "" && u.Host != "")
}

// assetName maps an image src to a path inside the asset root.
func assetName(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Path == "" {
		return "", false
	}
	name := path.Clean(strings.TrimPrefix(u.Path, "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", false
	}
	return name, true
}

// CodeRule gives tagged code its language class and decorates untagged code.
func CodeRule() Rule {
	return func(n Node) (Node, error) {
		if n.Lang != "" {
			n.Class = "language-" + n.Lang
		} else {
			n.Class = PlainCodeClass
		}
		return n, nil
	}
}

// DefaultRules returns the rule set used for posts.
func DefaultRules(siteURL string, assets fs.FS, img ImageOptions) Rules {
	code := CodeRule()
	return Rules{
		KindHeading:    HeadingRule(),
		KindLink:       LinkRule(siteURL),
		KindImage:      ImageRule(assets, img),
		KindInlineCode: code,
		KindFencedCode: code,
	}
}
