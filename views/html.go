package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

// page accumulates HTML for one component. Text and attribute values are
// escaped; nested components render into the same buffer.
type page struct {
	buf bytes.Buffer
	ctx context.Context
	err error
}

func component(fn func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx}
		fn(p)
		if p.err != nil {
			return p.err
		}
		_, err := w.Write(p.buf.Bytes())
		return err
	})
}

func (p *page) raw(s ...string) {
	for _, v := range s {
		p.buf.WriteString(v)
	}
}

func (p *page) text(s string) {
	p.buf.WriteString(templ.EscapeString(s))
}

func (p *page) attr(key, val string) {
	p.raw(" ", key, `="`, templ.EscapeString(val), `"`)
}

// href writes an href attribute, replacing unsafe URLs with templ's
// sanitized placeholder.
func (p *page) href(u string) {
	p.attr("href", string(templ.URL(u)))
}

func (p *page) render(c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(p.ctx, &p.buf)
}
