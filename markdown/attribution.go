package markdown

import "slices"

// WithAttribution returns a copy of rules that additionally tags links and
// headings with data-track attributes, which the click collector picks up.
// The base rule for a kind runs first.
func WithAttribution(rules Rules) Rules {
	out := make(Rules, len(rules)+2)
	for k, r := range rules {
		out[k] = r
	}
	out[KindLink] = chain(out[KindLink], func(n Node) (Node, error) {
		n.Attrs = append(slices.Clone(n.Attrs),
			Attr{Key: "data-track", Val: "link"},
			Attr{Key: "data-track-target", Val: n.Href},
		)
		return n, nil
	})
	out[KindHeading] = chain(out[KindHeading], func(n Node) (Node, error) {
		n.Attrs = append(slices.Clone(n.Attrs),
			Attr{Key: "data-track", Val: "heading"},
			Attr{Key: "data-track-target", Val: n.Anchor},
		)
		return n, nil
	})
	return out
}

func chain(first, then Rule) Rule {
	if first == nil {
		return then
	}
	return func(n Node) (Node, error) {
		n, err := first(n)
		if err != nil {
			return n, err
		}
		return then(n)
	}
}
