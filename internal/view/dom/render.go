package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render writes the tree as HTML.
func Render(w io.Writer, n *Node) error {
	if n == nil {
		return nil
	}
	return html.Render(w, toHTML(n))
}

func RenderString(n *Node) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toHTML(n *Node) *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}

	out := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
	}
	if len(n.Class) > 0 {
		out.Attr = append(out.Attr, html.Attribute{Key: "class", Val: strings.Join(n.Class, " ")})
	}
	for _, a := range n.Attrs {
		out.Attr = append(out.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range n.Children {
		out.AppendChild(toHTML(c))
	}
	return out
}
