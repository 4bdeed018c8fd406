package view

import (
	"bytes"
	"io"
	"strings"

	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &mhtml.Minifier{
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
	})
	return m
}

// Parse разбирает HTML-фрагмент в дерево представления. Комментарии и служебные узлы отбрасываются.
func Parse(r io.Reader) (*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, err
	}
	root := NewFragment()
	for _, n := range nodes {
		if c := fromHTML(n); c != nil {
			root.AppendChild(c)
		}
	}
	return root, nil
}

// ParseString разбирает HTML-строку.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

func fromHTML(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		return NewText(n.Data)
	case html.ElementNode:
		el := NewElement(n.Data)
		for _, a := range n.Attr {
			if a.Namespace != "" {
				continue
			}
			el.SetAttribute(a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				el.AppendChild(child)
			}
		}
		return el
	default:
		return nil
	}
}

// Render записывает каноническую разметку узла: классы и свойства стиля упорядочены,
// атрибуты идут в порядке class, style, остальные по алфавиту.
func Render(w io.Writer, n *Node) error {
	if n.IsFragment() {
		for _, c := range n.children {
			if err := html.Render(w, toHTML(c)); err != nil {
				return err
			}
		}
		return nil
	}
	return html.Render(w, toHTML(n))
}

func (n *Node) String() string { return String(n) }

// String возвращает каноническую разметку узла.
func String(n *Node) string {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func toHTML(n *Node) *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.text}
	}
	h := &html.Node{
		Type:     html.ElementNode,
		Data:     n.name,
		DataAtom: atom.Lookup([]byte(n.name)),
	}
	if len(n.classes) > 0 {
		h.Attr = append(h.Attr, html.Attribute{Key: "class", Val: strings.Join(n.Classes(), " ")})
	}
	if len(n.styles) > 0 {
		h.Attr = append(h.Attr, html.Attribute{Key: "style", Val: formatStyle(n.styles)})
	}
	for _, k := range n.AttributeKeys() {
		h.Attr = append(h.Attr, html.Attribute{Key: k, Val: n.attrs[k]})
	}
	for _, c := range n.children {
		h.AppendChild(toHTML(c))
	}
	return h
}

// Minify сжимает разметку без удаления закрывающих тегов и кавычек.
func Minify(markup string) (string, error) {
	return minifier.String("text/html", markup)
}

func splitClasses(s string) []string {
	return strings.Fields(s)
}

func parseStyle(s string) map[string]string {
	res := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if prop == "" || val == "" {
			continue
		}
		res[prop] = val
	}
	return res
}

func formatStyle(styles map[string]string) string {
	keys := sortedKeys(styles)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+styles[k])
	}
	return strings.Join(parts, ";")
}
