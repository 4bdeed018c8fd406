// Пакет inspector строит снимок дерева модели для отладки и API.
package inspector

import (
	"fmt"
	"strings"

	"github.com/aisa-it/docedit/internal/docedit/model"
)

// Node узел снимка в формате, близком к JSON-документу TipTap.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Text    string         `json:"text,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Selection описание выделения. Пути считаются от корня.
type Selection struct {
	Type   string `json:"type"`
	On     []int  `json:"on,omitempty"`
	Anchor *Point `json:"anchor,omitempty"`
	Focus  *Point `json:"focus,omitempty"`
}

type Point struct {
	Path   []int `json:"path"`
	Offset int   `json:"offset"`
}

type Snapshot struct {
	Seq       uint64    `json:"seq"`
	Root      Node      `json:"root"`
	Selection Selection `json:"selection"`
	Tree      string    `json:"tree"`
}

// Take снимает состояние документа.
func Take(doc *model.Document) Snapshot {
	return Snapshot{
		Seq:       doc.Seq(),
		Root:      ToNode(doc.Root()),
		Selection: describeSelection(doc.Selection()),
		Tree:      Stringify(doc.Root()),
	}
}

func ToNode(el *model.Element) Node {
	if el.IsText() {
		return Node{Type: "text", Text: el.Data()}
	}
	n := Node{Type: el.Kind()}
	if keys := el.AttributeKeys(); len(keys) > 0 {
		n.Attrs = make(map[string]any, len(keys))
		for _, k := range keys {
			n.Attrs[k], _ = el.Attribute(k)
		}
	}
	for _, c := range el.Children() {
		n.Content = append(n.Content, ToNode(c))
	}
	return n
}

func describeSelection(sel model.Selection) Selection {
	switch {
	case sel.IsNone():
		return Selection{Type: "none"}
	case sel.SelectedElement() != nil:
		return Selection{Type: "on", On: sel.SelectedElement().Path()}
	}
	s := Selection{Type: "range", Anchor: point(sel.Anchor()), Focus: point(sel.Focus())}
	if sel.IsCollapsed() {
		s.Type = "collapsed"
	}
	return s
}

func point(p model.Position) *Point {
	if p.Parent == nil {
		return nil
	}
	return &Point{Path: p.Parent.Path(), Offset: p.Offset}
}

// Stringify возвращает компактную запись поддерева: <kind attr="value">...</kind>, текст в кавычках.
func Stringify(el *model.Element) string {
	var sb strings.Builder
	stringify(&sb, el)
	return sb.String()
}

func stringify(sb *strings.Builder, el *model.Element) {
	if el.IsText() {
		fmt.Fprintf(sb, "%q", el.Data())
		return
	}
	sb.WriteString("<" + el.Kind())
	for _, k := range el.AttributeKeys() {
		v, _ := el.Attribute(k)
		fmt.Fprintf(sb, " %s=%s", k, formatValue(v))
	}
	sb.WriteString(">")
	for _, c := range el.Children() {
		stringify(sb, c)
	}
	sb.WriteString("</" + el.Kind() + ">")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case fmt.Stringer:
		return fmt.Sprintf("%q", val.String())
	default:
		return fmt.Sprintf("%q", fmt.Sprintf("%+v", val))
	}
}
