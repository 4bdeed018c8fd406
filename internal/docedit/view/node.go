// Пакет view содержит DOM-подобное дерево представления документа и его HTML-кодек.
// Дерево представления производно от модели и пересобирается конвертерами.
package view

import (
	"slices"
	"sort"
)

type nodeType int

const (
	elementNode nodeType = iota
	textNode
	fragmentNode
)

// Node узел дерева представления.
type Node struct {
	typ      nodeType
	name     string
	text     string
	classes  []string
	styles   map[string]string
	attrs    map[string]string
	children []*Node
	parent   *Node
}

// NewElement создает элемент с именем тега.
func NewElement(name string) *Node {
	return &Node{
		typ:    elementNode,
		name:   name,
		styles: make(map[string]string),
		attrs:  make(map[string]string),
	}
}

// NewText создает текстовый узел.
func NewText(text string) *Node {
	return &Node{typ: textNode, text: text}
}

// NewFragment создает корневой контейнер без собственного тега.
func NewFragment() *Node {
	n := NewElement("")
	n.typ = fragmentNode
	return n
}

func (n *Node) Name() string { return n.name }

func (n *Node) IsText() bool { return n.typ == textNode }

func (n *Node) IsFragment() bool { return n.typ == fragmentNode }

func (n *Node) Text() string { return n.text }

func (n *Node) SetText(text string) { n.text = text }

func (n *Node) Parent() *Node { return n.parent }

// AddClass добавляет класс, повторное добавление игнорируется.
func (n *Node) AddClass(names ...string) {
	for _, c := range names {
		if c != "" && !slices.Contains(n.classes, c) {
			n.classes = append(n.classes, c)
		}
	}
}

func (n *Node) RemoveClass(name string) {
	n.classes = slices.DeleteFunc(n.classes, func(c string) bool { return c == name })
}

func (n *Node) HasClass(name string) bool { return slices.Contains(n.classes, name) }

// Classes возвращает классы в лексикографическом порядке.
func (n *Node) Classes() []string {
	res := slices.Clone(n.classes)
	sort.Strings(res)
	return res
}

// SetStyle устанавливает свойство стиля. Пустое значение удаляет свойство.
func (n *Node) SetStyle(prop, value string) {
	if value == "" {
		delete(n.styles, prop)
		return
	}
	n.styles[prop] = value
}

func (n *Node) RemoveStyle(prop string) { delete(n.styles, prop) }

func (n *Node) Style(prop string) (string, bool) {
	v, ok := n.styles[prop]
	return v, ok
}

// StyleKeys возвращает имена свойств стиля в лексикографическом порядке.
func (n *Node) StyleKeys() []string {
	return sortedKeys(n.styles)
}

// SetAttribute устанавливает атрибут, кроме class и style, которые хранятся отдельно.
func (n *Node) SetAttribute(key, value string) {
	switch key {
	case "class":
		n.classes = nil
		n.AddClass(splitClasses(value)...)
	case "style":
		n.styles = parseStyle(value)
	default:
		n.attrs[key] = value
	}
}

func (n *Node) RemoveAttribute(key string) { delete(n.attrs, key) }

func (n *Node) Attribute(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

func (n *Node) AttributeKeys() []string {
	return sortedKeys(n.attrs)
}

func (n *Node) Children() []*Node { return slices.Clone(n.children) }

func (n *Node) ChildCount() int { return len(n.children) }

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Index возвращает позицию узла у родителя.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return slices.Index(n.parent.children, n)
}

// InsertChild вставляет узел в позицию i, предварительно отсоединив его от прежнего родителя.
func (n *Node) InsertChild(i int, child *Node) {
	child.Remove()
	i = max(0, min(i, len(n.children)))
	n.children = slices.Insert(n.children, i, child)
	child.parent = n
}

func (n *Node) AppendChild(children ...*Node) {
	for _, c := range children {
		n.InsertChild(len(n.children), c)
	}
}

// Remove отсоединяет узел от родителя.
func (n *Node) Remove() {
	if n.parent == nil {
		return
	}
	p := n.parent
	p.children = slices.DeleteFunc(p.children, func(c *Node) bool { return c == n })
	n.parent = nil
}

// Path возвращает индексы от корня до узла.
func (n *Node) Path() []int {
	var path []int
	for c := n; c.parent != nil; c = c.parent {
		path = append(path, c.Index())
	}
	slices.Reverse(path)
	return path
}

// NodeAt возвращает потомка по пути индексов.
func (n *Node) NodeAt(path []int) *Node {
	cur := n
	for _, i := range path {
		cur = cur.Child(i)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// TextContent возвращает конкатенацию текста поддерева.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.text
	}
	var s string
	for _, c := range n.children {
		s += c.TextContent()
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
