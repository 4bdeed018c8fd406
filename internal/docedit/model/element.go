package model

import (
	"slices"
	"sort"

	"github.com/aisa-it/docedit/internal/docedit/schema"
)

// Element узел дерева документа. Изменяется только через Writer внутри транзакции.
type Element struct {
	kind     string
	attrs    map[string]any
	children []*Element
	parent   *Element
	data     string
}

func newElement(kind string) *Element {
	return &Element{
		kind:  kind,
		attrs: make(map[string]any),
	}
}

func (e *Element) Kind() string { return e.kind }

func (e *Element) Parent() *Element { return e.parent }

// IsText сообщает, является ли элемент текстовым узлом.
func (e *Element) IsText() bool { return e.kind == schema.Text }

// Data возвращает текст текстового узла.
func (e *Element) Data() string { return e.data }

// Attribute возвращает значение атрибута.
func (e *Element) Attribute(key string) (any, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

func (e *Element) HasAttribute(key string) bool {
	_, ok := e.attrs[key]
	return ok
}

// AttributeKeys возвращает имена атрибутов в лексикографическом порядке.
func (e *Element) AttributeKeys() []string {
	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *Element) Children() []*Element { return slices.Clone(e.children) }

func (e *Element) ChildCount() int { return len(e.children) }

// Child возвращает дочерний элемент или nil при выходе за границы.
func (e *Element) Child(i int) *Element {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Index возвращает позицию элемента у родителя, -1 для отсоединенного элемента.
func (e *Element) Index() int {
	if e.parent == nil {
		return -1
	}
	return slices.Index(e.parent.children, e)
}

// Top возвращает самый верхний элемент цепочки родителей.
func (e *Element) Top() *Element {
	top := e
	for top.parent != nil {
		top = top.parent
	}
	return top
}

// Context возвращает виды предков от верхнего до самого элемента включительно.
func (e *Element) Context() schema.Context {
	var ctx schema.Context
	for el := e; el != nil; el = el.parent {
		ctx = append(ctx, el.kind)
	}
	slices.Reverse(ctx)
	return ctx
}

// IsAncestorOf сообщает, является ли e предком other или самим other.
func (e *Element) IsAncestorOf(other *Element) bool {
	for el := other; el != nil; el = el.parent {
		if el == e {
			return true
		}
	}
	return false
}

// Path возвращает индексы от верхнего элемента до e.
func (e *Element) Path() []int {
	var path []int
	for el := e; el.parent != nil; el = el.parent {
		path = append(path, el.Index())
	}
	slices.Reverse(path)
	return path
}

// FindAncestor возвращает ближайшего предка (или сам элемент) указанного вида.
func (e *Element) FindAncestor(kind string) *Element {
	for el := e; el != nil; el = el.parent {
		if el.kind == kind {
			return el
		}
	}
	return nil
}

// Walk обходит поддерево в прямом порядке. Обход прекращается, если fn вернул false.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}
