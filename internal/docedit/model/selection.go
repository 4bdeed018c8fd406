package model

// Position точка между дочерними элементами Parent.
type Position struct {
	Parent *Element
	Offset int
}

// Before возвращает позицию перед элементом.
func Before(el *Element) Position {
	return Position{Parent: el.parent, Offset: el.Index()}
}

// After возвращает позицию после элемента.
func After(el *Element) Position {
	return Position{Parent: el.parent, Offset: el.Index() + 1}
}

// StartOf возвращает позицию в начале элемента.
func StartOf(el *Element) Position {
	return Position{Parent: el}
}

// EndOf возвращает позицию в конце элемента.
func EndOf(el *Element) Position {
	return Position{Parent: el, Offset: len(el.children)}
}

func (p Position) IsZero() bool { return p.Parent == nil }

func (p Position) valid() bool {
	return p.Parent != nil && p.Offset >= 0 && p.Offset <= len(p.Parent.children)
}

// NodeAfter возвращает элемент сразу за позицией.
func (p Position) NodeAfter() *Element {
	if p.Parent == nil {
		return nil
	}
	return p.Parent.Child(p.Offset)
}

// Selection текущее выделение документа. Нулевое значение означает отсутствие выделения.
type Selection struct {
	anchor Position
	focus  Position
	on     *Element
}

// Collapsed возвращает свернутое выделение в позиции.
func Collapsed(p Position) Selection {
	return Selection{anchor: p, focus: p}
}

// Range возвращает выделение диапазона.
func Range(anchor, focus Position) Selection {
	return Selection{anchor: anchor, focus: focus}
}

// On возвращает выделение ровно одного элемента.
func On(el *Element) Selection {
	return Selection{on: el}
}

// IsNone сообщает, что ничего не выделено.
func (s Selection) IsNone() bool {
	return s.on == nil && s.focus.Parent == nil
}

func (s Selection) IsCollapsed() bool {
	return s.on == nil && s.anchor == s.focus
}

// SelectedElement возвращает выделенный элемент или nil для выделения диапазона.
func (s Selection) SelectedElement() *Element { return s.on }

func (s Selection) Anchor() Position {
	if s.on != nil {
		return Before(s.on)
	}
	return s.anchor
}

func (s Selection) Focus() Position {
	if s.on != nil {
		return After(s.on)
	}
	return s.focus
}

// InsertionPosition позиция для вставки нового содержимого. Для выделенного элемента это позиция за ним.
func (s Selection) InsertionPosition() Position {
	if s.on != nil {
		return After(s.on)
	}
	return s.focus
}

func (s Selection) within(top *Element) bool {
	if s.IsNone() {
		return true
	}
	if s.on != nil {
		return s.on.parent != nil && top.IsAncestorOf(s.on)
	}
	for _, p := range []Position{s.anchor, s.focus} {
		if !p.valid() || !top.IsAncestorOf(p.Parent) {
			return false
		}
	}
	return true
}
