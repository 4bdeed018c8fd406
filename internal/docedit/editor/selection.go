package editor

import (
	"github.com/aisa-it/docedit/internal/docedit/model"
)

// SelectedElement возвращает выделенный элемент указанного вида.
func (e *Editor) SelectedElement(kind string) *model.Element {
	el := e.Model.Selection().SelectedElement()
	if el == nil || el.Kind() != kind {
		return nil
	}
	return el
}

// FindInsertionPosition ищет ближайшую к выделению позицию, допускающую вставку элемента вида kind.
// Если позиция внутри элемента, не допускающего kind, вставка переносится перед ним (в начале)
// или после него (в остальных случаях). Подъем не выходит за границы.
func (e *Editor) FindInsertionPosition(kind string) (model.Position, bool) {
	sel := e.Model.Selection()
	if sel.IsNone() {
		return model.Position{}, false
	}
	pos := sel.InsertionPosition()
	for pos.Parent != nil {
		if e.Schema.CheckChild(pos.Parent.Context(), kind) {
			return pos, true
		}
		parent := pos.Parent
		if e.Schema.IsLimit(parent.Kind()) || parent.Parent() == nil {
			return model.Position{}, false
		}
		if pos.Offset == 0 {
			pos = model.Before(parent)
		} else {
			pos = model.After(parent)
		}
	}
	return model.Position{}, false
}

// CanInsertAtFocus сообщает, допускает ли родитель фокуса выделения элемент вида kind.
func (e *Editor) CanInsertAtFocus(kind string) bool {
	sel := e.Model.Selection()
	if sel.IsNone() {
		return false
	}
	focus := sel.Focus()
	if focus.Parent == nil {
		return false
	}
	return e.Schema.CheckChild(focus.Parent.Context(), kind)
}
