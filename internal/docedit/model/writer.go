package model

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aisa-it/docedit/internal/docedit/schema"
	"github.com/google/go-cmp/cmp"
)

// Writer контекст изменения документа, доступный только внутри Document.Change.
// Изменения отсоединенных элементов применяются, но не попадают в Batch:
// вставка собранного поддерева записывается одной операцией.
type Writer struct {
	doc *Document
}

func (w *Writer) Document() *Document { return w.doc }

// CreateElement создает отсоединенный элемент. Атрибуты, не разрешенные схемой, отбрасываются.
func (w *Writer) CreateElement(kind string, attrs map[string]any) *Element {
	el := newElement(kind)
	for k, v := range attrs {
		if v == nil {
			continue
		}
		if !w.doc.schema.IsAttributeAllowed(kind, k) {
			slog.Debug("Attribute dropped on create", "kind", kind, "attr", k)
			continue
		}
		el.attrs[k] = v
	}
	return el
}

// CreateText создает отсоединенный текстовый узел.
func (w *Writer) CreateText(data string) *Element {
	el := newElement(schema.Text)
	el.data = data
	return el
}

// SetAttribute устанавливает атрибут. nil удаляет атрибут.
func (w *Writer) SetAttribute(el *Element, key string, value any) error {
	if err := w.check(); err != nil {
		return err
	}
	if value == nil {
		return w.RemoveAttribute(el, key)
	}
	if !w.doc.schema.IsAttributeAllowed(el.kind, key) {
		return fmt.Errorf("attribute %q on %q: %w", key, el.kind, ErrNotAllowed)
	}
	old, had := el.attrs[key]
	if had && cmp.Equal(old, value) {
		return nil
	}
	el.attrs[key] = value
	w.doc.record(w.op(el, Operation{Type: OpAttribute, Element: el, Key: key, OldValue: old, NewValue: value}), func() {
		if had {
			el.attrs[key] = old
		} else {
			delete(el.attrs, key)
		}
	})
	return nil
}

// RemoveAttribute удаляет атрибут. Отсутствующий атрибут не является ошибкой.
func (w *Writer) RemoveAttribute(el *Element, key string) error {
	if err := w.check(); err != nil {
		return err
	}
	old, had := el.attrs[key]
	if !had {
		return nil
	}
	delete(el.attrs, key)
	w.doc.record(w.op(el, Operation{Type: OpAttribute, Element: el, Key: key, OldValue: old}), func() {
		el.attrs[key] = old
	})
	return nil
}

// InsertElement вставляет отсоединенный элемент в позицию.
func (w *Writer) InsertElement(el *Element, pos Position) error {
	if err := w.check(); err != nil {
		return err
	}
	switch {
	case el.parent != nil || el == w.doc.root:
		return ErrAttached
	case !pos.valid():
		return ErrBadPosition
	case el.IsAncestorOf(pos.Parent):
		return ErrCycle
	}
	if !w.doc.schema.CheckChild(pos.Parent.Context(), el.kind) {
		return fmt.Errorf("%q into %q: %w", el.kind, pos.Parent.kind, ErrNotAllowed)
	}

	parent := pos.Parent
	parent.children = slices.Insert(parent.children, pos.Offset, el)
	el.parent = parent
	w.doc.record(w.op(parent, Operation{Type: OpInsert, Element: el, Parent: parent, Index: pos.Offset}), func() {
		parent.children = slices.Delete(parent.children, pos.Offset, pos.Offset+1)
		el.parent = nil
	})
	return nil
}

// AppendChild вставляет элемент в конец parent.
func (w *Writer) AppendChild(child, parent *Element) error {
	return w.InsertElement(child, EndOf(parent))
}

// Remove отсоединяет элемент от родителя.
func (w *Writer) Remove(el *Element) error {
	if err := w.check(); err != nil {
		return err
	}
	parent := el.parent
	if parent == nil {
		return ErrDetached
	}
	idx := el.Index()
	parent.children = slices.Delete(parent.children, idx, idx+1)
	el.parent = nil
	w.doc.record(w.op(parent, Operation{Type: OpRemove, Element: el, Parent: parent, Index: idx}), func() {
		parent.children = slices.Insert(parent.children, idx, el)
		el.parent = parent
	})
	return nil
}

// SetSelection меняет выделение документа.
func (w *Writer) SetSelection(sel Selection) error {
	if err := w.check(); err != nil {
		return err
	}
	prev, prevMoved := w.doc.selection, w.doc.tx.selMoved
	w.doc.selection = sel
	w.doc.tx.selMoved = true
	w.doc.record(Operation{}, func() {
		w.doc.selection = prev
		w.doc.tx.selMoved = prevMoved
	})
	return nil
}

func (w *Writer) check() error {
	if w.doc.tx == nil {
		return ErrNoTransaction
	}
	return nil
}

// op возвращает пустую операцию, если anchor не присоединен к документу.
func (w *Writer) op(anchor *Element, op Operation) Operation {
	if !w.doc.Contains(anchor) {
		return Operation{}
	}
	return op
}
