package model

import (
	"errors"
	"testing"

	"github.com/aisa-it/docedit/internal/docedit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *schema.Registry {
	t.Helper()
	s := schema.New()
	require.NoError(t, s.Register("paragraph", schema.Definition{AllowWhere: schema.Block, AllowContentOf: schema.Block}))
	require.NoError(t, s.Register("image", schema.Definition{AllowWhere: schema.Block, IsObject: true, AllowAttributes: []string{"src", "width"}}))
	return s
}

func collect(d *Document) *[]*Batch {
	var batches []*Batch
	d.OnChange(func(b *Batch) { batches = append(batches, b) })
	return &batches
}

func TestChangeEmitsSingleBatch(t *testing.T) {
	d := NewDocument(testSchema(t))
	batches := collect(d)

	var img *Element
	err := d.Change(func(w *Writer) error {
		p := w.CreateElement("paragraph", nil)
		require.NoError(t, w.AppendChild(w.CreateText("hi"), p))
		require.NoError(t, w.AppendChild(p, d.Root()))
		img = w.CreateElement("image", map[string]any{"src": "a.png", "bogus": 1})
		require.NoError(t, w.AppendChild(img, d.Root()))
		return w.SetAttribute(img, "width", "30px")
	})
	require.NoError(t, err)

	require.Len(t, *batches, 1)
	b := (*batches)[0]
	assert.Equal(t, uint64(1), b.Seq)
	require.Len(t, b.Operations, 3)
	assert.Equal(t, OpInsert, b.Operations[0].Type)
	assert.Equal(t, "paragraph", b.Operations[0].Element.Kind())
	assert.Equal(t, OpInsert, b.Operations[1].Type)
	assert.Equal(t, OpAttribute, b.Operations[2].Type)
	assert.Nil(t, b.Operations[2].OldValue)
	assert.Equal(t, "30px", b.Operations[2].NewValue)

	assert.False(t, img.HasAttribute("bogus"))
	assert.Equal(t, []string{"src", "width"}, img.AttributeKeys())
	assert.Equal(t, "hi", d.Root().Child(0).Child(0).Data())
	assert.Equal(t, []int{1}, img.Path())
	assert.Same(t, img, d.ElementAt([]int{1}))
}

func TestChangeRollbackOnError(t *testing.T) {
	d := NewDocument(testSchema(t))
	batches := collect(d)
	boom := errors.New("boom")

	err := d.Change(func(w *Writer) error {
		require.NoError(t, w.AppendChild(w.CreateElement("paragraph", nil), d.Root()))
		require.NoError(t, w.SetSelection(On(d.Root().Child(0))))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, d.Root().ChildCount())
	assert.Empty(t, *batches)
	assert.Equal(t, Collapsed(StartOf(d.Root())), d.Selection())
}

func TestChangeRollbackOnPanic(t *testing.T) {
	d := NewDocument(testSchema(t))
	batches := collect(d)

	assert.Panics(t, func() {
		_ = d.Change(func(w *Writer) error {
			require.NoError(t, w.AppendChild(w.CreateElement("paragraph", nil), d.Root()))
			panic("boom")
		})
	})
	assert.Equal(t, 0, d.Root().ChildCount())
	assert.Empty(t, *batches)

	// Документ остается пригодным для следующей транзакции.
	require.NoError(t, d.Change(func(w *Writer) error {
		return w.AppendChild(w.CreateElement("paragraph", nil), d.Root())
	}))
	assert.Len(t, *batches, 1)
}

func TestNestedChangeIsFlattened(t *testing.T) {
	d := NewDocument(testSchema(t))
	batches := collect(d)
	boom := errors.New("inner")

	err := d.Change(func(w *Writer) error {
		require.NoError(t, w.AppendChild(w.CreateElement("paragraph", nil), d.Root()))

		require.NoError(t, d.Change(func(w *Writer) error {
			return w.AppendChild(w.CreateElement("image", nil), d.Root())
		}))

		innerErr := d.Change(func(w *Writer) error {
			require.NoError(t, w.AppendChild(w.CreateElement("paragraph", nil), d.Root()))
			return boom
		})
		assert.ErrorIs(t, innerErr, boom)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, *batches, 1)
	assert.Len(t, (*batches)[0].Operations, 2)
	assert.Equal(t, 2, d.Root().ChildCount())
	assert.Equal(t, "image", d.Root().Child(1).Kind())
}

func TestWriterSchemaChecks(t *testing.T) {
	d := NewDocument(testSchema(t))

	require.NoError(t, d.Change(func(w *Writer) error {
		p := w.CreateElement("paragraph", nil)
		require.NoError(t, w.AppendChild(p, d.Root()))

		assert.ErrorIs(t, w.AppendChild(w.CreateText("x"), d.Root()), ErrNotAllowed)
		assert.ErrorIs(t, w.AppendChild(w.CreateElement("image", nil), p), ErrNotAllowed)
		assert.ErrorIs(t, w.SetAttribute(p, "src", "x"), ErrNotAllowed)
		assert.ErrorIs(t, w.AppendChild(p, d.Root()), ErrAttached)
		assert.ErrorIs(t, w.InsertElement(w.CreateElement("image", nil), Position{Parent: d.Root(), Offset: 5}), ErrBadPosition)
		assert.ErrorIs(t, w.Remove(w.CreateElement("image", nil)), ErrDetached)

		detached := w.CreateElement("paragraph", nil)
		assert.ErrorIs(t, w.InsertElement(detached, StartOf(detached)), ErrCycle)
		return nil
	}))
	assert.Equal(t, 1, d.Root().ChildCount())
}

func TestWriterOutsideTransaction(t *testing.T) {
	d := NewDocument(testSchema(t))
	var leaked *Writer
	require.NoError(t, d.Change(func(w *Writer) error {
		leaked = w
		return nil
	}))
	assert.ErrorIs(t, leaked.AppendChild(leaked.CreateElement("paragraph", nil), d.Root()), ErrNoTransaction)
}

func TestSetAttributeSameValueIsNoop(t *testing.T) {
	d := NewDocument(testSchema(t))
	var img *Element
	require.NoError(t, d.Change(func(w *Writer) error {
		img = w.CreateElement("image", map[string]any{"width": "10px"})
		return w.AppendChild(img, d.Root())
	}))
	batches := collect(d)

	require.NoError(t, d.Change(func(w *Writer) error {
		require.NoError(t, w.SetAttribute(img, "width", "10px"))
		require.NoError(t, w.RemoveAttribute(img, "src"))
		return nil
	}))
	require.Len(t, *batches, 1)
	assert.Empty(t, (*batches)[0].Operations)

	require.NoError(t, d.Change(func(w *Writer) error {
		return w.SetAttribute(img, "width", nil)
	}))
	require.Len(t, *batches, 2)
	ops := (*batches)[1].Operations
	require.Len(t, ops, 1)
	assert.Equal(t, "10px", ops[0].OldValue)
	assert.Nil(t, ops[0].NewValue)
	assert.False(t, img.HasAttribute("width"))
}

func TestSelectionResetWhenDetached(t *testing.T) {
	d := NewDocument(testSchema(t))
	var img *Element
	require.NoError(t, d.Change(func(w *Writer) error {
		img = w.CreateElement("image", nil)
		require.NoError(t, w.AppendChild(img, d.Root()))
		return w.SetSelection(On(img))
	}))
	assert.Same(t, img, d.Selection().SelectedElement())
	assert.Equal(t, Position{Parent: d.Root(), Offset: 1}, d.Selection().InsertionPosition())

	batches := collect(d)
	require.NoError(t, d.Change(func(w *Writer) error {
		return w.Remove(img)
	}))
	assert.Nil(t, d.Selection().SelectedElement())
	assert.Equal(t, Collapsed(StartOf(d.Root())), d.Selection())
	require.Len(t, *batches, 1)
	assert.True(t, (*batches)[0].SelectionChanged)
}

func TestSelectionNone(t *testing.T) {
	var s Selection
	assert.True(t, s.IsNone())
	assert.False(t, Collapsed(Position{Parent: newElement(schema.Root)}).IsNone())
}

func TestUnsubscribe(t *testing.T) {
	d := NewDocument(testSchema(t))
	calls := 0
	off := d.OnChange(func(*Batch) { calls++ })
	require.NoError(t, d.Change(func(*Writer) error { return nil }))
	off()
	require.NoError(t, d.Change(func(*Writer) error { return nil }))
	assert.Equal(t, 1, calls)
}
