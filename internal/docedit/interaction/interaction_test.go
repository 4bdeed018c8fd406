package interaction

import (
	"testing"

	"github.com/aisa-it/docedit/internal/docedit/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	selected []*view.Node
	executed []any
	reject   bool
}

func (h *fakeHost) Select(n *view.Node) bool {
	if h.reject {
		return false
	}
	h.selected = append(h.selected, n)
	return true
}

func (h *fakeHost) Execute(_ string, value any) error {
	h.executed = append(h.executed, value)
	return nil
}

func figureWithImage(absolute bool) (*view.Node, *view.Node) {
	fig := view.NewElement("figure")
	fig.AddClass("image")
	if absolute {
		fig.AddClass("image-style-absolute")
	}
	fig.SetStyle("left", "10px")
	fig.SetStyle("top", "5px")
	fig.SetStyle("width", "100px")
	img := view.NewElement("img")
	fig.AppendChild(img)
	return fig, img
}

func ptr(v float64) *float64 { return &v }

func TestResizeDrag(t *testing.T) {
	fig, _ := figureWithImage(false)
	host := &fakeHost{}
	tr := NewTracker(&ResizeDrag{CommandName: "imageSize", ContainerName: "figure", Width: Bounds{Min: ptr(50)}}, host, nil)

	assert.False(t, tr.Handle(PointerEvent{Type: MouseMove, MovementX: 10}))
	assert.False(t, tr.Handle(PointerEvent{Type: MouseDown, Buttons: 2, Target: fig}))
	require.True(t, tr.Handle(PointerEvent{Type: MouseDown, Buttons: PrimaryButton, Target: fig}))
	assert.Equal(t, Tracking, tr.State())
	assert.Equal(t, []*view.Node{fig}, host.selected)

	for _, dx := range []float64{10, -30, -40, -20, 15.5} {
		assert.True(t, tr.Handle(PointerEvent{Type: MouseMove, MovementX: dx, MovementY: 99}))
	}
	// 110, 80, 50 (40), 50 (20), 50 (35.5)
	assert.Equal(t, []any{"110px", "80px", "50px", "50px", "50px"}, host.executed)

	assert.False(t, tr.Handle(PointerEvent{Type: DragStart}))
	assert.True(t, tr.Handle(PointerEvent{Type: MouseUp}))
	assert.Equal(t, Idle, tr.State())
	assert.False(t, tr.Handle(PointerEvent{Type: MouseMove, MovementX: 10}))
	assert.Len(t, host.executed, 5)
}

func TestMoveDrag(t *testing.T) {
	type position struct{ Left, Top string }
	newDrag := func() *MoveDrag {
		return &MoveDrag{
			CommandName:    "imagePosition",
			ContainerClass: "image-style-absolute",
			Left:           Bounds{Min: ptr(0)},
			ValueFunc:      func(l, t string) any { return position{l, t} },
		}
	}

	t.Run("absolute container", func(t *testing.T) {
		fig, img := figureWithImage(true)
		host := &fakeHost{}
		tr := NewTracker(newDrag(), host, StyleLayout{})

		assert.False(t, tr.Handle(PointerEvent{Type: MouseDown, Buttons: PrimaryButton, Target: fig}))
		require.True(t, tr.Handle(PointerEvent{Type: MouseDown, Buttons: PrimaryButton, Target: img}))
		assert.Equal(t, []*view.Node{fig}, host.selected)

		tr.Handle(PointerEvent{Type: MouseMove, MovementX: 5, MovementY: 1})
		tr.Handle(PointerEvent{Type: MouseMove, MovementX: -20, MovementY: 2.5})
		tr.Handle(PointerEvent{Type: MouseMove, MovementX: 3, MovementY: 0})
		assert.Equal(t, []any{
			position{"15px", "6px"},
			position{"0px", "8.5px"},
			position{"0px", "8.5px"},
		}, host.executed)

		assert.True(t, tr.Handle(PointerEvent{Type: MouseLeave}))
		assert.Equal(t, Idle, tr.State())
	})

	t.Run("not absolute", func(t *testing.T) {
		_, img := figureWithImage(false)
		host := &fakeHost{}
		tr := NewTracker(newDrag(), host, nil)
		assert.False(t, tr.Handle(PointerEvent{Type: MouseDown, Buttons: PrimaryButton, Target: img}))
		assert.Empty(t, host.selected)
	})

	t.Run("selection rejected", func(t *testing.T) {
		_, img := figureWithImage(true)
		tr := NewTracker(newDrag(), &fakeHost{reject: true}, nil)
		assert.False(t, tr.Handle(PointerEvent{Type: MouseDown, Buttons: PrimaryButton, Target: img}))
		assert.Equal(t, Idle, tr.State())
	})
}

func TestObserverDispatch(t *testing.T) {
	fig, img := figureWithImage(true)
	host := &fakeHost{}
	o := NewObserver()
	o.Add(NewTracker(&ResizeDrag{CommandName: "imageSize", ContainerName: "figure"}, host, nil))
	o.Add(NewTracker(&MoveDrag{CommandName: "imagePosition", ContainerClass: "image-style-absolute", ValueFunc: func(l, t string) any { return l + "," + t }}, host, nil))

	// Нажатие на изображение запускает только перемещение.
	assert.True(t, o.Dispatch(PointerEvent{Type: MouseDown, Buttons: PrimaryButton, Target: img}))
	assert.True(t, o.Dispatch(PointerEvent{Type: MouseMove, MovementX: 1, MovementY: 1}))
	assert.Equal(t, []any{"11px,6px"}, host.executed)
	assert.True(t, o.Dispatch(PointerEvent{Type: MouseUp}))
	assert.False(t, o.Dispatch(PointerEvent{Type: MouseUp}))

	assert.True(t, o.Dispatch(PointerEvent{Type: MouseDown, Buttons: PrimaryButton, Target: fig}))
	assert.True(t, o.Dispatch(PointerEvent{Type: MouseMove, MovementX: -1}))
	assert.Equal(t, []any{"11px,6px", "99px"}, host.executed)
}

func TestPx(t *testing.T) {
	assert.Equal(t, "50px", Px(50))
	assert.Equal(t, "12.5px", Px(12.5))
	assert.Equal(t, "-3px", Px(-3))
	assert.Equal(t, 0.0, stylePx(view.NewElement("figure"), "width"))
}
