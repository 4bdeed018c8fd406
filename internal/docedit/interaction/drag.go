package interaction

import "github.com/aisa-it/docedit/internal/docedit/view"

// Bounds необязательные границы значения.
type Bounds struct {
	Min *float64
	Max *float64
}

func (b Bounds) Clamp(v float64) float64 {
	if b.Min != nil && v < *b.Min {
		v = *b.Min
	}
	if b.Max != nil && v > *b.Max {
		v = *b.Max
	}
	return v
}

// MoveDrag перемещение изображения внутри абсолютно позиционированного контейнера.
// Значение команды формирует ValueFunc из накопленных left и top.
type MoveDrag struct {
	CommandName    string
	ContainerClass string
	Left, Top      Bounds
	ValueFunc      func(left, top string) any

	left, top float64
}

func (d *MoveDrag) Command() string { return d.CommandName }

func (d *MoveDrag) Container(target *view.Node) *view.Node {
	if target.Name() != "img" {
		return nil
	}
	parent := target.Parent()
	if parent == nil || !parent.HasClass(d.ContainerClass) {
		return nil
	}
	return parent
}

func (d *MoveDrag) Begin(container *view.Node, layout Layout) {
	d.left, d.top = layout.Offset(container)
}

// Step накапливает смещение без ограничения, ограничение применяется к отдаваемому значению.
func (d *MoveDrag) Step(dx, dy float64) any {
	d.left += dx
	d.top += dy
	return d.ValueFunc(Px(d.Left.Clamp(d.left)), Px(d.Top.Clamp(d.top)))
}

// ResizeDrag изменение ширины контейнера изображения.
type ResizeDrag struct {
	CommandName   string
	ContainerName string
	Width         Bounds

	width float64
}

func (d *ResizeDrag) Command() string { return d.CommandName }

func (d *ResizeDrag) Container(target *view.Node) *view.Node {
	if target.Name() != d.ContainerName {
		return nil
	}
	return target
}

func (d *ResizeDrag) Begin(container *view.Node, layout Layout) {
	d.width = layout.Width(container)
}

func (d *ResizeDrag) Step(dx, _ float64) any {
	d.width += dx
	return Px(d.Width.Clamp(d.width))
}
