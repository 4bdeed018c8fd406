// Пакет interaction преобразует поток событий указателя в дискретные выполнения команд.
//
// Каждое взаимодействие (перемещение, изменение размера) является независимым автоматом Idle → Tracking → Idle.
// В состоянии Tracking каждое событие перемещения накапливает смещение и сразу выполняет команду.
// Отпускание кнопки или уход указателя с поверхности только завершают отслеживание, без изменений модели.
package interaction

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/aisa-it/docedit/internal/docedit/view"
)

type EventType string

const (
	MouseDown  EventType = "mousedown"
	MouseMove  EventType = "mousemove"
	MouseUp    EventType = "mouseup"
	MouseLeave EventType = "mouseleave"
	DragStart  EventType = "dragstart"
)

// PrimaryButton значение Buttons при нажатой основной кнопке.
const PrimaryButton = 1

// PointerEvent сырое событие указателя в терминах DOM.
type PointerEvent struct {
	Type      EventType  `json:"type"`
	Buttons   int        `json:"buttons"`
	MovementX float64    `json:"movement_x"`
	MovementY float64    `json:"movement_y"`
	Target    *view.Node `json:"-"`
}

// Host сторона редактора, доступная взаимодействиям.
type Host interface {
	// Select выделяет элемент модели, связанный с узлом представления.
	Select(target *view.Node) bool
	Execute(command string, value any) error
}

// Layout сообщает начальные метрики узла представления.
type Layout interface {
	Offset(n *view.Node) (left, top float64)
	Width(n *view.Node) float64
}

// StyleLayout читает метрики из inline-стилей в пикселях. Отсутствующее значение равно нулю.
type StyleLayout struct{}

func (StyleLayout) Offset(n *view.Node) (float64, float64) {
	return stylePx(n, "left"), stylePx(n, "top")
}

func (StyleLayout) Width(n *view.Node) float64 {
	return stylePx(n, "width")
}

func stylePx(n *view.Node, prop string) float64 {
	v, ok := n.Style(prop)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0
	}
	return f
}

// Px форматирует длину в пикселях.
func Px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// Drag описывает конкретное взаимодействие перетаскивания.
type Drag interface {
	Command() string
	// Container возвращает узел, который нужно выделить и измерить, или nil, если цель не подходит.
	Container(target *view.Node) *view.Node
	// Begin запоминает начальную метрику.
	Begin(container *view.Node, layout Layout)
	// Step накапливает смещение и возвращает значение для команды.
	Step(dx, dy float64) any
}

// Tracker автомат состояний одного взаимодействия.
type Tracker struct {
	drag   Drag
	state  State
	host   Host
	layout Layout
}

func NewTracker(drag Drag, host Host, layout Layout) *Tracker {
	if layout == nil {
		layout = StyleLayout{}
	}
	return &Tracker{drag: drag, host: host, layout: layout}
}

func (t *Tracker) State() State { return t.state }

// Handle обрабатывает событие. Возвращает true, если событие относится к взаимодействию.
func (t *Tracker) Handle(evt PointerEvent) bool {
	switch evt.Type {
	case MouseDown:
		if evt.Buttons != PrimaryButton || evt.Target == nil {
			return false
		}
		container := t.drag.Container(evt.Target)
		if container == nil || !t.host.Select(container) {
			return false
		}
		t.drag.Begin(container, t.layout)
		t.state = Tracking
		return true
	case MouseMove:
		if t.state != Tracking {
			return false
		}
		value := t.drag.Step(evt.MovementX, evt.MovementY)
		if err := t.host.Execute(t.drag.Command(), value); err != nil {
			slog.Warn("Execute command from pointer", "command", t.drag.Command(), "err", err)
		}
		return true
	case MouseUp, MouseLeave:
		if t.state != Tracking {
			return false
		}
		t.state = Idle
		return true
	default:
		return false
	}
}

// Observer раздает события всем зарегистрированным взаимодействиям.
type Observer struct {
	trackers []*Tracker
}

func NewObserver() *Observer {
	return &Observer{}
}

func (o *Observer) Add(t *Tracker) {
	o.trackers = append(o.trackers, t)
}

// Dispatch передает событие каждому взаимодействию. Возвращает true, если хотя бы одно его обработало.
func (o *Observer) Dispatch(evt PointerEvent) bool {
	handled := false
	for _, t := range o.trackers {
		if t.Handle(evt) {
			handled = true
		}
	}
	if !handled {
		slog.Debug("Pointer event ignored", "type", evt.Type)
	}
	return handled
}
