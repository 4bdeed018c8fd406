// Пакет imageposition добавляет изображению атрибут смещения {left, top},
// представленный inline-стилями контейнера, и перемещение указателем.
package imageposition

import (
	"github.com/aisa-it/docedit/internal/docedit/command"
	"github.com/aisa-it/docedit/internal/docedit/conversion"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/interaction"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/plugins/image"
	"github.com/aisa-it/docedit/internal/docedit/schema"
)

const (
	Key         = "imagePosition"
	CommandName = "imagePosition"
)

// Position смещение контейнера изображения в CSS-длинах.
type Position struct {
	Left string `json:"left"`
	Top  string `json:"top"`
}

func (p Position) IsZero() bool { return p.Left == "" && p.Top == "" }

// PositionOf приводит значение команды к Position. Второй результат false для пустого или неподходящего значения.
func PositionOf(v any) (Position, bool) {
	var p Position
	switch t := v.(type) {
	case Position:
		p = t
	case *Position:
		if t != nil {
			p = *t
		}
	case map[string]any:
		p.Left, _ = t["left"].(string)
		p.Top, _ = t["top"].(string)
	case map[string]string:
		p.Left, p.Top = t["left"], t["top"]
	}
	return p, !p.IsZero()
}

type Plugin struct{}

func (Plugin) Name() string { return "ImagePosition" }

func (Plugin) Init(e *editor.Editor) error {
	if err := e.Schema.Extend(image.Kind, schema.Definition{AllowAttributes: []string{Key}}); err != nil {
		return err
	}

	e.Conversion.AttributeToStyle(conversion.StyleDef{
		Model:  image.Kind,
		Key:    Key,
		View:   "figure",
		Styles: []string{"left", "top"},
		ToStyles: func(v any) map[string]string {
			p, ok := PositionOf(v)
			if !ok {
				return nil
			}
			return map[string]string{"left": p.Left, "top": p.Top}
		},
		FromStyles: func(styles map[string]string) any {
			left, top := styles["left"], styles["top"]
			if left == "" || top == "" {
				return nil
			}
			return Position{Left: left, Top: top}
		},
	})

	if err := e.Commands.Add(NewCommand(e)); err != nil {
		return err
	}

	opts := e.Options().Position
	e.Pointer.Add(interaction.NewTracker(&interaction.MoveDrag{
		CommandName:    CommandName,
		ContainerClass: image.AbsoluteClass,
		Left:           interaction.Bounds{Min: opts.MinLeft, Max: opts.MaxLeft},
		Top:            interaction.Bounds{Min: opts.MinTop, Max: opts.MaxTop},
		ValueFunc: func(left, top string) any {
			return Position{Left: left, Top: top}
		},
	}, e, e.Layout()))
	return nil
}

// Command устанавливает или удаляет смещение выделенного изображения.
type Command struct {
	command.Base
	editor *editor.Editor
}

func NewCommand(e *editor.Editor) *Command {
	return &Command{Base: command.NewBase(CommandName), editor: e}
}

func (c *Command) Refresh() {
	el := c.editor.SelectedElement(image.Kind)
	if el == nil {
		c.SetState(command.Disabled)
		return
	}
	state := command.State{IsEnabled: c.editor.Schema.IsAttributeAllowed(el.Kind(), Key), Value: false}
	if v, ok := el.Attribute(Key); ok {
		state.Value = v
	}
	c.SetState(state)
}

// Execute с пустым значением удаляет атрибут.
func (c *Command) Execute(opts command.Options) error {
	el := c.editor.SelectedElement(image.Kind)
	if el == nil {
		return nil
	}
	p, ok := PositionOf(opts.Value)
	return c.editor.Model.Change(func(w *model.Writer) error {
		if !ok {
			return w.RemoveAttribute(el, Key)
		}
		return w.SetAttribute(el, Key, p)
	})
}
