// Пакет imagesize добавляет изображению атрибут ширины, представленный стилем width контейнера,
// и изменение ширины указателем.
package imagesize

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
	Key         = "imageSize"
	CommandName = "imageSize"
)

type Plugin struct{}

func (Plugin) Name() string { return "ImageSize" }

func (Plugin) Init(e *editor.Editor) error {
	if err := e.Schema.Extend(image.Kind, schema.Definition{AllowAttributes: []string{Key}}); err != nil {
		return err
	}

	e.Conversion.AttributeToStyle(conversion.StyleDef{
		Model:  image.Kind,
		Key:    Key,
		View:   "figure",
		Styles: []string{"width"},
		ToStyles: func(v any) map[string]string {
			s, _ := v.(string)
			if s == "" {
				return nil
			}
			return map[string]string{"width": s}
		},
		FromStyles: func(styles map[string]string) any {
			if styles["width"] == "" {
				return nil
			}
			return styles["width"]
		},
	})

	if err := e.Commands.Add(NewCommand(e)); err != nil {
		return err
	}

	resize := e.Options().Resize
	bounds := interaction.Bounds{Min: &resize.MinWidth}
	if resize.MaxWidth > 0 {
		bounds.Max = &resize.MaxWidth
	}
	e.Pointer.Add(interaction.NewTracker(&interaction.ResizeDrag{
		CommandName:   CommandName,
		ContainerName: "figure",
		Width:         bounds,
	}, e, e.Layout()))
	return nil
}

// Command устанавливает или удаляет ширину выделенного изображения.
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

// Execute принимает CSS-длину. Пустое значение удаляет атрибут.
func (c *Command) Execute(opts command.Options) error {
	el := c.editor.SelectedElement(image.Kind)
	if el == nil {
		return nil
	}
	size, _ := opts.Value.(string)
	return c.editor.Model.Change(func(w *model.Writer) error {
		if size == "" {
			return w.RemoveAttribute(el, Key)
		}
		return w.SetAttribute(el, Key, size)
	})
}
