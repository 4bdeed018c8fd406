// Пакет imagezindex добавляет изображению уровень наложения относительно текста.
// Набор уровней читается из параметра zindexes, уровень по умолчанию в разметке не отображается.
package imagezindex

import (
	"log/slog"
	"slices"

	"github.com/aisa-it/docedit/internal/docedit/command"
	"github.com/aisa-it/docedit/internal/docedit/config"
	"github.com/aisa-it/docedit/internal/docedit/conversion"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/plugins/image"
	"github.com/aisa-it/docedit/internal/docedit/schema"
)

const (
	Key         = "imageZIndex"
	CommandName = "imageZIndex"
)

type Plugin struct{}

func (Plugin) Name() string { return "ImageZIndex" }

func (Plugin) Init(e *editor.Editor) error {
	if err := e.Schema.Extend(image.Kind, schema.Definition{AllowAttributes: []string{Key}}); err != nil {
		return err
	}

	levels := config.NormalizeNamed("zindex", e.Options().ZIndexes, config.BuiltinZIndexes)
	values := make([]conversion.NamedClass, 0, len(levels))
	for _, l := range levels {
		values = append(values, conversion.NamedClass{Name: l.Name, ClassName: l.ClassName})
	}
	e.Conversion.ClassAttribute(conversion.ClassDef{
		Model:  image.Kind,
		Key:    Key,
		View:   "figure",
		Values: values,
	})

	return e.Commands.Add(NewCommand(e, levels))
}

// Command меняет уровень наложения выделенного изображения.
type Command struct {
	command.Base
	editor       *editor.Editor
	levels       []config.NamedOption
	defaultLevel string
}

func NewCommand(e *editor.Editor, levels []config.NamedOption) *Command {
	return &Command{
		Base:         command.NewBase(CommandName),
		editor:       e,
		levels:       levels,
		defaultLevel: config.DefaultName(levels),
	}
}

// Levels возвращает нормализованный набор уровней.
func (c *Command) Levels() []config.NamedOption { return c.levels }

func (c *Command) known(name string) bool {
	return slices.ContainsFunc(c.levels, func(o config.NamedOption) bool { return o.Name == name })
}

func (c *Command) Refresh() {
	el := c.editor.SelectedElement(image.Kind)
	if el == nil {
		c.SetState(command.Disabled)
		return
	}
	var value any = c.defaultLevel
	if v, ok := el.Attribute(Key); ok {
		name, _ := v.(string)
		value = name
		if !c.known(name) {
			value = false
		}
	}
	if value == "" {
		value = false
	}
	c.SetState(command.State{IsEnabled: c.editor.Schema.IsAttributeAllowed(image.Kind, Key), Value: value})
}

// Execute устанавливает уровень по имени. Уровень по умолчанию удаляет атрибут.
func (c *Command) Execute(opts command.Options) error {
	el := c.editor.SelectedElement(image.Kind)
	if el == nil {
		return nil
	}
	name, _ := opts.Value.(string)
	if name != "" && !c.known(name) {
		slog.Warn("Unknown image zindex", "name", name)
		return nil
	}
	return c.editor.Model.Change(func(w *model.Writer) error {
		if name == "" || name == c.defaultLevel {
			return w.RemoveAttribute(el, Key)
		}
		return w.SetAttribute(el, Key, name)
	})
}
