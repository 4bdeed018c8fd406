// Пакет placeholder добавляет строчный именованный маркер подстановки вида {name}.
package placeholder

import (
	"slices"

	"github.com/aisa-it/docedit/internal/docedit/command"
	"github.com/aisa-it/docedit/internal/docedit/conversion"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/schema"
	"github.com/aisa-it/docedit/internal/docedit/view"
)

const (
	Kind        = "placeholder"
	NameKey     = "name"
	CommandName = "placeholder"
	className   = "placeholder"
)

type Plugin struct{}

func (Plugin) Name() string { return "Placeholder" }

func (Plugin) Init(e *editor.Editor) error {
	if err := e.Schema.Register(Kind, schema.Definition{
		AllowWhere:      schema.Text,
		IsInline:        true,
		IsObject:        true,
		AllowAttributes: []string{NameKey},
	}); err != nil {
		return err
	}
	defineConverters(e.Conversion)
	return e.Commands.Add(NewCommand(e, e.Options().PlaceholderTypes))
}

// Label текст маркера в представлении.
func Label(name string) string {
	return "{" + name + "}"
}

func defineConverters(c *conversion.Conversion) {
	c.Downcast.On(conversion.InsertKey(Kind), conversion.PriorityNormal, func(data *conversion.DowncastData, api *conversion.DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		span := view.NewElement("span")
		span.AddClass(className)
		api.Insert(data.Element, span)
	})

	// Текст маркера целиком определяется именем и перестраивается при каждом изменении.
	c.Downcast.On(conversion.AttributeKey(NameKey, Kind), conversion.PriorityNormal, func(data *conversion.DowncastData, api *conversion.DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		span := api.Mapper.ToView(data.Element)
		for _, ch := range span.Children() {
			ch.Remove()
		}
		name, _ := data.NewValue.(string)
		span.AppendChild(view.NewText(Label(name)))
	})

	c.Upcast.On(conversion.ElementKey("span"), conversion.PriorityNormal, func(data *conversion.UpcastData, api *conversion.UpcastAPI) {
		span := data.ViewItem
		if data.ModelElement != nil || !span.HasClass(className) {
			return
		}
		if !api.Consumable.Test(span, conversion.NameMarker, conversion.ClassMarker(className)) {
			return
		}
		api.Consumable.ConsumeSubtree(span)
		data.ModelElement = api.Writer.CreateElement(Kind, map[string]any{NameKey: nameFromLabel(span.TextContent())})
		data.SkipChildren = true
	})
}

// nameFromLabel отбрасывает первый и последний символ метки.
func nameFromLabel(label string) string {
	r := []rune(label)
	if len(r) < 2 {
		return ""
	}
	return string(r[1 : len(r)-1])
}

// Command вставляет маркер в позицию фокуса и выделяет его.
type Command struct {
	command.Base
	editor *editor.Editor
	types  []string
}

func NewCommand(e *editor.Editor, types []string) *Command {
	return &Command{Base: command.NewBase(CommandName), editor: e, types: slices.Clone(types)}
}

// Types возвращает доступные имена маркеров.
func (c *Command) Types() []string { return slices.Clone(c.types) }

func (c *Command) Refresh() {
	c.SetState(command.State{IsEnabled: c.editor.CanInsertAtFocus(Kind)})
}

// Execute принимает имя маркера. Пустое имя ничего не вставляет.
func (c *Command) Execute(opts command.Options) error {
	name, _ := opts.Value.(string)
	if name == "" {
		return nil
	}
	focus := c.editor.Model.Selection().Focus()
	if focus.Parent == nil {
		return nil
	}
	return c.editor.Model.Change(func(w *model.Writer) error {
		el := w.CreateElement(Kind, map[string]any{NameKey: name})
		if err := w.InsertElement(el, focus); err != nil {
			return err
		}
		return w.SetSelection(model.On(el))
	})
}
