package image

import (
	"log/slog"
	"slices"

	"github.com/aisa-it/docedit/internal/docedit/command"
	"github.com/aisa-it/docedit/internal/docedit/config"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/model"
)

// Source параметры вставляемого изображения.
type Source struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// InsertCommand вставляет изображение и выделяет его.
type InsertCommand struct {
	command.Base
	editor *editor.Editor
}

func NewInsertCommand(e *editor.Editor) *InsertCommand {
	return &InsertCommand{Base: command.NewBase("insertImage"), editor: e}
}

func (c *InsertCommand) Refresh() {
	_, ok := c.editor.FindInsertionPosition(Kind)
	c.SetState(command.State{IsEnabled: ok})
}

// Execute принимает строку с адресом или Source. Пустой адрес ничего не вставляет.
func (c *InsertCommand) Execute(opts command.Options) error {
	src := sourceOf(opts.Value)
	if src.Src == "" {
		slog.Debug("Insert image without src, skip")
		return nil
	}
	pos, ok := c.editor.FindInsertionPosition(Kind)
	if !ok {
		return nil
	}
	return c.editor.Model.Change(func(w *model.Writer) error {
		attrs := map[string]any{"src": src.Src}
		if src.Alt != "" {
			attrs["alt"] = src.Alt
		}
		img := w.CreateElement(Kind, attrs)
		if err := w.InsertElement(img, pos); err != nil {
			return err
		}
		return w.SetSelection(model.On(img))
	})
}

func sourceOf(v any) Source {
	switch s := v.(type) {
	case string:
		return Source{Src: s}
	case Source:
		return s
	case map[string]any:
		src, _ := s["src"].(string)
		alt, _ := s["alt"].(string)
		return Source{Src: src, Alt: alt}
	}
	return Source{}
}

// StyleCommand меняет стиль выделенного изображения.
type StyleCommand struct {
	command.Base
	editor       *editor.Editor
	styles       []config.NamedOption
	defaultStyle string
}

func NewStyleCommand(e *editor.Editor, styles []config.NamedOption) *StyleCommand {
	return &StyleCommand{
		Base:         command.NewBase(StyleKey),
		editor:       e,
		styles:       styles,
		defaultStyle: config.DefaultName(styles),
	}
}

func (c *StyleCommand) known(name string) bool {
	return slices.ContainsFunc(c.styles, func(o config.NamedOption) bool { return o.Name == name })
}

func (c *StyleCommand) Refresh() {
	el := c.editor.SelectedElement(Kind)
	if el == nil {
		c.SetState(command.Disabled)
		return
	}
	state := command.State{IsEnabled: c.editor.Schema.IsAttributeAllowed(Kind, StyleKey), Value: c.defaultStyle}
	if v, ok := el.Attribute(StyleKey); ok {
		name, _ := v.(string)
		state.Value = name
		if !c.known(name) {
			state.Value = false
		}
	}
	if state.Value == "" {
		state.Value = false
	}
	c.SetState(state)
}

// Execute устанавливает стиль по имени. Стиль по умолчанию удаляет атрибут, неизвестное имя игнорируется.
func (c *StyleCommand) Execute(opts command.Options) error {
	el := c.editor.SelectedElement(Kind)
	if el == nil {
		return nil
	}
	name, _ := opts.Value.(string)
	if name != "" && !c.known(name) {
		slog.Warn("Unknown image style", "name", name)
		return nil
	}
	return c.editor.Model.Change(func(w *model.Writer) error {
		if name == "" || name == c.defaultStyle {
			return w.RemoveAttribute(el, StyleKey)
		}
		return w.SetAttribute(el, StyleKey, name)
	})
}
