// Пакет simplebox добавляет блок с заголовком и описанием.
package simplebox

import (
	"github.com/aisa-it/docedit/internal/docedit/command"
	"github.com/aisa-it/docedit/internal/docedit/conversion"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/schema"
)

const (
	Kind            = "simpleBox"
	TitleKind       = "simpleBoxTitle"
	DescriptionKind = "simpleBoxDescription"
	CommandName     = "insertSimpleBox"
)

type Plugin struct{}

func (Plugin) Name() string { return "SimpleBox" }

func (Plugin) Init(e *editor.Editor) error {
	if err := defineSchema(e.Schema); err != nil {
		return err
	}
	defineConverters(e.Conversion)
	return e.Commands.Add(NewCommand(e))
}

func defineSchema(s *schema.Registry) error {
	if err := s.Register(Kind, schema.Definition{
		AllowWhere: schema.Block,
		IsObject:   true,
	}); err != nil {
		return err
	}
	if err := s.Register(TitleKind, schema.Definition{
		AllowIn:        []string{Kind},
		AllowContentOf: schema.Block,
		IsLimit:        true,
	}); err != nil {
		return err
	}
	if err := s.Register(DescriptionKind, schema.Definition{
		AllowIn:        []string{Kind},
		AllowContentOf: schema.Root,
		IsLimit:        true,
	}); err != nil {
		return err
	}

	// Блок не вкладывается в описание другого блока.
	s.AddChildCheck(func(ctx schema.Context, child string) (bool, bool) {
		if ctx.Last() == DescriptionKind && child == Kind {
			return false, true
		}
		return false, false
	})
	return nil
}

func defineConverters(c *conversion.Conversion) {
	c.ElementToElement(conversion.ElementDef{Model: Kind, View: "section", Classes: []string{"simple-box"}})
	c.ElementToElement(conversion.ElementDef{Model: TitleKind, View: "h1", Classes: []string{"simple-box-title"}})
	c.ElementToElement(conversion.ElementDef{Model: DescriptionKind, View: "div", Classes: []string{"simple-box-description"}})
}

// Command вставляет пустой блок и переводит выделение в начало заголовка.
type Command struct {
	command.Base
	editor *editor.Editor
}

func NewCommand(e *editor.Editor) *Command {
	return &Command{Base: command.NewBase(CommandName), editor: e}
}

func (c *Command) Refresh() {
	_, ok := c.editor.FindInsertionPosition(Kind)
	c.SetState(command.State{IsEnabled: ok})
}

func (c *Command) Execute(command.Options) error {
	pos, ok := c.editor.FindInsertionPosition(Kind)
	if !ok {
		return nil
	}
	return c.editor.Model.Change(func(w *model.Writer) error {
		box := w.CreateElement(Kind, nil)
		title := w.CreateElement(TitleKind, nil)
		description := w.CreateElement(DescriptionKind, nil)
		paragraph := w.CreateElement("paragraph", nil)

		if err := w.InsertElement(box, pos); err != nil {
			return err
		}
		if err := w.AppendChild(title, box); err != nil {
			return err
		}
		if err := w.AppendChild(description, box); err != nil {
			return err
		}
		if err := w.AppendChild(paragraph, description); err != nil {
			return err
		}
		return w.SetSelection(model.Collapsed(model.StartOf(title)))
	})
}
