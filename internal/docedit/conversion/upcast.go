package conversion

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/schema"
	"github.com/aisa-it/docedit/internal/docedit/view"
)

// UpcastData описывает один узел представления при разборе.
type UpcastData struct {
	ViewItem *view.Node
	// Parent элемент модели, в который вставляется результат.
	Parent *model.Element
	// ModelElement создается конвертером элемента, атрибутные конвертеры дополняют его.
	ModelElement *model.Element
	// SkipChildren запрещает разбор потомков узла представления.
	SkipChildren bool
}

// UpcastAPI доступ конвертера к модели и учету маркеров.
type UpcastAPI struct {
	Writer     *model.Writer
	Schema     *schema.Registry
	Consumable *ViewConsumable
}

type UpcastConverter func(data *UpcastData, api *UpcastAPI)

// Upcast реестр конвертеров представление → модель.
type Upcast struct {
	converters registry[UpcastConverter]
	// OnDropped вызывается для узлов, у которых остались непреобразованные маркеры.
	OnDropped func(n *view.Node, markers []string)
}

// NewUpcast создает реестр со встроенным конвертером текста.
func NewUpcast() *Upcast {
	u := &Upcast{converters: newRegistry[UpcastConverter]()}
	u.On(TextKey, PriorityLowest, func(data *UpcastData, api *UpcastAPI) {
		if !api.Schema.CheckChild(data.Parent.Context(), schema.Text) {
			return
		}
		if !api.Consumable.Consume(data.ViewItem) {
			return
		}
		data.ModelElement = api.Writer.CreateText(data.ViewItem.Text())
	})
	return u
}

func (u *Upcast) On(key string, p Priority, fn UpcastConverter) {
	u.converters.add(key, p, fn)
}

// Convert разбирает потомков узла представления в элемент parent. Выполняется внутри транзакции.
func (u *Upcast) Convert(w *model.Writer, root *view.Node, parent *model.Element) {
	api := &UpcastAPI{
		Writer:     w,
		Schema:     w.Document().Schema(),
		Consumable: NewViewConsumable(),
	}
	api.Consumable.Consume(root)
	u.convertChildren(root, parent, api)
}

func (u *Upcast) convertChildren(n *view.Node, parent *model.Element, api *UpcastAPI) {
	for _, c := range n.Children() {
		u.convertNode(c, parent, api)
	}
}

func (u *Upcast) convertNode(n *view.Node, parent *model.Element, api *UpcastAPI) {
	if !api.Consumable.Test(n) {
		return
	}
	data := &UpcastData{ViewItem: n, Parent: parent}

	if n.IsText() {
		for _, fn := range u.converters.lookup(TextKey) {
			fn(data, api)
		}
		if data.ModelElement == nil {
			if strings.TrimSpace(n.Text()) != "" {
				u.dropped(n, []string{"text"})
			}
			return
		}
		if err := api.Writer.AppendChild(data.ModelElement, parent); err != nil {
			slog.Debug("Text dropped", "parent", parent.Kind(), "err", err)
		}
		return
	}

	for _, fn := range u.converters.lookup(ElementKey(n.Name()), ElementKey("")) {
		fn(data, api)
	}

	target := parent
	if data.ModelElement != nil {
		if err := api.Writer.AppendChild(data.ModelElement, parent); err != nil {
			if !errors.Is(err, model.ErrNotAllowed) {
				slog.Warn("Insert converted element", "kind", data.ModelElement.Kind(), "err", err)
			}
			slog.Debug("Element not allowed, unwrapping", "kind", data.ModelElement.Kind(), "parent", parent.Kind())
		} else {
			target = data.ModelElement
		}
	}
	api.Consumable.Consume(n)

	if rest := api.Consumable.Unconsumed(n); len(rest) > 0 {
		u.dropped(n, rest)
	}
	if !data.SkipChildren {
		u.convertChildren(n, target, api)
	}
}

func (u *Upcast) dropped(n *view.Node, markers []string) {
	slog.Debug("View markers dropped", "node", n.Name(), "markers", markers)
	if u.OnDropped != nil {
		u.OnDropped(n, markers)
	}
}
