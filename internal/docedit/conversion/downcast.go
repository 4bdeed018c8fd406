package conversion

import (
	"log/slog"

	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/schema"
	"github.com/aisa-it/docedit/internal/docedit/view"
)

// DowncastData описывает одно изменение модели, передаваемое конвертерам.
type DowncastData struct {
	// Имя изменения для Consumable: "insert", "attribute:<key>" или "remove".
	Name     string
	Element  *model.Element
	Key      string
	OldValue any
	NewValue any
}

// DowncastAPI доступ конвертера к состоянию преобразования.
type DowncastAPI struct {
	Mapper     *Mapper
	Consumable *Consumable
}

// Consume потребляет текущее изменение.
func (api *DowncastAPI) Consume(data *DowncastData) bool {
	return api.Consumable.Consume(data.Element, data.Name)
}

// Insert связывает узел с элементом и размещает его в представлении родителя
// сразу за представлением ближайшего отображенного предыдущего соседа.
func (api *DowncastAPI) Insert(el *model.Element, n *view.Node) {
	api.Mapper.Bind(el, n)
	parent := api.Mapper.ToView(el.Parent())
	if parent == nil {
		return
	}
	idx := 0
	for i := el.Index() - 1; i >= 0; i-- {
		prev := api.Mapper.ToView(el.Parent().Child(i))
		if prev != nil && prev.Parent() == parent {
			idx = prev.Index() + 1
			break
		}
	}
	parent.InsertChild(idx, n)
}

type DowncastConverter func(data *DowncastData, api *DowncastAPI)

// Downcast реестр конвертеров модель → представление.
type Downcast struct {
	converters registry[DowncastConverter]
	// OnRender вызывается после каждого прохода Apply или Render.
	OnRender func()
}

// NewDowncast создает реестр со встроенными конвертерами текста и удаления.
func NewDowncast() *Downcast {
	d := &Downcast{converters: newRegistry[DowncastConverter]()}
	d.On(InsertKey(schema.Text), PriorityLowest, func(data *DowncastData, api *DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		api.Insert(data.Element, view.NewText(data.Element.Data()))
	})
	d.On(RemoveKey, PriorityLowest, func(data *DowncastData, api *DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		if n := api.Mapper.ToView(data.Element); n != nil {
			n.Remove()
		}
		api.Mapper.Unbind(data.Element)
	})
	return d
}

// On регистрирует конвертер для ключа события.
func (d *Downcast) On(key string, p Priority, fn DowncastConverter) {
	d.converters.add(key, p, fn)
}

// Render строит представление всего поддерева root с новым Mapper.
func (d *Downcast) Render(root *model.Element) (*view.Node, *Mapper) {
	fragment := view.NewFragment()
	m := NewMapper()
	m.Bind(root, fragment)
	api := &DowncastAPI{Mapper: m, Consumable: NewConsumable()}
	for _, c := range root.Children() {
		d.insert(c, api)
	}
	if d.OnRender != nil {
		d.OnRender()
	}
	return fragment, m
}

// Apply применяет операции транзакции к представлению, связанному через m.
// Операции обрабатываются в порядке применения.
func (d *Downcast) Apply(m *Mapper, batch *model.Batch) {
	api := &DowncastAPI{Mapper: m, Consumable: NewConsumable()}
	for _, op := range batch.Operations {
		switch op.Type {
		case model.OpInsert:
			if op.Element.Parent() == nil || m.ToView(op.Element.Parent()) == nil {
				continue
			}
			d.insert(op.Element, api)
		case model.OpRemove:
			if m.ToView(op.Element) == nil {
				continue
			}
			data := &DowncastData{Name: "remove", Element: op.Element}
			api.Consumable.Add(op.Element, data.Name)
			d.fire([]string{RemoveKey}, data, api)
		case model.OpAttribute:
			if m.ToView(op.Element) == nil {
				continue
			}
			d.attribute(op.Element, op.Key, op.OldValue, op.NewValue, api)
		}
	}
	if d.OnRender != nil {
		d.OnRender()
	}
}

func (d *Downcast) insert(el *model.Element, api *DowncastAPI) {
	if api.Mapper.ToView(el) != nil {
		return
	}
	data := &DowncastData{Name: "insert", Element: el}
	api.Consumable.Add(el, data.Name)
	if !d.fire([]string{InsertKey(el.Kind())}, data, api) {
		slog.Debug("No converter for element", "kind", el.Kind())
		return
	}
	for _, key := range el.AttributeKeys() {
		v, _ := el.Attribute(key)
		d.attribute(el, key, nil, v, api)
	}
	for _, c := range el.Children() {
		d.insert(c, api)
	}
}

func (d *Downcast) attribute(el *model.Element, key string, oldValue, newValue any, api *DowncastAPI) {
	data := &DowncastData{
		Name:     "attribute:" + key,
		Element:  el,
		Key:      key,
		OldValue: oldValue,
		NewValue: newValue,
	}
	api.Consumable.Add(el, data.Name)
	d.fire([]string{AttributeKey(key, el.Kind()), AttributeKey(key, "")}, data, api)
}

// fire вызывает конвертеры по приоритету до первого потребления изменения.
func (d *Downcast) fire(keys []string, data *DowncastData, api *DowncastAPI) bool {
	for _, fn := range d.converters.lookup(keys...) {
		fn(data, api)
		if !api.Consumable.Test(data.Element, data.Name) {
			return true
		}
	}
	return false
}
