package conversion

import (
	"slices"

	"github.com/aisa-it/docedit/internal/docedit/view"
)

// ElementDef связь вида элемента модели с тегом представления.
type ElementDef struct {
	Model    string
	View     string
	Classes  []string
	Priority Priority
}

func (def ElementDef) matches(n *view.Node, c *ViewConsumable) bool {
	if n.Name() != def.View {
		return false
	}
	markers := []string{NameMarker}
	for _, cl := range def.Classes {
		markers = append(markers, ClassMarker(cl))
	}
	return c.Test(n, markers...)
}

// ElementToElement регистрирует конвертеры элемента в обе стороны.
func (c *Conversion) ElementToElement(def ElementDef) {
	c.Downcast.On(InsertKey(def.Model), def.Priority, func(data *DowncastData, api *DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		n := view.NewElement(def.View)
		n.AddClass(def.Classes...)
		api.Insert(data.Element, n)
	})
	c.Upcast.On(ElementKey(def.View), def.Priority, func(data *UpcastData, api *UpcastAPI) {
		if data.ModelElement != nil || !def.matches(data.ViewItem, api.Consumable) {
			return
		}
		markers := []string{NameMarker}
		for _, cl := range def.Classes {
			markers = append(markers, ClassMarker(cl))
		}
		api.Consumable.Consume(data.ViewItem, markers...)
		data.ModelElement = api.Writer.CreateElement(def.Model, nil)
	})
}

// StyleDef связь атрибута модели с набором свойств inline-стиля.
type StyleDef struct {
	Model string
	Key   string
	// Тег представления, на котором разбирается стиль.
	View string
	// Управляемые свойства стиля.
	Styles []string
	// ToStyles возвращает свойства для значения или nil для неподдерживаемого значения.
	ToStyles func(value any) map[string]string
	// FromStyles возвращает значение или nil, если свойств недостаточно.
	FromStyles func(styles map[string]string) any
	Priority   Priority
}

// AttributeToStyle регистрирует конвертеры атрибута, представленного inline-стилями.
// Старое значение всегда удаляется целиком, поэтому повторный проход идемпотентен.
func (c *Conversion) AttributeToStyle(def StyleDef) {
	c.Downcast.On(AttributeKey(def.Key, def.Model), def.Priority, func(data *DowncastData, api *DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		n := api.Mapper.ToView(data.Element)
		for _, s := range def.Styles {
			n.RemoveStyle(s)
		}
		if data.NewValue == nil {
			return
		}
		for k, v := range def.ToStyles(data.NewValue) {
			n.SetStyle(k, v)
		}
	})
	c.Upcast.On(ElementKey(def.View), lowered(def.Priority), func(data *UpcastData, api *UpcastAPI) {
		el := data.ModelElement
		if el == nil || el.Kind() != def.Model || !api.Schema.IsAttributeAllowed(el.Kind(), def.Key) {
			return
		}
		styles := make(map[string]string)
		var markers []string
		for _, s := range def.Styles {
			if v, ok := data.ViewItem.Style(s); ok && api.Consumable.Test(data.ViewItem, StyleMarker(s)) {
				styles[s] = v
				markers = append(markers, StyleMarker(s))
			}
		}
		if len(markers) == 0 {
			return
		}
		value := def.FromStyles(styles)
		if value == nil {
			return
		}
		if err := api.Writer.SetAttribute(el, def.Key, value); err != nil {
			return
		}
		api.Consumable.Consume(data.ViewItem, markers...)
	})
}

// NamedClass значение атрибута и соответствующий ему CSS-класс. Пустой класс означает отсутствие маркера.
type NamedClass struct {
	Name      string
	ClassName string
}

// ClassDef связь атрибута модели с одним классом из набора.
type ClassDef struct {
	Model    string
	Key      string
	View     string
	Values   []NamedClass
	Priority Priority
}

func (def ClassDef) className(value any) string {
	name, ok := value.(string)
	if !ok {
		return ""
	}
	i := slices.IndexFunc(def.Values, func(v NamedClass) bool { return v.Name == name })
	if i < 0 {
		return ""
	}
	return def.Values[i].ClassName
}

// ClassAttribute регистрирует конвертеры атрибута, представленного одним классом из набора.
func (c *Conversion) ClassAttribute(def ClassDef) {
	c.Downcast.On(AttributeKey(def.Key, def.Model), def.Priority, func(data *DowncastData, api *DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		n := api.Mapper.ToView(data.Element)
		if old := def.className(data.OldValue); old != "" {
			n.RemoveClass(old)
		}
		if cl := def.className(data.NewValue); cl != "" {
			n.AddClass(cl)
		}
	})
	c.Upcast.On(ElementKey(def.View), lowered(def.Priority), func(data *UpcastData, api *UpcastAPI) {
		el := data.ModelElement
		if el == nil || el.Kind() != def.Model || !api.Schema.IsAttributeAllowed(el.Kind(), def.Key) {
			return
		}
		for _, v := range def.Values {
			if v.ClassName == "" || !data.ViewItem.HasClass(v.ClassName) {
				continue
			}
			if !api.Consumable.Test(data.ViewItem, ClassMarker(v.ClassName)) {
				continue
			}
			if err := api.Writer.SetAttribute(el, def.Key, v.Name); err != nil {
				return
			}
			api.Consumable.Consume(data.ViewItem, ClassMarker(v.ClassName))
			return
		}
	})
}

// lowered опускает приоритет атрибутного разбора ниже разбора элемента.
func lowered(p Priority) Priority {
	return p + PriorityLow
}
