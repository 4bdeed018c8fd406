// Пакет image регистрирует элемент изображения, его стили и команды вставки и смены стиля.
package image

import (
	"github.com/aisa-it/docedit/internal/docedit/config"
	"github.com/aisa-it/docedit/internal/docedit/conversion"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/schema"
	"github.com/aisa-it/docedit/internal/docedit/view"
)

const (
	Kind          = "image"
	StyleKey      = "imageStyle"
	AbsoluteStyle = "absoluteImage"
	// AbsoluteClass класс контейнера абсолютно позиционированного изображения.
	AbsoluteClass = "image-style-absolute"
)

type Plugin struct{}

func (Plugin) Name() string { return "Image" }

func (Plugin) Init(e *editor.Editor) error {
	if err := e.Schema.Register(Kind, schema.Definition{
		AllowWhere:      schema.Block,
		IsObject:        true,
		IsBlock:         true,
		AllowAttributes: []string{"src", "alt", StyleKey},
	}); err != nil {
		return err
	}

	defineConverters(e.Conversion)

	styles := config.NormalizeNamed("imageStyle", e.Options().ImageStyles, config.BuiltinImageStyles)
	e.Conversion.ClassAttribute(conversion.ClassDef{
		Model:  Kind,
		Key:    StyleKey,
		View:   "figure",
		Values: namedClasses(styles),
	})

	if err := e.Commands.Add(NewInsertCommand(e)); err != nil {
		return err
	}
	return e.Commands.Add(NewStyleCommand(e, styles))
}

func defineConverters(c *conversion.Conversion) {
	c.Downcast.On(conversion.InsertKey(Kind), conversion.PriorityNormal, func(data *conversion.DowncastData, api *conversion.DowncastAPI) {
		if !api.Consume(data) {
			return
		}
		fig := view.NewElement("figure")
		fig.AddClass("image")
		fig.AppendChild(view.NewElement("img"))
		api.Insert(data.Element, fig)
	})

	for _, key := range []string{"src", "alt"} {
		c.Downcast.On(conversion.AttributeKey(key, Kind), conversion.PriorityNormal, func(data *conversion.DowncastData, api *conversion.DowncastAPI) {
			if !api.Consume(data) {
				return
			}
			img := imgOf(api.Mapper.ToView(data.Element))
			if img == nil {
				return
			}
			if s, ok := data.NewValue.(string); ok {
				img.SetAttribute(data.Key, s)
				return
			}
			img.RemoveAttribute(data.Key)
		})
	}

	c.Upcast.On(conversion.ElementKey("figure"), conversion.PriorityNormal, func(data *conversion.UpcastData, api *conversion.UpcastAPI) {
		fig := data.ViewItem
		if data.ModelElement != nil || !fig.HasClass("image") {
			return
		}
		img := imgOf(fig)
		if img == nil || !api.Consumable.Test(fig, conversion.NameMarker, conversion.ClassMarker("image")) {
			return
		}
		api.Consumable.Consume(fig, conversion.NameMarker, conversion.ClassMarker("image"))

		attrs := make(map[string]any)
		for _, key := range []string{"src", "alt"} {
			if v, ok := img.Attribute(key); ok {
				attrs[key] = v
			}
		}
		api.Consumable.ConsumeSubtree(img)
		data.ModelElement = api.Writer.CreateElement(Kind, attrs)
		data.SkipChildren = true
	})
}

// imgOf возвращает img внутри контейнера изображения.
func imgOf(fig *view.Node) *view.Node {
	if fig == nil {
		return nil
	}
	for _, c := range fig.Children() {
		if c.Name() == "img" {
			return c
		}
	}
	return nil
}

func namedClasses(options []config.NamedOption) []conversion.NamedClass {
	res := make([]conversion.NamedClass, 0, len(options))
	for _, o := range options {
		res = append(res, conversion.NamedClass{Name: o.Name, ClassName: o.ClassName})
	}
	return res
}
