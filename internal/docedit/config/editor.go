package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator"
)

// NamedOption именованное значение атрибута из набора: уровень наложения или стиль изображения.
// В JSON допускается строка (только имя) или объект.
type NamedOption struct {
	Name      string `json:"name" validate:"required"`
	Title     string `json:"title,omitempty"`
	Icon      string `json:"icon,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
	ClassName string `json:"className,omitempty"`

	// Поля, явно заданные в объекте. nil для краткой строковой формы.
	provided map[string]bool
}

func (o *NamedOption) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*o = NamedOption{Name: name}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	type plain NamedOption
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = NamedOption(p)
	o.provided = make(map[string]bool, len(raw))
	for k := range raw {
		o.provided[k] = true
	}
	return nil
}

func (o NamedOption) isShorthand() bool {
	return o.provided == nil && o.Title == "" && o.Icon == "" && !o.IsDefault && o.ClassName == ""
}

func (o NamedOption) has(field string, nonZero bool) bool {
	if o.provided != nil {
		return o.provided[field]
	}
	return nonZero
}

// NormalizeNamed дополняет значения встроенными определениями.
// Неизвестное имя в краткой форме сохраняется только с именем, с предупреждением в логе.
func NormalizeNamed(kind string, configured []NamedOption, builtins map[string]NamedOption) []NamedOption {
	res := make([]NamedOption, 0, len(configured))
	for _, o := range configured {
		def, known := builtins[o.Name]
		switch {
		case o.isShorthand() && known:
			o = def
		case o.isShorthand():
			slog.Warn("There is no such option of given name", "kind", kind, "name", o.Name)
			o = NamedOption{Name: o.Name}
		case known:
			if !o.has("title", o.Title != "") {
				o.Title = def.Title
			}
			if !o.has("icon", o.Icon != "") {
				o.Icon = def.Icon
			}
			if !o.has("isDefault", o.IsDefault) {
				o.IsDefault = def.IsDefault
			}
			if !o.has("className", o.ClassName != "") {
				o.ClassName = def.ClassName
			}
		}
		o.provided = nil
		res = append(res, o)
	}
	return res
}

// DefaultName возвращает имя первого значения по умолчанию.
func DefaultName(options []NamedOption) string {
	for _, o := range options {
		if o.IsDefault {
			return o.Name
		}
	}
	return ""
}

// Встроенные уровни наложения изображений.
var BuiltinZIndexes = map[string]NamedOption{
	"front": {Name: "front", Title: "Above Text", Icon: "object-left", IsDefault: true},
	"back":  {Name: "back", Title: "Behind Text", Icon: "object-right", ClassName: "image-zindex-back"},
}

// Встроенные стили изображений.
var BuiltinImageStyles = map[string]NamedOption{
	"full":          {Name: "full", Title: "Full size image", Icon: "full", IsDefault: true},
	"side":          {Name: "side", Title: "Side image", Icon: "right", ClassName: "image-style-side"},
	"alignLeft":     {Name: "alignLeft", Title: "Left aligned image", Icon: "left", ClassName: "image-style-align-left"},
	"alignCenter":   {Name: "alignCenter", Title: "Centered image", Icon: "center", ClassName: "image-style-align-center"},
	"alignRight":    {Name: "alignRight", Title: "Right aligned image", Icon: "right", ClassName: "image-style-align-right"},
	"absoluteImage": {Name: "absoluteImage", Title: "Absolute positioned image", Icon: "full", ClassName: "image-style-absolute"},
}

type ResizeOptions struct {
	MinWidth float64 `json:"minWidth" validate:"gte=0"`
	// 0 означает отсутствие верхней границы.
	MaxWidth float64 `json:"maxWidth" validate:"gte=0"`
}

// PositionOptions необязательные границы смещения при перемещении.
type PositionOptions struct {
	MinLeft *float64 `json:"minLeft,omitempty"`
	MaxLeft *float64 `json:"maxLeft,omitempty"`
	MinTop  *float64 `json:"minTop,omitempty"`
	MaxTop  *float64 `json:"maxTop,omitempty"`
}

// EditorOptions набор параметров, читаемых редактором при инициализации.
type EditorOptions struct {
	ZIndexes         []NamedOption   `json:"zindexes" validate:"dive"`
	ImageStyles      []NamedOption   `json:"imageStyles" validate:"dive"`
	PlaceholderTypes []string        `json:"placeholderTypes" validate:"dive,required"`
	Resize           ResizeOptions   `json:"resize"`
	Position         PositionOptions `json:"position"`
}

func DefaultEditorOptions() EditorOptions {
	return EditorOptions{
		ZIndexes: []NamedOption{{Name: "front"}, {Name: "back"}},
		ImageStyles: []NamedOption{
			{Name: "full"}, {Name: "side"}, {Name: "alignLeft"},
			{Name: "alignCenter"}, {Name: "alignRight"}, {Name: "absoluteImage"},
		},
		PlaceholderTypes: []string{"date", "first name", "surname"},
		Resize:           ResizeOptions{MinWidth: 50},
	}
}

var optionsValidator = validator.New()

// Validate проверяет параметры редактора.
func (o EditorOptions) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return err
	}
	if o.Resize.MaxWidth > 0 && o.Resize.MaxWidth < o.Resize.MinWidth {
		return errors.New("resize.maxWidth is less than resize.minWidth")
	}
	p := o.Position
	if p.MinLeft != nil && p.MaxLeft != nil && *p.MaxLeft < *p.MinLeft {
		return errors.New("position.maxLeft is less than position.minLeft")
	}
	if p.MinTop != nil && p.MaxTop != nil && *p.MaxTop < *p.MinTop {
		return errors.New("position.maxTop is less than position.minTop")
	}
	return nil
}

// LoadEditorOptions читает параметры редактора из JSON-файла поверх значений по умолчанию.
// Пустой путь возвращает значения по умолчанию.
func LoadEditorOptions(path string) (EditorOptions, error) {
	opts := DefaultEditorOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read editor config: %w", err)
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse editor config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("validate editor config: %w", err)
	}
	slog.Info("Editor config loaded", "path", path, "zindexes", len(opts.ZIndexes), "placeholderTypes", len(opts.PlaceholderTypes))
	return opts, nil
}
