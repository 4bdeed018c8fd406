// Проверка тел запросов API через go-playground/validator.
package docedit

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator"
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	if err := v.RegisterValidation("documentName", documentNameValidator); err != nil {
		return nil
	}
	if err := v.RegisterValidation("path", pathValidator); err != nil {
		return nil
	}
	return &RequestValidator{validator: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validator.Struct(i)
}

// Название документа: от 1 до 150 символов без управляющих, не только пробелы.
func documentNameValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.TrimSpace(value) == "" {
		return false
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return false
		}
	}
	return utf8.RuneCountInString(value) <= 150
}

// Путь в дереве: неотрицательные индексы.
func pathValidator(fl validator.FieldLevel) bool {
	path, ok := fl.Field().Interface().([]int)
	if !ok {
		return false
	}
	for _, i := range path {
		if i < 0 {
			return false
		}
	}
	return true
}
