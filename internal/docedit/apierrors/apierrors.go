// Пакет содержит определения ошибок HTTP API редактора. Каждая ошибка имеет код, статус HTTP
// и описание на английском и русском языках.
package apierrors

//go:generate go run ../../../cmd/docsgen -src apierrors.go -out ../../../docs/api_errors.md

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - common errors
	ErrGeneric        = DefinedError{Code: 1000, StatusCode: http.StatusBadRequest, Err: "bad request", RuErr: "Некорректный запрос"}
	ErrInternal       = DefinedError{Code: 1001, StatusCode: http.StatusInternalServerError, Err: "internal server error", RuErr: "Внутренняя ошибка сервера"}
	ErrEntityToLarge  = DefinedError{Code: 1002, StatusCode: http.StatusRequestEntityTooLarge, Err: "entity too large", RuErr: "Слишком большой объем данных"}
	ErrInvalidID      = DefinedError{Code: 1003, StatusCode: http.StatusBadRequest, Err: "invalid ID", RuErr: "Указан неверный ID"}
	ErrValidation     = DefinedError{Code: 1004, StatusCode: http.StatusBadRequest, Err: "validation failed: %s", RuErr: "Ошибка проверки данных: %s"}
	ErrLimitExceeded  = DefinedError{Code: 1005, StatusCode: http.StatusTooManyRequests, Err: "limit exceeded: %s", RuErr: "Превышен лимит: %s"}
	ErrBadRequestBody = DefinedError{Code: 1006, StatusCode: http.StatusBadRequest, Err: "invalid request body", RuErr: "Некорректное тело запроса"}

	// 2*** - document errors
	ErrDocumentNotFound     = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "document not found", RuErr: "Документ не найден"}
	ErrDocumentNameRequired = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "document must have a name", RuErr: "Поле Название документа не может быть пустым"}
	ErrDocumentTooLarge     = DefinedError{Code: 2003, StatusCode: http.StatusRequestEntityTooLarge, Err: "document is too large", RuErr: "Документ слишком большой"}
	ErrDocumentParse        = DefinedError{Code: 2004, StatusCode: http.StatusBadRequest, Err: "document markup cannot be parsed", RuErr: "Не удалось разобрать разметку документа"}

	// 3*** - session errors
	ErrSessionNotFound  = DefinedError{Code: 3001, StatusCode: http.StatusNotFound, Err: "editing session not found", RuErr: "Сессия редактирования не найдена"}
	ErrSessionsExceeded = DefinedError{Code: 3002, StatusCode: http.StatusTooManyRequests, Err: "too many editing sessions", RuErr: "Слишком много открытых сессий редактирования"}
	ErrSelectionInvalid = DefinedError{Code: 3003, StatusCode: http.StatusBadRequest, Err: "invalid selection", RuErr: "Некорректное выделение"}

	// 4*** - command errors
	ErrCommandNotFound = DefinedError{Code: 4001, StatusCode: http.StatusNotFound, Err: "command %s not found", RuErr: "Команда %s не найдена"}
	ErrCommandDisabled = DefinedError{Code: 4002, StatusCode: http.StatusConflict, Err: "command %s is disabled", RuErr: "Команда %s недоступна"}
	ErrCommandFailed   = DefinedError{Code: 4003, StatusCode: http.StatusUnprocessableEntity, Err: "command %s failed", RuErr: "Не удалось выполнить команду %s"}
	ErrPointerTarget   = DefinedError{Code: 4004, StatusCode: http.StatusBadRequest, Err: "pointer target not found", RuErr: "Цель события указателя не найдена"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
