// Пакет stack_error накапливает место возникновения ошибки и контекст по мере ее подъема
// от хранилища и сессии к HTTP-обработчику.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context  map[string]any
	ErrStack []slog.Attr
	cause    error
}

// TrackErrorStack добавляет к ошибке место вызова. Повторный вызов дополняет уже созданную цепочку.
func TrackErrorStack(err error) *TrackerError {
	if err == nil {
		return nil
	}
	var te *TrackerError
	if !errors.As(err, &te) {
		te = &TrackerError{
			Context: make(map[string]any),
			cause:   err,
		}
	}
	te.ErrStack = append(te.ErrStack, getCallerFile(err))
	return te
}

// AddContext сохраняет значение, если ключ еще не задан. Первое значение ближе к месту ошибки.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.ErrStack = append(te.ErrStack, getCallerFile(err))
	return te
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

// GetError пишет ошибку в лог вместе с накопленным контекстом и параметрами запроса.
func GetError(c echo.Context, err error) {
	var trackerError *TrackerError
	var attrs []any

	if errors.As(err, &trackerError) {
		trackerError.traceOut()
		attrs = trackerError.getAttrs()
	} else {
		attrs = []any{slog.String("raw_error", err.Error())}
	}

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}

	slog.With(attrs...).Error("stack error", "err", err)
}

func (te *TrackerError) getAttrs() []any {
	keys := make([]string, 0, len(te.Context))
	for k := range te.Context {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	res := make([]any, 0, len(keys))
	for _, k := range keys {
		res = append(res, slog.Any(k, te.Context[k]))
	}
	return res
}

func (te *TrackerError) traceOut() {
	for _, attr := range te.ErrStack {
		slog.Info("trace:", attr)
	}
}

func getCallerFile(err error) slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.String("trace", "unknown")
	}
	_, file := filepath.Split(path)
	return slog.String("trace", fmt.Sprintf("%s:%d %s", file, no, err.Error()))
}
