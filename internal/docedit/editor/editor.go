// Пакет editor собирает сессию редактирования: схему, документ, конвейер преобразования,
// живое представление, команды и наблюдатель указателя. Функциональность добавляется плагинами.
//
// Сессия однопоточная: все изменения модели и перерисовка выполняются синхронно в вызывающей горутине.
package editor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aisa-it/docedit/internal/docedit/command"
	"github.com/aisa-it/docedit/internal/docedit/config"
	"github.com/aisa-it/docedit/internal/docedit/conversion"
	"github.com/aisa-it/docedit/internal/docedit/interaction"
	"github.com/aisa-it/docedit/internal/docedit/metrics"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/schema"
	"github.com/aisa-it/docedit/internal/docedit/view"
)

// Plugin расширяет редактор схемой, конвертерами, командами и взаимодействиями.
type Plugin interface {
	Name() string
	Init(e *Editor) error
}

// Editor одна сессия редактирования одного документа.
type Editor struct {
	Schema     *schema.Registry
	Model      *model.Document
	Conversion *conversion.Conversion
	Commands   *command.Registry
	Pointer    *interaction.Observer

	options   config.EditorOptions
	plugins   []Plugin
	layout    interaction.Layout
	metrics   *metrics.Metrics
	locale    func(string) string
	sanitizer func(string) string

	editingView   *view.Node
	editingMapper *conversion.Mapper
}

type Option func(*Editor)

func WithOptions(opts config.EditorOptions) Option {
	return func(e *Editor) { e.options = opts }
}

func WithPlugins(plugins ...Plugin) Option {
	return func(e *Editor) { e.plugins = append(e.plugins, plugins...) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Editor) { e.metrics = m }
}

func WithLayout(l interaction.Layout) Option {
	return func(e *Editor) { e.layout = l }
}

// WithLocale задает функцию перевода подписей.
func WithLocale(t func(string) string) Option {
	return func(e *Editor) { e.locale = t }
}

// WithSanitizer задает очистку входной разметки перед разбором.
func WithSanitizer(s func(string) string) Option {
	return func(e *Editor) { e.sanitizer = s }
}

// New создает редактор и инициализирует плагины в порядке передачи.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		Schema:     schema.New(),
		Conversion: conversion.New(),
		Commands:   command.NewRegistry(),
		Pointer:    interaction.NewObserver(),
		options:    config.DefaultEditorOptions(),
		layout:     interaction.StyleLayout{},
	}
	for _, o := range opts {
		o(e)
	}
	e.Model = model.NewDocument(e.Schema)

	if err := e.Schema.Register("paragraph", schema.Definition{
		AllowWhere:     schema.Block,
		AllowContentOf: schema.Block,
		IsBlock:        true,
	}); err != nil {
		return nil, err
	}
	e.Conversion.ElementToElement(conversion.ElementDef{Model: "paragraph", View: "p"})

	for _, p := range e.plugins {
		if err := p.Init(e); err != nil {
			return nil, fmt.Errorf("init plugin %s: %w", p.Name(), err)
		}
		slog.Debug("Editor plugin initialized", "plugin", p.Name())
	}

	if e.metrics != nil {
		e.Conversion.Downcast.OnRender = e.metrics.RenderPasses.Inc
		e.Conversion.Upcast.OnDropped = func(*view.Node, []string) { e.metrics.DroppedMarkers.Inc() }
	}
	e.Commands.OnExecute = e.metrics.ObserveCommand

	e.editingView, e.editingMapper = e.Conversion.Downcast.Render(e.Model.Root())
	e.Model.OnChange(e.onChange)
	e.Commands.RefreshAll()
	return e, nil
}

func (e *Editor) onChange(b *model.Batch) {
	if e.metrics != nil {
		e.metrics.Transactions.Inc()
	}
	e.Conversion.Downcast.Apply(e.editingMapper, b)
	e.Commands.RefreshAll()
}

// Options возвращает параметры редактора.
func (e *Editor) Options() config.EditorOptions { return e.options }

func (e *Editor) Layout() interaction.Layout { return e.layout }

// T переводит строку. Без функции перевода строка возвращается как есть.
func (e *Editor) T(s string) string {
	if e.locale == nil {
		return s
	}
	return e.locale(s)
}

// LoadData заменяет содержимое документа разобранной разметкой в одной транзакции.
func (e *Editor) LoadData(markup string) error {
	if e.sanitizer != nil {
		markup = e.sanitizer(markup)
	}
	root, err := view.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parse data: %w", err)
	}
	return e.Model.Change(func(w *model.Writer) error {
		for _, c := range e.Model.Root().Children() {
			if err := w.Remove(c); err != nil {
				return err
			}
		}
		e.Conversion.Upcast.Convert(w, root, e.Model.Root())
		return w.SetSelection(model.Collapsed(model.StartOf(e.Model.Root())))
	})
}

// GetData возвращает разметку документа, построенную заново по модели.
func (e *Editor) GetData() string {
	fragment, _ := e.Conversion.Downcast.Render(e.Model.Root())
	return view.String(fragment)
}

// GetMinifiedData возвращает сжатую разметку документа.
func (e *Editor) GetMinifiedData() (string, error) {
	return view.Minify(e.GetData())
}

// EditingView возвращает живое представление, обновляемое после каждой транзакции.
func (e *Editor) EditingView() *view.Node { return e.editingView }

// ViewFor возвращает узел живого представления для элемента.
func (e *Editor) ViewFor(el *model.Element) *view.Node { return e.editingMapper.ToView(el) }

// ModelFor возвращает элемент для узла живого представления или его ближайшего связанного предка.
func (e *Editor) ModelFor(n *view.Node) *model.Element { return e.editingMapper.FindModel(n) }

// Execute выполняет команду по имени.
func (e *Editor) Execute(name string, value any) error {
	return e.Commands.Execute(name, command.Options{Value: value})
}

// SetSelection заменяет выделение документа.
func (e *Editor) SetSelection(sel model.Selection) error {
	return e.Model.Change(func(w *model.Writer) error {
		return w.SetSelection(sel)
	})
}

// Select выделяет элемент модели, связанный с узлом живого представления.
func (e *Editor) Select(target *view.Node) bool {
	el := e.editingMapper.ToModel(target)
	if el == nil || !e.Model.Contains(el) {
		return false
	}
	if err := e.SetSelection(model.On(el)); err != nil {
		slog.Warn("Select element", "kind", el.Kind(), "err", err)
		return false
	}
	return true
}

// DispatchPointer передает событие указателя наблюдателю.
func (e *Editor) DispatchPointer(evt interaction.PointerEvent) bool {
	return e.Pointer.Dispatch(evt)
}
