// Пакет command содержит команды редактора: единственную точку изменения модели по намерению пользователя.
// Каждая команда хранит реактивное состояние {IsEnabled, Value}, пересчитываемое после изменения модели или выделения.
package command

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sort"

	"github.com/google/go-cmp/cmp"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("command already registered")
)

// State наблюдаемое состояние команды. Value равно false, если значения нет или оно неприменимо.
type State struct {
	IsEnabled bool `json:"isEnabled"`
	Value     any  `json:"value"`
}

// Disabled состояние выключенной команды.
var Disabled = State{Value: false}

// Options параметры выполнения команды.
type Options struct {
	Value any `json:"value,omitempty"`
}

type Command interface {
	Name() string
	// Refresh пересчитывает состояние по текущей модели и выделению.
	Refresh()
	// Execute выполняет изменение в одной транзакции.
	Execute(opts Options) error
	State() State
	// Subscribe подписывает fn на изменения состояния. Возвращает функцию отписки.
	Subscribe(fn func(State)) func()
}

// Base реализует хранение состояния и подписки. Встраивается в конкретные команды.
type Base struct {
	name        string
	state       State
	subscribers map[int]func(State)
	nextID      int
}

func NewBase(name string) Base {
	return Base{
		name:        name,
		state:       Disabled,
		subscribers: make(map[int]func(State)),
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) State() State { return b.state }

func (b *Base) Subscribe(fn func(State)) func() {
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	return func() { delete(b.subscribers, id) }
}

// SetState публикует новое состояние, если оно изменилось.
func (b *Base) SetState(s State) {
	if s.Value == nil {
		s.Value = false
	}
	if cmp.Equal(b.state, s) {
		return
	}
	b.state = s
	ids := slices.Sorted(maps.Keys(b.subscribers))
	for _, id := range ids {
		if fn, ok := b.subscribers[id]; ok {
			fn(s)
		}
	}
}

// Registry общий реестр команд по имени.
type Registry struct {
	commands map[string]Command
	// OnExecute вызывается после выполнения включенной команды.
	OnExecute func(name string, err error)
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

func (r *Registry) Add(c Command) error {
	if _, ok := r.commands[c.Name()]; ok {
		return ErrDuplicateCommand
	}
	r.commands[c.Name()] = c
	c.Refresh()
	return nil
}

func (r *Registry) Get(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute выполняет команду по имени. Выключенная команда не выполняется и не возвращает ошибку.
func (r *Registry) Execute(name string, opts Options) error {
	c, ok := r.commands[name]
	if !ok {
		return ErrUnknownCommand
	}
	if !c.State().IsEnabled {
		slog.Debug("Command is disabled, skip", "command", name)
		return nil
	}
	err := c.Execute(opts)
	if r.OnExecute != nil {
		r.OnExecute(name, err)
	}
	return err
}

// States возвращает состояния всех команд.
func (r *Registry) States() map[string]State {
	res := make(map[string]State, len(r.commands))
	for n, c := range r.commands {
		res[n] = c.State()
	}
	return res
}

// RefreshAll пересчитывает состояния всех команд.
func (r *Registry) RefreshAll() {
	for _, n := range r.Names() {
		r.commands[n].Refresh()
	}
}
