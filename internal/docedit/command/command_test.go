package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Base
	enabled bool
	value   int
	runs    int
	fail    error
}

func newCounter(name string) *counter {
	return &counter{Base: NewBase(name)}
}

func (c *counter) Refresh() {
	c.SetState(State{IsEnabled: c.enabled, Value: c.value})
}

func (c *counter) Execute(opts Options) error {
	c.runs++
	if c.fail != nil {
		return c.fail
	}
	if v, ok := opts.Value.(int); ok {
		c.value = v
	}
	c.Refresh()
	return nil
}

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	c := newCounter("count")
	require.NoError(t, r.Add(c))
	assert.ErrorIs(t, r.Add(newCounter("count")), ErrDuplicateCommand)

	var executed []string
	r.OnExecute = func(name string, err error) { executed = append(executed, name) }

	// Выключенная команда не выполняется.
	require.NoError(t, r.Execute("count", Options{Value: 5}))
	assert.Equal(t, 0, c.runs)

	c.enabled = true
	r.RefreshAll()
	require.NoError(t, r.Execute("count", Options{Value: 5}))
	assert.Equal(t, 1, c.runs)
	assert.Equal(t, State{IsEnabled: true, Value: 5}, r.States()["count"])
	assert.Equal(t, []string{"count"}, executed)

	assert.ErrorIs(t, r.Execute("missing", Options{}), ErrUnknownCommand)

	boom := errors.New("boom")
	c.fail = boom
	assert.ErrorIs(t, r.Execute("count", Options{}), boom)
	assert.Equal(t, []string{"count"}, r.Names())
}

func TestSubscribe(t *testing.T) {
	c := newCounter("count")
	assert.Equal(t, Disabled, c.State())

	var got []State
	off := c.Subscribe(func(s State) { got = append(got, s) })

	c.Refresh()
	c.enabled = true
	c.Refresh()
	c.Refresh()
	off()
	c.value = 2
	c.Refresh()

	// Публикуются только изменения состояния.
	assert.Equal(t, []State{{IsEnabled: false, Value: 0}, {IsEnabled: true, Value: 0}}, got)
}

func TestSetStateNilValue(t *testing.T) {
	b := NewBase("x")
	b.SetState(State{IsEnabled: true})
	assert.Equal(t, State{IsEnabled: true, Value: false}, b.State())
}
