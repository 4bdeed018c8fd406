// Пакет model реализует дерево документа, выделение и транзакционное изменение.
//
// Все изменения выполняются в Document.Change. После успешного завершения транзакции
// подписчики получают ровно один Batch с упорядоченным списком операций. При ошибке или панике
// все изменения транзакции откатываются, и подписчики ничего не получают.
package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aisa-it/docedit/internal/docedit/schema"
)

var (
	ErrNotAllowed    = errors.New("not allowed by schema")
	ErrCycle         = errors.New("element cannot be inserted into itself")
	ErrAttached      = errors.New("element already has a parent")
	ErrDetached      = errors.New("element is not attached")
	ErrBadPosition   = errors.New("invalid position")
	ErrNoTransaction = errors.New("writer used outside of transaction")
)

type OperationType string

const (
	OpInsert    OperationType = "insert"
	OpRemove    OperationType = "remove"
	OpAttribute OperationType = "attribute"
)

// Operation одно примененное изменение. Для атрибутов nil означает отсутствие значения.
type Operation struct {
	Type     OperationType
	Element  *Element
	Parent   *Element
	Index    int
	Key      string
	OldValue any
	NewValue any
}

// Batch результат одной транзакции.
type Batch struct {
	Seq              uint64
	Operations       []Operation
	SelectionChanged bool
	Selection        Selection
}

type transaction struct {
	ops      []Operation
	undo     []func()
	selMoved bool
}

// Document владеет корневым элементом и выделением.
type Document struct {
	schema    *schema.Registry
	root      *Element
	selection Selection
	tx        *transaction
	listeners map[int]func(*Batch)
	nextID    int
	seq       uint64
}

// NewDocument создает пустой документ. Выделение свернуто в начале корня.
func NewDocument(s *schema.Registry) *Document {
	d := &Document{
		schema:    s,
		root:      newElement(schema.Root),
		listeners: make(map[int]func(*Batch)),
	}
	d.selection = Collapsed(StartOf(d.root))
	return d
}

func (d *Document) Root() *Element { return d.root }

func (d *Document) Schema() *schema.Registry { return d.schema }

func (d *Document) Selection() Selection { return d.selection }

// Seq возвращает номер последней завершенной транзакции.
func (d *Document) Seq() uint64 { return d.seq }

// Contains сообщает, присоединен ли элемент к документу.
func (d *Document) Contains(el *Element) bool {
	return el != nil && el.Top() == d.root
}

// ElementAt возвращает элемент по пути индексов от корня.
func (d *Document) ElementAt(path []int) *Element {
	el := d.root
	for _, i := range path {
		el = el.Child(i)
		if el == nil {
			return nil
		}
	}
	return el
}

// OnChange подписывает fn на завершенные транзакции. Возвращает функцию отписки.
func (d *Document) OnChange(fn func(*Batch)) func() {
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() { delete(d.listeners, id) }
}

// Change выполняет fn в транзакции. Вложенный вызов объединяется с внешней транзакцией,
// а его ошибка откатывает только его собственные изменения.
func (d *Document) Change(fn func(w *Writer) error) (err error) {
	if d.tx != nil {
		return d.nested(fn)
	}

	d.tx = &transaction{}
	w := &Writer{doc: d}
	defer func() {
		if r := recover(); r != nil {
			if d.tx != nil {
				d.revert(0, 0)
				d.tx = nil
			}
			panic(r)
		}
	}()

	if err := fn(w); err != nil {
		d.revert(0, 0)
		d.tx = nil
		return err
	}

	tx := d.tx
	d.tx = nil
	if !d.selection.within(d.root) {
		d.selection = Collapsed(StartOf(d.root))
		tx.selMoved = true
	}
	d.seq++

	batch := &Batch{
		Seq:              d.seq,
		Operations:       tx.ops,
		SelectionChanged: tx.selMoved,
		Selection:        d.selection,
	}
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if l, ok := d.listeners[id]; ok {
			l(batch)
		}
	}
	return nil
}

func (d *Document) nested(fn func(w *Writer) error) error {
	opMark, undoMark := len(d.tx.ops), len(d.tx.undo)
	completed := false
	defer func() {
		if !completed {
			d.revert(opMark, undoMark)
		}
	}()

	if err := fn(&Writer{doc: d}); err != nil {
		return err
	}
	completed = true
	return nil
}

func (d *Document) revert(opMark, undoMark int) {
	tx := d.tx
	for i := len(tx.undo) - 1; i >= undoMark; i-- {
		tx.undo[i]()
	}
	tx.undo = tx.undo[:undoMark]
	tx.ops = tx.ops[:opMark]
}

func (d *Document) record(op Operation, undo func()) {
	d.tx.undo = append(d.tx.undo, undo)
	if op.Type != "" {
		d.tx.ops = append(d.tx.ops, op)
	}
}

func (d *Document) String() string {
	return fmt.Sprintf("Document(seq=%d, children=%d)", d.seq, d.root.ChildCount())
}
