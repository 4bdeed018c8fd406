package conversion

import "sort"

// Priority порядок выполнения конвертеров. Больший приоритет выполняется раньше.
type Priority int

const (
	PriorityLowest  Priority = -100000
	PriorityLow     Priority = -1000
	PriorityNormal  Priority = 0
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 100000
)

type entry[T any] struct {
	priority Priority
	seq      int
	fn       T
}

// registry упорядоченные списки конвертеров по ключу события.
// При равном приоритете сохраняется порядок регистрации.
type registry[T any] struct {
	byKey map[string][]entry[T]
	seq   int
}

func newRegistry[T any]() registry[T] {
	return registry[T]{byKey: make(map[string][]entry[T])}
}

func (r *registry[T]) add(key string, p Priority, fn T) {
	r.seq++
	r.byKey[key] = append(r.byKey[key], entry[T]{priority: p, seq: r.seq, fn: fn})
}

// lookup объединяет конвертеры нескольких ключей в общий порядок.
func (r *registry[T]) lookup(keys ...string) []T {
	var all []entry[T]
	for _, k := range keys {
		all = append(all, r.byKey[k]...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].priority != all[j].priority {
			return all[i].priority > all[j].priority
		}
		return all[i].seq < all[j].seq
	})
	res := make([]T, len(all))
	for i, e := range all {
		res[i] = e.fn
	}
	return res
}

// Ключи событий.
func InsertKey(kind string) string { return "insert:" + kind }

func AttributeKey(attr, kind string) string {
	if kind == "" {
		return "attribute:" + attr
	}
	return "attribute:" + attr + ":" + kind
}

const RemoveKey = "remove"

func ElementKey(tag string) string {
	if tag == "" {
		return "element"
	}
	return "element:" + tag
}

const TextKey = "text"
