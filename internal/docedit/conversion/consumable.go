package conversion

import (
	"sort"

	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/view"
)

// Consumable учитывает, какие изменения модели уже обработаны конвертерами.
type Consumable struct {
	items map[*model.Element]map[string]bool
}

func NewConsumable() *Consumable {
	return &Consumable{items: make(map[*model.Element]map[string]bool)}
}

// Add регистрирует изменение как доступное для обработки.
func (c *Consumable) Add(el *model.Element, name string) {
	m, ok := c.items[el]
	if !ok {
		m = make(map[string]bool)
		c.items[el] = m
	}
	m[name] = true
}

// Test сообщает, доступно ли изменение.
func (c *Consumable) Test(el *model.Element, name string) bool {
	return c.items[el][name]
}

// Consume помечает изменение обработанным. Повторное потребление возвращает false.
func (c *Consumable) Consume(el *model.Element, name string) bool {
	if !c.Test(el, name) {
		return false
	}
	c.items[el][name] = false
	return true
}

// Маркеры узла представления.
const NameMarker = "name"

func ClassMarker(name string) string { return "class:" + name }

func StyleMarker(prop string) string { return "style:" + prop }

func AttributeMarker(key string) string { return "attribute:" + key }

// ViewConsumable учитывает, какие маркеры узлов представления уже преобразованы в модель.
// Узел регистрируется при первом обращении.
type ViewConsumable struct {
	items map[*view.Node]map[string]bool
}

func NewViewConsumable() *ViewConsumable {
	return &ViewConsumable{items: make(map[*view.Node]map[string]bool)}
}

func (c *ViewConsumable) markers(n *view.Node) map[string]bool {
	m, ok := c.items[n]
	if ok {
		return m
	}
	m = map[string]bool{NameMarker: true}
	if !n.IsText() {
		for _, cl := range n.Classes() {
			m[ClassMarker(cl)] = true
		}
		for _, s := range n.StyleKeys() {
			m[StyleMarker(s)] = true
		}
		for _, a := range n.AttributeKeys() {
			m[AttributeMarker(a)] = true
		}
	}
	c.items[n] = m
	return m
}

// Test сообщает, доступны ли все маркеры. Без аргументов проверяется имя узла.
func (c *ViewConsumable) Test(n *view.Node, markers ...string) bool {
	if len(markers) == 0 {
		markers = []string{NameMarker}
	}
	m := c.markers(n)
	for _, mk := range markers {
		if !m[mk] {
			return false
		}
	}
	return true
}

// Consume потребляет все маркеры или ни одного. Без аргументов потребляется имя узла.
func (c *ViewConsumable) Consume(n *view.Node, markers ...string) bool {
	if !c.Test(n, markers...) {
		return false
	}
	if len(markers) == 0 {
		markers = []string{NameMarker}
	}
	m := c.markers(n)
	for _, mk := range markers {
		m[mk] = false
	}
	return true
}

// ConsumeSubtree потребляет все маркеры узла и его потомков.
func (c *ViewConsumable) ConsumeSubtree(n *view.Node) {
	m := c.markers(n)
	for k := range m {
		m[k] = false
	}
	for _, ch := range n.Children() {
		c.ConsumeSubtree(ch)
	}
}

// Unconsumed возвращает непотребленные маркеры узла, кроме имени.
func (c *ViewConsumable) Unconsumed(n *view.Node) []string {
	var res []string
	for k, ok := range c.markers(n) {
		if ok && k != NameMarker {
			res = append(res, k)
		}
	}
	sort.Strings(res)
	return res
}
