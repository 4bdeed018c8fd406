package conversion

import (
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/view"
)

// Mapper связывает элементы модели с узлами представления в обе стороны.
type Mapper struct {
	toView  map[*model.Element]*view.Node
	toModel map[*view.Node]*model.Element
}

func NewMapper() *Mapper {
	return &Mapper{
		toView:  make(map[*model.Element]*view.Node),
		toModel: make(map[*view.Node]*model.Element),
	}
}

func (m *Mapper) Bind(el *model.Element, n *view.Node) {
	m.toView[el] = n
	m.toModel[n] = el
}

func (m *Mapper) ToView(el *model.Element) *view.Node { return m.toView[el] }

func (m *Mapper) ToModel(n *view.Node) *model.Element { return m.toModel[n] }

// FindModel возвращает элемент, связанный с узлом или ближайшим связанным предком узла.
func (m *Mapper) FindModel(n *view.Node) *model.Element {
	for cur := n; cur != nil; cur = cur.Parent() {
		if el, ok := m.toModel[cur]; ok {
			return el
		}
	}
	return nil
}

// Unbind удаляет связи элемента и всех его потомков.
func (m *Mapper) Unbind(el *model.Element) {
	el.Walk(func(e *model.Element) bool {
		if n, ok := m.toView[e]; ok {
			delete(m.toModel, n)
			delete(m.toView, e)
		}
		return true
	})
}

// Len возвращает число связей.
func (m *Mapper) Len() int { return len(m.toView) }
