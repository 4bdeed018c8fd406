// Пакет schema описывает допустимую структуру документа: какие виды элементов существуют,
// где они могут находиться, какие атрибуты принимают и какие из них являются объектами или границами.
//
// Основные возможности:
//   - Регистрация видов элементов и расширение уже зарегистрированных.
//   - Наследование правил размещения (AllowWhere) и содержимого (AllowContentOf).
//   - Дополнительные предикаты запрета дочерних элементов.
//   - Запросы допустимости атрибутов и дочерних элементов. Незарегистрированный вид ничего не допускает.
package schema

import (
	"fmt"
	"log/slog"
	"slices"
)

// Общие виды, регистрируемые каждым реестром.
const (
	Root  = "$root"
	Block = "$block"
	Text  = "$text"
)

// Definition описывает правила одного вида элемента.
type Definition struct {
	// Виды, внутри которых может находиться элемент.
	AllowIn []string
	// Элемент может находиться везде, где может находиться указанный вид.
	AllowWhere string
	// Элемент может содержать то же, что и указанный вид.
	AllowContentOf string
	// Разрешенные атрибуты.
	AllowAttributes []string
	// Атрибуты, наследуемые от указанного вида.
	AllowAttributesOf string

	IsObject bool
	IsLimit  bool
	IsInline bool
	IsBlock  bool
}

// Context описывает цепочку предков, в которую предполагается вставка. Последний элемент ближайший.
type Context []string

// Last возвращает вид непосредственного родителя.
func (c Context) Last() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

// ChildCheck дополнительная проверка вставки. decided=false означает, что предикат не имеет мнения.
type ChildCheck func(ctx Context, child string) (allowed bool, decided bool)

type compiled struct {
	allowIn    map[string]struct{}
	attributes map[string]struct{}
	def        Definition
}

// Registry хранит определения видов. Не потокобезопасен, заполняется при инициализации редактора.
type Registry struct {
	defs     map[string][]Definition
	order    []string
	checks   []ChildCheck
	compiled map[string]*compiled
}

// New создает реестр с общими видами $root, $block и $text.
func New() *Registry {
	r := &Registry{
		defs: make(map[string][]Definition),
	}
	r.mustRegister(Root, Definition{IsLimit: true})
	r.mustRegister(Block, Definition{AllowIn: []string{Root}, IsBlock: true})
	r.mustRegister(Text, Definition{AllowIn: []string{Block}, IsInline: true})
	return r
}

func (r *Registry) mustRegister(kind string, def Definition) {
	if err := r.Register(kind, def); err != nil {
		panic(err)
	}
}

// Register регистрирует новый вид. Повторная регистрация является ошибкой.
func (r *Registry) Register(kind string, def Definition) error {
	if kind == "" {
		return fmt.Errorf("schema: empty kind")
	}
	if _, ok := r.defs[kind]; ok {
		return fmt.Errorf("schema: kind %q already registered", kind)
	}
	r.defs[kind] = []Definition{def}
	r.order = append(r.order, kind)
	r.compiled = nil
	return nil
}

// Extend дополняет правила уже зарегистрированного вида.
func (r *Registry) Extend(kind string, def Definition) error {
	if _, ok := r.defs[kind]; !ok {
		return fmt.Errorf("schema: cannot extend unregistered kind %q", kind)
	}
	r.defs[kind] = append(r.defs[kind], def)
	r.compiled = nil
	return nil
}

// AddChildCheck добавляет предикат запрета вставки.
func (r *Registry) AddChildCheck(check ChildCheck) {
	r.checks = append(r.checks, check)
}

// IsRegistered сообщает, зарегистрирован ли вид.
func (r *Registry) IsRegistered(kind string) bool {
	_, ok := r.defs[kind]
	return ok
}

// Kinds возвращает зарегистрированные виды в порядке регистрации.
func (r *Registry) Kinds() []string {
	return slices.Clone(r.order)
}

// IsAttributeAllowed сообщает, допускает ли вид атрибут.
func (r *Registry) IsAttributeAllowed(kind, attr string) bool {
	c := r.get(kind)
	if c == nil {
		return false
	}
	_, ok := c.attributes[attr]
	return ok
}

// IsChildAllowed грубая проверка по видам, без учета предикатов.
func (r *Registry) IsChildAllowed(parent, child string) bool {
	c := r.get(child)
	if c == nil || !r.IsRegistered(parent) {
		return false
	}
	_, ok := c.allowIn[parent]
	return ok
}

// CheckChild проверяет вставку вида child в контекст ctx с учетом предикатов.
func (r *Registry) CheckChild(ctx Context, child string) bool {
	if !r.IsChildAllowed(ctx.Last(), child) {
		return false
	}
	for i := len(r.checks) - 1; i >= 0; i-- {
		allowed, decided := r.checks[i](ctx, child)
		if decided {
			if !allowed {
				slog.Debug("Schema child check rejected", "context", []string(ctx), "child", child)
			}
			return allowed
		}
	}
	return true
}

// FindAllowedParent ищет ближайшего предка в ctx, допускающего child.
// Возвращает длину префикса контекста, заканчивающегося этим предком. Поиск не выходит за границы (IsLimit).
func (r *Registry) FindAllowedParent(ctx Context, child string) (int, bool) {
	for i := len(ctx); i > 0; i-- {
		if r.CheckChild(ctx[:i], child) {
			return i, true
		}
		if r.IsLimit(ctx[i-1]) {
			return 0, false
		}
	}
	return 0, false
}

func (r *Registry) IsObject(kind string) bool {
	c := r.get(kind)
	return c != nil && c.def.IsObject
}

// IsLimit сообщает, является ли вид границей. Объекты также являются границами.
func (r *Registry) IsLimit(kind string) bool {
	c := r.get(kind)
	return c != nil && (c.def.IsLimit || c.def.IsObject)
}

func (r *Registry) IsInline(kind string) bool {
	c := r.get(kind)
	return c != nil && c.def.IsInline
}

func (r *Registry) IsBlock(kind string) bool {
	c := r.get(kind)
	return c != nil && c.def.IsBlock
}

func (r *Registry) get(kind string) *compiled {
	if _, ok := r.defs[kind]; !ok {
		return nil
	}
	if r.compiled == nil {
		r.compile()
	}
	return r.compiled[kind]
}

// compile раскрывает наследование правил. Циклы наследования обрываются.
func (r *Registry) compile() {
	merged := make(map[string]Definition, len(r.defs))
	for kind, defs := range r.defs {
		var m Definition
		for _, d := range defs {
			m.AllowIn = append(m.AllowIn, d.AllowIn...)
			m.AllowAttributes = append(m.AllowAttributes, d.AllowAttributes...)
			if d.AllowWhere != "" {
				m.AllowWhere = d.AllowWhere
			}
			if d.AllowContentOf != "" {
				m.AllowContentOf = d.AllowContentOf
			}
			if d.AllowAttributesOf != "" {
				m.AllowAttributesOf = d.AllowAttributesOf
			}
			m.IsObject = m.IsObject || d.IsObject
			m.IsLimit = m.IsLimit || d.IsLimit
			m.IsInline = m.IsInline || d.IsInline
			m.IsBlock = m.IsBlock || d.IsBlock
		}
		merged[kind] = m
	}

	allowIn := make(map[string]map[string]struct{}, len(merged))
	for kind := range merged {
		allowIn[kind] = resolveAllowIn(merged, kind, map[string]bool{})
	}

	// AllowContentOf: вид P может содержать все, что может содержать вид S.
	for parent, def := range merged {
		if def.AllowContentOf == "" {
			continue
		}
		sources := contentSources(merged, def.AllowContentOf, map[string]bool{})
		for child := range merged {
			for src := range sources {
				if _, ok := allowIn[child][src]; ok {
					allowIn[child][parent] = struct{}{}
				}
			}
		}
	}

	r.compiled = make(map[string]*compiled, len(merged))
	for kind, def := range merged {
		c := &compiled{
			allowIn:    allowIn[kind],
			attributes: make(map[string]struct{}),
			def:        def,
		}
		for _, a := range resolveAttributes(merged, kind, map[string]bool{}) {
			c.attributes[a] = struct{}{}
		}
		r.compiled[kind] = c
	}
}

func resolveAllowIn(defs map[string]Definition, kind string, seen map[string]bool) map[string]struct{} {
	res := make(map[string]struct{})
	if seen[kind] {
		return res
	}
	seen[kind] = true
	def, ok := defs[kind]
	if !ok {
		return res
	}
	for _, p := range def.AllowIn {
		if _, ok := defs[p]; ok {
			res[p] = struct{}{}
		}
	}
	if def.AllowWhere != "" {
		for p := range resolveAllowIn(defs, def.AllowWhere, seen) {
			res[p] = struct{}{}
		}
	}
	return res
}

func contentSources(defs map[string]Definition, kind string, seen map[string]bool) map[string]struct{} {
	res := map[string]struct{}{kind: {}}
	if seen[kind] {
		return res
	}
	seen[kind] = true
	if def, ok := defs[kind]; ok && def.AllowContentOf != "" {
		for k := range contentSources(defs, def.AllowContentOf, seen) {
			res[k] = struct{}{}
		}
	}
	return res
}

func resolveAttributes(defs map[string]Definition, kind string, seen map[string]bool) []string {
	if seen[kind] {
		return nil
	}
	seen[kind] = true
	def, ok := defs[kind]
	if !ok {
		return nil
	}
	res := slices.Clone(def.AllowAttributes)
	if def.AllowAttributesOf != "" {
		res = append(res, resolveAttributes(defs, def.AllowAttributesOf, seen)...)
	}
	return res
}
