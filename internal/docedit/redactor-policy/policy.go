// Пакет policy содержит политики очистки разметки документов перед разбором.
// Политика редактора пропускает только элементы, классы и стили, которые умеют разбирать плагины:
// абзацы, изображения с контейнером, блоки с заголовком и маркеры подстановки.
package policy

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// StripTagsPolicy удаляет всю разметку. Используется для названий документов.
var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()

var EditorPolicy *bluemonday.Policy = NewEditorPolicy()

var (
	lengthRegexp = regexp.MustCompile(`^-?\d+(\.\d+)?(px|em|rem|%|vw|vh)?$`)
	classRegexp  = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)
)

func NewEditorPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "b", "strong", "i", "em", "u", "s")
	p.AllowElements("figure", "img", "section", "h1", "div", "span")

	p.AllowAttrs("class").Matching(classRegexp).OnElements("figure", "section", "h1", "div", "span")
	p.AllowStyles("left", "top", "width").Matching(lengthRegexp).OnElements("figure")

	p.AllowAttrs("alt").OnElements("img")
	p.AllowAttrs("src").OnElements("img")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(true)
	p.AllowDataURIImages()
	p.RequireParseableURLs(true)

	return p
}

// Sanitize очищает разметку документа политикой редактора.
func Sanitize(markup string) string {
	return EditorPolicy.Sanitize(markup)
}

// StripTags возвращает текст без разметки.
func StripTags(s string) string {
	return StripTagsPolicy.Sanitize(s)
}
