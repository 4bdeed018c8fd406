// Пакет plugins собирает стандартный набор плагинов редактора.
package plugins

import (
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/plugins/image"
	imageposition "github.com/aisa-it/docedit/internal/docedit/plugins/image-position"
	imagesize "github.com/aisa-it/docedit/internal/docedit/plugins/image-size"
	imagezindex "github.com/aisa-it/docedit/internal/docedit/plugins/image-zindex"
	"github.com/aisa-it/docedit/internal/docedit/plugins/placeholder"
	simplebox "github.com/aisa-it/docedit/internal/docedit/plugins/simple-box"
)

// Default возвращает плагины в порядке инициализации. Плагины атрибутов изображения идут после image.
func Default() []editor.Plugin {
	return []editor.Plugin{
		image.Plugin{},
		imageposition.Plugin{},
		imagesize.Plugin{},
		imagezindex.Plugin{},
		simplebox.Plugin{},
		placeholder.Plugin{},
	}
}
