// Пакет conversion реализует двунаправленное преобразование между моделью документа и представлением.
//
// Конвертеры хранятся в явных упорядоченных реестрах по ключу события. Изменение модели
// обрабатывается конвертерами по убыванию приоритета до первого потребления. При разборе
// представления конвертеры потребляют маркеры узлов (имя, классы, стили, атрибуты),
// а непотребленные маркеры отбрасываются.
package conversion

// Conversion объединяет реестры обоих направлений.
type Conversion struct {
	Downcast *Downcast
	Upcast   *Upcast
}

func New() *Conversion {
	return &Conversion{
		Downcast: NewDowncast(),
		Upcast:   NewUpcast(),
	}
}
