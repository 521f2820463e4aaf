package export

import (
	"sort"

	"attendmap/internal/domain"
)

// Exporter сериализует выборку твитов в один из форматов обмена.
type Exporter interface {
	Format(tweets []domain.Tweet) ([]byte, error)
}

// Registry — реестр форматов экспорта.
var Registry = map[string]Exporter{
	"csv":     CSV{Delimiter: ','},
	"csv-tab": CSV{Delimiter: '\t'},
	"json":    JSON{},
	"geojson": GeoJSON{},
}

// Formats возвращает отсортированный список имён форматов.
func Formats() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
