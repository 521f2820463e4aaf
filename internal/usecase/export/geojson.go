package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"attendmap/internal/domain"
)

// GeoJSON выводит FeatureCollection: по одной точке на твит с координатами.
type GeoJSON struct{}

// Format сериализует твиты в GeoJSON.
func (GeoJSON) Format(tweets []domain.Tweet) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, t := range tweets {
		if !t.Resolved() {
			continue
		}
		feature := geojson.NewFeature(orb.Point{*t.Lon, *t.Lat})
		feature.ID = t.ID
		feature.Properties = geojson.Properties{
			"user_screen_name": t.ScreenName,
			"user_name":        t.Name,
			"text":             t.Text,
			"city":             stringOrEmpty(t.City),
		}
		fc.Append(feature)
	}
	return fc.MarshalJSON()
}
