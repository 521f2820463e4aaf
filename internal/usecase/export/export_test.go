package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"attendmap/internal/domain"
)

func resolvedTweet() domain.Tweet {
	city := "Rome"
	lon := 12.4964
	lat := 41.9028
	return domain.Tweet{
		ID:         "42",
		ScreenName: "mario",
		Name:       "Mario Rossi",
		Date:       time.Date(2013, 4, 1, 12, 0, 0, 0, time.UTC),
		Text:       "I will attend #FakeEventName from Rome",
		City:       &city,
		Lon:        &lon,
		Lat:        &lat,
	}
}

func TestFormats(t *testing.T) {
	names := Formats()
	expected := []string{"csv", "csv-tab", "geojson", "json"}
	if len(names) != len(expected) {
		t.Fatalf("ожидали %d форматов, получили %v", len(expected), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("ожидали %v, получили %v", expected, names)
		}
	}
}

func TestCSVRow(t *testing.T) {
	out, err := Registry["csv"].Format([]domain.Tweet{resolvedTweet()})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	row := strings.TrimRight(string(out), "\n")
	fields := strings.Split(row, ",")
	if len(fields) != 8 {
		t.Fatalf("ожидали 8 полей, получили %d: %q", len(fields), row)
	}
	if fields[0] != "42" || fields[2] != "mario" || fields[5] != "Rome" {
		t.Fatalf("неожиданная строка: %q", row)
	}
	if fields[6] != "12.4964" || fields[7] != "41.9028" {
		t.Fatalf("ожидали координаты в последних полях: %q", row)
	}
}

func TestCSVTabDelimiter(t *testing.T) {
	out, err := Registry["csv-tab"].Format([]domain.Tweet{resolvedTweet()})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !strings.Contains(string(out), "\t") {
		t.Fatalf("ожидали табуляцию в качестве разделителя: %q", out)
	}
}

func TestJSONNestedCoordinates(t *testing.T) {
	unresolved := domain.Tweet{ID: "7", ScreenName: "anna", Name: "Anna", Text: "я приду"}
	out, err := Registry["json"].Format([]domain.Tweet{resolvedTweet(), unresolved})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	var parsed []struct {
		ID          string `json:"id"`
		City        *string
		Coordinates *struct {
			Lon float64 `json:"lon"`
			Lat float64 `json:"lat"`
		} `json:"coordinates"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("не удалось разобрать вывод: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("ожидали 2 объекта, получили %d", len(parsed))
	}
	if parsed[0].Coordinates == nil || parsed[0].Coordinates.Lon != 12.4964 {
		t.Fatalf("ожидали вложенные координаты: %+v", parsed[0])
	}
	if parsed[1].Coordinates != nil {
		t.Fatalf("у твита без координат объект coordinates должен быть null")
	}
}

func TestGeoJSONRoundTrip(t *testing.T) {
	tweet := resolvedTweet()
	out, err := Registry["geojson"].Format([]domain.Tweet{tweet})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(out)
	if err != nil {
		t.Fatalf("не удалось разобрать FeatureCollection: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("ожидали 1 точку, получили %d", len(fc.Features))
	}
	point, ok := fc.Features[0].Geometry.(orb.Point)
	if !ok {
		t.Fatalf("ожидали геометрию Point, получили %T", fc.Features[0].Geometry)
	}
	if point[0] != *tweet.Lon || point[1] != *tweet.Lat {
		t.Fatalf("геометрия должна воспроизводить сохранённые координаты: %v", point)
	}
	if fc.Features[0].Properties.MustString("city") != "Rome" {
		t.Fatalf("ожидали город в свойствах: %+v", fc.Features[0].Properties)
	}
}

func TestGeoJSONSkipsUnresolved(t *testing.T) {
	unresolved := domain.Tweet{ID: "7", Text: "я приду"}
	out, err := Registry["geojson"].Format([]domain.Tweet{unresolved})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(out)
	if err != nil {
		t.Fatalf("не удалось разобрать FeatureCollection: %v", err)
	}
	if len(fc.Features) != 0 {
		t.Fatalf("твит без координат не должен попадать в GeoJSON")
	}
}
