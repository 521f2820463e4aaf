package export

import (
	"encoding/json"
	"time"

	"attendmap/internal/domain"
)

// JSON выводит массив объектов с вложенным объектом координат.
type JSON struct{}

type tweetObject struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	ScreenName  string        `json:"screen_name"`
	Date        time.Time     `json:"date"`
	Text        string        `json:"text"`
	City        *string       `json:"city"`
	Coordinates *coordsObject `json:"coordinates"`
}

type coordsObject struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Format сериализует твиты в JSON.
func (JSON) Format(tweets []domain.Tweet) ([]byte, error) {
	objects := make([]tweetObject, 0, len(tweets))
	for _, t := range tweets {
		obj := tweetObject{
			ID:         t.ID,
			Name:       t.Name,
			ScreenName: t.ScreenName,
			Date:       t.Date.UTC(),
			Text:       t.Text,
			City:       t.City,
		}
		if t.Resolved() {
			obj.Coordinates = &coordsObject{Lon: *t.Lon, Lat: *t.Lat}
		}
		objects = append(objects, obj)
	}
	return json.Marshal(objects)
}
