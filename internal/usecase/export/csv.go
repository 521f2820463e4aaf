package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"attendmap/internal/domain"
)

// CSV выводит по одной строке на твит:
// id, имя, логин, дата, текст, город, долгота, широта.
type CSV struct {
	Delimiter rune
}

// Format сериализует твиты в CSV.
func (e CSV) Format(tweets []domain.Tweet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if e.Delimiter != 0 {
		w.Comma = e.Delimiter
	}
	for _, t := range tweets {
		record := []string{
			t.ID,
			t.Name,
			t.ScreenName,
			t.Date.UTC().Format(time.RFC3339),
			t.Text,
			stringOrEmpty(t.City),
			floatOrEmpty(t.Lon),
			floatOrEmpty(t.Lat),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
