package domain

import "time"

// Tweet представляет сохранённый твит участника события.
type Tweet struct {
	ID         string
	ScreenName string
	Name       string
	Date       time.Time
	Text       string
	City       *string
	Lon        *float64
	Lat        *float64
	RawJSON    []byte
}

// Resolved сообщает, заполнены ли у твита координаты.
func (t Tweet) Resolved() bool {
	return t.Lon != nil && t.Lat != nil
}

// Point — пара координат (долгота, широта).
type Point struct {
	Lon float64
	Lat float64
}

// Location — решение резолвера о местоположении твита.
// City пустой, если имя города определить не удалось.
type Location struct {
	City string
	Lon  float64
	Lat  float64
}

// MatchResult содержит именованные группы сработавшего шаблона.
// City может быть пустым и при успешном совпадении.
type MatchResult struct {
	City string
}

// RawTweet — твит в том виде, в котором его вернул поисковый API.
type RawTweet struct {
	ID          string
	ScreenName  string
	Name        string
	CreatedAt   time.Time
	Text        string
	Coordinates *Point
	JSON        []byte
}

// SearchResult — страница результатов поиска вместе с курсором API.
type SearchResult struct {
	Tweets []RawTweet
	MaxID  string
}
