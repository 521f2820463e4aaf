package domain

import (
	"context"
	"errors"
)

// Имена переменных в хранилище.
const (
	VarTwitterMaxID = "twitter_max_id"
	VarAccessToken  = "access_token"
)

// ErrDuplicateTweet возвращается при попытке сохранить уже известный твит.
var ErrDuplicateTweet = errors.New("твит уже сохранён")

// GeocodeServiceError — ошибка, о которой сообщил сам сервис геокодирования,
// в отличие от транспортных сбоев и битых ответов.
type GeocodeServiceError struct {
	Message string
}

func (e *GeocodeServiceError) Error() string {
	return "сервис геокодирования: " + e.Message
}

// TweetRepo управляет сохранёнными твитами.
type TweetRepo interface {
	InsertTweet(tweet Tweet) error
	ListTweets(onlyUnresolved bool) ([]Tweet, error)
	UpdateLocation(id string, loc Location) error
	ListForExport(requireCoordinates, onlyLatest bool) ([]Tweet, error)
}

// VarRepo — хранилище именованных переменных процесса.
type VarRepo interface {
	GetVar(name, def string) (string, error)
	SetVar(name, value string) error
	DeleteVar(name string) error
}

// Geocoder выполняет прямое и обратное геокодирование.
type Geocoder interface {
	Forward(ctx context.Context, place string) (Point, error)
	Reverse(ctx context.Context, p Point) (string, error)
}

// SearchClient ищет твиты по запросу события.
type SearchClient interface {
	Search(ctx context.Context, query, sinceID string) (SearchResult, error)
}

// TweetParser разбирает сохранённый исходный ответ API обратно в RawTweet.
type TweetParser interface {
	Parse(raw []byte) (RawTweet, error)
}

// Resolver выносит решение о местоположении твита.
// nil означает, что местоположение определить не удалось.
type Resolver interface {
	Resolve(ctx context.Context, tweet RawTweet) *Location
}
