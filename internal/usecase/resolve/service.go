package resolve

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"attendmap/internal/domain"
	"attendmap/internal/infra/metrics"
	"attendmap/internal/usecase/match"
)

// Service выносит решение о местоположении твита.
//
// Порядок приоритета: город из текста (прямое геокодирование) важнее
// координат, приложенных к твиту, — устройство могло отправить твит не из
// города участия. Отказ геокодирования не прерывает резолв, а переводит
// его на следующую ступень.
type Service struct {
	matcher  *match.Matcher
	geocoder domain.Geocoder
	log      zerolog.Logger
}

var _ domain.Resolver = (*Service)(nil)

// NewService создаёт резолвер.
func NewService(matcher *match.Matcher, geocoder domain.Geocoder, logger zerolog.Logger) *Service {
	return &Service{matcher: matcher, geocoder: geocoder, log: logger}
}

// Resolve возвращает решение о местоположении либо nil.
func (s *Service) Resolve(ctx context.Context, tweet domain.RawTweet) *domain.Location {
	result, ok := s.matcher.Match(tweet.Text)
	if !ok {
		// Твит не про событие: координаты не смотрим вовсе.
		return nil
	}

	if result.City != "" {
		point, err := s.geocoder.Forward(ctx, result.City)
		if err == nil {
			return &domain.Location{City: result.City, Lon: point.Lon, Lat: point.Lat}
		}
		var svcErr *domain.GeocodeServiceError
		if errors.As(err, &svcErr) {
			s.log.Warn().Str("tweet", tweet.ID).Str("city", result.City).
				Str("reason", svcErr.Message).Msg("resolve: сервис геокодирования отказал")
		} else {
			s.log.Warn().Err(err).Str("tweet", tweet.ID).Str("city", result.City).
				Msg("resolve: не удалось геокодировать город")
		}
		if tweet.Coordinates != nil {
			// Фолбэк считаем только когда есть куда отступать.
			metrics.GeocodeFallbacks.Inc()
		}
	}

	if tweet.Coordinates == nil {
		return nil
	}
	loc := &domain.Location{Lon: tweet.Coordinates.Lon, Lat: tweet.Coordinates.Lat}
	city, err := s.geocoder.Reverse(ctx, *tweet.Coordinates)
	if err != nil {
		// Без имени города, но с координатами — решение всё равно есть.
		s.log.Warn().Err(err).Str("tweet", tweet.ID).Msg("resolve: обратное геокодирование не удалось")
		return loc
	}
	loc.City = city
	return loc
}
