package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"attendmap/internal/domain"
	"attendmap/internal/infra/metrics"
)

// Service обходит сохранённые твиты и заново выводит их координаты.
type Service struct {
	tweets   domain.TweetRepo
	parser   domain.TweetParser
	resolver domain.Resolver
	log      zerolog.Logger
}

// NewService создаёт обход геолокации.
func NewService(tweets domain.TweetRepo, parser domain.TweetParser, resolver domain.Resolver, logger zerolog.Logger) *Service {
	return &Service{tweets: tweets, parser: parser, resolver: resolver, log: logger}
}

// Reconcile проходит по твитам без координат (или по всем) и обновляет их.
// Твиты без решения остаются нетронутыми и попадут в следующий обход.
// Сбой на одном твите не прерывает обработку остальных.
func (s *Service) Reconcile(ctx context.Context, onlyUnresolved bool) error {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	tweets, err := s.tweets.ListTweets(onlyUnresolved)
	if err != nil {
		return fmt.Errorf("выборка твитов: %w", err)
	}

	for _, stored := range tweets {
		raw, err := s.parser.Parse(stored.RawJSON)
		if err != nil {
			s.log.Error().Err(err).Str("tweet", stored.ID).Msg("sweep: не удалось разобрать исходный твит")
			continue
		}

		loc := s.resolver.Resolve(ctx, raw)
		if loc == nil {
			s.log.Debug().Str("tweet", stored.ID).Msg("sweep: местоположение не определено")
			continue
		}

		if err := s.tweets.UpdateLocation(stored.ID, *loc); err != nil {
			s.log.Error().Err(err).Str("tweet", stored.ID).Msg("sweep: не удалось сохранить координаты")
			continue
		}
		metrics.SweepTweetsResolved.Inc()
		s.log.Info().Str("tweet", stored.ID).Str("city", loc.City).
			Float64("lon", loc.Lon).Float64("lat", loc.Lat).Msg("sweep: координаты обновлены")
	}
	return nil
}
