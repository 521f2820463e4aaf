package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"attendmap/internal/domain"
	"attendmap/internal/infra/metrics"
)

// Service выполняет один проход инкрементального сканирования.
type Service struct {
	search domain.SearchClient
	tweets domain.TweetRepo
	vars   domain.VarRepo
	query  string
	log    zerolog.Logger
}

// NewService создаёт сканер для поискового запроса события.
func NewService(search domain.SearchClient, tweets domain.TweetRepo, vars domain.VarRepo, query string, logger zerolog.Logger) *Service {
	return &Service{search: search, tweets: tweets, vars: vars, query: query, log: logger}
}

// ScanNew запрашивает твиты новее сохранённого курсора и сохраняет их.
// Дубликаты пропускаются. Курсор обновляется после всех вставок, чтобы
// падение посреди прохода не ушло вперёд несохранённых твитов.
// Возвращает число новых сохранённых твитов.
func (s *Service) ScanNew(ctx context.Context) (int, error) {
	sinceID, err := s.vars.GetVar(domain.VarTwitterMaxID, "")
	if err != nil {
		return 0, fmt.Errorf("чтение курсора: %w", err)
	}

	result, err := s.search.Search(ctx, s.query, sinceID)
	if err != nil {
		return 0, fmt.Errorf("поиск твитов: %w", err)
	}

	stored := 0
	for _, raw := range result.Tweets {
		tweet := domain.Tweet{
			ID:         raw.ID,
			ScreenName: raw.ScreenName,
			Name:       raw.Name,
			Date:       raw.CreatedAt,
			Text:       raw.Text,
			RawJSON:    raw.JSON,
		}
		if err := s.tweets.InsertTweet(tweet); err != nil {
			if errors.Is(err, domain.ErrDuplicateTweet) {
				metrics.ScanTweetsDuplicate.Inc()
				s.log.Debug().Str("tweet", raw.ID).Msg("scan: твит уже сохранён")
				continue
			}
			return stored, fmt.Errorf("сохранение твита %s: %w", raw.ID, err)
		}
		metrics.ScanTweetsNew.Inc()
		s.log.Info().Str("tweet", raw.ID).Str("user", raw.ScreenName).Msg("scan: новый твит")
		stored++
	}

	if result.MaxID != "" && result.MaxID != "0" {
		if err := s.vars.SetVar(domain.VarTwitterMaxID, result.MaxID); err != nil {
			return stored, fmt.Errorf("обновление курсора: %w", err)
		}
	}
	return stored, nil
}
