package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"attendmap/internal/domain"
	"attendmap/internal/infra/metrics"
)

// SQLite реализует репозитории твитов и переменных на основе database/sql.
type SQLite struct {
	conn *sql.DB
}

var (
	_ domain.TweetRepo = (*SQLite)(nil)
	_ domain.VarRepo   = (*SQLite)(nil)
)

// NewSQLite создаёт адаптер БД.
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{conn: conn}
}

func (s *SQLite) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

const tweetColumns = "id, screen_name, name, date, text, city, lon, lat, orig_tweet"

// InsertTweet сохраняет новый твит. Повторный id даёт domain.ErrDuplicateTweet.
func (s *SQLite) InsertTweet(t domain.Tweet) error {
	ctx, cancel := s.connCtx()
	defer cancel()

	start := time.Now()
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO tweets (id, screen_name, name, date, text, city, lon, lat, orig_tweet)
VALUES (?,?,?,?,?,?,?,?,?)
`, t.ID, t.ScreenName, t.Name, t.Date.UTC().Format(time.RFC3339), t.Text,
		nullString(t.City), nullFloat(t.Lon), nullFloat(t.Lat), string(t.RawJSON))
	metrics.ObserveNetworkRequest("sqlite", "tweets_insert", "tweets", start, err)
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) {
			switch se.Code() {
			case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				return domain.ErrDuplicateTweet
			}
		}
		return fmt.Errorf("сохранение твита: %w", err)
	}
	return nil
}

// ListTweets возвращает твиты без координат либо все.
func (s *SQLite) ListTweets(onlyUnresolved bool) ([]domain.Tweet, error) {
	ctx, cancel := s.connCtx()
	defer cancel()

	query := "SELECT " + tweetColumns + " FROM tweets"
	if onlyUnresolved {
		query += " WHERE lon IS NULL OR lat IS NULL"
	}

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query)
	metrics.ObserveNetworkRequest("sqlite", "tweets_list", "tweets", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка твитов: %w", err)
	}
	defer rows.Close()
	return scanTweets(rows, false)
}

// UpdateLocation записывает решение резолвера одним обновлением.
// Город перезаписывается только когда он известен.
func (s *SQLite) UpdateLocation(id string, loc domain.Location) error {
	ctx, cancel := s.connCtx()
	defer cancel()

	query := `UPDATE tweets SET lon=?, lat=? WHERE id=?`
	args := []any{loc.Lon, loc.Lat, id}
	if loc.City != "" {
		query = `UPDATE tweets SET city=?, lon=?, lat=? WHERE id=?`
		args = []any{loc.City, loc.Lon, loc.Lat, id}
	}

	start := time.Now()
	res, err := s.conn.ExecContext(ctx, query, args...)
	metrics.ObserveNetworkRequest("sqlite", "tweets_update_location", "tweets", start, err)
	if err != nil {
		return fmt.Errorf("обновление координат: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("твит %s не найден", id)
	}
	return nil
}

// ListForExport возвращает твиты для сериализации.
// При onlyLatest остаётся по одному (последнему по id) твиту на автора.
func (s *SQLite) ListForExport(requireCoordinates, onlyLatest bool) ([]domain.Tweet, error) {
	ctx, cancel := s.connCtx()
	defer cancel()

	query := "SELECT " + tweetColumns
	if onlyLatest {
		query = "SELECT max(id) AS max_id, " + tweetColumns
	}
	query += " FROM tweets"
	if requireCoordinates {
		query += " WHERE lon IS NOT NULL AND lat IS NOT NULL"
	}
	if onlyLatest {
		query += " GROUP BY screen_name"
	}
	query += " ORDER BY id ASC"

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query)
	metrics.ObserveNetworkRequest("sqlite", "tweets_list_export", "tweets", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка для экспорта: %w", err)
	}
	defer rows.Close()
	return scanTweets(rows, onlyLatest)
}

func scanTweets(rows *sql.Rows, withMaxID bool) ([]domain.Tweet, error) {
	var tweets []domain.Tweet
	for rows.Next() {
		var (
			t     domain.Tweet
			maxID sql.NullString
			date  string
			city  sql.NullString
			lon   sql.NullFloat64
			lat   sql.NullFloat64
			raw   string
		)
		dest := []any{&t.ID, &t.ScreenName, &t.Name, &date, &t.Text, &city, &lon, &lat, &raw}
		if withMaxID {
			dest = append([]any{&maxID}, dest...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("чтение строки: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("разбор даты твита %s: %w", t.ID, err)
		}
		t.Date = parsed
		if city.Valid {
			v := city.String
			t.City = &v
		}
		if lon.Valid {
			v := lon.Float64
			t.Lon = &v
		}
		if lat.Valid {
			v := lat.Float64
			t.Lat = &v
		}
		t.RawJSON = []byte(raw)
		tweets = append(tweets, t)
	}
	return tweets, rows.Err()
}

// GetVar возвращает значение переменной либо def, если её нет.
func (s *SQLite) GetVar(name, def string) (string, error) {
	ctx, cancel := s.connCtx()
	defer cancel()

	var value string
	start := time.Now()
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM variables WHERE name=?`, name).Scan(&value)
	metrics.ObserveNetworkRequest("sqlite", "variables_get", "variables", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("чтение переменной %s: %w", name, err)
	}
	return value, nil
}

// SetVar сохраняет переменную (insert, при конфликте update).
func (s *SQLite) SetVar(name, value string) error {
	ctx, cancel := s.connCtx()
	defer cancel()

	start := time.Now()
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO variables (name, value) VALUES (?,?)
ON CONFLICT(name) DO UPDATE SET value=excluded.value
`, name, value)
	metrics.ObserveNetworkRequest("sqlite", "variables_set", "variables", start, err)
	if err != nil {
		return fmt.Errorf("запись переменной %s: %w", name, err)
	}
	return nil
}

// DeleteVar удаляет переменную.
func (s *SQLite) DeleteVar(name string) error {
	ctx, cancel := s.connCtx()
	defer cancel()

	start := time.Now()
	_, err := s.conn.ExecContext(ctx, `DELETE FROM variables WHERE name=?`, name)
	metrics.ObserveNetworkRequest("sqlite", "variables_delete", "variables", start, err)
	if err != nil {
		return fmt.Errorf("удаление переменной %s: %w", name, err)
	}
	return nil
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
