package repo

import (
	"errors"
	"testing"
	"time"

	"attendmap/internal/domain"
	"attendmap/internal/infra/db"
)

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()
	conn, err := db.Connect(":memory:")
	if err != nil {
		t.Fatalf("не удалось открыть базу: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewSQLite(conn)
}

func tweet(id, screenName string) domain.Tweet {
	return domain.Tweet{
		ID:         id,
		ScreenName: screenName,
		Name:       "Имя",
		Date:       time.Date(2013, 4, 1, 12, 0, 0, 0, time.UTC),
		Text:       "я приду",
		RawJSON:    []byte(`{}`),
	}
}

func TestInsertDuplicate(t *testing.T) {
	store := newTestRepo(t)

	if err := store.InsertTweet(tweet("100", "mario")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	err := store.InsertTweet(tweet("100", "mario"))
	if !errors.Is(err, domain.ErrDuplicateTweet) {
		t.Fatalf("ожидали ErrDuplicateTweet, получили %v", err)
	}

	all, err := store.ListTweets(false)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ожидали ровно 1 твит, получили %d", len(all))
	}
}

func TestListUnresolvedAndUpdateLocation(t *testing.T) {
	store := newTestRepo(t)
	if err := store.InsertTweet(tweet("100", "mario")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := store.InsertTweet(tweet("101", "anna")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	unresolved, err := store.ListTweets(true)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(unresolved) != 2 {
		t.Fatalf("ожидали 2 нерешённых твита, получили %d", len(unresolved))
	}

	loc := domain.Location{City: "Rome", Lon: 12.4964, Lat: 41.9028}
	if err := store.UpdateLocation("100", loc); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	unresolved, err = store.ListTweets(true)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].ID != "101" {
		t.Fatalf("решённый твит не должен попадать в выборку: %+v", unresolved)
	}

	all, err := store.ListTweets(false)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	for _, stored := range all {
		if stored.ID != "100" {
			continue
		}
		if stored.City == nil || *stored.City != "Rome" {
			t.Fatalf("ожидали город Rome: %+v", stored)
		}
		if !stored.Resolved() || *stored.Lon != 12.4964 || *stored.Lat != 41.9028 {
			t.Fatalf("ожидали координаты Рима: %+v", stored)
		}
	}
}

func TestUpdateLocationWithoutCityKeepsStoredCity(t *testing.T) {
	store := newTestRepo(t)
	stored := tweet("100", "mario")
	city := "Roma"
	stored.City = &city
	if err := store.InsertTweet(stored); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if err := store.UpdateLocation("100", domain.Location{Lon: 1, Lat: 2}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	all, err := store.ListTweets(false)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if all[0].City == nil || *all[0].City != "Roma" {
		t.Fatalf("решение без города не должно затирать сохранённый город: %+v", all[0])
	}
}

func TestUpdateLocationUnknownTweet(t *testing.T) {
	store := newTestRepo(t)
	if err := store.UpdateLocation("404", domain.Location{Lon: 1, Lat: 2}); err == nil {
		t.Fatalf("ожидали ошибку для неизвестного твита")
	}
}

func TestListForExport(t *testing.T) {
	store := newTestRepo(t)
	if err := store.InsertTweet(tweet("100", "mario")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := store.InsertTweet(tweet("101", "mario")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := store.InsertTweet(tweet("102", "anna")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	for _, id := range []string{"100", "101"} {
		if err := store.UpdateLocation(id, domain.Location{City: "Rome", Lon: 12.4964, Lat: 41.9028}); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}

	withCoords, err := store.ListForExport(true, false)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(withCoords) != 2 {
		t.Fatalf("ожидали 2 твита с координатами, получили %d", len(withCoords))
	}

	all, err := store.ListForExport(false, false)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ожидали 3 твита без фильтра, получили %d", len(all))
	}

	latest, err := store.ListForExport(true, true)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(latest) != 1 {
		t.Fatalf("ожидали 1 твит на автора, получили %d", len(latest))
	}
	if latest[0].ID != "101" {
		t.Fatalf("ожидали последний твит автора (101), получили %s", latest[0].ID)
	}
}

func TestVars(t *testing.T) {
	store := newTestRepo(t)

	value, err := store.GetVar("twitter_max_id", "отсутствует")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if value != "отсутствует" {
		t.Fatalf("ожидали значение по умолчанию, получили %q", value)
	}

	if err := store.SetVar("twitter_max_id", "100"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := store.SetVar("twitter_max_id", "105"); err != nil {
		t.Fatalf("повторная запись должна быть upsert: %v", err)
	}
	value, err = store.GetVar("twitter_max_id", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if value != "105" {
		t.Fatalf("ожидали 105, получили %q", value)
	}

	if err := store.DeleteVar("twitter_max_id"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	value, err = store.GetVar("twitter_max_id", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if value != "" {
		t.Fatalf("после удаления ожидали значение по умолчанию, получили %q", value)
	}
}

func TestDateRoundTrip(t *testing.T) {
	store := newTestRepo(t)
	stored := tweet("100", "mario")
	stored.Date = time.Date(2013, 4, 1, 15, 30, 45, 0, time.UTC)
	if err := store.InsertTweet(stored); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	all, err := store.ListTweets(false)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !all[0].Date.Equal(stored.Date) {
		t.Fatalf("ожидали %v, получили %v", stored.Date, all[0].Date)
	}
}
