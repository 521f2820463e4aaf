package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tweets (
    id TEXT PRIMARY KEY,
    screen_name TEXT,
    name TEXT,
    date TEXT,
    text TEXT,
    city TEXT,
    lon REAL,
    lat REAL,
    orig_tweet TEXT
);

CREATE TABLE IF NOT EXISTS variables (
    name TEXT PRIMARY KEY,
    value TEXT
);
`

// Connect открывает файл SQLite и при первом запуске создаёт таблицы.
func Connect(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	// Одно соединение: база разделяется внутри процесса, а не между ними.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("проверка базы: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("создание схемы: %w", err)
	}
	return conn, nil
}
