package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS session_pools (
	id TEXT PRIMARY KEY,
	experiment TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL,
	words_per_list INTEGER NOT NULL,
	num_lists INTEGER NOT NULL,
	seed TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pool_lists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pool_id TEXT NOT NULL REFERENCES session_pools(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	list_type TEXT NOT NULL DEFAULT '',
	UNIQUE(pool_id, position)
);

CREATE TABLE IF NOT EXISTS list_words (
	list_id INTEGER NOT NULL REFERENCES pool_lists(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	word TEXT NOT NULL,
	PRIMARY KEY (list_id, position)
);

CREATE TABLE IF NOT EXISTS uploads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	experiment TEXT NOT NULL DEFAULT '',
	session INTEGER,
	kind TEXT NOT NULL,
	src TEXT NOT NULL,
	dest TEXT NOT NULL,
	success INTEGER NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploads_subject ON uploads(subject);
`

// Open opens the sqlite database at path and applies migrations.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
