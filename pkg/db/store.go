package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/japaniel/ramtools/pkg/wordpool"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ErrPoolExists is returned when a pool id is saved twice.
var ErrPoolExists = errors.New("session pool already saved")

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// SavePool stores a labelled pool in a single transaction.
func SavePool(conn *sql.DB, summary PoolSummary, pool *wordpool.WordPool) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := SavePoolTx(tx, summary, pool); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SavePoolTx writes the pool rows using db, which is normally a *sql.Tx.
func SavePoolTx(db DBExecutor, summary PoolSummary, pool *wordpool.WordPool) error {
	id := strings.TrimSpace(summary.ID)
	if id == "" {
		return fmt.Errorf("pool id must be non-empty")
	}
	if pool == nil || pool.Len() == 0 {
		return fmt.Errorf("pool %s has no lists", id)
	}
	createdAt := summary.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.Exec(`INSERT INTO session_pools (id, experiment, language, words_per_list, num_lists, seed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, summary.Experiment, summary.Language, summary.WordsPerList, summary.NumLists, summary.Seed, createdAt)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("%w: %s", ErrPoolExists, id)
		}
		return fmt.Errorf("insert pool: %w", err)
	}

	for pos, wl := range pool.Lists {
		res, err := db.Exec(`INSERT INTO pool_lists (pool_id, position, list_type) VALUES (?, ?, ?)`, id, pos, wl.Type())
		if err != nil {
			return fmt.Errorf("insert list %d: %w", pos, err)
		}
		listID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for wpos, w := range wl.Words {
			if _, err := db.Exec(`INSERT INTO list_words (list_id, position, word) VALUES (?, ?, ?)`, listID, wpos, w); err != nil {
				return fmt.Errorf("insert word %q: %w", w, err)
			}
		}
	}
	return nil
}

// GetPool rebuilds a stored pool in presentation order.
func GetPool(db DBExecutor, id string) (PoolSummary, *wordpool.WordPool, error) {
	var s PoolSummary
	err := db.QueryRow(`SELECT id, experiment, language, words_per_list, num_lists, seed, created_at FROM session_pools WHERE id = ?`, id).
		Scan(&s.ID, &s.Experiment, &s.Language, &s.WordsPerList, &s.NumLists, &s.Seed, &s.CreatedAt)
	if err != nil {
		return s, nil, err
	}

	rows, err := db.Query(`SELECT pl.position, pl.list_type, lw.word
		FROM pool_lists pl LEFT JOIN list_words lw ON lw.list_id = pl.id
		WHERE pl.pool_id = ?
		ORDER BY pl.position, lw.position`, id)
	if err != nil {
		return s, nil, err
	}
	defer rows.Close()

	pool := wordpool.NewWordPool(nil)
	last := -1
	for rows.Next() {
		var pos int
		var listType string
		var word sql.NullString
		if err := rows.Scan(&pos, &listType, &word); err != nil {
			return s, nil, err
		}
		if pos != last {
			wl := wordpool.NewWordList(nil, nil)
			if listType != "" {
				wl.SetType(listType)
			}
			pool.Lists = append(pool.Lists, wl)
			last = pos
		}
		if word.Valid {
			cur := pool.Lists[len(pool.Lists)-1]
			cur.Words = append(cur.Words, word.String)
		}
	}
	if err := rows.Err(); err != nil {
		return s, nil, err
	}
	return s, pool, nil
}

// ListPools returns stored pools, newest first.
func ListPools(db DBExecutor) ([]PoolSummary, error) {
	rows, err := db.Query(`SELECT id, experiment, language, words_per_list, num_lists, seed, created_at FROM session_pools ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PoolSummary
	for rows.Next() {
		var s PoolSummary
		if err := rows.Scan(&s.ID, &s.Experiment, &s.Language, &s.WordsPerList, &s.NumLists, &s.Seed, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordUpload appends a transfer attempt to the upload log.
func RecordUpload(db DBExecutor, u Upload) (int64, error) {
	if err := validateUpload(u); err != nil {
		return 0, err
	}
	res, err := db.Exec(`INSERT INTO uploads (subject, experiment, session, kind, src, dest, success, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Subject, u.Experiment, nullableSession(u.Session), u.Kind, u.Src, u.Dest, u.Success, u.Message, u.StartedAt, u.FinishedAt)
	if err != nil {
		return 0, fmt.Errorf("insert upload: %w", err)
	}
	return res.LastInsertId()
}

func validateUpload(u Upload) error {
	if strings.TrimSpace(u.Subject) == "" {
		return fmt.Errorf("subject must be non-empty")
	}
	if strings.TrimSpace(u.Kind) == "" {
		return fmt.Errorf("kind must be non-empty")
	}
	return nil
}

// ListUploads returns the upload log for subject in insertion order. An empty
// subject returns every entry.
func ListUploads(db DBExecutor, subject string) ([]Upload, error) {
	query := `SELECT id, subject, experiment, session, kind, src, dest, success, message, started_at, finished_at FROM uploads`
	var args []interface{}
	if subject != "" {
		query += ` WHERE subject = ?`
		args = append(args, subject)
	}
	query += ` ORDER BY id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Upload
	for rows.Next() {
		var u Upload
		var session sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Subject, &u.Experiment, &session, &u.Kind, &u.Src, &u.Dest, &u.Success, &u.Message, &u.StartedAt, &u.FinishedAt); err != nil {
			return nil, err
		}
		u.Session = -1
		if session.Valid {
			u.Session = int(session.Int64)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullableSession returns nil for negative session numbers.
func nullableSession(v int) interface{} {
	if v < 0 {
		return nil
	}
	return v
}
