package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SqliteStore mirrors the postgres row layout on an embedded database.
// Use ":memory:" as the path for an in-memory database.
type SqliteStore struct {
	db *sql.DB
}

func GetSqliteStore(path string) (RecordStore, error) {
	if path == "" {
		return nil, errors.New("empty sqlite path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
		CREATE TABLE IF NOT EXISTS notionpush_records (
			record_key TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			revision   INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Load(ctx context.Context, key string) ([]byte, Revision, error) {
	if err := validateKey(key); err != nil {
		return nil, NoRevision, err
	}

	var document string
	var revision int64
	err := s.db.QueryRowContext(ctx,
		"SELECT document, revision FROM notionpush_records WHERE record_key = ?",
		key).Scan(&document, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NoRevision, ErrRecordNotFound
	}
	if err != nil {
		return nil, NoRevision, err
	}

	return []byte(document), Revision(strconv.FormatInt(revision, 10)), nil
}

func (s *SqliteStore) Save(ctx context.Context, key string, data []byte, expected Revision) (Revision, error) {
	if err := validateKey(key); err != nil {
		return NoRevision, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	if expected == NoRevision {
		result, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO notionpush_records (record_key, document, revision, updated_at) VALUES (?, ?, 1, ?)",
			key, string(data), now)
		if err != nil {
			return NoRevision, err
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return NoRevision, err
		}
		if inserted == 0 {
			return NoRevision, ErrRevisionConflict
		}
		return Revision("1"), nil
	}

	expectedRev, err := strconv.ParseInt(string(expected), 10, 64)
	if err != nil {
		return NoRevision, ErrRevisionConflict
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE notionpush_records SET document = ?, revision = revision + 1, updated_at = ? WHERE record_key = ? AND revision = ?",
		string(data), now, key, expectedRev)
	if err != nil {
		return NoRevision, err
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return NoRevision, err
	}
	if updated == 0 {
		return NoRevision, ErrRevisionConflict
	}

	return Revision(strconv.FormatInt(expectedRev+1, 10)), nil
}

func (s *SqliteStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_key FROM notionpush_records WHERE record_key LIKE ? ESCAPE '\' ORDER BY record_key`,
		escapeLikePrefix(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SqliteStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notionpush_records WHERE record_key = ?", key)
	if err != nil {
		return err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
