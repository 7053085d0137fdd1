package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"

	_ "github.com/lib/pq"
)

const postgresRecordTable = "notionpush_records"

// PostgresStore keeps every record as a row with a monotonically increasing
// revision column. The revision guard on UPDATE is what detects concurrent
// writers racing on the same record.
type PostgresStore struct {
	dsn string

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func GetPostgresStore(dsn string) (RecordStore, error) {
	if dsn == "" {
		return nil, errors.New("empty postgres DSN")
	}
	return &PostgresStore{dsn: dsn}, nil
}

func (s *PostgresStore) ensureReady(ctx context.Context) error {
	s.initOnce.Do(func() {
		db, err := sql.Open("postgres", s.dsn)
		if err != nil {
			s.initErr = err
			return
		}

		query := `
			CREATE TABLE IF NOT EXISTS ` + postgresRecordTable + ` (
				record_key TEXT PRIMARY KEY,
				document   TEXT NOT NULL,
				revision   BIGINT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			s.initErr = err
			return
		}
		s.db = db
	})
	return s.initErr
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, Revision, error) {
	if err := validateKey(key); err != nil {
		return nil, NoRevision, err
	}
	if err := s.ensureReady(ctx); err != nil {
		return nil, NoRevision, err
	}

	query := `SELECT document, revision FROM ` + postgresRecordTable + ` WHERE record_key = $1`
	var document string
	var revision int64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&document, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NoRevision, ErrRecordNotFound
	}
	if err != nil {
		return nil, NoRevision, err
	}

	return []byte(document), Revision(strconv.FormatInt(revision, 10)), nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, data []byte, expected Revision) (Revision, error) {
	if err := validateKey(key); err != nil {
		return NoRevision, err
	}
	if err := s.ensureReady(ctx); err != nil {
		return NoRevision, err
	}

	if expected == NoRevision {
		query := `
			INSERT INTO ` + postgresRecordTable + ` (record_key, document, revision, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (record_key) DO NOTHING`
		result, err := s.db.ExecContext(ctx, query, key, string(data))
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

	query := `
		UPDATE ` + postgresRecordTable + `
		SET document = $2, revision = revision + 1, updated_at = NOW()
		WHERE record_key = $1 AND revision = $3`
	result, err := s.db.ExecContext(ctx, query, key, string(data), expectedRev)
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

func (s *PostgresStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}

	query := `SELECT record_key FROM ` + postgresRecordTable + ` WHERE record_key LIKE $1 ORDER BY record_key`
	rows, err := s.db.QueryContext(ctx, query, escapeLikePrefix(prefix)+"%")
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

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	query := `DELETE FROM ` + postgresRecordTable + ` WHERE record_key = $1`
	result, err := s.db.ExecContext(ctx, query, key)
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

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
