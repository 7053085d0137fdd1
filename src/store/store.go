package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Revision is an opaque version tag attached to every persisted record.
type Revision string

// NoRevision is the expected revision for creating a record that must not
// exist yet.
const NoRevision = Revision("")

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrRevisionConflict = errors.New("record revision conflict")
	ErrInvalidKey       = errors.New("invalid record key")
)

// RecordStore persists named JSON documents. Each record is independent:
// writing one record never touches another. Save performs an optimistic
// check against the revision observed at load time and fails with
// ErrRevisionConflict when another writer got there first.
type RecordStore interface {
	Load(ctx context.Context, key string) ([]byte, Revision, error)
	Save(ctx context.Context, key string, data []byte, expected Revision) (Revision, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

func escapeLikePrefix(prefix string) string {
	replaced := strings.ReplaceAll(prefix, `\`, `\\`)
	replaced = strings.ReplaceAll(replaced, "%", `\%`)
	return strings.ReplaceAll(replaced, "_", `\_`)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

// GetRecordStore builds a RecordStore from a DSN. Supported schemes:
// a bare path or file:// for the JSON file store, memory: for the in-memory
// store, postgres:// for PostgreSQL and sqlite:// for SQLite.
func GetRecordStore(dsn string) (RecordStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty store DSN")
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(parsed.Scheme) {
	case "", "file":
		path := parsed.Path
		if path == "" {
			path = parsed.Opaque
		}
		if parsed.Host != "" {
			path = parsed.Host + path
		}
		if parsed.Scheme == "" {
			path = dsn
		}
		return GetFileStore(path, true)
	case "memory", "mem", "inmem":
		return GetMemoryStore(), nil
	case "postgres", "postgresql":
		return GetPostgresStore(dsn)
	case "sqlite", "sqlite3":
		path := parsed.Opaque
		if path == "" {
			path = strings.TrimPrefix(dsn, parsed.Scheme+"://")
		}
		if path == "" {
			return nil, fmt.Errorf("sqlite DSN is missing a database path")
		}
		return GetSqliteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store scheme: %s", parsed.Scheme)
	}
}
