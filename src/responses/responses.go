package responses

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rainbowlabs/notionpush/src/store"
)

const (
	RESPONSE_KEY_PREFIX = "responses/"
	TIMESTAMP_FIELD     = "timestamp"
	CONFLICT_RETRIES    = 3
)

// Document is a schema-less API response payload.
type Document map[string]interface{}

// Store keeps Notion API responses grouped by collection, one document per
// generated or caller-provided id.
type Store struct {
	records store.RecordStore
	now     func() time.Time
	newID   func() string
}

func GetResponseStore(recordStore store.RecordStore) *Store {
	return &Store{
		records: recordStore,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func validateName(kind, name string) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
		return errors.Errorf("invalid %s name: %q", kind, name)
	}
	return nil
}

func documentKey(collection, docID string) string {
	return RESPONSE_KEY_PREFIX + collection + "/" + docID
}

// Save persists data under collection/docID, generating a doc id when none
// is given. Existing documents are merged shallowly, new keys win.
func (s *Store) Save(ctx context.Context, collection, docID string, data Document) (string, error) {
	if err := validateName("collection", collection); err != nil {
		return "", err
	}
	if docID == "" {
		docID = s.newID()
	}
	if err := validateName("document", docID); err != nil {
		return "", err
	}

	key := documentKey(collection, docID)
	var lastErr error
	for attempt := 0; attempt <= CONFLICT_RETRIES; attempt++ {
		merged := Document{}
		existing, revision, err := s.records.Load(ctx, key)
		if err == nil {
			if err := json.Unmarshal(existing, &merged); err != nil {
				return "", errors.Wrapf(err, "corrupt response document %s", key)
			}
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return "", errors.Wrapf(err, "failed to load response document %s", key)
		}

		for field, value := range data {
			merged[field] = value
		}
		if _, ok := merged[TIMESTAMP_FIELD]; !ok {
			merged[TIMESTAMP_FIELD] = s.now().UTC().Format(time.RFC3339Nano)
		}

		encoded, err := json.Marshal(merged)
		if err != nil {
			return "", errors.Wrapf(err, "failed to encode response document %s", key)
		}

		if _, err := s.records.Save(ctx, key, encoded, revision); err != nil {
			if errors.Is(err, store.ErrRevisionConflict) {
				lastErr = err
				continue
			}
			return "", errors.Wrapf(err, "failed to save response document %s", key)
		}
		return docID, nil
	}
	return "", errors.Wrapf(lastErr, "failed to save response document %s", key)
}

// Get retrieves one stored response document.
func (s *Store) Get(ctx context.Context, collection, docID string) (Document, error) {
	data, _, err := s.records.Load(ctx, documentKey(collection, docID))
	if err != nil {
		return nil, err
	}

	document := Document{}
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrapf(err, "corrupt response document %s/%s", collection, docID)
	}
	return document, nil
}

// List returns up to limit documents of a collection, most recent first.
func (s *Store) List(ctx context.Context, collection string, limit int) ([]Document, error) {
	if err := validateName("collection", collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	keys, err := s.records.List(ctx, RESPONSE_KEY_PREFIX+collection+"/")
	if err != nil {
		return nil, err
	}

	documents := make([]Document, 0, len(keys))
	for _, key := range keys {
		data, _, err := s.records.Load(ctx, key)
		if errors.Is(err, store.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		document := Document{}
		if err := json.Unmarshal(data, &document); err != nil {
			continue
		}
		documents = append(documents, document)
	}

	sort.Slice(documents, func(i, j int) bool {
		left, _ := documents[i][TIMESTAMP_FIELD].(string)
		right, _ := documents[j][TIMESTAMP_FIELD].(string)
		return left > right
	})

	if len(documents) > limit {
		documents = documents[:limit]
	}
	return documents, nil
}

// Delete removes one stored response document.
func (s *Store) Delete(ctx context.Context, collection, docID string) error {
	return s.records.Delete(ctx, documentKey(collection, docID))
}
