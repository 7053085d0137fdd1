package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type memoryRecord struct {
	data []byte
	rev  uint64
}

// MemoryStore is a map-backed RecordStore used by tests and dummy runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	counter uint64
}

func GetMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, Revision, error) {
	if err := validateKey(key); err != nil {
		return nil, NoRevision, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, NoRevision, ErrRecordNotFound
	}

	data := make([]byte, len(record.data))
	copy(data, record.data)
	return data, Revision(strconv.FormatUint(record.rev, 10)), nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, data []byte, expected Revision) (Revision, error) {
	if err := validateKey(key); err != nil {
		return NoRevision, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[key]
	if !exists {
		if expected != NoRevision {
			return NoRevision, ErrRevisionConflict
		}
	} else if expected != Revision(strconv.FormatUint(record.rev, 10)) {
		return NoRevision, ErrRevisionConflict
	}

	s.counter++
	stored := make([]byte, len(data))
	copy(stored, data)
	s.records[key] = memoryRecord{data: stored, rev: s.counter}
	return Revision(strconv.FormatUint(s.counter, 10)), nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := []string{}
	for key := range s.records {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		return ErrRecordNotFound
	}
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
