package memorybank

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rainbowlabs/notionpush/src/store"
)

const DEFAULT_CONFLICT_RETRIES = 3

// MemoryBank keeps the cross-invocation bookkeeping of a push agent in four
// independent records. Each operation is a read-modify-write of exactly one
// record; a failure on one record never blocks or corrupts the others.
type MemoryBank struct {
	store           store.RecordStore
	now             func() time.Time
	conflictRetries int
}

func GetMemoryBank(recordStore store.RecordStore) *MemoryBank {
	return GetMemoryBankWithClock(recordStore, time.Now)
}

// GetMemoryBankWithClock lets tests pin the timestamps written by mutations.
func GetMemoryBankWithClock(recordStore store.RecordStore, now func() time.Time) *MemoryBank {
	return &MemoryBank{
		store:           recordStore,
		now:             now,
		conflictRetries: DEFAULT_CONFLICT_RETRIES,
	}
}

func loadRecord[T any](ctx context.Context, bank *MemoryBank, key string, defaults func() *T) (*T, store.Revision, error) {
	data, revision, err := bank.store.Load(ctx, key)
	if errors.Is(err, store.ErrRecordNotFound) {
		return defaults(), store.NoRevision, nil
	}
	if err != nil {
		return nil, store.NoRevision, &StorageError{Record: key, Err: err}
	}

	record := defaults()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, store.NoRevision, &StorageError{Record: key, Err: err}
	}
	return record, revision, nil
}

// mutateRecord applies fn to the current value of one record and persists the
// result, retrying a bounded number of times when a concurrent invocation
// saved the same record in between.
func mutateRecord[T any](ctx context.Context, bank *MemoryBank, key string, defaults func() *T, fn func(*T) error) error {
	var lastErr error
	for attempt := 0; attempt <= bank.conflictRetries; attempt++ {
		record, revision, err := loadRecord(ctx, bank, key, defaults)
		if err != nil {
			return err
		}

		if err := fn(record); err != nil {
			return err
		}

		data, err := json.Marshal(record)
		if err != nil {
			return &StorageError{Record: key, Err: err}
		}

		if _, err := bank.store.Save(ctx, key, data, revision); err != nil {
			if errors.Is(err, store.ErrRevisionConflict) {
				lastErr = err
				continue
			}
			return &StorageError{Record: key, Err: err}
		}
		return nil
	}
	return &StorageError{Record: key, Err: lastErr}
}

// UpdatePage merges data into the tracked properties of the given page,
// creating the entry when the page was never seen before.
func (bank *MemoryBank) UpdatePage(ctx context.Context, pageID string, data map[string]interface{}) error {
	if pageID == "" {
		return &ValidationError{Field: "page_id", Reason: "must not be empty"}
	}

	return mutateRecord(ctx, bank, PAGE_RECORD_KEY, NewPageRecord, func(record *PageRecord) error {
		now := bank.now()
		entry := record.Pages[pageID]
		if entry.Properties == nil {
			entry.Properties = map[string]interface{}{}
		}
		for key, value := range data {
			entry.Properties[key] = value
		}
		entry.LastUpdated = &now

		record.Pages[pageID] = entry
		record.LastUpdated = &now
		record.Metadata.TotalPages = len(record.Pages)
		return nil
	})
}

// MarkSynced records the completion of a full synchronization pass.
func (bank *MemoryBank) MarkSynced(ctx context.Context) error {
	return mutateRecord(ctx, bank, PAGE_RECORD_KEY, NewPageRecord, func(record *PageRecord) error {
		now := bank.now()
		record.Metadata.LastSync = &now
		return nil
	})
}

// UpdateSyncStatus appends a history entry and moves the current status.
// A non-empty error message counts against error_count, anything else counts
// as a success; last_successful_sync only advances on a completed status.
func (bank *MemoryBank) UpdateSyncStatus(ctx context.Context, status Status, errMsg string) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}

	return mutateRecord(ctx, bank, SYNC_RECORD_KEY, NewSyncStatusRecord, func(record *SyncStatusRecord) error {
		now := bank.now()
		record.SyncHistory = append(record.SyncHistory, SyncEvent{
			Timestamp: now,
			Status:    status,
			Error:     errMsg,
		})
		record.CurrentStatus = status
		if errMsg != "" {
			record.ErrorCount++
		} else {
			record.SuccessCount++
		}
		if status == StatusCompleted {
			record.LastSuccessfulSync = &now
		}
		return nil
	})
}

// LogError appends a classified error and keeps the derived tallies in step
// with the log.
func (bank *MemoryBank) LogError(ctx context.Context, errorType, message string) error {
	if errorType == "" {
		errorType = "UnknownError"
	}

	return mutateRecord(ctx, bank, ERROR_RECORD_KEY, NewErrorLogRecord, func(record *ErrorLogRecord) error {
		event := ErrorEvent{
			Timestamp: bank.now(),
			ErrorType: errorType,
			Message:   message,
		}
		record.Errors = append(record.Errors, event)
		record.Patterns[errorType]++
		record.LastError = &event
		record.ErrorStats.TotalErrors = len(record.Errors)
		return nil
	})
}

// ResolveError records how an error was dealt with. The resolved counter only
// moves for a new resolution key and never exceeds the total error count.
func (bank *MemoryBank) ResolveError(ctx context.Context, key, resolution string) error {
	if key == "" {
		return &ValidationError{Field: "resolution_key", Reason: "must not be empty"}
	}

	return mutateRecord(ctx, bank, ERROR_RECORD_KEY, NewErrorLogRecord, func(record *ErrorLogRecord) error {
		if _, exists := record.Resolutions[key]; !exists &&
			record.ErrorStats.ResolvedErrors < record.ErrorStats.TotalErrors {
			record.ErrorStats.ResolvedErrors++
		}
		record.Resolutions[key] = resolution
		return nil
	})
}

// UpdateConfig merges a partial configuration, section by section and key by
// key. Validation runs on the merged result before anything is persisted, so
// a rejected update leaves the stored configuration untouched.
func (bank *MemoryBank) UpdateConfig(ctx context.Context, patch map[string]map[string]interface{}) error {
	return mutateRecord(ctx, bank, CONFIG_RECORD_KEY, NewConfigCacheRecord, func(record *ConfigCacheRecord) error {
		merged, err := applyConfigPatch(record, patch)
		if err != nil {
			return err
		}
		if err := validateConfig(merged); err != nil {
			return err
		}

		now := bank.now()
		merged.LastConfigUpdate = &now
		*record = *merged
		return nil
	})
}

// GetPage returns the bookkeeping entry for one page.
func (bank *MemoryBank) GetPage(ctx context.Context, pageID string) (*PageEntry, error) {
	record, _, err := loadRecord(ctx, bank, PAGE_RECORD_KEY, NewPageRecord)
	if err != nil {
		return nil, err
	}

	entry, ok := record.Pages[pageID]
	if !ok {
		return nil, &NotFoundError{Kind: "page", ID: pageID}
	}
	return &entry, nil
}

func (bank *MemoryBank) GetPages(ctx context.Context) (*PageRecord, error) {
	record, _, err := loadRecord(ctx, bank, PAGE_RECORD_KEY, NewPageRecord)
	return record, err
}

func (bank *MemoryBank) GetSyncStatus(ctx context.Context) (*SyncStatusRecord, error) {
	record, _, err := loadRecord(ctx, bank, SYNC_RECORD_KEY, NewSyncStatusRecord)
	return record, err
}

func (bank *MemoryBank) GetErrorLog(ctx context.Context) (*ErrorLogRecord, error) {
	record, _, err := loadRecord(ctx, bank, ERROR_RECORD_KEY, NewErrorLogRecord)
	return record, err
}

func (bank *MemoryBank) GetErrorStats(ctx context.Context) (ErrorStats, error) {
	record, err := bank.GetErrorLog(ctx)
	if err != nil {
		return ErrorStats{}, err
	}
	return record.ErrorStats, nil
}

func (bank *MemoryBank) GetConfig(ctx context.Context) (*ConfigCacheRecord, error) {
	record, _, err := loadRecord(ctx, bank, CONFIG_RECORD_KEY, NewConfigCacheRecord)
	return record, err
}
