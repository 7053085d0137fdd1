package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rainbowlabs/notionpush/src/store"
)

const (
	TASK_KEY_PREFIX   = "tasks/"
	CONFLICT_RETRIES  = 3
	UNNAMED_TASK_SKIP = ""
)

// Status is the execution state of one queued push task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// StatusInfo is the persisted state of a task, one document per task name.
type StatusInfo struct {
	TaskName  string    `json:"task_name"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}

// Tracker persists task execution states across invocations.
type Tracker struct {
	store store.RecordStore
	now   func() time.Time
}

func GetTracker(recordStore store.RecordStore) *Tracker {
	return GetTrackerWithClock(recordStore, time.Now)
}

func GetTrackerWithClock(recordStore store.RecordStore, now func() time.Time) *Tracker {
	return &Tracker{store: recordStore, now: now}
}

func taskKey(taskName string) string {
	return TASK_KEY_PREFIX + taskName
}

// UpdateStatus creates or transitions a task record. An empty task name is a
// no-op: callers invoked without a task context simply skip status tracking.
func (t *Tracker) UpdateStatus(ctx context.Context, taskName string, status Status, errMsg string) error {
	if taskName == UNNAMED_TASK_SKIP {
		return nil
	}
	if !status.Valid() {
		return fmt.Errorf("unknown task status: %s", status)
	}

	key := taskKey(taskName)
	var lastErr error
	for attempt := 0; attempt <= CONFLICT_RETRIES; attempt++ {
		info := StatusInfo{TaskName: taskName}
		data, revision, err := t.store.Load(ctx, key)
		if err == nil {
			if err := json.Unmarshal(data, &info); err != nil {
				return errors.Wrapf(err, "corrupt task record %s", taskName)
			}
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return errors.Wrapf(err, "failed to load task record %s", taskName)
		}

		now := t.now()
		if info.CreatedAt.IsZero() {
			info.CreatedAt = now
		}
		info.Status = status
		info.UpdatedAt = now
		info.Error = errMsg

		updated, err := json.Marshal(&info)
		if err != nil {
			return errors.Wrapf(err, "failed to encode task record %s", taskName)
		}

		if _, err := t.store.Save(ctx, key, updated, revision); err != nil {
			if errors.Is(err, store.ErrRevisionConflict) {
				lastErr = err
				continue
			}
			return errors.Wrapf(err, "failed to save task record %s", taskName)
		}
		return nil
	}
	return errors.Wrapf(lastErr, "failed to save task record %s", taskName)
}

// GetStatus returns the persisted state of one task.
func (t *Tracker) GetStatus(ctx context.Context, taskName string) (*StatusInfo, error) {
	data, _, err := t.store.Load(ctx, taskKey(taskName))
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, errors.Wrapf(err, "corrupt task record %s", taskName)
	}
	return info, nil
}

// List returns all tracked tasks, most recently updated first.
func (t *Tracker) List(ctx context.Context) ([]StatusInfo, error) {
	keys, err := t.store.List(ctx, TASK_KEY_PREFIX)
	if err != nil {
		return nil, err
	}

	infos := make([]StatusInfo, 0, len(keys))
	for _, key := range keys {
		data, _, err := t.store.Load(ctx, key)
		if errors.Is(err, store.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		info := StatusInfo{}
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}
