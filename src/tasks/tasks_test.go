package tasks_test

import (
	"context"
	"testing"
	"time"

	"github.com/rainbowlabs/notionpush/src/store"
	"github.com/rainbowlabs/notionpush/src/tasks"
	"github.com/stretchr/testify/assert"
)

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	recordStore := store.GetMemoryStore()

	current := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	tracker := tasks.GetTrackerWithClock(recordStore, func() time.Time {
		return current
	})

	t.Run("Empty task name is a no-op", func(t *testing.T) {
		err := tracker.UpdateStatus(ctx, "", tasks.StatusRunning, "")
		assert.Nil(t, err)

		keys, err := recordStore.List(ctx, tasks.TASK_KEY_PREFIX)
		assert.Nil(t, err)
		assert.Empty(t, keys)
	})

	t.Run("Invalid status", func(t *testing.T) {
		err := tracker.UpdateStatus(ctx, "push-report", tasks.Status("paused"), "")
		assert.NotNil(t, err)
	})

	t.Run("Create task record", func(t *testing.T) {
		err := tracker.UpdateStatus(ctx, "push-report", tasks.StatusPending, "")
		assert.Nil(t, err)

		info, err := tracker.GetStatus(ctx, "push-report")
		assert.Nil(t, err)
		assert.Equal(t, "push-report", info.TaskName)
		assert.Equal(t, tasks.StatusPending, info.Status)
		assert.Equal(t, current, info.CreatedAt)
		assert.Equal(t, current, info.UpdatedAt)
		assert.Empty(t, info.Error)
	})

	t.Run("Transition keeps creation time", func(t *testing.T) {
		created := current
		current = current.Add(5 * time.Minute)

		err := tracker.UpdateStatus(ctx, "push-report", tasks.StatusFailed,
			"api down")
		assert.Nil(t, err)

		info, err := tracker.GetStatus(ctx, "push-report")
		assert.Nil(t, err)
		assert.Equal(t, tasks.StatusFailed, info.Status)
		assert.Equal(t, created, info.CreatedAt)
		assert.Equal(t, current, info.UpdatedAt)
		assert.Equal(t, "api down", info.Error)
	})

	t.Run("Recovery clears the error", func(t *testing.T) {
		err := tracker.UpdateStatus(ctx, "push-report", tasks.StatusCompleted, "")
		assert.Nil(t, err)

		info, err := tracker.GetStatus(ctx, "push-report")
		assert.Nil(t, err)
		assert.Equal(t, tasks.StatusCompleted, info.Status)
		assert.Empty(t, info.Error)
	})
}

func TestGetStatusOfUnknownTask(t *testing.T) {
	tracker := tasks.GetTracker(store.GetMemoryStore())

	_, err := tracker.GetStatus(context.Background(), "unknown")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	recordStore := store.GetMemoryStore()

	current := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	tracker := tasks.GetTrackerWithClock(recordStore, func() time.Time {
		return current
	})

	assert.Nil(t, tracker.UpdateStatus(ctx, "alpha", tasks.StatusCompleted, ""))
	current = current.Add(time.Minute)
	assert.Nil(t, tracker.UpdateStatus(ctx, "beta", tasks.StatusRunning, ""))
	current = current.Add(time.Minute)
	assert.Nil(t, tracker.UpdateStatus(ctx, "gamma", tasks.StatusFailed, "boom"))

	infos, err := tracker.List(ctx)
	assert.Nil(t, err)
	assert.Len(t, infos, 3)
	assert.Equal(t, "gamma", infos[0].TaskName)
	assert.Equal(t, "beta", infos[1].TaskName)
	assert.Equal(t, "alpha", infos[2].TaskName)
}
