package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]JobStore {
	t.Helper()

	bolt, err := NewJobBolt(filepath.Join(t.TempDir(), "state", "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]JobStore{
		"memory": NewJobMemory(time.Hour),
		"bolt":   bolt,
	}
}

func TestJobStore_Lifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			job, err := store.Create(ctx, "rapor2023")
			require.NoError(t, err)
			assert.Len(t, job.ID, 32)
			assert.Equal(t, entity.JobStatusProcessing, job.Status)
			assert.Equal(t, entity.JobStageQueued, job.Stage)

			require.NoError(t, store.Update(ctx, job.ID, entity.JobUpdate{
				Stage:      entity.Ptr(entity.JobStageIndex),
				QuestionID: entity.Ptr(4),
			}))
			require.NoError(t, store.Update(ctx, job.ID, entity.JobUpdate{
				Status:         entity.Ptr(entity.JobStatusDone),
				Answer:         entity.Ptr("12 kişi [1]"),
				AnswerStatus:   entity.Ptr(entity.AnswerStatusFound),
				ElapsedSeconds: entity.Ptr(1.5),
			}))

			got, err := store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.JobStatusDone, got.Status)
			assert.Equal(t, entity.JobStageIndex, got.Stage)
			require.NotNil(t, got.QuestionID)
			assert.Equal(t, 4, *got.QuestionID)
			assert.Equal(t, "12 kişi [1]", got.Answer)
			assert.Equal(t, "rapor2023", got.ReportID)
			assert.Equal(t, 1.5, got.ElapsedSeconds)
			assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
		})
	}
}

func TestJobStore_NotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, entity.ErrJobNotFound)

			err = store.Update(ctx, "missing", entity.JobUpdate{Status: entity.Ptr(entity.JobStatusFailed)})
			assert.ErrorIs(t, err, entity.ErrJobNotFound)
		})
	}
}

func TestJobStore_ConcurrentUpdates(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job, err := store.Create(ctx, "r")
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, store.Update(ctx, job.ID, entity.JobUpdate{ElapsedSeconds: entity.Ptr(float64(i))}))
				}(i)
			}
			wg.Wait()

			got, err := store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.JobStatusProcessing, got.Status)
		})
	}
}

func TestJobMemory_ReturnsCopies(t *testing.T) {
	store := NewJobMemory(time.Hour)
	job, err := store.Create(context.Background(), "r")
	require.NoError(t, err)

	job.Status = entity.JobStatusFailed

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusProcessing, got.Status)
}

func TestJobMemory_Expires(t *testing.T) {
	store := NewJobMemory(20 * time.Millisecond)
	job, err := store.Create(context.Background(), "r")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = store.Get(context.Background(), job.ID)
	assert.ErrorIs(t, err, entity.ErrJobNotFound)
}

func TestJobBolt_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")

	first, err := NewJobBolt(path)
	require.NoError(t, err)
	job, err := first.Create(context.Background(), "r")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewJobBolt(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "r", got.ReportID)
}
