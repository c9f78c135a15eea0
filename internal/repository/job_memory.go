package repository

import (
	"context"
	"sync"
	"time"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/patrickmn/go-cache"
)

var _ JobStore = &JobMemory{}

// JobMemory keeps jobs in process memory and forgets them after ttl.
type JobMemory struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewJobMemory(ttl time.Duration) *JobMemory {
	return &JobMemory{
		cache: cache.New(ttl, ttl/2+time.Minute),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *JobMemory) Create(_ context.Context, reportID string) (*entity.Job, error) {
	now := r.now().UTC()
	job := &entity.Job{
		ID:        newJobID(),
		Status:    entity.JobStatusProcessing,
		Stage:     entity.JobStageQueued,
		ReportID:  reportID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.cache.Set(job.ID, job, r.ttl)
	return cloneJob(job), nil
}

func (r *JobMemory) Update(_ context.Context, id string, upd entity.JobUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.cache.Get(id)
	if !ok {
		return entity.ErrJobNotFound
	}

	job := cloneJob(v.(*entity.Job))
	upd.Apply(job, r.now().UTC())
	r.cache.Set(id, job, r.ttl)
	return nil
}

func (r *JobMemory) Get(_ context.Context, id string) (*entity.Job, error) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, entity.ErrJobNotFound
	}
	return cloneJob(v.(*entity.Job)), nil
}
