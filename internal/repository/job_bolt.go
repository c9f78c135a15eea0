package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/futig/report-grounder/internal/entity"
	bolt "go.etcd.io/bbolt"
)

var jobsBucket = []byte("jobs")

var _ JobStore = &JobBolt{}

// JobBolt stores jobs as JSON values in a single bbolt file, so job state
// survives restarts without a database server.
type JobBolt struct {
	db  *bolt.DB
	now func() time.Time
}

func NewJobBolt(path string) (*JobBolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create job store dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(jobsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs bucket: %w", err)
	}

	return &JobBolt{db: db, now: time.Now}, nil
}

func (r *JobBolt) Close() error {
	return r.db.Close()
}

func (r *JobBolt) Create(_ context.Context, reportID string) (*entity.Job, error) {
	now := r.now().UTC()
	job := &entity.Job{
		ID:        newJobID(),
		Status:    entity.JobStatusProcessing,
		Stage:     entity.JobStageQueued,
		ReportID:  reportID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.Update(func(tx *bolt.Tx) error {
		return putJob(tx.Bucket(jobsBucket), job)
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (r *JobBolt) Update(_ context.Context, id string, upd entity.JobUpdate) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(jobsBucket)
		job, err := getJob(b, id)
		if err != nil {
			return err
		}
		upd.Apply(job, r.now().UTC())
		return putJob(b, job)
	})
}

func (r *JobBolt) Get(_ context.Context, id string) (*entity.Job, error) {
	var job *entity.Job
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		job, err = getJob(tx.Bucket(jobsBucket), id)
		return err
	})
	return job, err
}

func getJob(b *bolt.Bucket, id string) (*entity.Job, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return nil, entity.ErrJobNotFound
	}

	var job entity.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func putJob(b *bolt.Bucket, job *entity.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return b.Put([]byte(job.ID), data)
}
