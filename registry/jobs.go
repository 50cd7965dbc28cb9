//
// jobs.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

// JobID identifies a protocol job.
type JobID string

// Status defines job status.
type Status int

// Job status values.
const (
	StatusCreated Status = iota
	StatusSucceeded
	StatusFailed
)

var statusNames = map[Status]string{
	StatusCreated:   "created",
	StatusSucceeded: "succeeded",
	StatusFailed:    "failed",
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{Status %d}", s)
}

// Outcome describes how a job completed. It holds only aggregate
// metadata, never protocol inputs or outputs.
type Outcome struct {
	Success   bool
	ErrorKind string
	Summary   string
	Duration  time.Duration
}

// Job describes a protocol job.
type Job struct {
	ID           JobID
	Protocol     string
	Participants []string
	Status       Status
	Created      time.Time
	Completed    time.Time
	Outcome      Outcome
}

// JobService tracks protocol jobs.
type JobService interface {
	// CreateJob registers a new protocol job and returns its ID.
	CreateJob(ctx context.Context, protocol string, participants []string) (
		JobID, error)

	// CompleteJob records the outcome of the job.
	CompleteJob(ctx context.Context, id JobID, outcome Outcome) error
}

// MemoryJobs implements JobService in memory.
type MemoryJobs struct {
	m    sync.Mutex
	jobs map[JobID]*Job
}

// NewMemoryJobs creates a new in-memory job service.
func NewMemoryJobs() *MemoryJobs {
	return &MemoryJobs{
		jobs: make(map[JobID]*Job),
	}
}

// CreateJob implements JobService.CreateJob.
func (j *MemoryJobs) CreateJob(ctx context.Context, protocol string,
	participants []string) (JobID, error) {

	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := JobID(uuid.NewString())

	j.m.Lock()
	defer j.m.Unlock()

	j.jobs[id] = &Job{
		ID:           id,
		Protocol:     protocol,
		Participants: append([]string(nil), participants...),
		Status:       StatusCreated,
		Created:      time.Now(),
	}
	return id, nil
}

// CompleteJob implements JobService.CompleteJob.
func (j *MemoryJobs) CompleteJob(ctx context.Context, id JobID,
	outcome Outcome) error {

	j.m.Lock()
	defer j.m.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return errors.Wrapf(mpcerr.ErrInvalidInput, "unknown job %s", id)
	}
	if job.Status != StatusCreated {
		return errors.Wrapf(mpcerr.ErrInvalidInput,
			"job %s already %s", id, job.Status)
	}
	if outcome.Success {
		job.Status = StatusSucceeded
	} else {
		job.Status = StatusFailed
	}
	job.Completed = time.Now()
	job.Outcome = outcome
	return nil
}

// Job returns a copy of the job.
func (j *MemoryJobs) Job(id JobID) (Job, bool) {
	j.m.Lock()
	defer j.m.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Len returns the number of jobs.
func (j *MemoryJobs) Len() int {
	j.m.Lock()
	defer j.m.Unlock()
	return len(j.jobs)
}

// Jobs returns copies of all jobs in creation order.
func (j *MemoryJobs) Jobs() []Job {
	j.m.Lock()
	defer j.m.Unlock()

	var result []Job
	for _, job := range j.jobs {
		result = append(result, *job)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].Created.Before(result[k].Created)
	})
	return result
}
