package repo

import (
	"context"
	"sync"

	perr "storepulse/internal/platform/errors"
	ptime "storepulse/internal/platform/time"
	"storepulse/internal/services/reports/domain"
)

// Memory is an in process JobStore with the same transition rules as postgres
// it backs the one shot cli and service tests
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// NewMemory returns an empty job store
func NewMemory() *Memory { return &Memory{jobs: map[string]domain.Job{}} }

// Create stores a new job, ids are unique
func (m *Memory) Create(_ context.Context, job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return perr.Newf(perr.ErrorCodeDuplicateKey, "job %s already exists", job.ID)
	}
	m.jobs[job.ID] = job
	return nil
}

// Transition moves a Running job to a terminal state exactly once
func (m *Memory) Transition(_ context.Context, id string, to domain.Status, out domain.Outcome) error {
	if !to.Terminal() {
		return perr.InvalidArgf("transition to %s is not terminal", to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return perr.NotFoundf("report %s not found", id)
	}
	if j.Status != domain.StatusRunning {
		return perr.Conflictf("job %s is already %s", id, j.Status)
	}
	j.Status = to
	j.CompletedAt = ptime.Ptr(out.CompletedAt.UTC())
	j.ResultHandle = out.ResultHandle
	j.Error = out.Error
	j.Entities = out.Entities
	j.FailedEntities = out.FailedEntities
	m.jobs[id] = j
	return nil
}

// Get returns a copy of the job
func (m *Memory) Get(_ context.Context, id string) (domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, perr.NotFoundf("report %s not found", id)
	}
	if j.CompletedAt != nil {
		j.CompletedAt = ptime.Ptr(*j.CompletedAt)
	}
	return j, nil
}
