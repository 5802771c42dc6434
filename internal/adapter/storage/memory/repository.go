// Package memory provides in-process repositories with the same claim &
// compare-and-swap semantics as the postgres adapter. Used by tests and
// single-binary dev setups; a mutex stands in for the store transaction.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
)

// record pairs a task with an insertion sequence, which breaks created_at
// ties deterministically the way a database sequence would.
type record struct {
	task *domain.Task
	seq  int
}

type TaskRepository struct {
	mu    sync.Mutex
	tasks map[string]*record
	seq   int
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]*record)}
}

var _ port.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) Insert(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.seq++
	clone := *task
	r.tasks[task.ID] = &record{task: &clone, seq: r.seq}
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *rec.task
	return &clone, nil
}

func (r *TaskRepository) GetNewestByMAC(_ context.Context, mac string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *record
	for _, rec := range r.tasks {
		if rec.task.MACAddress != mac {
			continue
		}
		if newest == nil || rec.seq > newest.seq {
			newest = rec
		}
	}
	if newest == nil {
		return nil, domain.ErrTaskNotFound
	}
	clone := *newest.task
	return &clone, nil
}

func (r *TaskRepository) List(_ context.Context, ownerID string) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []*record
	for _, rec := range r.tasks {
		if ownerID != "" && rec.task.OwnerID != ownerID {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	tasks := make([]*domain.Task, 0, len(recs))
	for _, rec := range recs {
		clone := *rec.task
		tasks = append(tasks, &clone)
	}
	return tasks, nil
}

func (r *TaskRepository) ListPending(_ context.Context, limit int) ([]*domain.ClaimedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var claimed []*domain.ClaimedTask
	for _, rec := range r.eligibleNewestFirst(limit) {
		claimed = append(claimed, &domain.ClaimedTask{ID: rec.task.ID, MACAddress: rec.task.MACAddress})
	}
	return claimed, nil
}

// ClaimPending selects and flips under one lock hold, so concurrent
// claimers always receive disjoint sets.
func (r *TaskRepository) ClaimPending(_ context.Context, limit int) ([]*domain.ClaimedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var claimed []*domain.ClaimedTask
	for _, rec := range r.eligibleNewestFirst(limit) {
		rec.task.Status = domain.TaskStatusProcessing
		rec.task.Attempts++
		rec.task.UpdatedAt = time.Now().UTC()
		claimed = append(claimed, &domain.ClaimedTask{ID: rec.task.ID, MACAddress: rec.task.MACAddress})
	}
	return claimed, nil
}

func (r *TaskRepository) UpdateStatusCAS(_ context.Context, id string, from, to domain.TaskStatus, attemptsDelta int) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok || rec.task.Status != from {
		return nil, domain.ErrStaleTransition
	}

	rec.task.Status = to
	rec.task.Attempts += attemptsDelta
	rec.task.UpdatedAt = time.Now().UTC()
	clone := *rec.task
	return &clone, nil
}

// eligibleNewestFirst mirrors the claim predicate of the postgres adapter:
// pending tasks plus failed ones awaiting a retry.
func (r *TaskRepository) eligibleNewestFirst(limit int) []*record {
	var eligible []*record
	for _, rec := range r.tasks {
		if rec.task.Status == domain.TaskStatusPending || rec.task.Status == domain.TaskStatusFailed {
			eligible = append(eligible, rec)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].seq > eligible[j].seq })
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}
