// Package service implements the task lifecycle engine, the claim entry
// point and the notification resolver on top of the storage ports.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

// DefaultClaimLimit bounds a claim batch when the caller supplies none, so
// one agent cannot drain a large backlog in a single poll.
const DefaultClaimLimit = 25

// casRetries bounds the optimistic re-read loop on racy status writes.
const casRetries = 3

type TaskService struct {
	repo  port.TaskRepository
	queue port.QueueService
	log   *zap.Logger
}

// NewTaskService wires the lifecycle engine. queue may be nil when no nudge
// channel is deployed.
func NewTaskService(repo port.TaskRepository, queue port.QueueService, log *zap.Logger) *TaskService {
	return &TaskService{
		repo:  repo,
		queue: queue,
		log:   log,
	}
}

// CreateTask validates & normalizes the MAC, then appends a fresh pending
// task. It never merges with an existing task for the same MAC.
func (s *TaskService) CreateTask(ctx context.Context, mac, ownerID, deviceID string) (*domain.Task, error) {
	normalized, err := domain.NormalizeMAC(mac)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:         uuid.NewString(),
		MACAddress: normalized,
		Status:     domain.TaskStatusPending,
		Attempts:   0,
		OwnerID:    ownerID,
		DeviceID:   deviceID,
	}

	if err := s.repo.Insert(ctx, task); err != nil {
		s.log.Error("Failed to insert task", zap.Error(err))
		return nil, err
	}

	if s.queue != nil {
		// Best effort: a lost nudge only delays the claim to the next poll.
		if err := s.queue.PublishTaskCreated(ctx, task); err != nil {
			s.log.Warn("Failed to publish task-created nudge", zap.String("task_id", task.ID), zap.Error(err))
		}
	}

	s.log.Info("Created wake task", zap.String("task_id", task.ID), zap.String("mac", task.MACAddress))
	return task, nil
}

// ApplyStatus moves a task to an explicitly requested status. Unrecognized
// statuses are rejected before anything is read or written. A stale update
// against an already successful task is ignored silently and the unchanged
// record returned.
func (s *TaskService) ApplyStatus(ctx context.Context, id, status string) (*domain.Task, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	for range casRetries {
		task, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		delta, changed, err := domain.Transition(task.Status, next)
		if err != nil {
			return nil, err
		}
		if !changed {
			s.log.Debug("Ignoring stale status update",
				zap.String("task_id", id),
				zap.String("requested", string(next)),
				zap.String("current", string(task.Status)))
			return task, nil
		}

		updated, err := s.repo.UpdateStatusCAS(ctx, id, task.Status, next, delta)
		if errors.Is(err, domain.ErrStaleTransition) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info("Task status updated",
			zap.String("task_id", id),
			zap.String("status", string(next)),
			zap.Int("attempts", updated.Attempts))
		return updated, nil
	}

	// Lost the race repeatedly; whatever state won is the answer.
	return s.repo.GetByID(ctx, id)
}

// ApplyNotify closes out a task after an out-of-band "device observed"
// signal. Resolution prefers the exact task id, falling back to the most
// recently created task carrying the normalized MAC. Already successful
// tasks are returned untouched.
func (s *TaskService) ApplyNotify(ctx context.Context, id, mac string) (*domain.Task, error) {
	if id == "" && mac == "" {
		return nil, domain.ErrNotifyTarget
	}

	normalized := ""
	if mac != "" {
		var err error
		if normalized, err = domain.NormalizeMAC(mac); err != nil {
			return nil, err
		}
	}

	task, err := s.resolveNotifyTarget(ctx, id, normalized)
	if err != nil {
		return nil, err
	}

	for range casRetries {
		_, changed, err := domain.Transition(task.Status, domain.TaskStatusSuccess)
		if err != nil {
			return nil, err
		}
		if !changed {
			return task, nil
		}

		updated, err := s.repo.UpdateStatusCAS(ctx, task.ID, task.Status, domain.TaskStatusSuccess, 0)
		if errors.Is(err, domain.ErrStaleTransition) {
			if task, err = s.repo.GetByID(ctx, task.ID); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info("Task confirmed by presence notify",
			zap.String("task_id", updated.ID),
			zap.String("mac", updated.MACAddress))
		return updated, nil
	}

	return s.repo.GetByID(ctx, task.ID)
}

func (s *TaskService) resolveNotifyTarget(ctx context.Context, id, mac string) (*domain.Task, error) {
	if id != "" {
		task, err := s.repo.GetByID(ctx, id)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, domain.ErrTaskNotFound) || mac == "" {
			return nil, err
		}
	}
	return s.repo.GetNewestByMAC(ctx, mac)
}

// ClaimPending atomically flips up to limit pending tasks to processing,
// bumping their attempt counters, and returns exactly the claimed rows.
// Concurrent callers receive disjoint sets; losing a row to another claimer
// just shrinks the batch.
func (s *TaskService) ClaimPending(ctx context.Context, limit int) ([]*domain.ClaimedTask, error) {
	if limit <= 0 {
		limit = DefaultClaimLimit
	}

	claimed, err := s.repo.ClaimPending(ctx, limit)
	if err != nil {
		s.log.Error("Failed to claim pending tasks", zap.Error(err))
		return nil, err
	}

	if len(claimed) > 0 {
		s.log.Info("Claimed pending tasks", zap.Int("count", len(claimed)))
	}
	return claimed, nil
}

// ListPending returns the claim-eligible set without side effects
func (s *TaskService) ListPending(ctx context.Context, limit int) ([]*domain.ClaimedTask, error) {
	if limit <= 0 {
		limit = DefaultClaimLimit
	}
	return s.repo.ListPending(ctx, limit)
}

// ListTasks returns tasks newest first, owner-scoped when ownerID is set
func (s *TaskService) ListTasks(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	return s.repo.List(ctx, ownerID)
}

// GetTask fetches one task by id
func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.repo.GetByID(ctx, id)
}
