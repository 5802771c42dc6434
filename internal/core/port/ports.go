// Package port provides behavior interfaces that connect service & storage
// & handler.
package port

import (
	"context"

	"github.com/wakequeue/wakequeue/internal/core/domain"
)

// TaskRepository defines how wake tasks are persisted. ClaimPending and
// UpdateStatusCAS are the two writes that must be atomic: ClaimPending is a
// single select-and-update unit, UpdateStatusCAS only writes when the row
// still holds the expected status (returns domain.ErrStaleTransition when
// it lost the race).
type TaskRepository interface {
	Insert(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetNewestByMAC(ctx context.Context, mac string) (*domain.Task, error)
	List(ctx context.Context, ownerID string) ([]*domain.Task, error)
	ListPending(ctx context.Context, limit int) ([]*domain.ClaimedTask, error)
	ClaimPending(ctx context.Context, limit int) ([]*domain.ClaimedTask, error)
	UpdateStatusCAS(ctx context.Context, id string, from, to domain.TaskStatus, attemptsDelta int) (*domain.Task, error)
}

// DeviceRepository defines how saved devices are persisted
type DeviceRepository interface {
	Insert(ctx context.Context, device *domain.Device) error
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	List(ctx context.Context, ownerID string) ([]*domain.Device, error)
	Delete(ctx context.Context, id string) error
}

// QueueService defines the task-created nudge channel. The queue never
// carries authority over task state, it only prompts agents to claim early.
type QueueService interface {
	PublishTaskCreated(ctx context.Context, task *domain.Task) error
	ConsumeTaskCreated(ctx context.Context, handler func(task *domain.Task) error) error
}

// AgentRegistry defines how we track live waking agents (Redis)
type AgentRegistry interface {
	RegisterAgent(ctx context.Context, agent *domain.Agent) error
	GetActiveAgents(ctx context.Context) ([]*domain.Agent, error)
}

// PresenceCache remembers recently observed devices by normalized MAC
type PresenceCache interface {
	MarkSeen(mac string) error
	Seen(mac string) (bool, error)
}

// PresenceDetector asks an external monitoring source whether a device is
// currently reachable
type PresenceDetector interface {
	Observe(ctx context.Context, mac string) (bool, error)
}

// WakeSender performs the fire-and-forget wake broadcast
type WakeSender interface {
	Wake(mac string) error
}
