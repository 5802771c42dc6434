package service

import (
	"context"
	"os"
	"time"

	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

// presenceProbeInterval is how often a waiting agent re-asks the detector
// about a freshly woken device.
const presenceProbeInterval = 2 * time.Second

// AgentService drives one waking agent: claim batches of pending tasks,
// broadcast the wake packet and report the outcome back through the
// lifecycle engine. It never touches the store outside the three lifecycle
// operations.
type AgentService struct {
	agentID        string
	tasks          *TaskService
	registry       port.AgentRegistry
	queue          port.QueueService
	detector       port.PresenceDetector
	seen           port.PresenceCache
	wake           port.WakeSender
	pollInterval   time.Duration
	claimLimit     int
	confirmTimeout time.Duration
	log            *zap.Logger
}

// NewAgentService wires one waking agent. queue, detector and seen may be
// nil; a missing collaborator just disables the nudge channel, presence
// confirmation or the recently-seen shortcut.
func NewAgentService(
	agentID string,
	tasks *TaskService,
	registry port.AgentRegistry,
	queue port.QueueService,
	detector port.PresenceDetector,
	seen port.PresenceCache,
	wake port.WakeSender,
	pollInterval time.Duration,
	claimLimit int,
	confirmTimeout time.Duration,
	log *zap.Logger,
) *AgentService {
	return &AgentService{
		agentID:        agentID,
		tasks:          tasks,
		registry:       registry,
		queue:          queue,
		detector:       detector,
		seen:           seen,
		wake:           wake,
		pollInterval:   pollInterval,
		claimLimit:     claimLimit,
		confirmTimeout: confirmTimeout,
		log:            log,
	}
}

// Run starts the heartbeat, the nudge consumer and the polling loop, and
// blocks until the context is canceled.
func (a *AgentService) Run(ctx context.Context) error {
	a.log.Info("Starting waking agent", zap.String("agent_id", a.agentID))

	go a.heartbeatLoop(ctx)

	if a.queue != nil {
		// The nudge channel lets us claim right after a task is created
		// instead of waiting out the poll interval.
		err := a.queue.ConsumeTaskCreated(ctx, func(task *domain.Task) error {
			a.log.Debug("Task-created nudge received", zap.String("task_id", task.ID))
			a.claimAndProcess(ctx)
			return nil
		})
		if err != nil {
			a.log.Warn("Nudge consumer unavailable, falling back to polling only", zap.Error(err))
		}
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Stopping waking agent loop")
			return ctx.Err()
		case <-ticker.C:
			a.claimAndProcess(ctx)
		}
	}
}

func (a *AgentService) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			agent := &domain.Agent{
				ID:            a.agentID,
				Hostname:      os.Getenv("HOSTNAME"),
				Status:        domain.AgentStatusActive,
				ClaimLimit:    a.claimLimit,
				LastHeartbeat: time.Now(),
			}
			if err := a.registry.RegisterAgent(ctx, agent); err != nil {
				a.log.Error("Heartbeat failed", zap.Error(err))
			} else {
				a.log.Debug("Heartbeat sent")
			}
		}
	}
}

func (a *AgentService) claimAndProcess(ctx context.Context) {
	claimed, err := a.tasks.ClaimPending(ctx, a.claimLimit)
	if err != nil {
		a.log.Error("Claim poll failed", zap.Error(err))
		return
	}

	for _, task := range claimed {
		a.processTask(ctx, task)
	}
}

// processTask wakes one claimed device and closes the task out. A device
// observed recently skips the broadcast entirely.
func (a *AgentService) processTask(ctx context.Context, task *domain.ClaimedTask) {
	a.log.Info("Processing wake task", zap.String("task_id", task.ID), zap.String("mac", task.MACAddress))

	if a.seen != nil {
		if seen, err := a.seen.Seen(task.MACAddress); err == nil && seen {
			a.log.Info("Device recently observed, skipping broadcast", zap.String("mac", task.MACAddress))
			a.finish(ctx, task, true)
			return
		}
	}

	if err := a.wake.Wake(task.MACAddress); err != nil {
		a.log.Error("Wake broadcast failed", zap.String("task_id", task.ID), zap.Error(err))
		a.finish(ctx, task, false)
		return
	}

	a.finish(ctx, task, a.awaitPresence(ctx, task.MACAddress))
}

// awaitPresence polls the detector until the device shows up or the
// confirmation window closes.
func (a *AgentService) awaitPresence(ctx context.Context, mac string) bool {
	if a.detector == nil {
		// No detector deployed: trust the broadcast.
		return true
	}

	deadline := time.Now().Add(a.confirmTimeout)
	ticker := time.NewTicker(presenceProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			up, err := a.detector.Observe(ctx, mac)
			if err != nil {
				a.log.Warn("Presence probe failed", zap.String("mac", mac), zap.Error(err))
			} else if up {
				return true
			}
			if time.Now().After(deadline) {
				return false
			}
		}
	}
}

func (a *AgentService) finish(ctx context.Context, task *domain.ClaimedTask, woke bool) {
	if woke {
		if a.seen != nil {
			if err := a.seen.MarkSeen(task.MACAddress); err != nil {
				a.log.Warn("Failed to record presence", zap.String("mac", task.MACAddress), zap.Error(err))
			}
		}
		if _, err := a.tasks.ApplyNotify(ctx, task.ID, task.MACAddress); err != nil {
			a.log.Error("Failed to report success", zap.String("task_id", task.ID), zap.Error(err))
		}
		return
	}

	if _, err := a.tasks.ApplyStatus(ctx, task.ID, string(domain.TaskStatusFailed)); err != nil {
		a.log.Error("Failed to report failure", zap.String("task_id", task.ID), zap.Error(err))
	}
}
