package domain

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusSuccess    TaskStatus = "success"
	TaskStatusFailed     TaskStatus = "failed"
)

// ParseStatus validates a caller-supplied status string
func ParseStatus(raw string) (TaskStatus, error) {
	switch s := TaskStatus(raw); s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusSuccess, TaskStatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Task represents one wake request and its lifecycle record
type Task struct {
	ID         string     `json:"id"`
	MACAddress string     `json:"mac_address"`
	Status     TaskStatus `json:"status"`
	Attempts   int        `json:"attempts"`
	OwnerID    string     `json:"owner_id,omitempty"`
	DeviceID   string     `json:"device_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ClaimedTask is the slim row handed to a waking agent: just enough to
// send the packet
type ClaimedTask struct {
	ID         string `json:"id"`
	MACAddress string `json:"mac_address"`
}

// Transition computes the effect of moving a task from cur to next.
// It returns the attempts delta to apply and whether the record should be
// written at all.
//
// Rules:
//   - success is absorbing: once there, every later transition is a silent
//     no-op, so a stale failed update can never overwrite a success.
//   - a same-state write is a silent no-op; in particular a duplicate
//     processing update never inflates the attempt counter.
//   - pending is entry-only: no task ever moves back to pending, so a
//     claimed task cannot be re-queued and woken twice.
//   - every entry into processing counts as an attempt, whether it came
//     from a claim or from a manual retry of a failed task.
//   - the remaining edges into success/failed write the record (touching
//     updated_at) without changing the attempt count.
func Transition(cur, next TaskStatus) (attemptsDelta int, changed bool, err error) {
	if _, err := ParseStatus(string(next)); err != nil {
		return 0, false, err
	}

	if cur == TaskStatusSuccess {
		return 0, false, nil
	}

	if next == cur {
		return 0, false, nil
	}

	if next == TaskStatusPending {
		return 0, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, next)
	}

	if next == TaskStatusProcessing {
		return 1, true, nil
	}

	return 0, true, nil
}
