// Package domain provides the wake task entities, the lifecycle transition
// rules & domain level errors.
package domain

import "errors"

var (
	// ErrInvalidMAC indicates a malformed hardware address.
	ErrInvalidMAC = errors.New("invalid mac address")

	// ErrInvalidStatus indicates an unrecognized task status value.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrTaskNotFound indicates the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDeviceNotFound indicates the referenced device does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNotifyTarget indicates a notify carried neither a task id nor a mac.
	ErrNotifyTarget = errors.New("notify requires a task id or a mac address")

	// ErrInvalidTransition indicates a status update along a forbidden edge,
	// such as moving a task back to pending.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized indicates a missing or invalid automation credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStaleTransition indicates a conditional status write lost a race.
	// Advisory only, callers re-read and retry.
	ErrStaleTransition = errors.New("task status changed concurrently")
)
