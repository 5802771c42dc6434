package domain

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "processing", "success", "failed"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Errorf("ParseStatus(%q) failed: %v", raw, err)
		}
	}

	for _, raw := range []string{"", "done", "PENDING", "succeeded"} {
		if _, err := ParseStatus(raw); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q): expected ErrInvalidStatus, got %v", raw, err)
		}
	}
}

func TestTransition_AttemptsOnlyOnProcessing(t *testing.T) {
	delta, changed, err := Transition(TaskStatusPending, TaskStatusProcessing)
	if err != nil || !changed || delta != 1 {
		t.Errorf("pending->processing = (%d, %v, %v), want (1, true, nil)", delta, changed, err)
	}

	delta, changed, err = Transition(TaskStatusFailed, TaskStatusProcessing)
	if err != nil || !changed || delta != 1 {
		t.Errorf("failed->processing = (%d, %v, %v), want (1, true, nil)", delta, changed, err)
	}

	delta, changed, err = Transition(TaskStatusProcessing, TaskStatusSuccess)
	if err != nil || !changed || delta != 0 {
		t.Errorf("processing->success = (%d, %v, %v), want (0, true, nil)", delta, changed, err)
	}

	delta, changed, err = Transition(TaskStatusProcessing, TaskStatusFailed)
	if err != nil || !changed || delta != 0 {
		t.Errorf("processing->failed = (%d, %v, %v), want (0, true, nil)", delta, changed, err)
	}
}

func TestTransition_SuccessIsAbsorbing(t *testing.T) {
	for _, next := range []TaskStatus{TaskStatusPending, TaskStatusProcessing, TaskStatusSuccess, TaskStatusFailed} {
		delta, changed, err := Transition(TaskStatusSuccess, next)
		if err != nil {
			t.Errorf("success->%s failed: %v", next, err)
		}
		if changed || delta != 0 {
			t.Errorf("success->%s = (%d, %v), want no-op", next, delta, changed)
		}
	}
}

func TestTransition_NeverReentersPending(t *testing.T) {
	for _, cur := range []TaskStatus{TaskStatusProcessing, TaskStatusFailed} {
		if _, _, err := Transition(cur, TaskStatusPending); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s->pending: expected ErrInvalidTransition, got %v", cur, err)
		}
	}
}

func TestTransition_SameStateIsNoOp(t *testing.T) {
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusProcessing, TaskStatusFailed} {
		delta, changed, err := Transition(s, s)
		if err != nil || changed || delta != 0 {
			t.Errorf("%s->%s = (%d, %v, %v), want silent no-op", s, s, delta, changed, err)
		}
	}
}

func TestTransition_RejectsUnknownStatus(t *testing.T) {
	if _, _, err := Transition(TaskStatusPending, TaskStatus("done")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}
