package service

import (
	"context"
	"testing"
	"time"

	"github.com/wakequeue/wakequeue/internal/core/domain"
	"go.uber.org/zap"
)

type fakeSender struct {
	macs []string
}

func (f *fakeSender) Wake(mac string) error {
	f.macs = append(f.macs, mac)
	return nil
}

// A minimal deployment runs the agent with no queue, detector or presence
// cache; a claim cycle must still wake the device and close the task out.
func TestAgent_ProcessesClaimWithoutOptionalCollaborators(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "AA:BB:CC:DD:EE:FF", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sender := &fakeSender{}
	agent := NewAgentService("test-agent", svc, nil, nil, nil, nil, sender,
		time.Second, 10, time.Second, zap.NewNop())

	agent.claimAndProcess(ctx)

	if len(sender.macs) != 1 || sender.macs[0] != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("expected one wake broadcast, got %v", sender.macs)
	}

	got, _ := svc.GetTask(ctx, task.ID)
	if got.Status != domain.TaskStatusSuccess || got.Attempts != 1 {
		t.Errorf("after processing = (%s, %d), want (success, 1)", got.Status, got.Attempts)
	}
}
