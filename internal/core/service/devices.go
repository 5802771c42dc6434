package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

type DeviceService struct {
	repo  port.DeviceRepository
	tasks *TaskService
	log   *zap.Logger
}

func NewDeviceService(repo port.DeviceRepository, tasks *TaskService, log *zap.Logger) *DeviceService {
	return &DeviceService{
		repo:  repo,
		tasks: tasks,
		log:   log,
	}
}

// SaveDevice stores a MAC+label template for later one-click wakes
func (s *DeviceService) SaveDevice(ctx context.Context, mac, label, ownerID string) (*domain.Device, error) {
	normalized, err := domain.NormalizeMAC(mac)
	if err != nil {
		return nil, err
	}

	device := &domain.Device{
		ID:         uuid.NewString(),
		MACAddress: normalized,
		Label:      label,
		OwnerID:    ownerID,
	}

	if err := s.repo.Insert(ctx, device); err != nil {
		s.log.Error("Failed to save device", zap.Error(err))
		return nil, err
	}

	s.log.Info("Saved device", zap.String("device_id", device.ID), zap.String("mac", device.MACAddress))
	return device, nil
}

// ListDevices returns saved devices, owner-scoped when ownerID is set
func (s *DeviceService) ListDevices(ctx context.Context, ownerID string) ([]*domain.Device, error) {
	return s.repo.List(ctx, ownerID)
}

// DeleteDevice removes a saved device template
func (s *DeviceService) DeleteDevice(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// WakeDevice enqueues a wake task from a saved device template
func (s *DeviceService) WakeDevice(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	device, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.tasks.CreateTask(ctx, device.MACAddress, ownerID, device.ID)
}
