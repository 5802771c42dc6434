package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
)

type DeviceRepository struct {
	mu      sync.Mutex
	devices map[string]*domain.Device
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{devices: make(map[string]*domain.Device)}
}

var _ port.DeviceRepository = (*DeviceRepository)(nil)

func (r *DeviceRepository) Insert(_ context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device.CreatedAt = time.Now().UTC()
	clone := *device
	r.devices[device.ID] = &clone
	return nil
}

func (r *DeviceRepository) GetByID(_ context.Context, id string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[id]
	if !ok {
		return nil, domain.ErrDeviceNotFound
	}
	clone := *device
	return &clone, nil
}

func (r *DeviceRepository) List(_ context.Context, ownerID string) ([]*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var devices []*domain.Device
	for _, device := range r.devices {
		if ownerID != "" && device.OwnerID != ownerID {
			continue
		}
		clone := *device
		devices = append(devices, &clone)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.After(devices[j].CreatedAt)
	})
	return devices, nil
}

func (r *DeviceRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return domain.ErrDeviceNotFound
	}
	delete(r.devices, id)
	return nil
}
