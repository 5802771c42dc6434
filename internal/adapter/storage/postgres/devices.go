package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	postgresql "github.com/wakequeue/wakequeue/config/storage/postgresql"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

type deviceRepository struct {
	db  *postgresql.DB
	log *zap.Logger
}

// NewDeviceRepository creates a new postgres device repository
func NewDeviceRepository(db *postgresql.DB, log *zap.Logger) port.DeviceRepository {
	return &deviceRepository{
		db:  db,
		log: log,
	}
}

func (r *deviceRepository) Insert(ctx context.Context, device *domain.Device) error {
	query, args, err := r.db.QueryBuilder.
		Insert("devices").
		Columns("id", "mac_address", "label", "owner_id").
		Values(device.ID, device.MACAddress, device.Label, device.OwnerID).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&device.CreatedAt); err != nil {
		r.log.Error("Failed to insert device", zap.Error(err))
		return err
	}
	return nil
}

func (r *deviceRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	query, args, err := r.db.QueryBuilder.
		Select("id", "mac_address", "label", "owner_id", "created_at").
		From("devices").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, err
	}

	var d domain.Device
	err = r.db.QueryRow(ctx, query, args...).
		Scan(&d.ID, &d.MACAddress, &d.Label, &d.OwnerID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deviceRepository) List(ctx context.Context, ownerID string) ([]*domain.Device, error) {
	builder := r.db.QueryBuilder.
		Select("id", "mac_address", "label", "owner_id", "created_at").
		From("devices").
		OrderBy("created_at DESC")
	if ownerID != "" {
		builder = builder.Where("owner_id = ?", ownerID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.MACAddress, &d.Label, &d.OwnerID, &d.CreatedAt); err != nil {
			return nil, err
		}
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}

func (r *deviceRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.db.QueryBuilder.
		Delete("devices").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}
