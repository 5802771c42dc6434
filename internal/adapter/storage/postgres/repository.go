// Package postgres implements the task & device repositories over pgx.
// Every statement is parameterized; values are never formatted into SQL.
package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	postgresql "github.com/wakequeue/wakequeue/config/storage/postgresql"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

const taskColumns = "id, mac_address, status, attempts, owner_id, device_id, created_at, updated_at"

// claimQuery is the load-bearing statement of the whole system: selecting
// and flipping the batch is one atomic unit, and SKIP LOCKED keeps
// concurrent claimers on disjoint rows. Failed tasks are claim-eligible
// again (retry path); newest requests are serviced first.
const claimQuery = `
	UPDATE wake_tasks
	SET status = 'processing', attempts = attempts + 1, updated_at = now()
	WHERE id IN (
		SELECT id FROM wake_tasks
		WHERE status IN ('pending', 'failed')
		ORDER BY created_at DESC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, mac_address`

type taskRepository struct {
	db  *postgresql.DB
	log *zap.Logger
}

// NewTaskRepository creates a new postgres task repository
func NewTaskRepository(db *postgresql.DB, log *zap.Logger) port.TaskRepository {
	return &taskRepository{
		db:  db,
		log: log,
	}
}

func (r *taskRepository) Insert(ctx context.Context, task *domain.Task) error {
	query, args, err := r.db.QueryBuilder.
		Insert("wake_tasks").
		Columns("id", "mac_address", "status", "attempts", "owner_id", "device_id").
		Values(task.ID, task.MACAddress, task.Status, task.Attempts, task.OwnerID, task.DeviceID).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		r.log.Error("Failed to insert task", zap.Error(err))
		return err
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query, args, err := r.db.QueryBuilder.
		Select(taskColumns).
		From("wake_tasks").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanTask(r.db.QueryRow(ctx, query, args...))
}

func (r *taskRepository) GetNewestByMAC(ctx context.Context, mac string) (*domain.Task, error) {
	query, args, err := r.db.QueryBuilder.
		Select(taskColumns).
		From("wake_tasks").
		Where("mac_address = ?", mac).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanTask(r.db.QueryRow(ctx, query, args...))
}

func (r *taskRepository) List(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	builder := r.db.QueryBuilder.
		Select(taskColumns).
		From("wake_tasks").
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

	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.MACAddress, &t.Status, &t.Attempts,
			&t.OwnerID, &t.DeviceID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) ListPending(ctx context.Context, limit int) ([]*domain.ClaimedTask, error) {
	query, args, err := r.db.QueryBuilder.
		Select("id", "mac_address").
		From("wake_tasks").
		Where(squirrel.Eq{"status": []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusFailed}}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaimed(rows)
}

func (r *taskRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.ClaimedTask, error) {
	rows, err := r.db.Query(ctx, claimQuery, limit)
	if err != nil {
		r.log.Error("Claim statement failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanClaimed(rows)
}

func (r *taskRepository) UpdateStatusCAS(ctx context.Context, id string, from, to domain.TaskStatus, attemptsDelta int) (*domain.Task, error) {
	// The status guard makes this a compare-and-swap: if another writer got
	// there first the row no longer matches and nothing is written.
	query := `
		UPDATE wake_tasks
		SET status = $1, attempts = attempts + $2, updated_at = now()
		WHERE id = $3 AND status = $4
		RETURNING ` + taskColumns

	task, err := r.scanTask(r.db.QueryRow(ctx, query, to, attemptsDelta, id, from))
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, domain.ErrStaleTransition
	}
	return task, err
}

func (r *taskRepository) scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.MACAddress, &t.Status, &t.Attempts,
		&t.OwnerID, &t.DeviceID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanClaimed(rows pgx.Rows) ([]*domain.ClaimedTask, error) {
	var claimed []*domain.ClaimedTask
	for rows.Next() {
		var c domain.ClaimedTask
		if err := rows.Scan(&c.ID, &c.MACAddress); err != nil {
			return nil, err
		}
		claimed = append(claimed, &c)
	}
	return claimed, rows.Err()
}
