package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/models"
)

// TaskRepository defines the interface for the durable deferred task queue
type TaskRepository interface {
	Enqueue(ctx context.Context, task *models.ScheduledTask) error
	// ClaimDue locks and returns the oldest due pending task, or
	// models.ErrNotFound when none is due. The row stays locked until the
	// enclosing transaction ends, so a crash mid-run leaves it pending.
	ClaimDue(ctx context.Context, now time.Time) (*models.ScheduledTask, error)
	MarkCompleted(ctx context.Context, taskID uuid.UUID) error
	MarkFailed(ctx context.Context, taskID uuid.UUID) error
	Reschedule(ctx context.Context, taskID uuid.UUID, runAt time.Time) error
}

// taskRepository implements TaskRepository
type taskRepository struct {
	q db.Queryer
}

// NewTaskRepository creates a new TaskRepository over a pool or transaction
func NewTaskRepository(q db.Queryer) TaskRepository {
	return &taskRepository{q: q}
}

// Enqueue persists a deferred task. A zero ID is replaced with a fresh UUID.
func (r *taskRepository) Enqueue(ctx context.Context, task *models.ScheduledTask) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	query := `
		INSERT INTO scheduled_tasks (id, name, payload, status, attempts, run_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		task.ID, task.Name, task.Payload, task.Status, task.Attempts, task.RunAt,
	).Scan(&task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// ClaimDue selects the oldest due pending task with FOR UPDATE SKIP LOCKED,
// so concurrent scheduler workers never claim the same row.
func (r *taskRepository) ClaimDue(ctx context.Context, now time.Time) (*models.ScheduledTask, error) {
	query := `
		SELECT id, name, payload, status, attempts, run_at, created_at
		FROM scheduled_tasks
		WHERE status = $1 AND run_at <= $2
		ORDER BY run_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var task models.ScheduledTask
	err := r.q.QueryRowContext(ctx, query, models.TaskStatusPending, now).Scan(
		&task.ID,
		&task.Name,
		&task.Payload,
		&task.Status,
		&task.Attempts,
		&task.RunAt,
		&task.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim due task: %w", err)
	}

	return &task, nil
}

// MarkCompleted records successful execution
func (r *taskRepository) MarkCompleted(ctx context.Context, taskID uuid.UUID) error {
	return r.setStatus(ctx, taskID, models.TaskStatusCompleted)
}

// MarkFailed records permanent failure after the retry budget is spent
func (r *taskRepository) MarkFailed(ctx context.Context, taskID uuid.UUID) error {
	return r.setStatus(ctx, taskID, models.TaskStatusFailed)
}

// Reschedule keeps the task pending, bumps the attempt counter and defers the
// next run.
func (r *taskRepository) Reschedule(ctx context.Context, taskID uuid.UUID, runAt time.Time) error {
	query := `
		UPDATE scheduled_tasks
		SET status = $2, attempts = attempts + 1, run_at = $3
		WHERE id = $1
	`

	if _, err := r.q.ExecContext(ctx, query, taskID, models.TaskStatusPending, runAt); err != nil {
		return fmt.Errorf("failed to reschedule task: %w", err)
	}

	return nil
}

func (r *taskRepository) setStatus(ctx context.Context, taskID uuid.UUID, status models.TaskStatus) error {
	query := `UPDATE scheduled_tasks SET status = $2 WHERE id = $1`

	if _, err := r.q.ExecContext(ctx, query, taskID, status); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	return nil
}
