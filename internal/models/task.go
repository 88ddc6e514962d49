package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the execution status of a scheduled task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
)

// ScheduledTask is a durable deferred action. Tasks survive restarts and are
// delivered at least once, so every handler must be idempotent.
type ScheduledTask struct {
	CreatedAt time.Time       `db:"created_at"`
	RunAt     time.Time       `db:"run_at"`
	Name      string          `db:"name"`
	Payload   json.RawMessage `db:"payload"`
	Status    TaskStatus      `db:"status"`
	Attempts  int             `db:"attempts"`
	ID        uuid.UUID       `db:"id"`
}

// IdempotencyKey tracks processed requests to prevent duplicate transfers
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at"`
	Key            string    `db:"key"`
	RequestPath    string    `db:"request_path"`
	ResponseBody   string    `db:"response_body"`
	ResponseStatus int       `db:"response_status"`
}
