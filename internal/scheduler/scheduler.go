// Package scheduler runs the durable deferred task queue. Tasks are stored
// in Postgres, claimed with row locks and executed on a worker loop decoupled
// from the request path. Delivery is at least once: a crash between claim and
// commit leaves the row pending, so every handler must be idempotent.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LerianStudio/lib-uncommons/v2/uncommons/backoff"

	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/models"
	"github.com/klauslube/raro-ledger/internal/repository"
)

// Handler executes one deferred task. A non-nil error triggers a retry with
// backoff until the attempt budget is spent.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Scheduler owns the deferred task queue and its worker loop
type Scheduler struct {
	db           *db.DB
	logger       *slog.Logger
	handlers     map[string]Handler
	pollInterval time.Duration
	retryBase    time.Duration
	maxAttempts  int
}

// New creates a Scheduler. Handlers are registered before Run is called.
func New(database *db.DB, logger *slog.Logger, pollInterval, retryBase time.Duration, maxAttempts int) *Scheduler {
	return &Scheduler{
		db:           database,
		logger:       logger,
		handlers:     make(map[string]Handler),
		pollInterval: pollInterval,
		retryBase:    retryBase,
		maxAttempts:  maxAttempts,
	}
}

// RegisterHandler binds a task name to its handler. Not safe to call after
// Run has started.
func (s *Scheduler) RegisterHandler(name string, handler Handler) {
	s.handlers[name] = handler
}

// Schedule enqueues a task to run after at least delay has elapsed. The
// enqueue is durable and never waits for the task to execute.
func (s *Scheduler) Schedule(ctx context.Context, delay time.Duration, name string, payload any) error {
	raw, err := MarshalPayload(payload)
	if err != nil {
		return err
	}

	task := &models.ScheduledTask{
		Name:    name,
		Payload: raw,
		RunAt:   time.Now().Add(delay),
	}

	repo := repository.NewTaskRepository(s.db)
	if err := repo.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	s.logger.Debug("task scheduled",
		"task", name,
		"task_id", task.ID,
		"run_at", task.RunAt,
	)

	return nil
}

// Run polls for due tasks until the context is canceled
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		"poll_interval", s.pollInterval,
		"max_attempts", s.maxAttempts,
	)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.drainDue(ctx)
		}
	}
}

// drainDue executes due tasks one at a time until none remain
func (s *Scheduler) drainDue(ctx context.Context) {
	for {
		processed, err := s.processOne(ctx)
		if err != nil {
			s.logger.Error("scheduler pass failed", "error", err)
			return
		}
		if !processed {
			return
		}
	}
}

// processOne claims and executes a single due task inside a transaction.
// The claim lock is held while the handler runs; if the process dies the
// transaction rolls back and the task stays pending.
func (s *Scheduler) processOne(ctx context.Context) (bool, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	repo := repository.NewTaskRepository(tx)

	task, err := repo.ClaimDue(ctx, time.Now())
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.dispatch(ctx, repo, task)

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit task outcome: %w", err)
	}

	return true, nil
}

// dispatch runs the task handler and records the outcome on the claimed row
func (s *Scheduler) dispatch(ctx context.Context, repo repository.TaskRepository, task *models.ScheduledTask) {
	handler, ok := s.handlers[task.Name]
	if !ok {
		s.logger.Error("no handler registered for task",
			"task", task.Name,
			"task_id", task.ID,
		)
		if err := repo.MarkFailed(ctx, task.ID); err != nil {
			s.logger.Error("failed to mark task failed", "task_id", task.ID, "error", err)
		}
		return
	}

	if err := handler(ctx, task.Payload); err != nil {
		s.recordFailure(ctx, repo, task, err)
		return
	}

	if markErr := repo.MarkCompleted(ctx, task.ID); markErr != nil {
		s.logger.Error("failed to mark task completed", "task_id", task.ID, "error", markErr)
		return
	}

	s.logger.Info("task executed",
		"task", task.Name,
		"task_id", task.ID,
		"attempts", task.Attempts,
	)
}

// recordFailure reschedules the task with jittered exponential backoff, or
// marks it failed once the attempt budget is spent. Failures are always
// logged: deferred work has no caller to report to.
func (s *Scheduler) recordFailure(ctx context.Context, repo repository.TaskRepository, task *models.ScheduledTask, taskErr error) {
	if task.Attempts+1 >= s.maxAttempts {
		s.logger.Error("task failed permanently",
			"task", task.Name,
			"task_id", task.ID,
			"attempts", task.Attempts+1,
			"error", taskErr,
		)
		if err := repo.MarkFailed(ctx, task.ID); err != nil {
			s.logger.Error("failed to mark task failed", "task_id", task.ID, "error", err)
		}
		return
	}

	delay := backoff.ExponentialWithJitter(s.retryBase, task.Attempts)
	nextRun := time.Now().Add(delay)

	s.logger.Warn("task failed, retrying",
		"task", task.Name,
		"task_id", task.ID,
		"attempts", task.Attempts+1,
		"next_run", nextRun,
		"error", taskErr,
	)

	if err := repo.Reschedule(ctx, task.ID, nextRun); err != nil {
		s.logger.Error("failed to reschedule task", "task_id", task.ID, "error", err)
	}
}
