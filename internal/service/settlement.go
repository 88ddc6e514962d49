package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/models"
	"github.com/klauslube/raro-ledger/internal/notifications"
	"github.com/klauslube/raro-ledger/internal/repository"
)

// SettlementService performs the balance transfer for authenticated
// transfers. Only settlement ever mutates account balances, and it does so
// under a receiver row lock so concurrent settlements targeting the same
// account cannot lose updates.
type SettlementService struct {
	db       *db.DB
	notifier notifications.Notifier
	logger   *slog.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(database *db.DB, notifier notifications.Notifier, logger *slog.Logger) *SettlementService {
	return &SettlementService{
		db:       database,
		notifier: notifier,
		logger:   logger,
	}
}

// Settle credits the receiver and completes the transfer. Idempotent via the
// state check: settling an already-terminal transfer is a no-op, so the
// scheduler may fire it more than once. A balance persistence failure rolls
// the whole attempt back and returns a retryable settlement_failed error.
func (s *SettlementService) Settle(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return internalError("failed to start transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txn, err := s.performSettle(ctx,
		repository.NewTransactionRepository(tx),
		repository.NewAccountRepository(tx),
		transactionID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &ServiceError{
			Code:    ErrCodeSettlementFailed,
			Message: "failed to commit settlement",
			Err:     err,
		}
	}

	if txn != nil {
		s.logger.Info("transfer settled",
			"transaction_id", txn.ID,
			"receiver_id", txn.ReceiverID,
			"amount", txn.Amount,
		)
		s.notifier.TransactionCompleted(ctx, txn)
	}

	return nil
}

// performSettle contains the core settlement business logic. It returns the
// settled transfer, or nil when the transfer was already terminal and nothing
// was done.
func (s *SettlementService) performSettle(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	accountRepo repository.AccountRepository,
	transactionID uuid.UUID,
) (*models.Transaction, error) {
	txn, err := transactionRepo.FindByIDForUpdate(ctx, transactionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, transactionNotFoundError()
	}
	if err != nil {
		return nil, internalError("failed to load transfer", err)
	}

	// Terminal-state-wins: a duplicate settle of a completed transfer and a
	// settle racing a cancellation both land here.
	if txn.Status.Terminal() {
		s.logger.Debug("settlement skipped terminal transfer",
			"transaction_id", transactionID,
			"status", txn.Status,
		)
		return nil, nil
	}

	if !txn.Status.CanTransitionTo(models.TransactionStatusCompleted) {
		return nil, invalidStateError(txn.Status, "settle")
	}

	// Lock the receiver row before the read-modify-write of its balance.
	if _, err := accountRepo.FindByIDForUpdate(ctx, txn.ReceiverID); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeSettlementFailed,
			Message: "failed to lock receiver account",
			Err:     err,
		}
	}

	if err := accountRepo.CreditBalance(ctx, txn.ReceiverID, txn.Amount); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeSettlementFailed,
			Message: "failed to credit receiver balance",
			Err:     err,
		}
	}

	// The status flip happens only after the balance write succeeded; a
	// failure above leaves the transfer in its pre-settlement state.
	if err := transactionRepo.UpdateStatus(ctx, transactionID, models.TransactionStatusCompleted); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeSettlementFailed,
			Message: "failed to complete transfer",
			Err:     err,
		}
	}
	txn.Status = models.TransactionStatusCompleted

	return txn, nil
}
