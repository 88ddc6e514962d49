package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/models"
	"github.com/klauslube/raro-ledger/internal/notifications"
	"github.com/klauslube/raro-ledger/internal/repository"
	"github.com/klauslube/raro-ledger/internal/scheduler"
)

// TaskScheduler is the deferred-task contract consumed by services
type TaskScheduler interface {
	Schedule(ctx context.Context, delay time.Duration, name string, payload any) error
}

// TransferService owns the transfer lifecycle: creation, authentication,
// cancellation and notification re-delivery.
type TransferService struct {
	db             *db.DB
	issuer         *TokenIssuer
	sched          TaskScheduler
	notifier       notifications.Notifier
	logger         *slog.Logger
	tokenExpiry    time.Duration
	cancelDeadline time.Duration
}

// NewTransferService creates a new TransferService
func NewTransferService(
	database *db.DB,
	issuer *TokenIssuer,
	sched TaskScheduler,
	notifier notifications.Notifier,
	logger *slog.Logger,
	tokenExpiry, cancelDeadline time.Duration,
) *TransferService {
	return &TransferService{
		db:             database,
		issuer:         issuer,
		sched:          sched,
		notifier:       notifier,
		logger:         logger,
		tokenExpiry:    tokenExpiry,
		cancelDeadline: cancelDeadline,
	}
}

// Create validates and persists a new transfer at STARTED, mints its
// confirmation token, schedules the expiry and cancellation sweeps and emits
// the created event. Every violated constraint is reported, not just the
// first.
func (s *TransferService) Create(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, internalError("failed to start transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txAccountRepo := repository.NewAccountRepository(tx)
	txTransactionRepo := repository.NewTransactionRepository(tx)
	txTaskRepo := repository.NewTaskRepository(tx)

	txn, err := s.performCreate(ctx, txAccountRepo, txTransactionRepo, txTaskRepo, senderID, receiverID, amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, internalError("failed to commit transaction", err)
	}

	s.mintToken(ctx, txn)
	s.notifier.TransactionCreated(ctx, txn)

	return txn, nil
}

// performCreate contains the core creation business logic. The cancellation
// deadline task is enqueued in the same database transaction as the transfer,
// so no created transfer can escape the sweep.
func (s *TransferService) performCreate(
	ctx context.Context,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	taskRepo repository.TaskRepository,
	senderID, receiverID uuid.UUID,
	amount decimal.Decimal,
) (*models.Transaction, error) {
	sender, err := s.loadAccount(ctx, accountRepo, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.loadAccount(ctx, accountRepo, receiverID)
	if err != nil {
		return nil, err
	}

	if violations := validateTransfer(sender, receiver, senderID, receiverID, amount); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	txn := &models.Transaction{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     models.TransactionStatusStarted,
	}

	if err := transactionRepo.Create(ctx, txn); err != nil {
		return nil, internalError("failed to create transfer", err)
	}

	if err := s.enqueueTask(ctx, taskRepo, scheduler.TaskCancelTransaction,
		scheduler.TransactionPayload{TransactionID: txn.ID}, s.cancelDeadline); err != nil {
		return nil, err
	}

	return txn, nil
}

// mintToken generates the confirmation token and schedules its expiry. It
// runs after the transfer commit; if it fails the transfer simply has no
// active token and the cancellation sweep reclaims it.
func (s *TransferService) mintToken(ctx context.Context, txn *models.Transaction) {
	token, err := s.issuer.Generate(ctx, repository.NewTokenRepository(s.db), txn.ID)
	if err != nil {
		s.logger.Error("failed to generate confirmation token",
			"transaction_id", txn.ID,
			"error", err,
		)
		return
	}

	err = s.sched.Schedule(ctx, s.tokenExpiry, scheduler.TaskTokenExpiry,
		scheduler.TokenPayload{TokenID: token.ID})
	if err != nil {
		s.logger.Error("failed to schedule token expiry",
			"transaction_id", txn.ID,
			"token_id", token.ID,
			"error", err,
		)
	}
}

// SubmitCode authenticates a STARTED transfer with its one-time code. On a
// match the token is consumed, the transfer moves to AUTHENTICATED and
// settlement is enqueued to run asynchronously.
func (s *TransferService) SubmitCode(ctx context.Context, transactionID uuid.UUID, code int) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, internalError("failed to start transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txn, err := s.performSubmitCode(ctx,
		repository.NewTransactionRepository(tx),
		repository.NewTokenRepository(tx),
		repository.NewTaskRepository(tx),
		transactionID, code)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, internalError("failed to commit transaction", err)
	}

	return txn, nil
}

// performSubmitCode contains the core authentication business logic
func (s *TransferService) performSubmitCode(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	tokenRepo repository.TokenRepository,
	taskRepo repository.TaskRepository,
	transactionID uuid.UUID,
	code int,
) (*models.Transaction, error) {
	txn, err := s.lockTransaction(ctx, transactionRepo, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.Status != models.TransactionStatusStarted {
		return nil, invalidStateError(txn.Status, "submit a code to")
	}

	token, err := s.issuer.Validate(ctx, tokenRepo, transactionID, code)
	if err != nil {
		return nil, err
	}

	if err := tokenRepo.Deactivate(ctx, token.ID); err != nil {
		return nil, internalError("failed to consume token", err)
	}

	return s.authenticate(ctx, transactionRepo, taskRepo, txn)
}

// SkipAuthentication force-transitions a STARTED transfer to AUTHENTICATED
// without a code check. Administrative escape hatch; the token is left
// untouched and dies by expiry.
func (s *TransferService) SkipAuthentication(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, internalError("failed to start transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txn, err := s.performSkipAuthentication(ctx,
		repository.NewTransactionRepository(tx),
		repository.NewTaskRepository(tx),
		transactionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, internalError("failed to commit transaction", err)
	}

	return txn, nil
}

// performSkipAuthentication contains the core skip business logic
func (s *TransferService) performSkipAuthentication(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	taskRepo repository.TaskRepository,
	transactionID uuid.UUID,
) (*models.Transaction, error) {
	txn, err := s.lockTransaction(ctx, transactionRepo, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.Status != models.TransactionStatusStarted {
		return nil, invalidStateError(txn.Status, "skip authentication of")
	}

	return s.authenticate(ctx, transactionRepo, taskRepo, txn)
}

// authenticate flips the transfer to AUTHENTICATED and enqueues settlement in
// the same database transaction.
func (s *TransferService) authenticate(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	taskRepo repository.TaskRepository,
	txn *models.Transaction,
) (*models.Transaction, error) {
	if err := transactionRepo.UpdateStatus(ctx, txn.ID, models.TransactionStatusAuthenticated); err != nil {
		return nil, internalError("failed to update transfer status", err)
	}
	txn.Status = models.TransactionStatusAuthenticated

	if err := s.enqueueTask(ctx, taskRepo, scheduler.TaskSettleTransaction,
		scheduler.TransactionPayload{TransactionID: txn.ID}, 0); err != nil {
		return nil, err
	}

	return txn, nil
}

// Cancel transitions a non-terminal transfer to CANCELED. Canceling a
// terminal transfer is an invalid state error; balances are never touched
// because funds are not reserved at creation.
func (s *TransferService) Cancel(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, internalError("failed to start transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txn, err := s.performCancel(ctx, repository.NewTransactionRepository(tx), transactionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, internalError("failed to commit transaction", err)
	}

	return txn, nil
}

// performCancel contains the core cancellation business logic
func (s *TransferService) performCancel(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	transactionID uuid.UUID,
) (*models.Transaction, error) {
	txn, err := s.lockTransaction(ctx, transactionRepo, transactionID)
	if err != nil {
		return nil, err
	}

	if !txn.Status.CanTransitionTo(models.TransactionStatusCanceled) {
		return nil, invalidStateError(txn.Status, "cancel")
	}

	if err := transactionRepo.UpdateStatus(ctx, transactionID, models.TransactionStatusCanceled); err != nil {
		return nil, internalError("failed to update transfer status", err)
	}
	txn.Status = models.TransactionStatusCanceled

	return txn, nil
}

// CancelExpired is the cancellation-sweep handler. The deadline task fires
// unconditionally, so this must be a no-op for any transfer that moved past
// STARTED before the deadline; terminal-state-wins, never last-write-wins.
func (s *TransferService) CancelExpired(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return internalError("failed to start transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	if err := s.performCancelExpired(ctx, repository.NewTransactionRepository(tx), transactionID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return internalError("failed to commit transaction", err)
	}

	return nil
}

// performCancelExpired contains the core sweep business logic
func (s *TransferService) performCancelExpired(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	transactionID uuid.UUID,
) error {
	txn, err := transactionRepo.FindByIDForUpdate(ctx, transactionID)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("cancellation sweep found no transfer", "transaction_id", transactionID)
		return nil
	}
	if err != nil {
		return internalError("failed to load transfer", err)
	}

	if txn.Status != models.TransactionStatusStarted {
		s.logger.Debug("cancellation sweep skipped transfer",
			"transaction_id", transactionID,
			"status", txn.Status,
		)
		return nil
	}

	if err := transactionRepo.UpdateStatus(ctx, transactionID, models.TransactionStatusCanceled); err != nil {
		return internalError("failed to update transfer status", err)
	}

	s.logger.Info("transfer canceled by deadline sweep", "transaction_id", transactionID)

	return nil
}

// ExpireToken is the token-expiry-sweep handler. Idempotent: a consumed or
// already-expired token is left alone, and the transfer status is never
// touched (that is the cancellation sweep's job).
func (s *TransferService) ExpireToken(ctx context.Context, tokenID uuid.UUID) error {
	return s.issuer.Expire(ctx, repository.NewTokenRepository(s.db), tokenID)
}

// Resend re-emits the created event for an existing transfer without altering
// its state or regenerating the token.
func (s *TransferService) Resend(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	s.notifier.TransactionCreated(ctx, txn)

	return txn, nil
}

// Get retrieves a transfer by ID
func (s *TransferService) Get(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	repo := repository.NewTransactionRepository(s.db)

	txn, err := repo.FindByID(ctx, transactionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, transactionNotFoundError()
	}
	if err != nil {
		return nil, internalError("failed to load transfer", err)
	}

	return txn, nil
}

func (s *TransferService) lockTransaction(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	transactionID uuid.UUID,
) (*models.Transaction, error) {
	txn, err := transactionRepo.FindByIDForUpdate(ctx, transactionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, transactionNotFoundError()
	}
	if err != nil {
		return nil, internalError("failed to load transfer", err)
	}
	return txn, nil
}

// loadAccount resolves an account for validation; a missing account is
// reported as nil so all violations can be accumulated.
func (s *TransferService) loadAccount(
	ctx context.Context,
	accountRepo repository.AccountRepository,
	accountID uuid.UUID,
) (*models.Account, error) {
	account, err := accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internalError("failed to load account", err)
	}
	return account, nil
}

func (s *TransferService) enqueueTask(
	ctx context.Context,
	taskRepo repository.TaskRepository,
	name string,
	payload any,
	delay time.Duration,
) error {
	raw, err := scheduler.MarshalPayload(payload)
	if err != nil {
		return internalError("failed to encode task payload", err)
	}

	task := &models.ScheduledTask{
		Name:    name,
		Payload: raw,
		RunAt:   time.Now().Add(delay),
	}

	if err := taskRepo.Enqueue(ctx, task); err != nil {
		return internalError(fmt.Sprintf("failed to enqueue %s task", name), err)
	}

	return nil
}

func transactionNotFoundError() *ServiceError {
	return &ServiceError{
		Code:    ErrCodeTransactionNotFound,
		Message: "transfer not found",
	}
}

func invalidStateError(status models.TransactionStatus, verb string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("cannot %s a %s transfer", verb, status),
	}
}

func internalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInternalError,
		Message: message,
		Err:     err,
	}
}
