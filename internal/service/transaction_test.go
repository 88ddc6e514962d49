package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/klauslube/raro-ledger/internal/models"
	"github.com/klauslube/raro-ledger/internal/notifications"
	"github.com/klauslube/raro-ledger/internal/repository/mocks"
	"github.com/klauslube/raro-ledger/internal/scheduler"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTransferService() *TransferService {
	return NewTransferService(nil, NewTokenIssuer(), nil, notifications.NopNotifier{},
		testLogger(), 5*time.Minute, 6*time.Minute)
}

func account(id uuid.UUID, balance int64) *models.Account {
	return &models.Account{
		ID:        id,
		OwnerName: "tester",
		Balance:   decimal.NewFromInt(balance),
	}
}

func startedTransfer(amount int64) *models.Transaction {
	return &models.Transaction{
		ID:         uuid.New(),
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Amount:     decimal.NewFromInt(amount),
		Status:     models.TransactionStatusStarted,
	}
}

func taskNamed(name string) any {
	return mock.MatchedBy(func(task *models.ScheduledTask) bool {
		return task.Name == name
	})
}

func TestTransferService_PerformCreate(t *testing.T) {
	svc := newTestTransferService()
	ctx := context.Background()

	t.Run("successful create", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		txnRepo := mocks.NewMockTransactionRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		senderID := uuid.New()
		receiverID := uuid.New()
		amount := decimal.NewFromInt(40)

		accountRepo.On("FindByID", ctx, senderID).Return(account(senderID, 100), nil)
		accountRepo.On("FindByID", ctx, receiverID).Return(account(receiverID, 10), nil)
		txnRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
		taskRepo.On("Enqueue", ctx, taskNamed(scheduler.TaskCancelTransaction)).Return(nil)

		txn, err := svc.performCreate(ctx, accountRepo, txnRepo, taskRepo, senderID, receiverID, amount)

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusStarted, txn.Status)
		assert.Equal(t, senderID, txn.SenderID)
		assert.Equal(t, receiverID, txn.ReceiverID)
		assert.True(t, txn.Amount.Equal(amount))
	})

	t.Run("self transfer reported regardless of other fields", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		txnRepo := mocks.NewMockTransactionRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		accountID := uuid.New()
		accountRepo.On("FindByID", ctx, accountID).Return(account(accountID, 100), nil)

		_, err := svc.performCreate(ctx, accountRepo, txnRepo, taskRepo, accountID, accountID, decimal.NewFromInt(10))

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Contains(t, valErr.Violations, violationSelfTransfer)
	})

	t.Run("non-positive amount reported independent of balance", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		txnRepo := mocks.NewMockTransactionRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		senderID := uuid.New()
		receiverID := uuid.New()
		accountRepo.On("FindByID", ctx, senderID).Return(account(senderID, 0), nil)
		accountRepo.On("FindByID", ctx, receiverID).Return(account(receiverID, 0), nil)

		_, err := svc.performCreate(ctx, accountRepo, txnRepo, taskRepo, senderID, receiverID, decimal.NewFromInt(-5))

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Contains(t, valErr.Violations, violationAmountNotPositive)
		assert.NotContains(t, valErr.Violations, violationInsufficientFunds)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		txnRepo := mocks.NewMockTransactionRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		senderID := uuid.New()
		receiverID := uuid.New()
		accountRepo.On("FindByID", ctx, senderID).Return(account(senderID, 30), nil)
		accountRepo.On("FindByID", ctx, receiverID).Return(account(receiverID, 0), nil)

		_, err := svc.performCreate(ctx, accountRepo, txnRepo, taskRepo, senderID, receiverID, decimal.NewFromInt(40))

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, []string{violationInsufficientFunds}, valErr.Violations)
	})

	t.Run("all violations accumulated", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		txnRepo := mocks.NewMockTransactionRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		senderID := uuid.New()
		receiverID := uuid.New()
		accountRepo.On("FindByID", ctx, senderID).Return(nil, models.ErrNotFound)
		accountRepo.On("FindByID", ctx, receiverID).Return(nil, models.ErrNotFound)

		_, err := svc.performCreate(ctx, accountRepo, txnRepo, taskRepo, senderID, receiverID, decimal.Zero)

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Contains(t, valErr.Violations, violationSenderMissing)
		assert.Contains(t, valErr.Violations, violationReceiverMissing)
		assert.Contains(t, valErr.Violations, violationAmountNotPositive)
	})
}

func TestTransferService_PerformSubmitCode(t *testing.T) {
	svc := newTestTransferService()
	ctx := context.Background()

	t.Run("correct code authenticates and consumes token", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		tokenRepo := mocks.NewMockTokenRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		txn := startedTransfer(40)
		token := &models.Token{ID: uuid.New(), TransactionID: txn.ID, Code: 123456, Active: true}

		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
		tokenRepo.On("FindActiveByTransaction", ctx, txn.ID).Return(token, nil)
		tokenRepo.On("Deactivate", ctx, token.ID).Return(nil)
		txnRepo.On("UpdateStatus", ctx, txn.ID, models.TransactionStatusAuthenticated).Return(nil)
		taskRepo.On("Enqueue", ctx, taskNamed(scheduler.TaskSettleTransaction)).Return(nil)

		result, err := svc.performSubmitCode(ctx, txnRepo, tokenRepo, taskRepo, txn.ID, 123456)

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAuthenticated, result.Status)
	})

	t.Run("unknown transfer", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		tokenRepo := mocks.NewMockTokenRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		id := uuid.New()
		txnRepo.On("FindByIDForUpdate", ctx, id).Return(nil, models.ErrNotFound)

		_, err := svc.performSubmitCode(ctx, txnRepo, tokenRepo, taskRepo, id, 123456)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeTransactionNotFound, svcErr.Code)
	})

	t.Run("wrong state", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		tokenRepo := mocks.NewMockTokenRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		txn := startedTransfer(40)
		txn.Status = models.TransactionStatusCompleted
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)

		_, err := svc.performSubmitCode(ctx, txnRepo, tokenRepo, taskRepo, txn.ID, 123456)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeInvalidState, svcErr.Code)
	})

	t.Run("wrong code leaves transfer started", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		tokenRepo := mocks.NewMockTokenRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		txn := startedTransfer(40)
		token := &models.Token{ID: uuid.New(), TransactionID: txn.ID, Code: 123456, Active: true}

		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
		tokenRepo.On("FindActiveByTransaction", ctx, txn.ID).Return(token, nil)

		_, err := svc.performSubmitCode(ctx, txnRepo, tokenRepo, taskRepo, txn.ID, 654321)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeInvalidCode, svcErr.Code)
		assert.Equal(t, models.TransactionStatusStarted, txn.Status)
	})

	t.Run("consumed token no longer matches", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		tokenRepo := mocks.NewMockTokenRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		txn := startedTransfer(40)
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
		tokenRepo.On("FindActiveByTransaction", ctx, txn.ID).Return(nil, models.ErrNotFound)

		_, err := svc.performSubmitCode(ctx, txnRepo, tokenRepo, taskRepo, txn.ID, 123456)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeInvalidCode, svcErr.Code)
	})
}

func TestTransferService_PerformSkipAuthentication(t *testing.T) {
	svc := newTestTransferService()
	ctx := context.Background()

	t.Run("started transfer is force-authenticated", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		txn := startedTransfer(40)
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
		txnRepo.On("UpdateStatus", ctx, txn.ID, models.TransactionStatusAuthenticated).Return(nil)
		taskRepo.On("Enqueue", ctx, taskNamed(scheduler.TaskSettleTransaction)).Return(nil)

		result, err := svc.performSkipAuthentication(ctx, txnRepo, taskRepo, txn.ID)

		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAuthenticated, result.Status)
	})

	t.Run("non-started transfer is rejected", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		taskRepo := mocks.NewMockTaskRepository(t)

		txn := startedTransfer(40)
		txn.Status = models.TransactionStatusAuthenticated
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)

		_, err := svc.performSkipAuthentication(ctx, txnRepo, taskRepo, txn.ID)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeInvalidState, svcErr.Code)
	})
}

func TestTransferService_PerformCancel(t *testing.T) {
	svc := newTestTransferService()
	ctx := context.Background()

	cancelable := []models.TransactionStatus{
		models.TransactionStatusStarted,
		models.TransactionStatusAuthenticated,
		models.TransactionStatusPending,
	}
	for _, status := range cancelable {
		t.Run("cancels "+string(status), func(t *testing.T) {
			txnRepo := mocks.NewMockTransactionRepository(t)

			txn := startedTransfer(40)
			txn.Status = status
			txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
			txnRepo.On("UpdateStatus", ctx, txn.ID, models.TransactionStatusCanceled).Return(nil)

			result, err := svc.performCancel(ctx, txnRepo, txn.ID)

			require.NoError(t, err)
			assert.Equal(t, models.TransactionStatusCanceled, result.Status)
		})
	}

	terminal := []models.TransactionStatus{
		models.TransactionStatusCompleted,
		models.TransactionStatusCanceled,
	}
	for _, status := range terminal {
		t.Run("rejects "+string(status), func(t *testing.T) {
			txnRepo := mocks.NewMockTransactionRepository(t)

			txn := startedTransfer(40)
			txn.Status = status
			txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)

			_, err := svc.performCancel(ctx, txnRepo, txn.ID)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, ErrCodeInvalidState, svcErr.Code)
		})
	}
}

func TestTransferService_PerformCancelExpired(t *testing.T) {
	svc := newTestTransferService()
	ctx := context.Background()

	t.Run("cancels a still-started transfer", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)

		txn := startedTransfer(40)
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
		txnRepo.On("UpdateStatus", ctx, txn.ID, models.TransactionStatusCanceled).Return(nil)

		require.NoError(t, svc.performCancelExpired(ctx, txnRepo, txn.ID))
	})

	// The deadline task fires unconditionally. Anything past STARTED,
	// terminal or not, must be left alone.
	untouched := []models.TransactionStatus{
		models.TransactionStatusAuthenticated,
		models.TransactionStatusPending,
		models.TransactionStatusCompleted,
		models.TransactionStatusCanceled,
	}
	for _, status := range untouched {
		t.Run("no-op for "+string(status), func(t *testing.T) {
			txnRepo := mocks.NewMockTransactionRepository(t)

			txn := startedTransfer(40)
			txn.Status = status
			txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)

			require.NoError(t, svc.performCancelExpired(ctx, txnRepo, txn.ID))
			assert.Equal(t, status, txn.Status)
		})
	}

	t.Run("no-op for a missing transfer", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)

		id := uuid.New()
		txnRepo.On("FindByIDForUpdate", ctx, id).Return(nil, models.ErrNotFound)

		require.NoError(t, svc.performCancelExpired(ctx, txnRepo, id))
	})
}
