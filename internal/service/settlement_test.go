package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauslube/raro-ledger/internal/models"
	"github.com/klauslube/raro-ledger/internal/notifications"
	"github.com/klauslube/raro-ledger/internal/repository/mocks"
)

func newTestSettlementService() *SettlementService {
	return NewSettlementService(nil, notifications.NopNotifier{}, testLogger())
}

func TestSettlementService_PerformSettle(t *testing.T) {
	svc := newTestSettlementService()
	ctx := context.Background()

	t.Run("credits receiver and completes the transfer", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		accountRepo := mocks.NewMockAccountRepository(t)

		txn := startedTransfer(40)
		txn.Status = models.TransactionStatusAuthenticated

		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
		accountRepo.On("FindByIDForUpdate", ctx, txn.ReceiverID).Return(account(txn.ReceiverID, 10), nil)
		accountRepo.On("CreditBalance", ctx, txn.ReceiverID, txn.Amount).Return(nil)
		txnRepo.On("UpdateStatus", ctx, txn.ID, models.TransactionStatusCompleted).Return(nil)

		settled, err := svc.performSettle(ctx, txnRepo, accountRepo, txn.ID)

		require.NoError(t, err)
		require.NotNil(t, settled)
		assert.Equal(t, models.TransactionStatusCompleted, settled.Status)
	})

	t.Run("settling a completed transfer is a no-op", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		accountRepo := mocks.NewMockAccountRepository(t)

		txn := startedTransfer(40)
		txn.Status = models.TransactionStatusCompleted
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)

		settled, err := svc.performSettle(ctx, txnRepo, accountRepo, txn.ID)

		// No account expectations were set: the receiver balance must be
		// credited exactly once across duplicate settle firings.
		require.NoError(t, err)
		assert.Nil(t, settled)
	})

	t.Run("settling a canceled transfer is a no-op", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		accountRepo := mocks.NewMockAccountRepository(t)

		txn := startedTransfer(40)
		txn.Status = models.TransactionStatusCanceled
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)

		settled, err := svc.performSettle(ctx, txnRepo, accountRepo, txn.ID)

		require.NoError(t, err)
		assert.Nil(t, settled)
	})

	t.Run("unauthenticated transfer cannot settle", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		accountRepo := mocks.NewMockAccountRepository(t)

		txn := startedTransfer(40)
		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)

		_, err := svc.performSettle(ctx, txnRepo, accountRepo, txn.ID)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeInvalidState, svcErr.Code)
	})

	t.Run("balance write failure keeps pre-settlement state", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		accountRepo := mocks.NewMockAccountRepository(t)

		txn := startedTransfer(40)
		txn.Status = models.TransactionStatusAuthenticated

		txnRepo.On("FindByIDForUpdate", ctx, txn.ID).Return(txn, nil)
		accountRepo.On("FindByIDForUpdate", ctx, txn.ReceiverID).Return(account(txn.ReceiverID, 10), nil)
		accountRepo.On("CreditBalance", ctx, txn.ReceiverID, txn.Amount).
			Return(errors.New("connection reset"))

		_, err := svc.performSettle(ctx, txnRepo, accountRepo, txn.ID)

		// No UpdateStatus expectation: the status flip only happens after
		// the balance write succeeds.
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeSettlementFailed, svcErr.Code)
		assert.Equal(t, models.TransactionStatusAuthenticated, txn.Status)
	})

	t.Run("unknown transfer", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository(t)
		accountRepo := mocks.NewMockAccountRepository(t)

		id := uuid.New()
		txnRepo.On("FindByIDForUpdate", ctx, id).Return(nil, models.ErrNotFound)

		_, err := svc.performSettle(ctx, txnRepo, accountRepo, id)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeTransactionNotFound, svcErr.Code)
	})
}
