package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/klauslube/raro-ledger/internal/models"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Transferrer handles the caller-facing transfer lifecycle operations
type Transferrer interface {
	Create(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal) (*models.Transaction, error)
	SubmitCode(ctx context.Context, transactionID uuid.UUID, code int) (*models.Transaction, error)
	SkipAuthentication(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)
	Cancel(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)
	Resend(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)
	Get(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)
}

// Settler performs asynchronous balance settlement
type Settler interface {
	Settle(ctx context.Context, transactionID uuid.UUID) error
}

// Ensure concrete types implement interfaces
var (
	_ Transferrer = (*TransferService)(nil)
	_ Settler     = (*SettlementService)(nil)
)
