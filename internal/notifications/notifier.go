// Package notifications delivers transaction lifecycle events to the
// notification gateway. Delivery is fire-and-forget: failures are logged,
// never retried and never surfaced to the triggering request.
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/klauslube/raro-ledger/internal/models"
)

// Event types understood by the gateway
const (
	EventTransactionCreated   = "transaction.created"
	EventTransactionCompleted = "transaction.completed"
)

// Event is the wire format for a lifecycle notification
type Event struct {
	OccurredAt    time.Time       `json:"occurred_at"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	SenderID      uuid.UUID       `json:"sender_id"`
	ReceiverID    uuid.UUID       `json:"receiver_id"`
}

// Notifier publishes transaction lifecycle events
type Notifier interface {
	TransactionCreated(ctx context.Context, txn *models.Transaction)
	TransactionCompleted(ctx context.Context, txn *models.Transaction)
}

// NewEvent builds the event payload for a transaction
func NewEvent(eventType string, txn *models.Transaction) Event {
	return Event{
		OccurredAt:    time.Now().UTC(),
		Type:          eventType,
		Status:        string(txn.Status),
		Amount:        txn.Amount,
		TransactionID: txn.ID,
		SenderID:      txn.SenderID,
		ReceiverID:    txn.ReceiverID,
	}
}

// NopNotifier discards all events. Used when no webhook URL is configured
// and in tests.
type NopNotifier struct{}

func (NopNotifier) TransactionCreated(context.Context, *models.Transaction)   {}
func (NopNotifier) TransactionCompleted(context.Context, *models.Transaction) {}
