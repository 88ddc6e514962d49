package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Deferred task names. Handlers are registered under these names in cmd.
const (
	// TaskTokenExpiry deactivates a confirmation token that was never used.
	TaskTokenExpiry = "token.expire"
	// TaskCancelTransaction cancels a transfer that missed its
	// authentication deadline.
	TaskCancelTransaction = "transaction.cancel"
	// TaskSettleTransaction credits the receiver and completes the transfer.
	TaskSettleTransaction = "transaction.settle"
)

// TransactionPayload is the payload for transaction-scoped tasks
type TransactionPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
}

// TokenPayload is the payload for token-scoped tasks
type TokenPayload struct {
	TokenID uuid.UUID `json:"token_id"`
}

// MarshalPayload encodes a task payload for storage
func MarshalPayload(v any) (json.RawMessage, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}
	return payload, nil
}
