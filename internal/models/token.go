package models

import (
	"time"

	"github.com/google/uuid"
)

// Token code bounds. Codes are 6-digit numbers drawn uniformly from the
// inclusive range [TokenCodeMin, TokenCodeMax].
const (
	TokenCodeMin = 100000
	TokenCodeMax = 999999
)

// Token is a one-time confirmation code bound to a single transaction.
// At most one active token may carry a given code at any instant; uniqueness
// is enforced only among active tokens, not historically.
type Token struct {
	CreatedAt     time.Time `db:"created_at"`
	Code          int       `db:"code"`
	Active        bool      `db:"active"`
	ID            uuid.UUID `db:"id"`
	TransactionID uuid.UUID `db:"transaction_id"`
}
