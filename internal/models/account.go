package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds a member's balance. The balance is only ever mutated by the
// settlement service, under a row lock held for the duration of the write.
type Account struct {
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
	OwnerName string          `db:"owner_name"`
	Balance   decimal.Decimal `db:"balance"`
	ID        uuid.UUID       `db:"id"`
}
