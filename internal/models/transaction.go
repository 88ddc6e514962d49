package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle status of a transfer
type TransactionStatus string

const (
	TransactionStatusStarted       TransactionStatus = "STARTED"
	TransactionStatusAuthenticated TransactionStatus = "AUTHENTICATED"
	TransactionStatusPending       TransactionStatus = "PENDING"
	TransactionStatusCompleted     TransactionStatus = "COMPLETED"
	TransactionStatusCanceled      TransactionStatus = "CANCELED"
)

// statusRank defines the total order of statuses. Transitions only move
// forward through this order; CANCELED is a side branch reachable from any
// non-terminal status.
var statusRank = map[TransactionStatus]int{
	TransactionStatusStarted:       1,
	TransactionStatusAuthenticated: 5,
	TransactionStatusPending:       10,
	TransactionStatusCompleted:     15,
	TransactionStatusCanceled:      20,
}

// Rank returns the position of the status in the lifecycle order, or 0 for
// an unknown status.
func (s TransactionStatus) Rank() int {
	return statusRank[s]
}

// Valid reports whether the status is one of the defined lifecycle statuses.
func (s TransactionStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether the status permits no further transitions.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusCanceled
}

// CanTransitionTo reports whether a transition from s to next is legal.
// Forward transitions must move to the immediately following status in the
// lifecycle order; cancellation is allowed from any non-terminal status.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == TransactionStatusCanceled {
		return true
	}
	switch s {
	case TransactionStatusStarted:
		return next == TransactionStatusAuthenticated
	case TransactionStatusAuthenticated:
		return next == TransactionStatusPending || next == TransactionStatusCompleted
	case TransactionStatusPending:
		return next == TransactionStatusCompleted
	default:
		return false
	}
}

// Transaction represents a transfer of funds between two accounts
type Transaction struct {
	CreatedAt  time.Time         `db:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at"`
	Status     TransactionStatus `db:"status"`
	Amount     decimal.Decimal   `db:"amount"`
	ID         uuid.UUID         `db:"id"`
	SenderID   uuid.UUID         `db:"sender_id"`
	ReceiverID uuid.UUID         `db:"receiver_id"`
}
