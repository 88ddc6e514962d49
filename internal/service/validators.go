package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/klauslube/raro-ledger/internal/models"
)

// Violation messages reported by create-time validation
const (
	violationSenderMissing      = "sender account not found"
	violationReceiverMissing    = "receiver account not found"
	violationAmountNotPositive  = "amount must be greater than zero"
	violationInsufficientFunds  = "insufficient balance for the transaction"
	violationSelfTransfer       = "cannot send a transaction to yourself"
)

// validateTransfer evaluates every create-time constraint and returns the
// full list of violations. Balance sufficiency is advisory gating only: the
// check here does not reserve or lock funds (see SettlementService).
func validateTransfer(sender, receiver *models.Account, senderID, receiverID uuid.UUID, amount decimal.Decimal) []string {
	var violations []string

	if sender == nil {
		violations = append(violations, violationSenderMissing)
	}
	if receiver == nil {
		violations = append(violations, violationReceiverMissing)
	}

	if !amount.IsPositive() {
		violations = append(violations, violationAmountNotPositive)
	} else if sender != nil && sender.Balance.LessThan(amount) {
		violations = append(violations, violationInsufficientFunds)
	}

	if senderID == receiverID {
		violations = append(violations, violationSelfTransfer)
	}

	return violations
}
