package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/klauslube/raro-ledger/internal/models"
	"github.com/klauslube/raro-ledger/internal/service"
)

// PrefixTransaction is the ID prefix used in API responses
const PrefixTransaction = "txn_"

// transactionResponse is the wire representation of a transfer
type transactionResponse struct {
	TransactionID string          `json:"transaction_id"`
	SenderID      uuid.UUID       `json:"sender_id"`
	ReceiverID    uuid.UUID       `json:"receiver_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// errorResponse is the wire representation of a failure
type errorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

func formatTransactionID(id uuid.UUID) string {
	return PrefixTransaction + id.String()
}

func parseTransactionID(id string) (uuid.UUID, error) {
	if !strings.HasPrefix(id, PrefixTransaction) {
		return uuid.Nil, fmt.Errorf("invalid transaction ID format: missing %s prefix", PrefixTransaction)
	}

	parsed, err := uuid.Parse(strings.TrimPrefix(id, PrefixTransaction))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid transaction ID format: %w", err)
	}

	return parsed, nil
}

func newTransactionResponse(txn *models.Transaction) transactionResponse {
	return transactionResponse{
		TransactionID: formatTransactionID(txn.ID),
		SenderID:      txn.SenderID,
		ReceiverID:    txn.ReceiverID,
		Amount:        txn.Amount,
		Status:        string(txn.Status),
		CreatedAt:     txn.CreatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // nothing useful to do if write fails
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// respondServiceError maps service failures onto HTTP responses
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var valErr *service.ValidationError
	if errors.As(err, &valErr) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      "validation_failed",
			Message:    "transfer validation failed",
			Violations: valErr.Violations,
		})
		return
	}

	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		logger.Error("unexpected error", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   service.ErrCodeInternalError,
			Message: "internal error",
		})
		return
	}

	status := statusForCode(svcErr.Code)
	if status == http.StatusInternalServerError {
		logger.Error("internal service error", "code", svcErr.Code, "error", svcErr)
	}

	respondJSON(w, status, errorResponse{
		Error:   svcErr.Code,
		Message: svcErr.Message,
	})
}

func statusForCode(code string) int {
	switch code {
	case service.ErrCodeTransactionNotFound, service.ErrCodeAccountNotFound:
		return http.StatusNotFound
	case service.ErrCodeInvalidState:
		return http.StatusConflict
	case service.ErrCodeInvalidCode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
