package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/klauslube/raro-ledger/internal/models"
)

type createTransactionRequest struct {
	SenderID   uuid.UUID       `json:"sender_id"`
	ReceiverID uuid.UUID       `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type submitCodeRequest struct {
	Code int `json:"code"`
}

// CreateTransaction handles POST /api/v1/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	txn, err := h.transfers.Create(r.Context(), req.SenderID, req.ReceiverID, req.Amount)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTransactionResponse(txn))
}

// GetTransaction handles GET /api/v1/transactions/{transactionId}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, ok := h.transactionIDFromPath(w, r)
	if !ok {
		return
	}

	txn, err := h.transfers.Get(r.Context(), txnID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, newTransactionResponse(txn))
}

// SubmitCode handles POST /api/v1/transactions/{transactionId}/submit-code
func (h *Handler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	txnID, ok := h.transactionIDFromPath(w, r)
	if !ok {
		return
	}

	var req submitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Code < models.TokenCodeMin || req.Code > models.TokenCodeMax {
		respondBadRequest(w, "code must be a 6-digit number")
		return
	}

	txn, err := h.transfers.SubmitCode(r.Context(), txnID, req.Code)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, newTransactionResponse(txn))
}

// SkipAuthentication handles POST /api/v1/transactions/{transactionId}/skip-authentication
func (h *Handler) SkipAuthentication(w http.ResponseWriter, r *http.Request) {
	txnID, ok := h.transactionIDFromPath(w, r)
	if !ok {
		return
	}

	txn, err := h.transfers.SkipAuthentication(r.Context(), txnID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, newTransactionResponse(txn))
}

// CancelTransaction handles POST /api/v1/transactions/{transactionId}/cancel
func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, ok := h.transactionIDFromPath(w, r)
	if !ok {
		return
	}

	txn, err := h.transfers.Cancel(r.Context(), txnID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, newTransactionResponse(txn))
}

// ResendNotification handles POST /api/v1/transactions/{transactionId}/resend
func (h *Handler) ResendNotification(w http.ResponseWriter, r *http.Request) {
	txnID, ok := h.transactionIDFromPath(w, r)
	if !ok {
		return
	}

	txn, err := h.transfers.Resend(r.Context(), txnID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusAccepted, newTransactionResponse(txn))
}

func (h *Handler) transactionIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	txnID, err := parseTransactionID(r.PathValue("transactionId"))
	if err != nil {
		respondJSON(w, http.StatusNotFound, errorResponse{
			Error:   "transaction_not_found",
			Message: "transfer not found",
		})
		return uuid.Nil, false
	}
	return txnID, true
}
