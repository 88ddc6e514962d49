package handlers

import (
	"log/slog"
	"net/http"

	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/middleware"
	"github.com/klauslube/raro-ledger/internal/repository"
	"github.com/klauslube/raro-ledger/internal/service"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(database *db.DB, transfers service.Transferrer, logger *slog.Logger) http.Handler {
	handler := NewHandler(transfers, database, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("POST /api/v1/transactions", handler.CreateTransaction)
	mux.HandleFunc("GET /api/v1/transactions/{transactionId}", handler.GetTransaction)
	mux.HandleFunc("POST /api/v1/transactions/{transactionId}/submit-code", handler.SubmitCode)
	mux.HandleFunc("POST /api/v1/transactions/{transactionId}/skip-authentication", handler.SkipAuthentication)
	mux.HandleFunc("POST /api/v1/transactions/{transactionId}/cancel", handler.CancelTransaction)
	mux.HandleFunc("POST /api/v1/transactions/{transactionId}/resend", handler.ResendNotification)

	idempotencyRepo := repository.NewIdempotencyRepository(database)

	var finalHandler http.Handler = mux
	finalHandler = middleware.Idempotency(idempotencyRepo, logger)(finalHandler)

	return finalHandler
}
