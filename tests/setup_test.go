//nolint:errcheck // unchecked errors are acceptable in test files
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/klauslube/raro-ledger/internal/config"
	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/handlers"
	"github.com/klauslube/raro-ledger/internal/notifications"
	"github.com/klauslube/raro-ledger/internal/scheduler"
	"github.com/klauslube/raro-ledger/internal/service"
)

// TestServer wraps the HTTP test server, database and scheduler for
// integration tests. SenderID starts with balance 100.00, ReceiverID with
// 10.00.
type TestServer struct {
	Server     *httptest.Server
	Database   *db.DB
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	t          *testing.T
	stop       context.CancelFunc
}

// SetupTest creates a new test server with a clean database state.
func SetupTest(t *testing.T) *TestServer {
	return SetupTestWithConfig(t, func(*config.Config) {})
}

// SetupTestWithConfig creates a test server after letting the caller tighten
// the timing knobs, so expiry and deadline sweeps can be observed in-test.
func SetupTestWithConfig(t *testing.T, mutate func(*config.Config)) *TestServer {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "failed to load config")

	cfg.App.SchedulerPollInterval = 50 * time.Millisecond
	cfg.App.SchedulerRetryBase = 100 * time.Millisecond
	mutate(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.Connect(context.Background(), &cfg.Database, logger)
	require.NoError(t, err, "failed to connect to database")

	runMigrations(t, database)

	ts := &TestServer{
		Database: database,
		t:        t,
	}
	ts.resetTestData()

	notifier := notifications.NopNotifier{}

	sched := scheduler.New(
		database,
		logger,
		cfg.App.SchedulerPollInterval,
		cfg.App.SchedulerRetryBase,
		cfg.App.SchedulerMaxAttempts,
	)

	transferService := service.NewTransferService(
		database,
		service.NewTokenIssuer(),
		sched,
		notifier,
		logger,
		cfg.App.TokenExpiry,
		cfg.App.CancelDeadline,
	)
	settlementService := service.NewSettlementService(database, notifier, logger)

	sched.RegisterHandler(scheduler.TaskSettleTransaction, func(ctx context.Context, raw json.RawMessage) error {
		var payload scheduler.TransactionPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return settlementService.Settle(ctx, payload.TransactionID)
	})
	sched.RegisterHandler(scheduler.TaskCancelTransaction, func(ctx context.Context, raw json.RawMessage) error {
		var payload scheduler.TransactionPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return transferService.CancelExpired(ctx, payload.TransactionID)
	})
	sched.RegisterHandler(scheduler.TaskTokenExpiry, func(ctx context.Context, raw json.RawMessage) error {
		var payload scheduler.TokenPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return transferService.ExpireToken(ctx, payload.TokenID)
	})

	schedCtx, stop := context.WithCancel(context.Background())
	go sched.Run(schedCtx)
	ts.stop = stop

	router := handlers.NewRouter(database, transferService, logger)
	ts.Server = httptest.NewServer(router)

	return ts
}

// Close shuts down the test server, scheduler and database connection.
func (ts *TestServer) Close() {
	ts.stop()
	ts.Server.Close()
	_ = ts.Database.Close()
}

// URL returns the full URL for a given path.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

func runMigrations(t *testing.T, database *db.DB) {
	t.Helper()

	migrationPath := filepath.Join("..", "migrations", "0001_init.sql")
	sqlBytes, err := os.ReadFile(migrationPath) // #nosec G304
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	if _, err := database.ExecContext(context.Background(), string(sqlBytes)); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

func (ts *TestServer) resetTestData() {
	ts.t.Helper()

	ctx := context.Background()
	for _, table := range []string{"scheduled_tasks", "tokens", "transactions", "idempotency_keys", "accounts"} {
		_, err := ts.Database.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(ts.t, err, "failed to truncate table %s", table)
	}

	ts.SenderID = uuid.New()
	ts.ReceiverID = uuid.New()

	_, err := ts.Database.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_name, balance) VALUES
			($1, 'Ana Silva', 100.00),
			($2, 'Bruno Costa', 10.00)
	`, ts.SenderID, ts.ReceiverID)
	require.NoError(ts.t, err, "failed to seed accounts")
}

// CreateTransfer sends a POST request to start a transfer.
func (ts *TestServer) CreateTransfer(t *testing.T, senderID, receiverID uuid.UUID, amount string, idempotencyKey string) *http.Response {
	t.Helper()

	body := map[string]any{
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"amount":      amount,
	}
	jsonBody, _ := json.Marshal(body)

	req, err := http.NewRequest(http.MethodPost, ts.URL("/api/v1/transactions"), bytes.NewReader(jsonBody))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// SubmitCode sends a POST request to confirm a transfer with a token code.
func (ts *TestServer) SubmitCode(t *testing.T, transactionID string, code int) *http.Response {
	t.Helper()

	body := map[string]any{"code": code}
	jsonBody, _ := json.Marshal(body)

	req, err := http.NewRequest(http.MethodPost, ts.URL("/api/v1/transactions/"+transactionID+"/submit-code"), bytes.NewReader(jsonBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// SkipAuthentication sends a POST request to bypass token confirmation.
func (ts *TestServer) SkipAuthentication(t *testing.T, transactionID string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL("/api/v1/transactions/"+transactionID+"/skip-authentication"), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// Cancel sends a POST request to cancel a transfer.
func (ts *TestServer) Cancel(t *testing.T, transactionID string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL("/api/v1/transactions/"+transactionID+"/cancel"), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// GetTransaction fetches a transfer by its public ID.
func (ts *TestServer) GetTransaction(t *testing.T, transactionID string) *http.Response {
	t.Helper()

	resp, err := http.Get(ts.URL("/api/v1/transactions/" + transactionID))
	require.NoError(t, err)

	return resp
}

// activeCodeFor reads the live token code straight from the database, standing
// in for the notification channel a real user would receive it on.
func (ts *TestServer) activeCodeFor(t *testing.T, transactionID string) int {
	t.Helper()

	raw := strings.TrimPrefix(transactionID, "txn_")
	id, err := uuid.Parse(raw)
	require.NoError(t, err, "malformed transaction ID %q", transactionID)

	var code int
	err = ts.Database.QueryRowContext(context.Background(),
		`SELECT code FROM tokens WHERE transaction_id = $1 AND active`, id,
	).Scan(&code)
	require.NoError(t, err, "no active token for transaction %s", transactionID)

	return code
}

// balanceOf reads an account balance straight from the database.
func (ts *TestServer) balanceOf(t *testing.T, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := ts.Database.QueryRowContext(context.Background(),
		`SELECT balance FROM accounts WHERE id = $1`, accountID,
	).Scan(&balance)
	require.NoError(t, err, "account %s not found", accountID)

	return balance
}

// waitForStatus polls the API until the transfer reports the wanted status.
func (ts *TestServer) waitForStatus(t *testing.T, transactionID, wantStatus string) {
	t.Helper()

	require.Eventually(t, func() bool {
		resp := ts.GetTransaction(t, transactionID)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return false
		}

		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false
		}
		return body["status"] == wantStatus
	}, 5*time.Second, 50*time.Millisecond, "transaction %s never reached status %s", transactionID, wantStatus)
}
