package repository

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/klauslube/raro-ledger/internal/config"
	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	logger := cfg.Logger.NewLogger()

	database, err := db.Connect(context.Background(), &cfg.Database, logger)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	runMigrations(t, database)
	truncateTables(t, database)

	return database
}

func runMigrations(t *testing.T, database *db.DB) {
	t.Helper()

	migrationPath := filepath.Join("..", "..", "migrations", "0001_init.sql")
	sqlBytes, err := os.ReadFile(migrationPath) // #nosec G304
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	if _, err := database.ExecContext(context.Background(), string(sqlBytes)); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

func cleanupTestDB(t *testing.T, database *db.DB) {
	t.Helper()
	if err := database.Close(); err != nil {
		log.Printf("failed to close test database: %v", err)
	}
}

func truncateTables(t *testing.T, database *db.DB) {
	t.Helper()

	tables := []string{"scheduled_tasks", "tokens", "transactions", "idempotency_keys", "accounts"}
	for _, table := range tables {
		_, err := database.ExecContext(context.Background(), "TRUNCATE TABLE "+table+" CASCADE")
		if err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}

func createTestAccount(t *testing.T, database *db.DB, ownerName string, balance decimal.Decimal) *models.Account {
	t.Helper()

	account := &models.Account{
		OwnerName: ownerName,
		Balance:   balance,
	}
	require.NoError(t, NewAccountRepository(database).Create(context.Background(), account))

	return account
}

func createTestTransaction(t *testing.T, database *db.DB, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	sender := createTestAccount(t, database, "Test Sender "+uuid.NewString(), decimal.NewFromInt(1000))
	receiver := createTestAccount(t, database, "Test Receiver "+uuid.NewString(), decimal.Zero)

	txn := &models.Transaction{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     amount,
		Status:     models.TransactionStatusStarted,
	}
	require.NoError(t, NewTransactionRepository(database).Create(context.Background(), txn))

	return txn
}
