package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/klauslube/raro-ledger/internal/db"
	"github.com/klauslube/raro-ledger/internal/models"
)

// Postgres error code for unique constraint violations
const pgUniqueViolation = "23505"

// Index names backing the active-token invariants. The partial unique index
// on code is the serialization point for concurrent Generate calls.
const (
	activeCodeIndex  = "tokens_active_code_idx"
	tokenOwnerUnique = "tokens_transaction_id_key"
)

// TokenRepository defines the interface for confirmation token data access
type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	FindActiveByCode(ctx context.Context, code int) (*models.Token, error)
	FindActiveByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Token, error)
	Deactivate(ctx context.Context, tokenID uuid.UUID) error
}

// tokenRepository implements TokenRepository
type tokenRepository struct {
	q db.Queryer
}

// NewTokenRepository creates a new TokenRepository over a pool or transaction
func NewTokenRepository(q db.Queryer) TokenRepository {
	return &tokenRepository{q: q}
}

const tokenColumns = `id, transaction_id, code, active, created_at`

// Create inserts a new active token. Returns models.ErrDuplicateCode when
// another active token already carries the same code, and
// models.ErrDuplicateToken when the transaction already owns a token.
func (r *tokenRepository) Create(ctx context.Context, token *models.Token) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	query := `
		INSERT INTO tokens (id, transaction_id, code, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		token.ID, token.TransactionID, token.Code, token.Active,
	).Scan(&token.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			if pqErr.Constraint == activeCodeIndex {
				return models.ErrDuplicateCode
			}
			return models.ErrDuplicateToken
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// FindActiveByCode retrieves the active token carrying the given code.
// At most one can exist, enforced by the partial unique index.
func (r *tokenRepository) FindActiveByCode(ctx context.Context, code int) (*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE code = $1 AND active`
	return r.scanToken(r.q.QueryRowContext(ctx, query, code))
}

// FindActiveByTransaction retrieves the transaction's token if still active
func (r *tokenRepository) FindActiveByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE transaction_id = $1 AND active`
	return r.scanToken(r.q.QueryRowContext(ctx, query, transactionID))
}

// Deactivate marks the token inactive. Deactivating an already-inactive or
// missing token is a no-op, so expiry sweeps can fire more than once.
func (r *tokenRepository) Deactivate(ctx context.Context, tokenID uuid.UUID) error {
	query := `UPDATE tokens SET active = FALSE WHERE id = $1 AND active`

	if _, err := r.q.ExecContext(ctx, query, tokenID); err != nil {
		return fmt.Errorf("failed to deactivate token: %w", err)
	}

	return nil
}

func (r *tokenRepository) scanToken(row *sql.Row) (*models.Token, error) {
	var token models.Token
	err := row.Scan(
		&token.ID,
		&token.TransactionID,
		&token.Code,
		&token.Active,
		&token.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("token: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return &token, nil
}
