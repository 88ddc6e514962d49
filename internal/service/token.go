package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/klauslube/raro-ledger/internal/models"
	"github.com/klauslube/raro-ledger/internal/repository"
)

// TokenIssuer mints and verifies one-time confirmation codes
type TokenIssuer struct{}

// NewTokenIssuer creates a new TokenIssuer
func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{}
}

// Generate mints a 6-digit code for the transaction and persists it as the
// transaction's active token. Codes are drawn uniformly from
// [models.TokenCodeMin, models.TokenCodeMax]; a draw that collides with any
// currently-active token is rejected by the database and redrawn. The loop is
// bounded by the caller's context, so exhaustion of the active-code space
// cannot deadlock it.
func (i *TokenIssuer) Generate(ctx context.Context, tokens repository.TokenRepository, transactionID uuid.UUID) (*models.Token, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("token generation aborted: %w", err)
		}

		code, err := randomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to draw token code: %w", err)
		}

		token := &models.Token{
			TransactionID: transactionID,
			Code:          code,
			Active:        true,
		}

		err = tokens.Create(ctx, token)
		if errors.Is(err, models.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return token, nil
	}
}

// Validate returns the transaction's active token when it matches code.
// Expired tokens and wrong codes collapse into the same failure.
func (i *TokenIssuer) Validate(ctx context.Context, tokens repository.TokenRepository, transactionID uuid.UUID, code int) (*models.Token, error) {
	token, err := tokens.FindActiveByTransaction(ctx, transactionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, invalidCodeError()
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to look up confirmation token",
			Err:     err,
		}
	}

	if token.Code != code {
		return nil, invalidCodeError()
	}

	return token, nil
}

// Expire deactivates the token if it is still active. Firing twice, or after
// the token was consumed, is a no-op.
func (i *TokenIssuer) Expire(ctx context.Context, tokens repository.TokenRepository, tokenID uuid.UUID) error {
	return tokens.Deactivate(ctx, tokenID)
}

func invalidCodeError() *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInvalidCode,
		Message: "code does not match any active token",
	}
}

// randomCode draws a code uniformly from the inclusive token code range
func randomCode() (int, error) {
	span := int64(models.TokenCodeMax - models.TokenCodeMin + 1)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, err
	}
	return models.TokenCodeMin + int(n.Int64()), nil
}
