package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode indicates another active token already carries the code
	ErrDuplicateCode = errors.New("duplicate active token code")

	// ErrDuplicateToken indicates the transaction already owns a token
	ErrDuplicateToken = errors.New("transaction already has a token")
)
