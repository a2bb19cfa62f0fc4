// Package apperr defines the error kinds the service raises to callers.
// Handlers match them with errors.Is; wrapping with pkg/errors keeps the
// kind visible through added context.
package apperr

import "github.com/pkg/errors"

var (
	ErrInvalidOrder           = errors.New("invalid order")
	ErrInstrumentNotFound     = errors.New("instrument not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientShares     = errors.New("insufficient shares")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrOrderNotFound          = errors.New("order not found")
)
