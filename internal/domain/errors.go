package domain

import "errors"

// Validation and lifecycle failures returned by the engine. Handlers match
// them with errors.Is; everything else is treated as an internal error.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMalformedInput      = errors.New("malformed input")
	ErrRequestNotFound     = errors.New("request not found")
	ErrRequestNotPending   = errors.New("request is not pending")
	ErrUserNotFound        = errors.New("user not found")
)
