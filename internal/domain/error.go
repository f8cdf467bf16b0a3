package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidExecContext  = errors.New("invalid execution context")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
	ErrNotAdmin            = errors.New("sender is not an admin")
	ErrUnexpectedInput     = errors.New("input does not match the current step")
	ErrNothingToConfirm    = errors.New("no composed post awaiting confirmation")
	ErrBroadcastInProgress = errors.New("a broadcast is already running for this chat")
)
