package sigs

import "github.com/fymoney/ledger/errors"

var (
	// ErrStaleCheckpoint is returned when the checkpoint a signature
	// was bound to is older than the allowed window. This is a
	// retryable condition: discard the signatures and sign again with
	// a fresh checkpoint.
	ErrStaleCheckpoint = errors.Register(1210, "stale checkpoint")

	// ErrInvalidCheckpoint is returned when the checkpoint does not
	// reference an observed ledger height.
	ErrInvalidCheckpoint = errors.Register(1211, "invalid checkpoint")
)
