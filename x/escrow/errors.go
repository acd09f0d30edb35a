package escrow

import "github.com/fymoney/ledger/errors"

var (
	// ErrInvalidAmount is returned when trying to lock a non-positive
	// amount.
	ErrInvalidAmount = errors.Register(1200, "invalid amount")

	// ErrInvalidExpiration is returned when the expiration time is not
	// in the future.
	ErrInvalidExpiration = errors.Register(1201, "invalid expiration")

	// ErrExpirationTooLong is returned when the expiration exceeds the
	// maximum escrow lifetime.
	ErrExpirationTooLong = errors.Register(1202, "expiration too long")

	// ErrEscrowNotActive guards the terminal transitions. Once claimed
	// or reclaimed an escrow never accepts another instruction.
	ErrEscrowNotActive = errors.Register(1203, "escrow not active")

	// ErrEscrowExpired is returned on a claim attempt past expiration.
	ErrEscrowExpired = errors.Register(1204, "escrow expired")

	// ErrEscrowNotExpired is returned on a reclaim attempt before
	// expiration.
	ErrEscrowNotExpired = errors.Register(1205, "escrow not expired")

	// ErrUnauthorizedSender is returned when anyone but the recorded
	// sender tries to reclaim.
	ErrUnauthorizedSender = errors.Register(1206, "unauthorized sender")
)
