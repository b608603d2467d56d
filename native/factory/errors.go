package factory

import "errors"

var (
	// ErrPaused signals the administrator has halted all escrow creation.
	ErrPaused = errors.New("factory: creation paused")

	// ErrNotWhitelisted signals the caller is not an approved resolver.
	ErrNotWhitelisted = errors.New("factory: resolver not whitelisted")

	// ErrNotOwner signals an administrative call from a non-owner.
	ErrNotOwner = errors.New("factory: caller is not the owner")

	// ErrUnauthorizedCaller signals a creation call from an identity other
	// than the one the path requires (the settlement integration point for
	// source escrows, the depositing resolver for destination escrows).
	ErrUnauthorizedCaller = errors.New("factory: unauthorized caller")

	// ErrInvalidCreationTime signals destination timelocks inconsistent
	// with the source cancellation timestamp beyond the drift tolerance.
	ErrInvalidCreationTime = errors.New("factory: destination cancellation exceeds source window")

	// ErrEscrowExists signals a deterministic address collision: an
	// instance with identical immutables already exists.
	ErrEscrowExists = errors.New("factory: escrow already exists")

	// ErrInvalidExtraData signals malformed order-fill extension bytes.
	ErrInvalidExtraData = errors.New("factory: invalid extra data")

	// ErrInsufficientFunding signals the funding party does not hold the
	// exact principal and safety deposit the creation requires.
	ErrInsufficientFunding = errors.New("factory: insufficient funding")
)
