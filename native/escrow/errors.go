package escrow

import "errors"

var (
	// ErrInvalidImmutables signals that re-deriving the deterministic
	// address from the caller-supplied immutables did not match the
	// instance address. Always fatal; indicates tampering or a caller bug.
	ErrInvalidImmutables = errors.New("escrow: immutables do not match instance address")

	// ErrInvalidSecret signals a hashlock mismatch on withdraw. The caller
	// may retry with the correct secret.
	ErrInvalidSecret = errors.New("escrow: secret does not match hashlock")

	// ErrTooEarly signals the permitted window has not opened yet.
	ErrTooEarly = errors.New("escrow: before permitted window")

	// ErrTooLate signals the permitted window has closed permanently.
	ErrTooLate = errors.New("escrow: after permitted window")

	// ErrUnauthorizedCaller signals the caller can never perform this
	// operation on this instance, regardless of time.
	ErrUnauthorizedCaller = errors.New("escrow: unauthorized caller")

	// ErrAlreadyTerminal signals the principal has already been withdrawn
	// or cancelled; instances are single-writer.
	ErrAlreadyTerminal = errors.New("escrow: instance already terminal")

	// ErrEscrowNotFound signals no instance exists at the derived address.
	ErrEscrowNotFound = errors.New("escrow: instance not found")

	// ErrInvalidRescueToken signals an attempt to rescue the principal
	// token or the native deposit denomination.
	ErrInvalidRescueToken = errors.New("escrow: token not rescuable")

	// ErrInsufficientFunding signals the source account does not hold the
	// exact balance an asset movement requires.
	ErrInsufficientFunding = errors.New("escrow: insufficient funding")
)
