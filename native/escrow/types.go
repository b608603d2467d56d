package escrow

import (
	"fmt"
	"math/big"
)

// Side distinguishes the two escrows of a swap. The state machine is shared;
// the side only selects which timelock stages gate each operation.
type Side uint8

const (
	// SideSrc holds the maker's offered asset for the taker to claim.
	SideSrc Side = iota
	// SideDst holds the resolver's counter-asset for the original maker to
	// claim.
	SideDst
)

// Valid reports whether the side value is within the supported range.
func (s Side) Valid() bool { return s == SideSrc || s == SideDst }

func (s Side) String() string {
	switch s {
	case SideSrc:
		return "src"
	case SideDst:
		return "dst"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Status tracks the principal's lifecycle. Exactly one terminal transition is
// ever reached per instance; rescue is a side channel for stray assets and
// does not touch the status.
type Status uint8

const (
	StatusFunded Status = iota
	StatusWithdrawn
	StatusCancelled
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusFunded, StatusWithdrawn, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusFunded:
		return "funded"
	case StatusWithdrawn:
		return "withdrawn"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Escrow is one deployed instance: the deterministic address it lives at, the
// side it plays, its immutable parameters and the principal status.
type Escrow struct {
	Address    [20]byte   `json:"address"`
	Side       Side       `json:"side"`
	Immutables Immutables `json:"immutables"`
	Status     Status     `json:"status"`
}

// Clone returns a deep copy of the escrow instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Immutables = e.Immutables.Clone()
	return &clone
}

// Sanitize validates the instance and returns a normalised deep copy with
// non-nil amount fields. The original value is not mutated.
func Sanitize(e *Escrow) (*Escrow, error) {
	if e == nil {
		return nil, fmt.Errorf("escrow: nil instance")
	}
	clone := e.Clone()
	if !clone.Side.Valid() {
		return nil, fmt.Errorf("escrow: invalid side: %d", clone.Side)
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("escrow: invalid status: %d", clone.Status)
	}
	if clone.Immutables.Amount == nil {
		clone.Immutables.Amount = big.NewInt(0)
	}
	if clone.Immutables.Amount.Sign() < 0 {
		return nil, fmt.Errorf("escrow: amount must be non-negative")
	}
	if clone.Immutables.SafetyDeposit == nil {
		clone.Immutables.SafetyDeposit = big.NewInt(0)
	}
	if clone.Immutables.SafetyDeposit.Sign() < 0 {
		return nil, fmt.Errorf("escrow: safety deposit must be non-negative")
	}
	return clone, nil
}
