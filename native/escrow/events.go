package escrow

import (
	"encoding/hex"
	"math/big"

	"crosslock/core/types"
)

const (
	// EventTypeWithdrawn is emitted on a successful withdrawal and carries
	// the revealed secret so the counter-ledger resolver can reuse it.
	EventTypeWithdrawn = "escrow.withdrawn"
	// EventTypeCancelled is emitted when an escrow is cancelled.
	EventTypeCancelled = "escrow.cancelled"
	// EventTypeRescued is emitted when stray assets are rescued.
	EventTypeRescued = "escrow.rescued"
)

// NewWithdrawnEvent returns the canonical payload for a withdrawal, exposing
// the revealed secret.
func NewWithdrawnEvent(e *Escrow, caller [20]byte, secret [32]byte) *types.Event {
	attrs := baseAttrs(e)
	attrs["caller"] = hex.EncodeToString(caller[:])
	attrs["secret"] = hex.EncodeToString(secret[:])
	return &types.Event{Type: EventTypeWithdrawn, Attributes: attrs}
}

// NewCancelledEvent returns the canonical payload for a cancellation.
func NewCancelledEvent(e *Escrow, caller [20]byte) *types.Event {
	attrs := baseAttrs(e)
	attrs["caller"] = hex.EncodeToString(caller[:])
	return &types.Event{Type: EventTypeCancelled, Attributes: attrs}
}

// NewRescuedEvent returns the canonical payload for a rescue of stray assets.
func NewRescuedEvent(e *Escrow, caller, token [20]byte, amount *big.Int) *types.Event {
	attrs := baseAttrs(e)
	attrs["caller"] = hex.EncodeToString(caller[:])
	attrs["token"] = hex.EncodeToString(token[:])
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	return &types.Event{Type: EventTypeRescued, Attributes: attrs}
}

func baseAttrs(e *Escrow) map[string]string {
	attrs := make(map[string]string)
	if e == nil {
		return attrs
	}
	attrs["escrow"] = hex.EncodeToString(e.Address[:])
	attrs["side"] = e.Side.String()
	attrs["orderHash"] = hex.EncodeToString(e.Immutables.OrderHash[:])
	return attrs
}
