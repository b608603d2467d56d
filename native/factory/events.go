package factory

import (
	"encoding/hex"
	"strconv"

	"crosslock/core/types"
	"crosslock/native/escrow"
)

const (
	// EventTypeSrcEscrowCreated carries the full source immutables plus
	// the destination complement so a resolver can reconstruct the
	// destination escrow without recomputing hidden values.
	EventTypeSrcEscrowCreated = "factory.src_escrow.created"
	// EventTypeDstEscrowCreated announces a funded destination escrow.
	EventTypeDstEscrowCreated = "factory.dst_escrow.created"
	EventTypeResolverAdded    = "factory.resolver.added"
	EventTypeResolverRemoved  = "factory.resolver.removed"
	EventTypePaused           = "factory.paused"
	EventTypeUnpaused         = "factory.unpaused"
	EventTypeOwnershipMoved   = "factory.ownership.transferred"
)

// NewSrcEscrowCreatedEvent returns the canonical payload for a source escrow
// creation. Every immutable field and every complement field is present;
// omitting any forces brittle off-chain reconstruction.
func NewSrcEscrowCreatedEvent(e *escrow.Escrow, complement *DstComplement) *types.Event {
	attrs := make(map[string]string)
	if e != nil {
		imm := e.Immutables
		attrs["escrow"] = hex.EncodeToString(e.Address[:])
		attrs["orderHash"] = hex.EncodeToString(imm.OrderHash[:])
		attrs["hashlock"] = hex.EncodeToString(imm.Hashlock[:])
		attrs["maker"] = hex.EncodeToString(imm.Maker[:])
		attrs["taker"] = hex.EncodeToString(imm.Taker[:])
		attrs["token"] = hex.EncodeToString(imm.Token[:])
		if imm.Amount != nil {
			attrs["amount"] = imm.Amount.String()
		}
		if imm.SafetyDeposit != nil {
			attrs["safetyDeposit"] = imm.SafetyDeposit.String()
		}
		word := imm.Timelocks.Bytes32()
		attrs["timelocks"] = hex.EncodeToString(word[:])
		if len(imm.Parameters) > 0 {
			attrs["parameters"] = hex.EncodeToString(imm.Parameters)
		}
	}
	if complement != nil {
		attrs["dstMaker"] = hex.EncodeToString(complement.Maker[:])
		attrs["dstToken"] = hex.EncodeToString(complement.Token[:])
		attrs["dstChainId"] = strconv.FormatUint(complement.ChainID, 10)
		if complement.Amount != nil {
			attrs["dstAmount"] = complement.Amount.String()
		}
		if complement.SafetyDeposit != nil {
			attrs["dstSafetyDeposit"] = complement.SafetyDeposit.String()
		}
	}
	return &types.Event{Type: EventTypeSrcEscrowCreated, Attributes: attrs}
}

// NewDstEscrowCreatedEvent returns the canonical payload for a destination
// escrow creation: the instance address, the hashlock and the intended
// withdrawer.
func NewDstEscrowCreatedEvent(e *escrow.Escrow) *types.Event {
	attrs := make(map[string]string)
	if e != nil {
		attrs["escrow"] = hex.EncodeToString(e.Address[:])
		attrs["hashlock"] = hex.EncodeToString(e.Immutables.Hashlock[:])
		attrs["taker"] = hex.EncodeToString(e.Immutables.Taker[:])
	}
	return &types.Event{Type: EventTypeDstEscrowCreated, Attributes: attrs}
}

func newResolverEvent(eventType string, resolver [20]byte) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"resolver": hex.EncodeToString(resolver[:]),
	}}
}

func newPauseEvent(eventType string, caller [20]byte) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"caller": hex.EncodeToString(caller[:]),
	}}
}

func newOwnershipEvent(previous, next [20]byte) *types.Event {
	return &types.Event{Type: EventTypeOwnershipMoved, Attributes: map[string]string{
		"previousOwner": hex.EncodeToString(previous[:]),
		"newOwner":      hex.EncodeToString(next[:]),
	}}
}
