package factory

import "math/big"

// OrderFill is the callback payload supplied by the external order-fill
// mechanism after a maker's intent is filled. MakingAmount is the settled
// principal locked on this ledger; TakingAmount is the counter-asset amount
// owed on the destination ledger. ExtraData carries the swap extension bytes
// decoded by the extra-data codec.
type OrderFill struct {
	OrderHash    [32]byte
	Maker        [20]byte
	Taker        [20]byte
	Token        [20]byte
	MakingAmount *big.Int
	TakingAmount *big.Int
	ExtraData    []byte
}

// DstComplement is the destination-side record emitted alongside a source
// escrow creation. Together with the source immutables it is sufficient to
// reconstruct the destination escrow without recomputing any hidden values.
type DstComplement struct {
	Maker         [20]byte
	Amount        *big.Int
	Token         [20]byte
	SafetyDeposit *big.Int
	ChainID       uint64
}

// Clone returns a deep copy of the complement record.
func (c *DstComplement) Clone() *DstComplement {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Amount != nil {
		clone.Amount = new(big.Int).Set(c.Amount)
	}
	if c.SafetyDeposit != nil {
		clone.SafetyDeposit = new(big.Int).Set(c.SafetyDeposit)
	}
	return &clone
}
