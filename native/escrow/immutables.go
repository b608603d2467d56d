package escrow

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"crosslock/native/timelocks"
)

// NativeToken is the sentinel token address denoting the ledger's native
// asset. Safety deposits are always denominated in the native asset.
var NativeToken = [20]byte{}

// IsNativeToken reports whether the token address is the native sentinel.
func IsNativeToken(token [20]byte) bool { return token == NativeToken }

// Immutables is the complete parameter set defining one escrow instance. The
// record is fixed at creation; its hash is the sole instance identity, used
// both as the deterministic deployment salt and as the value re-derived on
// every privileged call.
//
// Within each instance the Taker field is the party entitled to claim the
// principal with the secret and the Maker field is the depositor entitled to
// the refund on cancellation. The two escrows of one swap therefore store
// inverted roles: the source maker is the destination taker.
type Immutables struct {
	OrderHash     [32]byte            `json:"orderHash"`
	Hashlock      [32]byte            `json:"hashlock"`
	Maker         [20]byte            `json:"maker"`
	Taker         [20]byte            `json:"taker"`
	Token         [20]byte            `json:"token"`
	Amount        *big.Int            `json:"amount"`
	SafetyDeposit *big.Int            `json:"safetyDeposit"`
	Timelocks     timelocks.Timelocks `json:"timelocks"`
	// Parameters carries opaque forward-compatibility metadata. It takes
	// part in the hash like every other field.
	Parameters []byte `json:"parameters,omitempty"`
}

// Clone returns a deep copy so callers can mutate the copy safely.
func (i Immutables) Clone() Immutables {
	clone := i
	if i.Amount != nil {
		clone.Amount = new(big.Int).Set(i.Amount)
	}
	if i.SafetyDeposit != nil {
		clone.SafetyDeposit = new(big.Int).Set(i.SafetyDeposit)
	}
	if i.Parameters != nil {
		clone.Parameters = append([]byte(nil), i.Parameters...)
	}
	return clone
}

func pad32(addr [20]byte) []byte {
	out := make([]byte, 32)
	copy(out[12:], addr[:])
	return out
}

func amountFits(v *big.Int) bool {
	return v == nil || (v.Sign() >= 0 && v.BitLen() <= 256)
}

// AmountsInRange reports whether the amount and safety deposit fit the
// fixed-width hash encoding: non-negative and at most 256 bits wide. Call
// paths reject out-of-range values before deriving any identity from the
// hash.
func (i Immutables) AmountsInRange() bool {
	return amountFits(i.Amount) && amountFits(i.SafetyDeposit)
}

func amount32(v *big.Int) []byte {
	out := make([]byte, 32)
	if !amountFits(v) || v == nil || v.Sign() == 0 {
		return out
	}
	return v.FillBytes(out)
}

// Hash returns the keccak256 digest of the fixed-width encoding of every
// field. Variable-length Parameters contributes via its own keccak256 digest
// as the trailing word; leaving any field out of the preimage would break the
// identity invariant. Amounts outside the 256-bit encoding range hash as the
// zero word rather than aborting; callers reject such records via
// AmountsInRange before acting on the digest.
func (i Immutables) Hash() [32]byte {
	buf := make([]byte, 0, 9*32)
	buf = append(buf, i.OrderHash[:]...)
	buf = append(buf, i.Hashlock[:]...)
	buf = append(buf, pad32(i.Maker)...)
	buf = append(buf, pad32(i.Taker)...)
	buf = append(buf, pad32(i.Token)...)
	buf = append(buf, amount32(i.Amount)...)
	buf = append(buf, amount32(i.SafetyDeposit)...)
	word := i.Timelocks.Bytes32()
	buf = append(buf, word[:]...)
	buf = append(buf, ethcrypto.Keccak256(i.Parameters)...)
	return ethcrypto.Keccak256Hash(buf)
}

// DeterministicAddress derives the instance address from the deploying
// factory's fixed identity, the immutables hash used as salt, and the escrow
// template code hash: last 20 bytes of keccak256(0xff || deployer || salt ||
// codeHash). The same pure function serves off-ledger prediction and
// on-ledger validation, so the two can never drift. The deployer term is
// always the factory itself, never the immediate caller.
func DeterministicAddress(deployer [20]byte, salt [32]byte, codeHash [32]byte) [20]byte {
	digest := ethcrypto.Keccak256([]byte{0xff}, deployer[:], salt[:], codeHash[:])
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// SecretHash returns the hashlock commitment for a secret.
func SecretHash(secret [32]byte) [32]byte {
	return ethcrypto.Keccak256Hash(secret[:])
}
