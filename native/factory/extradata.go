package factory

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"crosslock/native/timelocks"
)

// ExtraArgs is the decoded form of the order extension bytes: everything the
// factory needs beyond the fill itself to parameterise both escrows of the
// swap. Deposits packs the destination safety deposit into the high 128 bits
// and the source safety deposit into the low 128 bits of one word.
type ExtraArgs struct {
	Hashlock   [32]byte
	DstChainID uint64
	DstToken   [20]byte
	Deposits   *uint256.Int
	Timelocks  timelocks.Timelocks
}

// Wire layout: five 32-byte words in order hashlock, destination chain id,
// destination token (left padded), packed deposits, packed timelocks.
const extraArgsLen = 5 * 32

// SrcSafetyDeposit returns the source-side safety deposit (low 128 bits).
func (a ExtraArgs) SrcSafetyDeposit() *big.Int {
	if a.Deposits == nil {
		return big.NewInt(0)
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	mask.Sub(mask, uint256.NewInt(1))
	low := new(uint256.Int).And(a.Deposits, mask)
	return low.ToBig()
}

// DstSafetyDeposit returns the destination-side safety deposit (high 128
// bits).
func (a ExtraArgs) DstSafetyDeposit() *big.Int {
	if a.Deposits == nil {
		return big.NewInt(0)
	}
	high := new(uint256.Int).Rsh(a.Deposits, 128)
	return high.ToBig()
}

// PackDeposits combines the two safety deposits into the packed word. Each
// deposit must fit in 128 bits.
func PackDeposits(src, dst *big.Int) (*uint256.Int, error) {
	srcWord, err := depositWord(src, "source")
	if err != nil {
		return nil, err
	}
	dstWord, err := depositWord(dst, "destination")
	if err != nil {
		return nil, err
	}
	packed := new(uint256.Int).Lsh(dstWord, 128)
	return packed.Or(packed, srcWord), nil
}

func depositWord(v *big.Int, label string) (*uint256.Int, error) {
	if v == nil {
		return uint256.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("factory: %s safety deposit must be non-negative", label)
	}
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("factory: %s safety deposit exceeds 128 bits", label)
	}
	word, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("factory: %s safety deposit exceeds 128 bits", label)
	}
	return word, nil
}

// EncodeExtraArgs serialises the extension bytes. It is the inverse of
// DecodeExtraArgs and exists so resolvers and tests can build fills.
func EncodeExtraArgs(args ExtraArgs) []byte {
	buf := make([]byte, extraArgsLen)
	copy(buf[0:32], args.Hashlock[:])
	binary.BigEndian.PutUint64(buf[56:64], args.DstChainID)
	copy(buf[76:96], args.DstToken[:])
	deposits := uint256.NewInt(0)
	if args.Deposits != nil {
		deposits = args.Deposits
	}
	raw := deposits.Bytes32()
	copy(buf[96:128], raw[:])
	word := args.Timelocks.Bytes32()
	copy(buf[128:160], word[:])
	return buf
}

// DecodeExtraArgs parses the extension bytes supplied with an order fill.
func DecodeExtraArgs(data []byte) (ExtraArgs, error) {
	var args ExtraArgs
	if len(data) != extraArgsLen {
		return args, fmt.Errorf("%w: length %d, want %d", ErrInvalidExtraData, len(data), extraArgsLen)
	}
	copy(args.Hashlock[:], data[0:32])
	for _, b := range data[32:56] {
		if b != 0 {
			return args, fmt.Errorf("%w: chain id exceeds 64 bits", ErrInvalidExtraData)
		}
	}
	args.DstChainID = binary.BigEndian.Uint64(data[56:64])
	for _, b := range data[64:76] {
		if b != 0 {
			return args, fmt.Errorf("%w: destination token not an address", ErrInvalidExtraData)
		}
	}
	copy(args.DstToken[:], data[76:96])
	args.Deposits = new(uint256.Int).SetBytes(data[96:128])
	word := new(uint256.Int).SetBytes(data[128:160])
	args.Timelocks = timelocks.FromWord(word)
	return args, nil
}
