// Package timelocks implements the packed multi-stage timelock word shared by
// the source and destination escrows of a cross-ledger swap. Seven relative
// stage offsets (seconds, 32 bits each) occupy bits 0..223 of a 256-bit word,
// stage i at bits [i*32, i*32+32). The absolute deployment timestamp occupies
// the top 32 bits and is stamped exactly once at escrow creation; every stage
// start is deployedAt + offset.
package timelocks

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// Stage identifies one window boundary within the packed schedule.
type Stage uint8

const (
	// StageSrcWithdrawal opens the taker-only withdrawal window on the
	// source escrow.
	StageSrcWithdrawal Stage = iota
	// StageSrcPublicWithdrawal opens source withdrawal to any caller.
	StageSrcPublicWithdrawal
	// StageSrcCancellation closes source withdrawal and opens depositor
	// cancellation.
	StageSrcCancellation
	// StageSrcPublicCancellation opens source cancellation to any caller.
	StageSrcPublicCancellation
	// StageDstWithdrawal opens the taker-only withdrawal window on the
	// destination escrow.
	StageDstWithdrawal
	// StageDstPublicWithdrawal opens destination withdrawal to any caller.
	StageDstPublicWithdrawal
	// StageDstCancellation closes destination withdrawal and opens
	// depositor cancellation. The destination side has no public
	// cancellation stage.
	StageDstCancellation
)

// StageCount is the number of relative offsets carried by the word.
const StageCount = 7

const (
	stageBits       = 32
	deployedAtShift = 224
)

var offsetMask = uint256.NewInt(0xffffffff)

// Valid reports whether the stage value is within the packed layout.
func (s Stage) Valid() bool { return s < StageCount }

func (s Stage) String() string {
	switch s {
	case StageSrcWithdrawal:
		return "srcWithdrawal"
	case StageSrcPublicWithdrawal:
		return "srcPublicWithdrawal"
	case StageSrcCancellation:
		return "srcCancellation"
	case StageSrcPublicCancellation:
		return "srcPublicCancellation"
	case StageDstWithdrawal:
		return "dstWithdrawal"
	case StageDstPublicWithdrawal:
		return "dstPublicWithdrawal"
	case StageDstCancellation:
		return "dstCancellation"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// Timelocks is the immutable packed schedule. The zero value carries zero
// offsets and an unset (zero) deployment timestamp.
type Timelocks struct {
	word uint256.Int
}

// Offsets carries the seven relative stage offsets in stage order.
type Offsets [StageCount]uint32

// Pack encodes the seven relative offsets into a word with an unset
// deployment timestamp. Each offset is widened to the full word width before
// shifting so no stage can silently lose its high bits.
func Pack(offsets Offsets) Timelocks {
	var word uint256.Int
	for stage, offset := range offsets {
		field := new(uint256.Int).SetUint64(uint64(offset))
		field.Lsh(field, uint(stage)*stageBits)
		word.Or(&word, field)
	}
	return Timelocks{word: word}
}

// FromWord decodes a previously packed word.
func FromWord(word *uint256.Int) Timelocks {
	var t Timelocks
	if word != nil {
		t.word.Set(word)
	}
	return t
}

// Word returns a copy of the underlying 256-bit word.
func (t Timelocks) Word() *uint256.Int {
	return new(uint256.Int).Set(&t.word)
}

// Bytes32 returns the big-endian fixed-width encoding of the word.
func (t Timelocks) Bytes32() [32]byte {
	return t.word.Bytes32()
}

// WithDeployedAt returns a copy of the schedule stamped with the absolute
// deployment timestamp. The codec is pure; the factory stamps exactly once at
// creation and the result is immutable from then on.
func (t Timelocks) WithDeployedAt(deployedAt uint64) Timelocks {
	stamped := new(uint256.Int).Set(&t.word)
	cleared := new(uint256.Int).Lsh(offsetMask, deployedAtShift)
	cleared.Not(cleared)
	stamped.And(stamped, cleared)
	field := new(uint256.Int).SetUint64(deployedAt & 0xffffffff)
	field.Lsh(field, deployedAtShift)
	stamped.Or(stamped, field)
	return Timelocks{word: *stamped}
}

// DeployedAt returns the absolute deployment timestamp, zero when unstamped.
func (t Timelocks) DeployedAt() uint64 {
	field := new(uint256.Int).Rsh(&t.word, deployedAtShift)
	return field.Uint64()
}

// Offset returns the relative offset for the given stage in seconds.
func (t Timelocks) Offset(stage Stage) uint64 {
	if !stage.Valid() {
		return 0
	}
	field := new(uint256.Int).Rsh(&t.word, uint(stage)*stageBits)
	field.And(field, offsetMask)
	return field.Uint64()
}

// Start returns the absolute timestamp at which the given stage opens:
// deployedAt + offset. The sum is computed in 64 bits, so two 32-bit inputs
// cannot overflow.
func (t Timelocks) Start(stage Stage) uint64 {
	return t.DeployedAt() + t.Offset(stage)
}

// RescueStart returns the absolute timestamp after which the emergency rescue
// path opens. The delay is independent of the stage offsets and configured at
// template deployment time.
func (t Timelocks) RescueStart(delay uint64) uint64 {
	return t.DeployedAt() + delay
}

// MarshalJSON encodes the word as a hex string for state persistence.
func (t Timelocks) MarshalJSON() ([]byte, error) {
	raw := t.word.Bytes32()
	return json.Marshal(hex.EncodeToString(raw[:]))
}

// UnmarshalJSON decodes the hex-string form produced by MarshalJSON.
func (t *Timelocks) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("timelocks: decode word: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("timelocks: word must be 32 bytes, got %d", len(raw))
	}
	t.word.SetBytes(raw)
	return nil
}
