package factory

import (
	"errors"
	"math/big"
	"testing"

	"crosslock/native/timelocks"
)

func TestExtraArgsRoundTrip(t *testing.T) {
	deposits, err := PackDeposits(big.NewInt(5), big.NewInt(9))
	if err != nil {
		t.Fatalf("pack deposits: %v", err)
	}
	args := ExtraArgs{
		Hashlock:   [32]byte{0xAA, 0xBB},
		DstChainID: 137,
		DstToken:   newTestAddress(0x66),
		Deposits:   deposits,
		Timelocks:  timelocks.Pack(timelocks.Offsets{1, 2, 3, 4, 5, 6, 7}),
	}
	decoded, err := DecodeExtraArgs(EncodeExtraArgs(args))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Hashlock != args.Hashlock {
		t.Fatalf("hashlock mismatch")
	}
	if decoded.DstChainID != 137 {
		t.Fatalf("chain id = %d, want 137", decoded.DstChainID)
	}
	if decoded.DstToken != args.DstToken {
		t.Fatalf("dst token mismatch")
	}
	if decoded.SrcSafetyDeposit().Int64() != 5 {
		t.Fatalf("src deposit = %s, want 5", decoded.SrcSafetyDeposit())
	}
	if decoded.DstSafetyDeposit().Int64() != 9 {
		t.Fatalf("dst deposit = %s, want 9", decoded.DstSafetyDeposit())
	}
	if decoded.Timelocks != args.Timelocks {
		t.Fatalf("timelocks mismatch")
	}
}

func TestDecodeExtraArgsRejectsBadLength(t *testing.T) {
	if _, err := DecodeExtraArgs(make([]byte, 159)); !errors.Is(err, ErrInvalidExtraData) {
		t.Fatalf("short data = %v, want ErrInvalidExtraData", err)
	}
	if _, err := DecodeExtraArgs(nil); !errors.Is(err, ErrInvalidExtraData) {
		t.Fatalf("nil data = %v, want ErrInvalidExtraData", err)
	}
}

func TestDecodeExtraArgsRejectsOverflow(t *testing.T) {
	args := ExtraArgs{DstChainID: 1}
	raw := EncodeExtraArgs(args)
	raw[33] = 0x01 // high byte of the chain id word
	if _, err := DecodeExtraArgs(raw); !errors.Is(err, ErrInvalidExtraData) {
		t.Fatalf("oversized chain id = %v, want ErrInvalidExtraData", err)
	}
	raw = EncodeExtraArgs(args)
	raw[64] = 0x01 // padding of the token word
	if _, err := DecodeExtraArgs(raw); !errors.Is(err, ErrInvalidExtraData) {
		t.Fatalf("padded token = %v, want ErrInvalidExtraData", err)
	}
}

func TestPackDepositsBounds(t *testing.T) {
	big128 := new(big.Int).Lsh(big.NewInt(1), 128)
	if _, err := PackDeposits(big128, big.NewInt(0)); err == nil {
		t.Fatalf("129-bit source deposit must be rejected")
	}
	if _, err := PackDeposits(big.NewInt(-1), big.NewInt(0)); err == nil {
		t.Fatalf("negative deposit must be rejected")
	}
	max := new(big.Int).Sub(big128, big.NewInt(1))
	packed, err := PackDeposits(max, max)
	if err != nil {
		t.Fatalf("max deposits: %v", err)
	}
	args := ExtraArgs{Deposits: packed}
	if args.SrcSafetyDeposit().Cmp(max) != 0 || args.DstSafetyDeposit().Cmp(max) != 0 {
		t.Fatalf("max deposits did not round trip")
	}
}
