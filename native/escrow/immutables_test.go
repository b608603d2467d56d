package escrow

import (
	"math/big"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"crosslock/native/timelocks"
)

func baseImmutables() Immutables {
	var orderHash, hashlock [32]byte
	orderHash[0] = 0x01
	hashlock[0] = 0x02
	return Immutables{
		OrderHash:     orderHash,
		Hashlock:      hashlock,
		Maker:         newTestAddress(0x11),
		Taker:         newTestAddress(0x22),
		Token:         newTestAddress(0x33),
		Amount:        big.NewInt(100),
		SafetyDeposit: big.NewInt(5),
		Timelocks:     timelocks.Pack(timelocks.Offsets{1, 2, 3, 4, 5, 6, 7}).WithDeployedAt(1000),
	}
}

func TestHashCoversEveryField(t *testing.T) {
	base := baseImmutables()
	mutations := map[string]func(*Immutables){
		"orderHash":     func(i *Immutables) { i.OrderHash[31] ^= 1 },
		"hashlock":      func(i *Immutables) { i.Hashlock[31] ^= 1 },
		"maker":         func(i *Immutables) { i.Maker[19] ^= 1 },
		"taker":         func(i *Immutables) { i.Taker[19] ^= 1 },
		"token":         func(i *Immutables) { i.Token[19] ^= 1 },
		"amount":        func(i *Immutables) { i.Amount = big.NewInt(101) },
		"safetyDeposit": func(i *Immutables) { i.SafetyDeposit = big.NewInt(6) },
		"timelocks": func(i *Immutables) {
			i.Timelocks = timelocks.Pack(timelocks.Offsets{9, 2, 3, 4, 5, 6, 7}).WithDeployedAt(1000)
		},
		"parameters": func(i *Immutables) { i.Parameters = []byte{0xBE, 0xEF} },
	}
	baseHash := base.Hash()
	for name, mutate := range mutations {
		mutated := base.Clone()
		mutate(&mutated)
		if mutated.Hash() == baseHash {
			t.Fatalf("mutating %s did not change the digest", name)
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	a := baseImmutables()
	b := a.Clone()
	if a.Hash() != b.Hash() {
		t.Fatalf("equal immutables must produce equal digests")
	}
}

func TestHashNilAndZeroAmountsAgree(t *testing.T) {
	a := baseImmutables()
	a.SafetyDeposit = nil
	b := baseImmutables()
	b.SafetyDeposit = big.NewInt(0)
	if a.Hash() != b.Hash() {
		t.Fatalf("nil and zero deposits should encode identically")
	}
}

func TestDeterministicAddressDependsOnDeployer(t *testing.T) {
	salt := baseImmutables().Hash()
	var codeHash [32]byte
	codeHash[0] = 0xCC
	factory := newTestAddress(0xFA)
	other := newTestAddress(0xFB)
	addr := DeterministicAddress(factory, salt, codeHash)
	if addr == DeterministicAddress(other, salt, codeHash) {
		t.Fatalf("different deployers must derive different addresses")
	}
	if addr != DeterministicAddress(factory, salt, codeHash) {
		t.Fatalf("derivation must be deterministic")
	}
	var otherSalt [32]byte
	copy(otherSalt[:], salt[:])
	otherSalt[0] ^= 1
	if addr == DeterministicAddress(factory, otherSalt, codeHash) {
		t.Fatalf("different salts must derive different addresses")
	}
}

func TestSecretHashMatchesKeccak(t *testing.T) {
	var secret [32]byte
	secret[5] = 0x42
	if SecretHash(secret) != ethcrypto.Keccak256Hash(secret[:]) {
		t.Fatalf("secret hash must be keccak256 of the secret")
	}
}

func TestCloneIsDeep(t *testing.T) {
	base := baseImmutables()
	base.Parameters = []byte{1, 2, 3}
	clone := base.Clone()
	clone.Amount.SetInt64(999)
	clone.Parameters[0] = 9
	if base.Amount.Int64() != 100 || base.Parameters[0] != 1 {
		t.Fatalf("clone must not alias the original")
	}
}

func TestHashToleratesOutOfRangeAmounts(t *testing.T) {
	huge := baseImmutables()
	huge.Amount = new(big.Int).Lsh(big.NewInt(1), 300)
	_ = huge.Hash()
	if huge.AmountsInRange() {
		t.Fatalf("301-bit amount must be out of range")
	}
	neg := baseImmutables()
	neg.SafetyDeposit = big.NewInt(-1)
	_ = neg.Hash()
	if neg.AmountsInRange() {
		t.Fatalf("negative deposit must be out of range")
	}
	max := baseImmutables()
	max.Amount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	_ = max.Hash()
	if !max.AmountsInRange() {
		t.Fatalf("max 256-bit amount must be in range")
	}
	if !baseImmutables().AmountsInRange() {
		t.Fatalf("base immutables must be in range")
	}
}
