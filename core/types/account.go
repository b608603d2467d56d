package types

import (
	"encoding/hex"
	"math/big"
)

// Account represents a single ledger account: a native-asset balance plus a
// set of token balances keyed by the hex-encoded token address. Escrow
// instances are plain accounts addressed by their deterministic address.
type Account struct {
	Nonce         uint64              `json:"nonce"`
	BalanceNative *big.Int            `json:"balanceNative"`
	Tokens        map[string]*big.Int `json:"tokens,omitempty"`
}

// NewAccount returns an empty account with all balances initialised.
func NewAccount() *Account {
	return &Account{BalanceNative: big.NewInt(0), Tokens: make(map[string]*big.Int)}
}

// Normalize ensures all balance fields are non-nil so callers can operate on
// the account without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return NewAccount()
	}
	if a.BalanceNative == nil {
		a.BalanceNative = big.NewInt(0)
	}
	if a.Tokens == nil {
		a.Tokens = make(map[string]*big.Int)
	}
	return a
}

// TokenKey converts a token address into the canonical map key.
func TokenKey(token [20]byte) string {
	return hex.EncodeToString(token[:])
}

// TokenBalance returns the balance held for the given token address. A zero
// token address denotes the native asset.
func (a *Account) TokenBalance(token [20]byte) *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	if token == ([20]byte{}) {
		if a.BalanceNative == nil {
			return big.NewInt(0)
		}
		return new(big.Int).Set(a.BalanceNative)
	}
	bal, ok := a.Tokens[TokenKey(token)]
	if !ok || bal == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// SetTokenBalance overwrites the balance held for the given token address.
func (a *Account) SetTokenBalance(token [20]byte, amount *big.Int) {
	if a == nil {
		return
	}
	a.Normalize()
	amt := big.NewInt(0)
	if amount != nil {
		amt = new(big.Int).Set(amount)
	}
	if token == ([20]byte{}) {
		a.BalanceNative = amt
		return
	}
	a.Tokens[TokenKey(token)] = amt
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := NewAccount()
	clone.Nonce = a.Nonce
	if a.BalanceNative != nil {
		clone.BalanceNative = new(big.Int).Set(a.BalanceNative)
	}
	for key, bal := range a.Tokens {
		if bal == nil {
			clone.Tokens[key] = big.NewInt(0)
			continue
		}
		clone.Tokens[key] = new(big.Int).Set(bal)
	}
	return clone
}
