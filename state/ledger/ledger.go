// Package ledger is the concrete state backend for the escrow and factory
// engines: accounts, escrow instances, the resolver whitelist, the pause
// toggles and the owner record, all persisted as JSON values in a key-value
// store. Calls are expected to execute serialized, as on a ledger; the
// package adds no locking beyond the store's own.
package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"crosslock/core/types"
	"crosslock/native/escrow"
	"crosslock/storage"
)

const (
	acctPrefix     = "acct/"
	escrowPrefix   = "escrow/"
	resolverPrefix = "resolver/"
	pausesKey      = "system/pauses"
	ownerKey       = "factory/owner"
)

// Ledger implements the state interfaces of the escrow and factory engines
// over a storage.Database.
type Ledger struct {
	db storage.Database
}

// New creates a ledger over the given backend.
func New(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

func acctKey(addr [20]byte) []byte {
	return []byte(acctPrefix + hex.EncodeToString(addr[:]))
}

func escrowKey(addr [20]byte) []byte {
	return []byte(escrowPrefix + hex.EncodeToString(addr[:]))
}

func resolverKey(addr [20]byte) []byte {
	return []byte(resolverPrefix + hex.EncodeToString(addr[:]))
}

// GetAccount loads an account, returning an empty account for unknown
// addresses.
func (l *Ledger) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := l.db.Get(acctKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return types.NewAccount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: load account: %w", err)
	}
	acc := &types.Account{}
	if err := json.Unmarshal(raw, acc); err != nil {
		return nil, fmt.Errorf("ledger: decode account: %w", err)
	}
	return acc.Normalize(), nil
}

// PutAccount persists an account.
func (l *Ledger) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("ledger: nil account")
	}
	raw, err := json.Marshal(account.Normalize())
	if err != nil {
		return fmt.Errorf("ledger: encode account: %w", err)
	}
	return l.db.Put(acctKey(addr), raw)
}

// Credit adds to a balance directly. Intended for genesis seeding and tests.
func (l *Ledger) Credit(addr [20]byte, token [20]byte, amount *big.Int) error {
	acc, err := l.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.SetTokenBalance(token, new(big.Int).Add(acc.TokenBalance(token), amount))
	return l.PutAccount(addr, acc)
}

// EscrowPut persists an escrow instance after sanitising it.
func (l *Ledger) EscrowPut(esc *escrow.Escrow) error {
	sanitized, err := escrow.Sanitize(esc)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("ledger: encode escrow: %w", err)
	}
	return l.db.Put(escrowKey(sanitized.Address), raw)
}

// EscrowLoad loads the escrow instance at the given address, distinguishing
// absence (storage.ErrNotFound) from storage failures and corrupted records.
func (l *Ledger) EscrowLoad(addr [20]byte) (*escrow.Escrow, error) {
	raw, err := l.db.Get(escrowKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("ledger: escrow %x: %w", addr, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: load escrow %x: %w", addr, err)
	}
	esc := &escrow.Escrow{}
	if err := json.Unmarshal(raw, esc); err != nil {
		return nil, fmt.Errorf("ledger: decode escrow %x: %w", addr, err)
	}
	return esc, nil
}

// EscrowGet implements the lookup the engines consume. Absence reads as a
// plain miss; storage failures and corrupted records are logged before being
// reported as a miss, so monitors can tell the two apart.
func (l *Ledger) EscrowGet(addr [20]byte) (*escrow.Escrow, bool) {
	esc, err := l.EscrowLoad(addr)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("ledger: escrow lookup failed", "escrow", hex.EncodeToString(addr[:]), "err", err)
		}
		return nil, false
	}
	return esc, true
}

// ResolverSet adds or removes a whitelist entry.
func (l *Ledger) ResolverSet(addr [20]byte, allowed bool) error {
	if allowed {
		return l.db.Put(resolverKey(addr), []byte{1})
	}
	return l.db.Delete(resolverKey(addr))
}

// ResolverAllowed reports whether the address is whitelisted.
func (l *Ledger) ResolverAllowed(addr [20]byte) bool {
	ok, err := l.db.Has(resolverKey(addr))
	return err == nil && ok
}

func (l *Ledger) loadPauses() map[string]bool {
	raw, err := l.db.Get([]byte(pausesKey))
	if err != nil {
		return map[string]bool{}
	}
	pauses := map[string]bool{}
	if err := json.Unmarshal(raw, &pauses); err != nil {
		return map[string]bool{}
	}
	return pauses
}

// SetModulePaused toggles the pause flag for one module.
func (l *Ledger) SetModulePaused(module string, paused bool) error {
	pauses := l.loadPauses()
	if paused {
		pauses[module] = true
	} else {
		delete(pauses, module)
	}
	raw, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("ledger: encode pauses: %w", err)
	}
	return l.db.Put([]byte(pausesKey), raw)
}

// SetPaused toggles the swap creation pause flag.
func (l *Ledger) SetPaused(paused bool) error {
	return l.SetModulePaused("swap", paused)
}

// IsPaused implements the pause view consumed by creation guards.
func (l *Ledger) IsPaused(module string) bool {
	return l.loadPauses()[module]
}

// Owner returns the factory administrator, if initialised.
func (l *Ledger) Owner() ([20]byte, bool) {
	raw, err := l.db.Get([]byte(ownerKey))
	if err != nil || len(raw) != 20 {
		return [20]byte{}, false
	}
	var owner [20]byte
	copy(owner[:], raw)
	return owner, true
}

// SetOwner persists the factory administrator.
func (l *Ledger) SetOwner(addr [20]byte) error {
	return l.db.Put([]byte(ownerKey), addr[:])
}
