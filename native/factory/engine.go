package factory

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"crosslock/core/events"
	"crosslock/core/types"
	"crosslock/native/common"
	"crosslock/native/escrow"
	"crosslock/native/timelocks"
	"crosslock/observability/metrics"
)

// ModuleName is the pause toggle guarding all creation paths.
const ModuleName = "swap"

var errNilState = errors.New("factory engine: state not configured")

// State is the backend the factory operates on: ledger accounts, escrow
// instances, the resolver whitelist, the pause flag and the owner record. The
// whitelist and pause flag are the only shared mutable state between escrow
// instances; both are administrator-mutated and read-only on the hot path.
type State interface {
	common.PauseView
	EscrowPut(*escrow.Escrow) error
	EscrowGet(addr [20]byte) (*escrow.Escrow, bool)
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	ResolverSet(addr [20]byte, allowed bool) error
	ResolverAllowed(addr [20]byte) bool
	SetPaused(paused bool) error
	Owner() ([20]byte, bool)
	SetOwner(addr [20]byte) error
}

type factoryEvent struct {
	evt *types.Event
}

func (e factoryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e factoryEvent) Event() *types.Event { return e.evt }

// Config carries the fixed parameters of a factory deployment. The factory
// address and escrow code hash define the deterministic-address formula; the
// creation tolerance bounds cross-ledger clock drift when a destination
// escrow is created against an already-known source cancellation timestamp.
type Config struct {
	FactoryAddress    [20]byte
	EscrowCodeHash    [32]byte
	SettlementAddress [20]byte
	CreationTolerance uint64
	ChainID           uint64
}

// Engine deploys escrow instances deterministically from the fixed template
// and is the integration point for the external order-fill mechanism. All
// address derivation uses the factory's own fixed address as the deployer
// term; the immediate caller's identity never enters the formula.
type Engine struct {
	state      State
	emitter    events.Emitter
	log        *slog.Logger
	address    [20]byte
	codeHash   [32]byte
	settlement [20]byte
	tolerance  uint64
	chainID    uint64
	nowFn      func() int64
}

// NewEngine creates a factory engine with a no-op emitter and the default
// logger. Callers wire state, emitter and logger before use.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		emitter:    events.NoopEmitter{},
		log:        slog.Default(),
		address:    cfg.FactoryAddress,
		codeHash:   cfg.EscrowCodeHash,
		settlement: cfg.SettlementAddress,
		tolerance:  cfg.CreationTolerance,
		chainID:    cfg.ChainID,
		nowFn:      func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state State) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the structured logger. Passing nil restores the
// default.
func (e *Engine) SetLogger(log *slog.Logger) {
	if log == nil {
		e.log = slog.Default()
		return
	}
	e.log = log
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(factoryEvent{evt: event})
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// Address returns the factory's own fixed identity.
func (e *Engine) Address() [20]byte { return e.address }

// AddressOf predicts the deterministic address an escrow with the given
// immutables will deploy at. The same derivation runs inside the escrow
// engine on every privileged call, so prediction and validation cannot drift.
func (e *Engine) AddressOf(imm escrow.Immutables) [20]byte {
	return escrow.DeterministicAddress(e.address, imm.Hash(), e.codeHash)
}

func (e *Engine) guardCreation() error {
	if err := common.Guard(e.state, ModuleName); err != nil {
		metrics.Swap().ObserveCreationRejected("paused")
		return ErrPaused
	}
	return nil
}

// CreateDstEscrow deploys and funds the destination-side escrow of a swap.
// The caller must be a whitelisted resolver and the depositor named in the
// immutables. The factory stamps the deployment time, then verifies the
// destination cancellation opens no later than the source cancellation
// timestamp plus the configured drift tolerance; the boundary itself is
// accepted. Principal and native safety deposit are pulled from the caller in
// the same unit of work, so a fill can never complete without its lock.
func (e *Engine) CreateDstEscrow(caller [20]byte, imm escrow.Immutables, srcCancellation uint64) (*escrow.Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.guardCreation(); err != nil {
		return nil, err
	}
	if !e.state.ResolverAllowed(caller) {
		metrics.Swap().ObserveCreationRejected("not_whitelisted")
		return nil, ErrNotWhitelisted
	}
	if caller != imm.Maker {
		metrics.Swap().ObserveCreationRejected("unauthorized")
		return nil, ErrUnauthorizedCaller
	}
	if imm.Amount == nil || imm.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("factory: amount must be positive")
	}
	if imm.SafetyDeposit != nil && imm.SafetyDeposit.Sign() < 0 {
		return nil, fmt.Errorf("factory: safety deposit must be non-negative")
	}
	if !imm.AmountsInRange() {
		return nil, fmt.Errorf("factory: amounts exceed the 256-bit encoding")
	}
	imm = imm.Clone()
	imm.Timelocks = imm.Timelocks.WithDeployedAt(e.now())
	if imm.Timelocks.Start(timelocks.StageDstCancellation) > srcCancellation+e.tolerance {
		metrics.Swap().ObserveCreationRejected("invalid_creation_time")
		return nil, ErrInvalidCreationTime
	}
	return e.deploy(caller, imm, escrow.SideDst)
}

// ProcessOrderFill is the post-fill callback invoked by the external order
// settlement. Within one atomic unit it decodes the extension bytes, stamps
// the deployment time, pulls the settled principal and source safety deposit
// from the filling party into the new source escrow, and emits the full
// immutables plus the destination complement.
func (e *Engine) ProcessOrderFill(caller [20]byte, fill OrderFill) (*escrow.Escrow, *DstComplement, error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	if err := e.guardCreation(); err != nil {
		return nil, nil, err
	}
	if caller != e.settlement {
		metrics.Swap().ObserveCreationRejected("unauthorized")
		return nil, nil, ErrUnauthorizedCaller
	}
	args, err := DecodeExtraArgs(fill.ExtraData)
	if err != nil {
		metrics.Swap().ObserveCreationRejected("invalid_extra_data")
		return nil, nil, err
	}
	if fill.MakingAmount == nil || fill.MakingAmount.Sign() <= 0 {
		return nil, nil, fmt.Errorf("factory: making amount must be positive")
	}
	if fill.MakingAmount.BitLen() > 256 {
		return nil, nil, fmt.Errorf("factory: making amount exceeds 256 bits")
	}
	imm := escrow.Immutables{
		OrderHash:     fill.OrderHash,
		Hashlock:      args.Hashlock,
		Maker:         fill.Maker,
		Taker:         fill.Taker,
		Token:         fill.Token,
		Amount:        new(big.Int).Set(fill.MakingAmount),
		SafetyDeposit: args.SrcSafetyDeposit(),
		Timelocks:     args.Timelocks.WithDeployedAt(e.now()),
	}
	esc, err := e.deploy(fill.Taker, imm, escrow.SideSrc)
	if err != nil {
		return nil, nil, err
	}
	complement := &DstComplement{
		Maker:         fill.Maker,
		Token:         args.DstToken,
		ChainID:       args.DstChainID,
		SafetyDeposit: args.DstSafetyDeposit(),
	}
	if fill.TakingAmount != nil {
		complement.Amount = new(big.Int).Set(fill.TakingAmount)
	}
	e.emit(NewSrcEscrowCreatedEvent(esc, complement))
	return esc, complement, nil
}

// deploy validates uniqueness, pulls funding from the depositor and persists
// the new instance at its deterministic address. All balance checks complete
// before anything moves.
func (e *Engine) deploy(from [20]byte, imm escrow.Immutables, side escrow.Side) (*escrow.Escrow, error) {
	addr := e.AddressOf(imm)
	if _, exists := e.state.EscrowGet(addr); exists {
		metrics.Swap().ObserveCreationRejected("exists")
		return nil, ErrEscrowExists
	}
	if err := e.fund(from, addr, imm); err != nil {
		return nil, err
	}
	esc := &escrow.Escrow{
		Address:    addr,
		Side:       side,
		Immutables: imm,
		Status:     escrow.StatusFunded,
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}
	if side == escrow.SideDst {
		e.emit(NewDstEscrowCreatedEvent(esc))
	}
	metrics.Swap().ObserveEscrowCreated(side.String())
	e.log.Info("factory: escrow created",
		"side", side.String(),
		"escrow", hex.EncodeToString(addr[:]),
		"orderHash", hex.EncodeToString(imm.OrderHash[:]),
	)
	return esc.Clone(), nil
}

func (e *Engine) fund(from, escrowAddr [20]byte, imm escrow.Immutables) error {
	amount := big.NewInt(0)
	if imm.Amount != nil {
		amount = new(big.Int).Set(imm.Amount)
	}
	deposit := big.NewInt(0)
	if imm.SafetyDeposit != nil {
		deposit = new(big.Int).Set(imm.SafetyDeposit)
	}
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	escAcc, err := e.state.GetAccount(escrowAddr)
	if err != nil {
		return err
	}
	fromAcc = fromAcc.Normalize()
	escAcc = escAcc.Normalize()

	needNative := new(big.Int).Set(deposit)
	if escrow.IsNativeToken(imm.Token) {
		needNative.Add(needNative, amount)
	} else if fromAcc.TokenBalance(imm.Token).Cmp(amount) < 0 {
		metrics.Swap().ObserveCreationRejected("insufficient_funding")
		return ErrInsufficientFunding
	}
	if fromAcc.TokenBalance(escrow.NativeToken).Cmp(needNative) < 0 {
		metrics.Swap().ObserveCreationRejected("insufficient_funding")
		return ErrInsufficientFunding
	}

	if !escrow.IsNativeToken(imm.Token) {
		fromAcc.SetTokenBalance(imm.Token, new(big.Int).Sub(fromAcc.TokenBalance(imm.Token), amount))
		escAcc.SetTokenBalance(imm.Token, new(big.Int).Add(escAcc.TokenBalance(imm.Token), amount))
	}
	fromAcc.SetTokenBalance(escrow.NativeToken, new(big.Int).Sub(fromAcc.TokenBalance(escrow.NativeToken), needNative))
	escAcc.SetTokenBalance(escrow.NativeToken, new(big.Int).Add(escAcc.TokenBalance(escrow.NativeToken), needNative))

	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(escrowAddr, escAcc)
}

func (e *Engine) requireOwner(caller [20]byte) error {
	owner, ok := e.state.Owner()
	if !ok || owner != caller {
		return ErrNotOwner
	}
	return nil
}

// InitOwner installs the first administrator. It fails once an owner exists.
func (e *Engine) InitOwner(owner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, ok := e.state.Owner(); ok {
		return fmt.Errorf("factory: owner already initialised")
	}
	return e.state.SetOwner(owner)
}

// AddResolver whitelists a counter-party for destination-side creation.
func (e *Engine) AddResolver(caller, resolver [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.ResolverSet(resolver, true); err != nil {
		return err
	}
	e.emit(newResolverEvent(EventTypeResolverAdded, resolver))
	e.log.Info("factory: resolver added", "resolver", hex.EncodeToString(resolver[:]))
	return nil
}

// RemoveResolver revokes a counter-party's whitelist entry.
func (e *Engine) RemoveResolver(caller, resolver [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.ResolverSet(resolver, false); err != nil {
		return err
	}
	e.emit(newResolverEvent(EventTypeResolverRemoved, resolver))
	e.log.Info("factory: resolver removed", "resolver", hex.EncodeToString(resolver[:]))
	return nil
}

// Pause halts all escrow creation until Unpause.
func (e *Engine) Pause(caller [20]byte) error {
	return e.setPaused(caller, true)
}

// Unpause re-enables escrow creation.
func (e *Engine) Unpause(caller [20]byte) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller [20]byte, paused bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.SetPaused(paused); err != nil {
		return err
	}
	if paused {
		e.emit(newPauseEvent(EventTypePaused, caller))
		e.log.Warn("factory: creation paused", "caller", hex.EncodeToString(caller[:]))
	} else {
		e.emit(newPauseEvent(EventTypeUnpaused, caller))
		e.log.Info("factory: creation unpaused", "caller", hex.EncodeToString(caller[:]))
	}
	return nil
}

// TransferOwnership hands the administrative surface to a new owner.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if newOwner == ([20]byte{}) {
		return fmt.Errorf("factory: new owner must not be the zero address")
	}
	if err := e.state.SetOwner(newOwner); err != nil {
		return err
	}
	e.emit(newOwnershipEvent(caller, newOwner))
	e.log.Info("factory: ownership transferred",
		"previousOwner", hex.EncodeToString(caller[:]),
		"newOwner", hex.EncodeToString(newOwner[:]),
	)
	return nil
}
