package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"crosslock/core/events"
	"crosslock/core/types"
	"crosslock/native/timelocks"
	"crosslock/observability/metrics"
)

var errNilState = errors.New("escrow engine: state not configured")

type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(addr [20]byte) (*Escrow, bool)
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine executes the escrow state machine over a ledger state. Every
// privileged call first re-derives the deterministic address from the
// caller-supplied immutables under the fixed factory identity the engine was
// constructed with; only then are status, window and hashlock checks applied
// and assets moved. The factory identity is fixed at construction, mirroring
// how the escrow template learns its deployer at compile time, and is never
// inferred from the immediate caller.
type Engine struct {
	state       engineState
	emitter     events.Emitter
	factory     [20]byte
	codeHash    [32]byte
	rescueDelay uint64
	nowFn       func() int64
}

// NewEngine creates an escrow engine bound to the given factory identity and
// escrow template code hash. The rescue delay is the fixed emergency window
// offset, independent of any swap's timelocks.
func NewEngine(factory [20]byte, codeHash [32]byte, rescueDelay uint64) *Engine {
	return &Engine{
		emitter:     events.NoopEmitter{},
		factory:     factory,
		codeHash:    codeHash,
		rescueDelay: rescueDelay,
		nowFn:       func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests to
// provide deterministic timestamps.
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
	e.emitter.Emit(escrowEvent{evt: event})
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

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) loadValidated(addr [20]byte, imm Immutables) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if !imm.AmountsInRange() {
		return nil, ErrInvalidImmutables
	}
	derived := DeterministicAddress(e.factory, imm.Hash(), e.codeHash)
	if derived != addr {
		return nil, ErrInvalidImmutables
	}
	esc, ok := e.state.EscrowGet(addr)
	if !ok {
		return nil, ErrEscrowNotFound
	}
	return esc, nil
}

func (e *Engine) transferToken(from, to [20]byte, token [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 || from == to {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("escrow: negative transfer amount")
	}
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc = fromAcc.Normalize()
	toAcc = toAcc.Normalize()
	balance := fromAcc.TokenBalance(token)
	if balance.Cmp(amt) < 0 {
		return ErrInsufficientFunding
	}
	fromAcc.SetTokenBalance(token, new(big.Int).Sub(balance, amt))
	toAcc.SetTokenBalance(token, new(big.Int).Add(toAcc.TokenBalance(token), amt))
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

// ensurePayoutFunded verifies the escrow account holds the full principal and
// safety deposit before anything moves, so a failed call observes no partial
// state.
func (e *Engine) ensurePayoutFunded(addr [20]byte, imm Immutables) error {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	acc = acc.Normalize()
	needNative := cloneBigInt(imm.SafetyDeposit)
	if IsNativeToken(imm.Token) {
		needNative.Add(needNative, cloneBigInt(imm.Amount))
	} else if acc.TokenBalance(imm.Token).Cmp(cloneBigInt(imm.Amount)) < 0 {
		return ErrInsufficientFunding
	}
	if acc.TokenBalance(NativeToken).Cmp(needNative) < 0 {
		return ErrInsufficientFunding
	}
	return nil
}

// Withdraw claims the principal with the secret. The designated taker may
// call within [withdrawalStart, cancellationStart); anyone may call within
// [publicWithdrawalStart, cancellationStart) to guarantee liveness should the
// taker disappear. The principal goes to the taker, the safety deposit to the
// caller, and the secret is revealed through the emitted event.
func (e *Engine) Withdraw(addr, caller [20]byte, secret [32]byte, imm Immutables) error {
	esc, err := e.loadValidated(addr, imm)
	if err != nil {
		return err
	}
	if esc.Status != StatusFunded {
		return ErrAlreadyTerminal
	}
	if SecretHash(secret) != imm.Hashlock {
		return ErrInvalidSecret
	}
	var start, publicStart, deadline uint64
	switch esc.Side {
	case SideSrc:
		start = imm.Timelocks.Start(timelocks.StageSrcWithdrawal)
		publicStart = imm.Timelocks.Start(timelocks.StageSrcPublicWithdrawal)
		deadline = imm.Timelocks.Start(timelocks.StageSrcCancellation)
	case SideDst:
		start = imm.Timelocks.Start(timelocks.StageDstWithdrawal)
		publicStart = imm.Timelocks.Start(timelocks.StageDstPublicWithdrawal)
		deadline = imm.Timelocks.Start(timelocks.StageDstCancellation)
	default:
		return fmt.Errorf("escrow: invalid side: %d", esc.Side)
	}
	now := e.now()
	if now >= deadline {
		return ErrTooLate
	}
	if caller == imm.Taker {
		if now < start {
			return ErrTooEarly
		}
	} else if now < publicStart {
		return ErrTooEarly
	}
	if err := e.ensurePayoutFunded(addr, imm); err != nil {
		return err
	}
	if err := e.transferToken(addr, imm.Taker, imm.Token, imm.Amount); err != nil {
		return err
	}
	if err := e.transferToken(addr, caller, NativeToken, imm.SafetyDeposit); err != nil {
		return err
	}
	esc.Status = StatusWithdrawn
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(NewWithdrawnEvent(esc, caller, secret))
	metrics.Swap().ObserveWithdrawal(esc.Side.String())
	return nil
}

// Cancel returns the principal to the depositor once the cancellation window
// opens. On the source side anyone may cancel after the public cancellation
// stage; the destination side has no public stage, so only the depositor may
// cancel there. The safety deposit goes to the caller.
func (e *Engine) Cancel(addr, caller [20]byte, imm Immutables) error {
	esc, err := e.loadValidated(addr, imm)
	if err != nil {
		return err
	}
	if esc.Status != StatusFunded {
		return ErrAlreadyTerminal
	}
	now := e.now()
	switch esc.Side {
	case SideSrc:
		start := imm.Timelocks.Start(timelocks.StageSrcCancellation)
		publicStart := imm.Timelocks.Start(timelocks.StageSrcPublicCancellation)
		if now < start {
			return ErrTooEarly
		}
		if caller != imm.Maker && now < publicStart {
			return ErrTooEarly
		}
	case SideDst:
		if caller != imm.Maker {
			return ErrUnauthorizedCaller
		}
		if now < imm.Timelocks.Start(timelocks.StageDstCancellation) {
			return ErrTooEarly
		}
	default:
		return fmt.Errorf("escrow: invalid side: %d", esc.Side)
	}
	if err := e.ensurePayoutFunded(addr, imm); err != nil {
		return err
	}
	if err := e.transferToken(addr, imm.Maker, imm.Token, imm.Amount); err != nil {
		return err
	}
	if err := e.transferToken(addr, caller, NativeToken, imm.SafetyDeposit); err != nil {
		return err
	}
	esc.Status = StatusCancelled
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(esc, caller))
	metrics.Swap().ObserveCancellation(esc.Side.String())
	return nil
}

// Rescue recovers assets mistakenly sent to the escrow address. Only the
// depositor may call, only after the long rescue delay past deployment, and
// never for the principal token or the native deposit denomination. Rescue
// does not touch the principal status.
func (e *Engine) Rescue(addr, caller, token [20]byte, amount *big.Int, imm Immutables) error {
	esc, err := e.loadValidated(addr, imm)
	if err != nil {
		return err
	}
	if caller != imm.Maker {
		return ErrUnauthorizedCaller
	}
	if e.now() < imm.Timelocks.RescueStart(e.rescueDelay) {
		return ErrTooEarly
	}
	if IsNativeToken(token) || token == imm.Token {
		return ErrInvalidRescueToken
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return fmt.Errorf("escrow: rescue amount must be positive")
	}
	if err := e.transferToken(addr, caller, token, amt); err != nil {
		return err
	}
	e.emit(NewRescuedEvent(esc, caller, token, amt))
	metrics.Swap().ObserveRescue()
	return nil
}
