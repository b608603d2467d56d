package crosschain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"crosslock/native/escrow"
	"crosslock/native/factory"
	"crosslock/native/timelocks"
	"crosslock/state/ledger"
	"crosslock/storage"
)

// chain bundles one ledger with the engines operating on it, standing in for
// one of the two ledgers of a swap.
type chain struct {
	ledger  *ledger.Ledger
	factory *factory.Engine
	escrow  *escrow.Engine
}

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

var (
	factoryAddr    = addr(0xFA)
	codeHash       = [32]byte{0xC0, 0xDE}
	settlementAddr = addr(0x5E)
	ownerAddr      = addr(0x01)
	resolverAddr   = addr(0x02)
	makerAddr      = addr(0x03)
	tokenA         = addr(0x30)
	tokenB         = addr(0x31)
)

const rescueDelay = uint64(7 * 24 * 3600)

// Stage offsets shared by both sides of the swap. Source cancellation opens
// at +300, destination cancellation at +200, so the resolver's claim window
// on the source side outlives the maker's on the destination side.
func offsets() timelocks.Offsets {
	return timelocks.Offsets{10, 120, 300, 400, 10, 100, 200}
}

func newChain(t *testing.T, chainID uint64, now *uint64) *chain {
	t.Helper()
	led := ledger.New(storage.NewMemDB())
	clock := func() int64 { return int64(*now) }

	fac := factory.NewEngine(factory.Config{
		FactoryAddress:    factoryAddr,
		EscrowCodeHash:    codeHash,
		SettlementAddress: settlementAddr,
		CreationTolerance: 60,
		ChainID:           chainID,
	})
	fac.SetState(led)
	fac.SetNowFunc(clock)
	require.NoError(t, fac.InitOwner(ownerAddr))
	require.NoError(t, fac.AddResolver(ownerAddr, resolverAddr))

	esc := escrow.NewEngine(factoryAddr, codeHash, rescueDelay)
	esc.SetState(led)
	esc.SetNowFunc(clock)

	return &chain{ledger: led, factory: fac, escrow: esc}
}

func (c *chain) balance(t *testing.T, owner, token [20]byte) int64 {
	t.Helper()
	acc, err := c.ledger.GetAccount(owner)
	require.NoError(t, err)
	return acc.TokenBalance(token).Int64()
}

// fillOrder runs the source-side creation as the settlement would: the filler
// holds the settled principal and posts the safety deposit.
func fillOrder(t *testing.T, src *chain, hashlock [32]byte, dstChainID uint64) (*escrow.Escrow, *factory.DstComplement) {
	t.Helper()
	deposits, err := factory.PackDeposits(big.NewInt(5), big.NewInt(9))
	require.NoError(t, err)
	extra := factory.EncodeExtraArgs(factory.ExtraArgs{
		Hashlock:   hashlock,
		DstChainID: dstChainID,
		DstToken:   tokenB,
		Deposits:   deposits,
		Timelocks:  timelocks.Pack(offsets()),
	})
	esc, complement, err := src.factory.ProcessOrderFill(settlementAddr, factory.OrderFill{
		OrderHash:    [32]byte{0xAB},
		Maker:        makerAddr,
		Taker:        resolverAddr,
		Token:        tokenA,
		MakingAmount: big.NewInt(100),
		TakingAmount: big.NewInt(250),
		ExtraData:    extra,
	})
	require.NoError(t, err)
	return esc, complement
}

// lockCounterAsset mirrors the resolver reacting to the source creation
// event: it locks the counter-asset on the destination ledger with the roles
// inverted, naming itself depositor and the original maker claimant.
func lockCounterAsset(t *testing.T, dst *chain, srcEsc *escrow.Escrow, complement *factory.DstComplement, srcCancellation uint64) *escrow.Escrow {
	t.Helper()
	imm := escrow.Immutables{
		OrderHash:     srcEsc.Immutables.OrderHash,
		Hashlock:      srcEsc.Immutables.Hashlock,
		Maker:         resolverAddr,
		Taker:         complement.Maker,
		Token:         complement.Token,
		Amount:        new(big.Int).Set(complement.Amount),
		SafetyDeposit: new(big.Int).Set(complement.SafetyDeposit),
		Timelocks:     timelocks.Pack(offsets()),
	}
	esc, err := dst.factory.CreateDstEscrow(resolverAddr, imm, srcCancellation)
	require.NoError(t, err)
	return esc
}

func TestSwapHappyPath(t *testing.T) {
	now := uint64(1000)
	chainA := newChain(t, 1, &now)
	chainB := newChain(t, 137, &now)

	// The settlement has already moved the maker's principal to the filler;
	// the resolver also carries the native deposits on both ledgers.
	require.NoError(t, chainA.ledger.Credit(resolverAddr, tokenA, big.NewInt(100)))
	require.NoError(t, chainA.ledger.Credit(resolverAddr, escrow.NativeToken, big.NewInt(5)))
	require.NoError(t, chainB.ledger.Credit(resolverAddr, tokenB, big.NewInt(250)))
	require.NoError(t, chainB.ledger.Credit(resolverAddr, escrow.NativeToken, big.NewInt(9)))

	var secret [32]byte
	secret[0] = 0x5E
	hashlock := escrow.SecretHash(secret)

	srcEsc, complement := fillOrder(t, chainA, hashlock, 137)
	require.Equal(t, uint64(137), complement.ChainID)
	srcCancellation := srcEsc.Immutables.Timelocks.Start(timelocks.StageSrcCancellation)
	dstEsc := lockCounterAsset(t, chainB, srcEsc, complement, srcCancellation)

	// Both sides funded, nothing spendable outside the escrow accounts.
	require.EqualValues(t, 100, chainA.balance(t, srcEsc.Address, tokenA))
	require.EqualValues(t, 250, chainB.balance(t, dstEsc.Address, tokenB))
	require.EqualValues(t, 0, chainA.balance(t, resolverAddr, tokenA))
	require.EqualValues(t, 0, chainB.balance(t, resolverAddr, tokenB))

	// The maker claims on the destination ledger, revealing the secret.
	now = 1010
	require.NoError(t, chainB.escrow.Withdraw(dstEsc.Address, makerAddr, secret, dstEsc.Immutables))
	require.EqualValues(t, 250, chainB.balance(t, makerAddr, tokenB))
	require.EqualValues(t, 9, chainB.balance(t, makerAddr, escrow.NativeToken))

	// The resolver replays the revealed secret on the source ledger.
	require.NoError(t, chainA.escrow.Withdraw(srcEsc.Address, resolverAddr, secret, srcEsc.Immutables))
	require.EqualValues(t, 100, chainA.balance(t, resolverAddr, tokenA))
	require.EqualValues(t, 5, chainA.balance(t, resolverAddr, escrow.NativeToken))

	// Escrow accounts are fully drained and both instances terminal.
	require.EqualValues(t, 0, chainA.balance(t, srcEsc.Address, tokenA))
	require.EqualValues(t, 0, chainA.balance(t, srcEsc.Address, escrow.NativeToken))
	require.EqualValues(t, 0, chainB.balance(t, dstEsc.Address, tokenB))
	require.EqualValues(t, 0, chainB.balance(t, dstEsc.Address, escrow.NativeToken))
	stored, ok := chainA.ledger.EscrowGet(srcEsc.Address)
	require.True(t, ok)
	require.Equal(t, escrow.StatusWithdrawn, stored.Status)
	stored, ok = chainB.ledger.EscrowGet(dstEsc.Address)
	require.True(t, ok)
	require.Equal(t, escrow.StatusWithdrawn, stored.Status)
}

func TestSwapResolverNoShow(t *testing.T) {
	now := uint64(1000)
	chainA := newChain(t, 1, &now)

	require.NoError(t, chainA.ledger.Credit(resolverAddr, tokenA, big.NewInt(100)))
	require.NoError(t, chainA.ledger.Credit(resolverAddr, escrow.NativeToken, big.NewInt(5)))

	var secret [32]byte
	secret[0] = 0x5E
	srcEsc, _ := fillOrder(t, chainA, escrow.SecretHash(secret), 137)

	// No destination escrow ever appears. Once the source cancellation
	// window opens, the maker recovers the principal and earns the
	// resolver's safety deposit.
	now = 1300
	require.NoError(t, chainA.escrow.Cancel(srcEsc.Address, makerAddr, srcEsc.Immutables))
	require.EqualValues(t, 100, chainA.balance(t, makerAddr, tokenA))
	require.EqualValues(t, 5, chainA.balance(t, makerAddr, escrow.NativeToken))

	stored, ok := chainA.ledger.EscrowGet(srcEsc.Address)
	require.True(t, ok)
	require.Equal(t, escrow.StatusCancelled, stored.Status)

	// A second cancellation observes the terminal status.
	require.ErrorIs(t, chainA.escrow.Cancel(srcEsc.Address, makerAddr, srcEsc.Immutables), escrow.ErrAlreadyTerminal)
	// So does a late withdrawal attempt by the resolver.
	require.ErrorIs(t, chainA.escrow.Withdraw(srcEsc.Address, resolverAddr, secret, srcEsc.Immutables), escrow.ErrAlreadyTerminal)
}

func TestSwapWrongSecretLeavesBothFunded(t *testing.T) {
	now := uint64(1000)
	chainA := newChain(t, 1, &now)
	chainB := newChain(t, 137, &now)

	require.NoError(t, chainA.ledger.Credit(resolverAddr, tokenA, big.NewInt(100)))
	require.NoError(t, chainA.ledger.Credit(resolverAddr, escrow.NativeToken, big.NewInt(5)))
	require.NoError(t, chainB.ledger.Credit(resolverAddr, tokenB, big.NewInt(250)))
	require.NoError(t, chainB.ledger.Credit(resolverAddr, escrow.NativeToken, big.NewInt(9)))

	var secret [32]byte
	secret[0] = 0x5E
	srcEsc, complement := fillOrder(t, chainA, escrow.SecretHash(secret), 137)
	srcCancellation := srcEsc.Immutables.Timelocks.Start(timelocks.StageSrcCancellation)
	dstEsc := lockCounterAsset(t, chainB, srcEsc, complement, srcCancellation)

	var wrong [32]byte
	wrong[0] = 0xBD
	now = 1010
	require.ErrorIs(t, chainB.escrow.Withdraw(dstEsc.Address, makerAddr, wrong, dstEsc.Immutables), escrow.ErrInvalidSecret)
	require.ErrorIs(t, chainA.escrow.Withdraw(srcEsc.Address, resolverAddr, wrong, srcEsc.Immutables), escrow.ErrInvalidSecret)

	// Nothing moved on either ledger.
	require.EqualValues(t, 100, chainA.balance(t, srcEsc.Address, tokenA))
	require.EqualValues(t, 250, chainB.balance(t, dstEsc.Address, tokenB))
	stored, ok := chainA.ledger.EscrowGet(srcEsc.Address)
	require.True(t, ok)
	require.Equal(t, escrow.StatusFunded, stored.Status)
	stored, ok = chainB.ledger.EscrowGet(dstEsc.Address)
	require.True(t, ok)
	require.Equal(t, escrow.StatusFunded, stored.Status)

	// The swap then unwinds: resolver cancels on the destination ledger,
	// maker cancels on the source ledger after its later window opens.
	now = 1200
	require.NoError(t, chainB.escrow.Cancel(dstEsc.Address, resolverAddr, dstEsc.Immutables))
	require.EqualValues(t, 250, chainB.balance(t, resolverAddr, tokenB))
	now = 1300
	require.NoError(t, chainA.escrow.Cancel(srcEsc.Address, makerAddr, srcEsc.Immutables))
	require.EqualValues(t, 100, chainA.balance(t, makerAddr, tokenA))
}
