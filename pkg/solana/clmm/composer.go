package clmm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"lukechampine.com/uint128"
)

// Bundle is the ordered instruction set of one lifecycle transition. It is submitted
// as a single transaction so it applies entirely or not at all.
type Bundle struct {
	op           Op
	position     solana.PublicKey
	instructions []solana.Instruction
	signers      []solana.PublicKey
	next         State
}

func (b *Bundle) Op() Op { return b.op }

// Position is the position NFT mint the bundle acts on; zero for pool initialization.
func (b *Bundle) Position() solana.PublicKey { return b.position }

// Instructions returns a copy of the bundle's instructions, compute budget first.
func (b *Bundle) Instructions() []solana.Instruction {
	out := make([]solana.Instruction, len(b.instructions))
	copy(out, b.instructions)
	return out
}

// Signers lists every key that must sign, fee payer first.
func (b *Bundle) Signers() []solana.PublicKey {
	out := make([]solana.PublicKey, len(b.signers))
	copy(out, b.signers)
	return out
}

// FeePayer is the first signer.
func (b *Bundle) FeePayer() solana.PublicKey { return b.signers[0] }

// NextState is the lifecycle state once the bundle commits.
func (b *Bundle) NextState() State { return b.next }

// bundleBuilder accumulates the pieces of a bundle and checks them before yielding one.
type bundleBuilder struct {
	op           Op
	programID    solana.PublicKey
	computeUnits uint32
	position     solana.PublicKey
	accounts     accountList
	args         instructionArgs
	remaining    []*solana.AccountMeta
	signers      []solana.PublicKey
	next         State
}

func newBundleBuilder(op Op, programID solana.PublicKey, computeUnits uint32) *bundleBuilder {
	return &bundleBuilder{op: op, programID: programID, computeUnits: computeUnits}
}

func (b *bundleBuilder) withPosition(mint solana.PublicKey) *bundleBuilder {
	b.position = mint
	return b
}

func (b *bundleBuilder) withPrimary(accounts accountList, args instructionArgs) *bundleBuilder {
	b.accounts = accounts
	b.args = args
	return b
}

func (b *bundleBuilder) withRemaining(key solana.PublicKey, writable bool) *bundleBuilder {
	b.remaining = append(b.remaining, solana.NewAccountMeta(key, writable, false))
	return b
}

func (b *bundleBuilder) withSigner(key solana.PublicKey) *bundleBuilder {
	b.signers = append(b.signers, key)
	return b
}

func (b *bundleBuilder) withNextState(s State) *bundleBuilder {
	b.next = s
	return b
}

func (b *bundleBuilder) build() (*Bundle, error) {
	if b.accounts == nil || b.args == nil {
		return nil, invalid(b.op, "primary instruction is not set")
	}
	if b.computeUnits == 0 {
		return nil, invalid(b.op, "compute unit limit must be positive")
	}
	primary, err := newProxyInstruction(b.programID, b.op, b.accounts, b.args, b.remaining...)
	if err != nil {
		return nil, err
	}
	budget, err := computebudget.NewSetComputeUnitLimitInstruction(b.computeUnits).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("failed to build compute budget instruction: %w", err)
	}

	// Fee payer leads; every signer slot of the primary instruction follows, then extras.
	var signers []solana.PublicKey
	seen := make(map[solana.PublicKey]bool)
	add := func(k solana.PublicKey) {
		if !seen[k] {
			seen[k] = true
			signers = append(signers, k)
		}
	}
	for _, meta := range primary.Accounts() {
		if meta.IsSigner {
			add(meta.PublicKey)
		}
	}
	for _, k := range b.signers {
		add(k)
	}

	return &Bundle{
		op:           b.op,
		position:     b.position,
		instructions: []solana.Instruction{budget, primary},
		signers:      signers,
		next:         b.next,
	}, nil
}

// Composer turns lifecycle requests into bundles for the proxy program.
type Composer struct {
	ProxyProgramID solana.PublicKey
	ComputeUnits   uint32
}

// NewComposer returns a composer targeting proxyProgramID; computeUnits of zero selects
// DefaultComputeUnits.
func NewComposer(proxyProgramID solana.PublicKey, computeUnits uint32) *Composer {
	if computeUnits == 0 {
		computeUnits = DefaultComputeUnits
	}
	return &Composer{ProxyProgramID: proxyProgramID, ComputeUnits: computeUnits}
}

// PositionRef identifies a position: the pool it lives in, the NFT mint and the NFT owner.
type PositionRef struct {
	Pool    PoolKeys
	Owner   solana.PublicKey
	NftMint solana.PublicKey
}

type InitializeRequest struct {
	Pool         PoolKeys
	Creator      solana.PublicKey
	SqrtPriceX64 uint128.Uint128
	OpenTime     uint64
}

// Initialize composes pool creation through the proxy.
func (c *Composer) Initialize(req InitializeRequest) (*Bundle, error) {
	if req.SqrtPriceX64.Cmp(MinSqrtPriceX64) < 0 || req.SqrtPriceX64.Cmp(MaxSqrtPriceX64) > 0 {
		return nil, invalid(OpInitialize, "sqrt price %s outside [%s, %s]", req.SqrtPriceX64, MinSqrtPriceX64, MaxSqrtPriceX64)
	}
	pool := req.Pool
	if pool.TickSpacing == 0 {
		return nil, invalid(OpInitialize, "tick spacing must be positive")
	}

	// The bitmap slot and the remaining account both carry the extension address.
	accounts := InitializeAccounts{
		ClmmProgram:      pool.ProgramID,
		PoolCreator:      req.Creator,
		AmmConfig:        pool.AmmConfig,
		PoolState:        pool.Address,
		TokenMint0:       pool.Mint0.Mint,
		TokenMint1:       pool.Mint1.Mint,
		TokenVault0:      pool.Mint0.Vault,
		TokenVault1:      pool.Mint1.Vault,
		ObservationState: pool.Observation,
		TickArrayBitmap:  pool.BitmapExtension,
		TokenProgram0:    pool.Mint0.TokenProgram,
		TokenProgram1:    pool.Mint1.TokenProgram,
		SystemProgram:    solana.SystemProgramID,
		Rent:             solana.SysVarRentPubkey,
	}
	return newBundleBuilder(OpInitialize, c.ProxyProgramID, c.ComputeUnits).
		withPrimary(accounts, InitializeArgs{SqrtPriceX64: req.SqrtPriceX64, OpenTime: req.OpenTime}).
		withRemaining(pool.BitmapExtension, true).
		build()
}

// rangeKeys are the addresses that depend on a position's tick range.
type rangeKeys struct {
	lowerStart       int32
	upperStart       int32
	tickArrayLower   solana.PublicKey
	tickArrayUpper   solana.PublicKey
	protocolPosition solana.PublicKey
}

// deriveRange resolves both tick arrays independently, even when they coincide.
func deriveRange(pool PoolKeys, tickLower, tickUpper int32) (rangeKeys, error) {
	var rk rangeKeys
	var err error
	if rk.lowerStart, err = ArrayStartIndex(tickLower, pool.TickSpacing); err != nil {
		return rk, err
	}
	if rk.upperStart, err = ArrayStartIndex(tickUpper, pool.TickSpacing); err != nil {
		return rk, err
	}
	lower, err := GetTickArrayAddress(pool.ProgramID, pool.Address, rk.lowerStart)
	if err != nil {
		return rk, err
	}
	upper, err := GetTickArrayAddress(pool.ProgramID, pool.Address, rk.upperStart)
	if err != nil {
		return rk, err
	}
	protocol, err := GetProtocolPositionAddress(pool.ProgramID, pool.Address, tickLower, tickUpper)
	if err != nil {
		return rk, err
	}
	rk.tickArrayLower = lower.PublicKey
	rk.tickArrayUpper = upper.PublicKey
	rk.protocolPosition = protocol.PublicKey
	return rk, nil
}

// positionKeys are the addresses owned by one position NFT.
type positionKeys struct {
	personalPosition solana.PublicKey
	nftAccount       solana.PublicKey
	tokenAccount0    solana.PublicKey
	tokenAccount1    solana.PublicKey
}

func derivePosition(ref PositionRef) (positionKeys, error) {
	var pk positionKeys
	personal, err := GetPersonalPositionAddress(ref.Pool.ProgramID, ref.NftMint)
	if err != nil {
		return pk, err
	}
	// Position NFTs are minted under the legacy token program.
	nftAccount, err := GetAssociatedTokenAddress(ref.Owner, ref.NftMint, solana.TokenProgramID)
	if err != nil {
		return pk, err
	}
	account0, err := GetAssociatedTokenAddress(ref.Owner, ref.Pool.Mint0.Mint, ref.Pool.Mint0.TokenProgram)
	if err != nil {
		return pk, err
	}
	account1, err := GetAssociatedTokenAddress(ref.Owner, ref.Pool.Mint1.Mint, ref.Pool.Mint1.TokenProgram)
	if err != nil {
		return pk, err
	}
	pk.personalPosition = personal.PublicKey
	pk.nftAccount = nftAccount.PublicKey
	pk.tokenAccount0 = account0.PublicKey
	pk.tokenAccount1 = account1.PublicKey
	return pk, nil
}

func checkRef(op Op, ref PositionRef) error {
	if ref.Owner.IsZero() {
		return invalid(op, "position owner is required")
	}
	if ref.NftMint.IsZero() {
		return invalid(op, "position nft mint is required")
	}
	return nil
}

// OpenPosition composes minting a new position NFT over [TickLower, TickUpper]. The NFT
// mint is a fresh keypair and becomes an extra signer of the bundle.
func (c *Composer) OpenPosition(ref PositionRef, state State, p OpenParams) (*Bundle, error) {
	next, err := state.Open(p, ref.Pool.TickSpacing)
	if err != nil {
		return nil, err
	}
	if err := checkRef(OpOpen, ref); err != nil {
		return nil, err
	}

	rk, err := deriveRange(ref.Pool, p.TickLower, p.TickUpper)
	if err != nil {
		return nil, err
	}
	pk, err := derivePosition(ref)
	if err != nil {
		return nil, err
	}
	metadata, err := GetNftMetadataAddress(ref.NftMint)
	if err != nil {
		return nil, err
	}

	pool := ref.Pool
	accounts := OpenPositionAccounts{
		ClmmProgram:            pool.ProgramID,
		Payer:                  ref.Owner,
		PositionNftOwner:       ref.Owner,
		PositionNftMint:        ref.NftMint,
		PositionNftAccount:     pk.nftAccount,
		MetadataAccount:        metadata.PublicKey,
		PoolState:              pool.Address,
		ProtocolPosition:       rk.protocolPosition,
		TickArrayLower:         rk.tickArrayLower,
		TickArrayUpper:         rk.tickArrayUpper,
		PersonalPosition:       pk.personalPosition,
		TokenAccount0:          pk.tokenAccount0,
		TokenAccount1:          pk.tokenAccount1,
		TokenVault0:            pool.Mint0.Vault,
		TokenVault1:            pool.Mint1.Vault,
		Rent:                   solana.SysVarRentPubkey,
		SystemProgram:          solana.SystemProgramID,
		TokenProgram:           solana.TokenProgramID,
		AssociatedTokenProgram: solana.SPLAssociatedTokenAccountProgramID,
		MetadataProgram:        MetadataProgramID,
		TokenProgram2022:       solana.Token2022ProgramID,
		Vault0Mint:             pool.Mint0.Mint,
		Vault1Mint:             pool.Mint1.Mint,
	}
	args := OpenPositionArgs{
		TickLowerIndex:           p.TickLower,
		TickUpperIndex:           p.TickUpper,
		TickArrayLowerStartIndex: rk.lowerStart,
		TickArrayUpperStartIndex: rk.upperStart,
		Liquidity:                p.Liquidity,
		Amount0Max:               p.Amount0Max,
		Amount1Max:               p.Amount1Max,
		WithMetadata:             p.WithMetadata,
	}
	return newBundleBuilder(OpOpen, c.ProxyProgramID, c.ComputeUnits).
		withPosition(ref.NftMint).
		withPrimary(accounts, args).
		withRemaining(pool.BitmapExtension, true).
		withSigner(ref.NftMint).
		withNextState(next).
		build()
}

// IncreaseLiquidity composes adding liquidity to an open position.
func (c *Composer) IncreaseLiquidity(ref PositionRef, state State, p IncreaseParams) (*Bundle, error) {
	next, err := state.Increase(p, ref.Pool.TickSpacing)
	if err != nil {
		return nil, err
	}
	if err := checkRef(OpIncrease, ref); err != nil {
		return nil, err
	}

	rk, err := deriveRange(ref.Pool, p.TickLower, p.TickUpper)
	if err != nil {
		return nil, err
	}
	pk, err := derivePosition(ref)
	if err != nil {
		return nil, err
	}

	pool := ref.Pool
	accounts := IncreaseLiquidityAccounts{
		ClmmProgram:      pool.ProgramID,
		NftOwner:         ref.Owner,
		NftAccount:       pk.nftAccount,
		PoolState:        pool.Address,
		ProtocolPosition: rk.protocolPosition,
		PersonalPosition: pk.personalPosition,
		TickArrayLower:   rk.tickArrayLower,
		TickArrayUpper:   rk.tickArrayUpper,
		TokenAccount0:    pk.tokenAccount0,
		TokenAccount1:    pk.tokenAccount1,
		TokenVault0:      pool.Mint0.Vault,
		TokenVault1:      pool.Mint1.Vault,
		TokenProgram:     solana.TokenProgramID,
		TokenProgram2022: solana.Token2022ProgramID,
		Vault0Mint:       pool.Mint0.Mint,
		Vault1Mint:       pool.Mint1.Mint,
	}
	args := IncreaseLiquidityArgs{
		Liquidity:  p.Liquidity,
		Amount0Max: p.Amount0Max,
		Amount1Max: p.Amount1Max,
		BaseFlag:   p.BaseFlag,
	}
	return newBundleBuilder(OpIncrease, c.ProxyProgramID, c.ComputeUnits).
		withPosition(ref.NftMint).
		withPrimary(accounts, args).
		withRemaining(pool.BitmapExtension, true).
		withNextState(next).
		build()
}

// DecreaseLiquidity composes removing liquidity; withdrawn tokens go to the owner's accounts.
func (c *Composer) DecreaseLiquidity(ref PositionRef, state State, p DecreaseParams) (*Bundle, error) {
	next, err := state.Decrease(p, ref.Pool.TickSpacing)
	if err != nil {
		return nil, err
	}
	if err := checkRef(OpDecrease, ref); err != nil {
		return nil, err
	}

	rk, err := deriveRange(ref.Pool, p.TickLower, p.TickUpper)
	if err != nil {
		return nil, err
	}
	pk, err := derivePosition(ref)
	if err != nil {
		return nil, err
	}

	pool := ref.Pool
	accounts := DecreaseLiquidityAccounts{
		ClmmProgram:            pool.ProgramID,
		NftOwner:               ref.Owner,
		NftAccount:             pk.nftAccount,
		PersonalPosition:       pk.personalPosition,
		PoolState:              pool.Address,
		ProtocolPosition:       rk.protocolPosition,
		TokenVault0:            pool.Mint0.Vault,
		TokenVault1:            pool.Mint1.Vault,
		TickArrayLower:         rk.tickArrayLower,
		TickArrayUpper:         rk.tickArrayUpper,
		RecipientTokenAccount0: pk.tokenAccount0,
		RecipientTokenAccount1: pk.tokenAccount1,
		TokenProgram:           solana.TokenProgramID,
		TokenProgram2022:       solana.Token2022ProgramID,
		MemoProgram:            MemoProgramID,
		Vault0Mint:             pool.Mint0.Mint,
		Vault1Mint:             pool.Mint1.Mint,
	}
	args := DecreaseLiquidityArgs{
		Liquidity:  p.Liquidity,
		Amount0Min: p.Amount0Min,
		Amount1Min: p.Amount1Min,
	}
	return newBundleBuilder(OpDecrease, c.ProxyProgramID, c.ComputeUnits).
		withPosition(ref.NftMint).
		withPrimary(accounts, args).
		withRemaining(pool.BitmapExtension, true).
		withNextState(next).
		build()
}

// ClosePosition composes burning the NFT of an empty position.
func (c *Composer) ClosePosition(ref PositionRef, state State) (*Bundle, error) {
	next, err := state.Close()
	if err != nil {
		return nil, err
	}
	if err := checkRef(OpClose, ref); err != nil {
		return nil, err
	}

	pk, err := derivePosition(ref)
	if err != nil {
		return nil, err
	}
	accounts := ClosePositionAccounts{
		ClmmProgram:        ref.Pool.ProgramID,
		NftOwner:           ref.Owner,
		PositionNftMint:    ref.NftMint,
		PositionNftAccount: pk.nftAccount,
		PersonalPosition:   pk.personalPosition,
		SystemProgram:      solana.SystemProgramID,
		TokenProgram:       solana.TokenProgramID,
	}
	return newBundleBuilder(OpClose, c.ProxyProgramID, c.ComputeUnits).
		withPosition(ref.NftMint).
		withPrimary(accounts, ClosePositionArgs{}).
		withNextState(next).
		build()
}
