package business

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"lpcontrol/internal/models"
	solanapkg "lpcontrol/pkg/solana"
	"lpcontrol/pkg/solana/clmm"
)

// ChainClient is the part of the executor the position service depends on.
type ChainClient interface {
	FetchAccount(ctx context.Context, key solana.PublicKey) (*solanapkg.AccountData, error)
	Execute(ctx context.Context, bundle *clmm.Bundle, keys solanapkg.Keyring) (solanapkg.Receipt, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (string, error)
}

// KeySource resolves the private keys of bundle signers.
type KeySource interface {
	Keyring(signers ...solana.PublicKey) (solanapkg.Keyring, error)
}

type ServiceConfig struct {
	ClmmProgramID  solana.PublicKey
	ProxyProgramID solana.PublicKey
	AmmConfig      solana.PublicKey
	ComputeUnits   uint32
	// ConfirmTimeout bounds one Execute call; zero leaves the caller's deadline alone.
	ConfirmTimeout time.Duration
}

// PositionService runs pool and position lifecycle operations end to end: read chain
// state, compose the bundle, submit it, and journal the outcome.
type PositionService struct {
	chain    ChainClient
	journal  Journal
	keys     KeySource
	composer *clmm.Composer
	cfg      ServiceConfig

	// newMint is replaced in tests to make position mints deterministic
	newMint func() (solana.PrivateKey, error)
}

func NewPositionService(chain ChainClient, journal Journal, keys KeySource, cfg ServiceConfig) *PositionService {
	return &PositionService{
		chain:    chain,
		journal:  journal,
		keys:     keys,
		composer: clmm.NewComposer(cfg.ProxyProgramID, cfg.ComputeUnits),
		cfg:      cfg,
		newMint:  solana.NewRandomPrivateKey,
	}
}

// PendingError is returned when a bundle reached the node but its outcome is unknown.
// The submission is journaled as pending and settled later by the sweeper.
type PendingError struct {
	Signature string
	Err       error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("submission %s pending: %v", e.Signature, e.Err)
}

func (e *PendingError) Unwrap() error { return e.Err }

// ShouldRequeue reports whether a queued command that failed with err may run again.
// Commands whose bundle already reached the node are never replayed.
func ShouldRequeue(err error) bool {
	var pending *PendingError
	if errors.As(err, &pending) {
		return false
	}
	return clmm.IsRetryable(err)
}

// Result is the outcome of a committed lifecycle operation.
type Result struct {
	Op        clmm.Op `json:"op"`
	Signature string  `json:"signature"`
	Status    string  `json:"status"`
	Slot      uint64  `json:"slot"`
	Pool      string  `json:"pool"`
	NftMint   string  `json:"nft_mint,omitempty"`
	Phase     string  `json:"phase,omitempty"`
	Liquidity string  `json:"liquidity,omitempty"`
}

// InitPoolRequest creates a pool for MintA/MintB. The starting price is either
// InitialTick or Price, where Price is quoted as mint1 per mint0 after canonical ordering.
type InitPoolRequest struct {
	Creator     string `json:"creator" binding:"required"`
	MintA       string `json:"mint_a" binding:"required"`
	MintB       string `json:"mint_b" binding:"required"`
	TickSpacing uint16 `json:"tick_spacing" binding:"required"`
	InitialTick *int32 `json:"initial_tick,omitempty"`
	Price       string `json:"price,omitempty"`
	OpenTime    uint64 `json:"open_time"`
}

type OpenRequest struct {
	Pool         string `json:"pool" binding:"required"`
	Owner        string `json:"owner" binding:"required"`
	TickLower    int32  `json:"tick_lower"`
	TickUpper    int32  `json:"tick_upper"`
	Liquidity    string `json:"liquidity"`
	Amount0Max   uint64 `json:"amount_0_max"`
	Amount1Max   uint64 `json:"amount_1_max"`
	WithMetadata bool   `json:"with_metadata"`
}

type IncreaseRequest struct {
	NftMint    string `json:"nft_mint"`
	Owner      string `json:"owner,omitempty"`
	TickLower  int32  `json:"tick_lower"`
	TickUpper  int32  `json:"tick_upper"`
	Liquidity  string `json:"liquidity" binding:"required"`
	Amount0Max uint64 `json:"amount_0_max"`
	Amount1Max uint64 `json:"amount_1_max"`
	BaseFlag   *bool  `json:"base_flag,omitempty"`
}

type DecreaseRequest struct {
	NftMint    string `json:"nft_mint"`
	Owner      string `json:"owner,omitempty"`
	TickLower  int32  `json:"tick_lower"`
	TickUpper  int32  `json:"tick_upper"`
	Liquidity  string `json:"liquidity" binding:"required"`
	Amount0Min uint64 `json:"amount_0_min"`
	Amount1Min uint64 `json:"amount_1_min"`
}

type CloseRequest struct {
	NftMint string `json:"nft_mint"`
	Owner   string `json:"owner,omitempty"`
}

// PoolView is a pool as read from chain.
type PoolView struct {
	Keys         clmm.PoolKeys      `json:"keys"`
	Liquidity    string             `json:"liquidity"`
	SqrtPriceX64 string             `json:"sqrt_price_x64"`
	TickCurrent  int32              `json:"tick_current"`
	Record       *models.PoolRecord `json:"record,omitempty"`
}

// PositionView is a position as read from chain, with its journal record if any.
type PositionView struct {
	NftMint          string                 `json:"nft_mint"`
	PersonalPosition string                 `json:"personal_position"`
	Pool             string                 `json:"pool,omitempty"`
	Phase            string                 `json:"phase"`
	Liquidity        string                 `json:"liquidity"`
	TickLower        int32                  `json:"tick_lower"`
	TickUpper        int32                  `json:"tick_upper"`
	TokenFeesOwed0   uint64                 `json:"token_fees_owed_0"`
	TokenFeesOwed1   uint64                 `json:"token_fees_owed_1"`
	Record           *models.PositionRecord `json:"record,omitempty"`
}

func parseKey(op clmm.Op, field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, &clmm.ValidationError{Op: op, Reason: field + " is required"}
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, &clmm.ValidationError{Op: op, Reason: fmt.Sprintf("%s %q is not a valid address", field, value)}
	}
	return key, nil
}

func preconditionf(op clmm.Op, format string, args ...interface{}) error {
	return &clmm.ValidationError{Op: op, Reason: fmt.Sprintf(format, args...), Err: clmm.ErrPreconditionViolation}
}

// mintInfo reads a mint account; its owner is the token program of the mint.
func (s *PositionService) mintInfo(ctx context.Context, op clmm.Op, mint solana.PublicKey) (clmm.MintInfo, uint8, error) {
	acc, err := s.chain.FetchAccount(ctx, mint)
	if err != nil {
		return clmm.MintInfo{}, 0, err
	}
	if acc == nil {
		return clmm.MintInfo{}, 0, &clmm.ValidationError{Op: op, Reason: fmt.Sprintf("mint %s not found", mint)}
	}
	// spl mint layout: decimals follow the authority option (36 bytes) and supply (8 bytes)
	if len(acc.Data) < 45 {
		return clmm.MintInfo{}, 0, &clmm.ValidationError{Op: op, Reason: fmt.Sprintf("account %s is not a mint", mint)}
	}
	return clmm.MintInfo{Mint: mint, TokenProgram: acc.Owner}, acc.Data[44], nil
}

// InitializePool creates a new CLMM pool through the proxy.
func (s *PositionService) InitializePool(ctx context.Context, req InitPoolRequest) (*Result, *clmm.PoolKeys, error) {
	op := clmm.OpInitialize
	creator, err := parseKey(op, "creator", req.Creator)
	if err != nil {
		return nil, nil, err
	}
	mintA, err := parseKey(op, "mint_a", req.MintA)
	if err != nil {
		return nil, nil, err
	}
	mintB, err := parseKey(op, "mint_b", req.MintB)
	if err != nil {
		return nil, nil, err
	}
	if (req.InitialTick == nil) == (req.Price == "") {
		return nil, nil, &clmm.ValidationError{Op: op, Reason: "exactly one of initial_tick and price is required"}
	}

	a, decA, err := s.mintInfo(ctx, op, mintA)
	if err != nil {
		return nil, nil, err
	}
	b, decB, err := s.mintInfo(ctx, op, mintB)
	if err != nil {
		return nil, nil, err
	}
	keys, err := clmm.NewPoolKeys(s.cfg.ClmmProgramID, s.cfg.AmmConfig, req.TickSpacing, a, b)
	if err != nil {
		return nil, nil, err
	}
	dec0, dec1 := decA, decB
	if !keys.Mint0.Mint.Equals(mintA) {
		dec0, dec1 = decB, decA
	}

	var sqrtPrice uint128.Uint128
	if req.InitialTick != nil {
		if sqrtPrice, err = clmm.SqrtPriceX64FromTick(*req.InitialTick); err != nil {
			return nil, nil, &clmm.ValidationError{Op: op, Reason: err.Error()}
		}
	} else {
		price, ok := new(big.Float).SetString(req.Price)
		if !ok {
			return nil, nil, &clmm.ValidationError{Op: op, Reason: fmt.Sprintf("price %q is not a number", req.Price)}
		}
		if sqrtPrice, err = clmm.SqrtPriceX64FromPrice(price, dec0, dec1); err != nil {
			return nil, nil, &clmm.ValidationError{Op: op, Reason: err.Error()}
		}
	}

	existing, err := s.chain.FetchAccount(ctx, keys.Address)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, preconditionf(op, "pool %s already exists", keys.Address)
	}

	bundle, err := s.composer.Initialize(clmm.InitializeRequest{
		Pool:         keys,
		Creator:      creator,
		SqrtPriceX64: sqrtPrice,
		OpenTime:     req.OpenTime,
	})
	if err != nil {
		return nil, nil, err
	}

	receipt, err := s.execute(ctx, bundle, nil)
	sub := &models.Submission{
		Op:          string(op),
		PoolAddress: keys.Address.String(),
	}
	if jerr := s.journalOutcome(ctx, sub, receipt, err); jerr != nil {
		return nil, nil, jerr
	}
	if err := pendingOr(receipt, err); err != nil {
		return nil, nil, err
	}

	record := &models.PoolRecord{
		Address:       keys.Address.String(),
		ProgramID:     keys.ProgramID.String(),
		AmmConfig:     keys.AmmConfig.String(),
		Mint0:         keys.Mint0.Mint.String(),
		Mint1:         keys.Mint1.Mint.String(),
		TokenProgram0: keys.Mint0.TokenProgram.String(),
		TokenProgram1: keys.Mint1.TokenProgram.String(),
		TickSpacing:   keys.TickSpacing,
		SqrtPriceX64:  sqrtPrice.String(),
		Creator:       creator.String(),
	}
	if err := s.journal.RecordPool(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("record pool: %w", err)
	}

	return &Result{
		Op:        op,
		Signature: receipt.Signature.String(),
		Status:    receipt.Status,
		Slot:      receipt.Slot,
		Pool:      keys.Address.String(),
	}, &keys, nil
}

// loadPool reads a pool and the token programs of its mints from chain.
func (s *PositionService) loadPool(ctx context.Context, op clmm.Op, address solana.PublicKey) (*PoolView, error) {
	acc, err := s.chain.FetchAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, &clmm.ValidationError{Op: op, Reason: fmt.Sprintf("pool %s not found", address)}
	}
	state, err := clmm.DecodePoolState(acc.Data)
	if err != nil {
		return nil, &clmm.ValidationError{Op: op, Reason: err.Error()}
	}
	m0, _, err := s.mintInfo(ctx, op, state.TokenMint0)
	if err != nil {
		return nil, err
	}
	m1, _, err := s.mintInfo(ctx, op, state.TokenMint1)
	if err != nil {
		return nil, err
	}
	keys, err := clmm.PoolKeysFromState(s.cfg.ClmmProgramID, address, state, m0.TokenProgram, m1.TokenProgram)
	if err != nil {
		return nil, err
	}
	return &PoolView{
		Keys:         keys,
		Liquidity:    state.Liquidity.String(),
		SqrtPriceX64: state.SqrtPriceX64.String(),
		TickCurrent:  state.TickCurrent,
	}, nil
}

// GetPool reads a pool from chain.
func (s *PositionService) GetPool(ctx context.Context, address string) (*PoolView, error) {
	key, err := parseKey("", "pool", address)
	if err != nil {
		return nil, err
	}
	view, err := s.loadPool(ctx, "", key)
	if err != nil {
		return nil, err
	}
	if view.Record, err = s.journal.Pool(ctx, address); err != nil {
		return nil, fmt.Errorf("load pool record: %w", err)
	}
	return view, nil
}

func (s *PositionService) ListPools(ctx context.Context) ([]models.PoolRecord, error) {
	return s.journal.ListPools(ctx)
}

// positionRead is a fresh read of one position.
type positionRead struct {
	mint     solana.PublicKey
	personal solana.PublicKey
	account  *clmm.PersonalPosition
	record   *models.PositionRecord
	state    clmm.State
}

func (s *PositionService) readPosition(ctx context.Context, op clmm.Op, mint solana.PublicKey) (*positionRead, error) {
	pda, err := clmm.GetPersonalPositionAddress(s.cfg.ClmmProgramID, mint)
	if err != nil {
		return nil, err
	}
	acc, err := s.chain.FetchAccount(ctx, pda.PublicKey)
	if err != nil {
		return nil, err
	}
	read := &positionRead{mint: mint, personal: pda.PublicKey}
	if acc != nil {
		if read.account, err = clmm.DecodePersonalPosition(acc.Data); err != nil {
			return nil, &clmm.ValidationError{Op: op, Reason: err.Error()}
		}
	}
	if read.record, err = s.journal.Position(ctx, mint.String()); err != nil {
		return nil, fmt.Errorf("load position record: %w", err)
	}
	read.state = clmm.DeriveState(read.account, read.record != nil && read.record.Retired)
	return read, nil
}

// ref builds the position reference. The pool is only loaded when the position is open,
// other states fail the lifecycle check before any address is needed.
func (s *PositionService) ref(ctx context.Context, op clmm.Op, read *positionRead, owner string) (clmm.PositionRef, error) {
	ref := clmm.PositionRef{NftMint: read.mint}
	if owner == "" && read.record != nil {
		owner = read.record.Owner
	}
	if owner != "" {
		key, err := parseKey(op, "owner", owner)
		if err != nil {
			return ref, err
		}
		ref.Owner = key
	}
	if read.account == nil {
		return ref, nil
	}
	pool, err := s.loadPool(ctx, op, read.account.PoolID)
	if err != nil {
		return ref, err
	}
	ref.Pool = pool.Keys
	return ref, nil
}

// checkRange rejects a tick range that differs from the opened one before the pool is loaded.
func checkRange(op clmm.Op, state clmm.State, tickLower, tickUpper int32) error {
	if state.Phase != clmm.Open {
		return nil
	}
	if state.TickLower != tickLower || state.TickUpper != tickUpper {
		return preconditionf(op, "tick range [%d, %d] differs from opened range [%d, %d]",
			tickLower, tickUpper, state.TickLower, state.TickUpper)
	}
	return nil
}

// GetPosition reads a position's lifecycle state.
func (s *PositionService) GetPosition(ctx context.Context, nftMint string) (*PositionView, error) {
	mint, err := parseKey("", "nft_mint", nftMint)
	if err != nil {
		return nil, err
	}
	read, err := s.readPosition(ctx, "", mint)
	if err != nil {
		return nil, err
	}
	view := &PositionView{
		NftMint:          mint.String(),
		PersonalPosition: read.personal.String(),
		Phase:            read.state.Phase.String(),
		Liquidity:        read.state.Liquidity.String(),
		TickLower:        read.state.TickLower,
		TickUpper:        read.state.TickUpper,
		Record:           read.record,
	}
	if read.account != nil {
		view.Pool = read.account.PoolID.String()
		view.TokenFeesOwed0 = read.account.TokenFeesOwed0
		view.TokenFeesOwed1 = read.account.TokenFeesOwed1
	} else if read.record != nil {
		view.Pool = read.record.PoolAddress
	}
	return view, nil
}

// OpenPosition mints a new position NFT in a pool.
func (s *PositionService) OpenPosition(ctx context.Context, req OpenRequest) (*Result, error) {
	op := clmm.OpOpen
	poolKey, err := parseKey(op, "pool", req.Pool)
	if err != nil {
		return nil, err
	}
	owner, err := parseKey(op, "owner", req.Owner)
	if err != nil {
		return nil, err
	}
	liquidity, err := clmm.ParseLiquidity(op, req.Liquidity)
	if err != nil {
		return nil, err
	}
	pool, err := s.loadPool(ctx, op, poolKey)
	if err != nil {
		return nil, err
	}

	nftKey, err := s.newMint()
	if err != nil {
		return nil, fmt.Errorf("generate position mint: %w", err)
	}
	ref := clmm.PositionRef{Pool: pool.Keys, Owner: owner, NftMint: nftKey.PublicKey()}
	bundle, err := s.composer.OpenPosition(ref, clmm.UnopenedState(), clmm.OpenParams{
		TickLower:    req.TickLower,
		TickUpper:    req.TickUpper,
		Liquidity:    liquidity,
		Amount0Max:   req.Amount0Max,
		Amount1Max:   req.Amount1Max,
		WithMetadata: req.WithMetadata,
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, bundle, ref, nil, &nftKey)
}

// IncreaseLiquidity adds liquidity to an open position.
func (s *PositionService) IncreaseLiquidity(ctx context.Context, req IncreaseRequest) (*Result, error) {
	op := clmm.OpIncrease
	mint, err := parseKey(op, "nft_mint", req.NftMint)
	if err != nil {
		return nil, err
	}
	delta, err := clmm.ParseLiquidity(op, req.Liquidity)
	if err != nil {
		return nil, err
	}
	read, err := s.readPosition(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	if err := checkRange(op, read.state, req.TickLower, req.TickUpper); err != nil {
		return nil, err
	}
	ref, err := s.ref(ctx, op, read, req.Owner)
	if err != nil {
		return nil, err
	}
	bundle, err := s.composer.IncreaseLiquidity(ref, read.state, clmm.IncreaseParams{
		TickLower:  req.TickLower,
		TickUpper:  req.TickUpper,
		Liquidity:  delta,
		Amount0Max: req.Amount0Max,
		Amount1Max: req.Amount1Max,
		BaseFlag:   req.BaseFlag,
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, bundle, ref, read.record, nil)
}

// DecreaseLiquidity removes liquidity from an open position.
func (s *PositionService) DecreaseLiquidity(ctx context.Context, req DecreaseRequest) (*Result, error) {
	op := clmm.OpDecrease
	mint, err := parseKey(op, "nft_mint", req.NftMint)
	if err != nil {
		return nil, err
	}
	delta, err := clmm.ParseLiquidity(op, req.Liquidity)
	if err != nil {
		return nil, err
	}
	read, err := s.readPosition(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	if err := checkRange(op, read.state, req.TickLower, req.TickUpper); err != nil {
		return nil, err
	}
	ref, err := s.ref(ctx, op, read, req.Owner)
	if err != nil {
		return nil, err
	}
	bundle, err := s.composer.DecreaseLiquidity(ref, read.state, clmm.DecreaseParams{
		TickLower:  req.TickLower,
		TickUpper:  req.TickUpper,
		Liquidity:  delta,
		Amount0Min: req.Amount0Min,
		Amount1Min: req.Amount1Min,
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, bundle, ref, read.record, nil)
}

// ClosePosition burns the NFT of an empty position.
func (s *PositionService) ClosePosition(ctx context.Context, req CloseRequest) (*Result, error) {
	op := clmm.OpClose
	mint, err := parseKey(op, "nft_mint", req.NftMint)
	if err != nil {
		return nil, err
	}
	read, err := s.readPosition(ctx, op, mint)
	if err != nil {
		return nil, err
	}
	ref, err := s.ref(ctx, op, read, req.Owner)
	if err != nil {
		return nil, err
	}
	bundle, err := s.composer.ClosePosition(ref, read.state)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, bundle, ref, read.record, nil)
}

// execute resolves the signer keys and runs the bundle. extra holds keys generated for
// this bundle alone, such as a fresh position mint.
func (s *PositionService) execute(ctx context.Context, bundle *clmm.Bundle, extra *solana.PrivateKey) (solanapkg.Receipt, error) {
	var wanted []solana.PublicKey
	for _, signer := range bundle.Signers() {
		if extra != nil && signer.Equals(extra.PublicKey()) {
			continue
		}
		wanted = append(wanted, signer)
	}
	keys, err := s.keys.Keyring(wanted...)
	if err != nil {
		return solanapkg.Receipt{}, &clmm.ValidationError{Op: bundle.Op(), Reason: err.Error()}
	}
	if extra != nil {
		keys.Add(*extra)
	}

	if s.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
		defer cancel()
	}
	return s.chain.Execute(ctx, bundle, keys)
}

// run executes a position bundle and journals the submission and position record.
func (s *PositionService) run(ctx context.Context, bundle *clmm.Bundle, ref clmm.PositionRef, record *models.PositionRecord, nftKey *solana.PrivateKey) (*Result, error) {
	op := bundle.Op()
	next := bundle.NextState()

	receipt, err := s.execute(ctx, bundle, nftKey)
	sub := &models.Submission{
		Op:          string(op),
		NftMint:     ref.NftMint.String(),
		PoolAddress: ref.Pool.Address.String(),
		Liquidity:   next.Liquidity.String(),
	}
	if jerr := s.journalOutcome(ctx, sub, receipt, err); jerr != nil {
		return nil, jerr
	}
	err = pendingOr(receipt, err)

	var pending *PendingError
	switch {
	case err == nil:
		if record == nil {
			record = newPositionRecord(ref)
		}
		record.Phase = next.Phase.String()
		record.Liquidity = next.Liquidity.String()
		record.TickLower = next.TickLower
		record.TickUpper = next.TickUpper
		record.Retired = true
	case op == clmm.OpOpen && errors.As(err, &pending):
		// keep the mint known so the sweeper can settle the open later
		record = newPositionRecord(ref)
		record.TickLower = next.TickLower
		record.TickUpper = next.TickUpper
	default:
		return nil, err
	}
	if serr := s.journal.SavePosition(ctx, record); serr != nil {
		return nil, fmt.Errorf("save position record: %w", serr)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"op":        op,
		"nft_mint":  ref.NftMint.String(),
		"signature": receipt.Signature.String(),
		"phase":     next.Phase.String(),
	}).Info("Position updated")

	return &Result{
		Op:        op,
		Signature: receipt.Signature.String(),
		Status:    receipt.Status,
		Slot:      receipt.Slot,
		Pool:      ref.Pool.Address.String(),
		NftMint:   ref.NftMint.String(),
		Phase:     next.Phase.String(),
		Liquidity: next.Liquidity.String(),
	}, nil
}

// phasePending is the record phase of an open whose outcome is not known yet.
const phasePending = "pending"

func newPositionRecord(ref clmm.PositionRef) *models.PositionRecord {
	return &models.PositionRecord{
		NftMint:     ref.NftMint.String(),
		PoolAddress: ref.Pool.Address.String(),
		Owner:       ref.Owner.String(),
		Liquidity:   "0",
		Phase:       phasePending,
	}
}

// pendingOr wraps a transient failure of a bundle that already has a signature.
func pendingOr(receipt solanapkg.Receipt, err error) error {
	if err != nil && receipt.Signature != (solana.Signature{}) && clmm.IsRetryable(err) {
		return &PendingError{Signature: receipt.Signature.String(), Err: err}
	}
	return err
}

// journalOutcome records a submission when the bundle reached the node. A bundle that
// never got a signature leaves no trace.
func (s *PositionService) journalOutcome(ctx context.Context, sub *models.Submission, receipt solanapkg.Receipt, execErr error) error {
	if receipt.Signature == (solana.Signature{}) {
		return nil
	}
	sub.Signature = receipt.Signature.String()
	switch {
	case execErr == nil:
		now := time.Now()
		sub.Status = receipt.Status
		sub.Slot = receipt.Slot
		sub.ConfirmedAt = &now
	case clmm.IsRetryable(execErr):
		sub.Status = solanapkg.StatusPending
		sub.Error = execErr.Error()
	default:
		sub.Status = solanapkg.StatusFailed
		sub.Error = execErr.Error()
	}
	if err := s.journal.RecordSubmission(ctx, sub); err != nil {
		logrus.WithFields(logrus.Fields{
			"signature": sub.Signature,
			"error":     err.Error(),
		}).Error("Failed to journal submission")
		return fmt.Errorf("record submission %s: %w", sub.Signature, err)
	}
	return nil
}

// GetSubmission returns the journal entry for a signature.
func (s *PositionService) GetSubmission(ctx context.Context, signature string) (*models.Submission, error) {
	if _, err := solana.SignatureFromBase58(signature); err != nil {
		return nil, &clmm.ValidationError{Reason: fmt.Sprintf("signature %q is malformed", signature)}
	}
	return s.journal.Submission(ctx, signature)
}

func (s *PositionService) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	return s.journal.ListSubmissions(ctx, filter)
}
