package business

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"lpcontrol/internal/models"
	solanapkg "lpcontrol/pkg/solana"
	"lpcontrol/pkg/solana/clmm"
)

var (
	poolStateTag        = []byte{247, 237, 227, 245, 215, 195, 222, 70}
	personalPositionTag = []byte{70, 111, 150, 126, 230, 15, 25, 117}
)

type fakeChain struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*solanapkg.AccountData
	bundles  []*clmm.Bundle
	keyrings []solanapkg.Keyring
	statuses map[solana.Signature]string
	// execute overrides the default confirmed outcome
	execute func(n int, b *clmm.Bundle) (solanapkg.Receipt, error)
	fetches int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts: make(map[solana.PublicKey]*solanapkg.AccountData),
		statuses: make(map[solana.Signature]string),
	}
}

func testSig(n int) solana.Signature {
	var sig solana.Signature
	binary.LittleEndian.PutUint32(sig[:], uint32(n+1))
	sig[63] = 0xAB
	return sig
}

func (f *fakeChain) FetchAccount(_ context.Context, key solana.PublicKey) (*solanapkg.AccountData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.accounts[key], nil
}

func (f *fakeChain) Execute(_ context.Context, b *clmm.Bundle, keys solanapkg.Keyring) (solanapkg.Receipt, error) {
	f.mu.Lock()
	n := len(f.bundles)
	f.bundles = append(f.bundles, b)
	f.keyrings = append(f.keyrings, keys)
	exec := f.execute
	f.mu.Unlock()

	if exec != nil {
		return exec(n, b)
	}
	return solanapkg.Receipt{Signature: testSig(n), Slot: 1000 + uint64(n), Status: solanapkg.StatusConfirmed}, nil
}

func (f *fakeChain) SignatureStatus(_ context.Context, sig solana.Signature) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[sig]
	if !ok {
		return solanapkg.StatusPending, nil
	}
	if status == solanapkg.StatusFailed {
		return status, fmt.Errorf("transaction failed: InstructionError")
	}
	return status, nil
}

func (f *fakeChain) put(key solana.PublicKey, acc *solanapkg.AccountData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc == nil {
		delete(f.accounts, key)
		return
	}
	f.accounts[key] = acc
}

func (f *fakeChain) executed() []*clmm.Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*clmm.Bundle(nil), f.bundles...)
}

type memJournal struct {
	mu          sync.Mutex
	pools       map[string]models.PoolRecord
	positions   map[string]models.PositionRecord
	submissions map[string]models.Submission
	nextID      uint
}

func newMemJournal() *memJournal {
	return &memJournal{
		pools:       make(map[string]models.PoolRecord),
		positions:   make(map[string]models.PositionRecord),
		submissions: make(map[string]models.Submission),
	}
}

func (j *memJournal) id() uint {
	j.nextID++
	return j.nextID
}

func (j *memJournal) RecordPool(_ context.Context, pool *models.PoolRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.pools[pool.Address]; ok {
		return nil
	}
	pool.ID = j.id()
	j.pools[pool.Address] = *pool
	return nil
}

func (j *memJournal) Pool(_ context.Context, address string) (*models.PoolRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	p, ok := j.pools[address]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (j *memJournal) ListPools(context.Context) ([]models.PoolRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.PoolRecord, 0, len(j.pools))
	for _, p := range j.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

func (j *memJournal) Position(_ context.Context, nftMint string) (*models.PositionRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	p, ok := j.positions[nftMint]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (j *memJournal) SavePosition(_ context.Context, position *models.PositionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if existing, ok := j.positions[position.NftMint]; ok {
		position.ID = existing.ID
	} else {
		position.ID = j.id()
	}
	j.positions[position.NftMint] = *position
	return nil
}

func (j *memJournal) RecordSubmission(_ context.Context, sub *models.Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.submissions[sub.Signature]; ok {
		return fmt.Errorf("duplicate signature %s", sub.Signature)
	}
	sub.ID = j.id()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	j.submissions[sub.Signature] = *sub
	return nil
}

func (j *memJournal) UpdateSubmission(_ context.Context, signature string, update SubmissionUpdate) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	sub, ok := j.submissions[signature]
	if !ok {
		return fmt.Errorf("submission %s not found", signature)
	}
	sub.Status = update.Status
	sub.Error = update.Error
	if update.Slot != 0 {
		sub.Slot = update.Slot
	}
	if update.ConfirmedAt != nil {
		sub.ConfirmedAt = update.ConfirmedAt
	}
	j.submissions[signature] = sub
	return nil
}

func (j *memJournal) Submission(_ context.Context, signature string) (*models.Submission, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	sub, ok := j.submissions[signature]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (j *memJournal) ListSubmissions(_ context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.Submission
	for _, s := range j.submissions {
		if filter.NftMint != "" && s.NftMint != filter.NftMint {
			continue
		}
		if filter.PoolAddress != "" && s.PoolAddress != filter.PoolAddress {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (j *memJournal) PendingSubmissions(ctx context.Context, limit int) ([]models.Submission, error) {
	subs, err := j.ListSubmissions(ctx, SubmissionFilter{Status: solanapkg.StatusPending, Limit: limit})
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(a, b int) bool { return subs[a].ID < subs[b].ID })
	return subs, nil
}

func (j *memJournal) setCreatedAt(signature string, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	sub := j.submissions[signature]
	sub.CreatedAt = at
	j.submissions[signature] = sub
}

type fakeKeys map[solana.PublicKey]solana.PrivateKey

func (k fakeKeys) Keyring(signers ...solana.PublicKey) (solanapkg.Keyring, error) {
	ring := solanapkg.NewKeyring()
	for _, s := range signers {
		key, ok := k[s]
		if !ok {
			return nil, fmt.Errorf("no keystore entry for %s", s)
		}
		ring.Add(key)
	}
	return ring, nil
}

// fixture is a pool with spacing 10 and an owner whose key is in the keystore.
type fixture struct {
	chain   *fakeChain
	journal *memJournal
	keys    fakeKeys
	svc     *PositionService
	owner   solana.PrivateKey
	pool    clmm.PoolKeys
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		chain:   newFakeChain(),
		journal: newMemJournal(),
		keys:    fakeKeys{},
		owner:   solana.NewWallet().PrivateKey,
	}
	f.keys[f.owner.PublicKey()] = f.owner
	f.svc = NewPositionService(f.chain, f.journal, f.keys, ServiceConfig{
		ClmmProgramID:  clmm.DevnetClmmProgramID,
		ProxyProgramID: clmm.ProxyProgramID,
		AmmConfig:      clmm.DevnetAmmConfig,
	})

	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	f.chain.put(mintA, mintAccount(solana.TokenProgramID, 9))
	f.chain.put(mintB, mintAccount(solana.Token2022ProgramID, 6))

	keys, err := clmm.NewPoolKeys(clmm.DevnetClmmProgramID, clmm.DevnetAmmConfig, 10,
		clmm.MintInfo{Mint: mintA, TokenProgram: solana.TokenProgramID},
		clmm.MintInfo{Mint: mintB, TokenProgram: solana.Token2022ProgramID})
	require.NoError(t, err)
	f.pool = keys
	f.chain.put(keys.Address, &solanapkg.AccountData{Owner: clmm.DevnetClmmProgramID, Data: poolStateData(keys)})
	return f
}

// openOnChain makes mint an open position as the chain would report it.
func (f *fixture) openOnChain(t *testing.T, mint solana.PublicKey, lower, upper int32, liquidity uint64) {
	t.Helper()
	pda, err := clmm.GetPersonalPositionAddress(clmm.DevnetClmmProgramID, mint)
	require.NoError(t, err)
	f.chain.put(pda.PublicKey, &solanapkg.AccountData{
		Owner: clmm.DevnetClmmProgramID,
		Data:  personalPositionData(mint, f.pool.Address, lower, upper, uint128.From64(liquidity)),
	})
}

func (f *fixture) closeOnChain(t *testing.T, mint solana.PublicKey) {
	t.Helper()
	pda, err := clmm.GetPersonalPositionAddress(clmm.DevnetClmmProgramID, mint)
	require.NoError(t, err)
	f.chain.put(pda.PublicKey, nil)
}

// recordOpen journals mint as opened by the fixture owner.
func (f *fixture) recordOpen(t *testing.T, mint solana.PublicKey, lower, upper int32, liquidity string) {
	t.Helper()
	require.NoError(t, f.journal.SavePosition(context.Background(), &models.PositionRecord{
		NftMint:     mint.String(),
		PoolAddress: f.pool.Address.String(),
		Owner:       f.owner.PublicKey().String(),
		TickLower:   lower,
		TickUpper:   upper,
		Liquidity:   liquidity,
		Phase:       "open",
		Retired:     true,
	}))
}

func mintAccount(program solana.PublicKey, decimals uint8) *solanapkg.AccountData {
	data := make([]byte, 82)
	data[44] = decimals
	data[45] = 1 // initialized
	return &solanapkg.AccountData{Owner: program, Data: data}
}

func poolStateData(keys clmm.PoolKeys) []byte {
	data := make([]byte, 1544)
	copy(data, poolStateTag)
	offset := 9
	for _, k := range []solana.PublicKey{
		keys.AmmConfig, solana.NewWallet().PublicKey(), keys.Mint0.Mint, keys.Mint1.Mint,
		keys.Mint0.Vault, keys.Mint1.Vault, keys.Observation,
	} {
		copy(data[offset:], k[:])
		offset += 32
	}
	data[offset] = 9
	data[offset+1] = 6
	offset += 2
	binary.LittleEndian.PutUint16(data[offset:], keys.TickSpacing)
	offset += 2
	uint128.From64(5000).PutBytes(data[offset:])
	offset += 16
	uint128.New(0, 1).PutBytes(data[offset:])
	return data
}

func personalPositionData(mint, pool solana.PublicKey, lower, upper int32, liquidity uint128.Uint128) []byte {
	data := make([]byte, 188)
	copy(data, personalPositionTag)
	copy(data[9:], mint[:])
	copy(data[41:], pool[:])
	binary.LittleEndian.PutUint32(data[73:], uint32(lower))
	binary.LittleEndian.PutUint32(data[77:], uint32(upper))
	liquidity.PutBytes(data[81:])
	binary.LittleEndian.PutUint64(data[129:], 7)
	return data
}
