package clmm

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// MintInfo is one side of a pool as supplied by a caller: the mint and the token program owning it.
type MintInfo struct {
	Mint         solana.PublicKey `json:"mint"`
	TokenProgram solana.PublicKey `json:"token_program"`
}

// PoolMint is one canonical side of a pool.
type PoolMint struct {
	Mint         solana.PublicKey `json:"mint"`
	TokenProgram solana.PublicKey `json:"token_program"`
	Vault        solana.PublicKey `json:"vault"`
}

// PoolKeys holds every address of a CLMM pool needed to compose proxy instructions.
// Mint0 always orders strictly before Mint1 by raw address bytes.
type PoolKeys struct {
	ProgramID       solana.PublicKey `json:"program_id"`
	Address         solana.PublicKey `json:"address"`
	AmmConfig       solana.PublicKey `json:"amm_config"`
	TickSpacing     uint16           `json:"tick_spacing"`
	Mint0           PoolMint         `json:"mint_0"`
	Mint1           PoolMint         `json:"mint_1"`
	Observation     solana.PublicKey `json:"observation"`
	BitmapExtension solana.PublicKey `json:"bitmap_extension"`
}

func isTokenProgram(p solana.PublicKey) bool {
	return p.Equals(solana.TokenProgramID) || p.Equals(solana.Token2022ProgramID)
}

// SortMints orders a and b canonically. Identical mints are rejected since a pool needs two
// distinct tokens.
func SortMints(a, b MintInfo) (MintInfo, MintInfo, error) {
	switch bytes.Compare(a.Mint[:], b.Mint[:]) {
	case 0:
		return a, b, invalid(OpInitialize, "pool mints must differ, got %s twice", a.Mint)
	case 1:
		return b, a, nil
	}
	return a, b, nil
}

// NewPoolKeys canonicalizes the mint pair and derives all pool addresses.
func NewPoolKeys(programID, ammConfig solana.PublicKey, tickSpacing uint16, a, b MintInfo) (PoolKeys, error) {
	if tickSpacing == 0 {
		return PoolKeys{}, invalid(OpInitialize, "tick spacing must be positive")
	}
	for _, m := range []MintInfo{a, b} {
		if m.Mint.IsZero() {
			return PoolKeys{}, invalid(OpInitialize, "mint is required")
		}
		if !isTokenProgram(m.TokenProgram) {
			return PoolKeys{}, invalid(OpInitialize, "mint %s has unsupported token program %s", m.Mint, m.TokenProgram)
		}
	}
	m0, m1, err := SortMints(a, b)
	if err != nil {
		return PoolKeys{}, err
	}

	pool, err := GetPoolAddress(programID, ammConfig, m0.Mint, m1.Mint)
	if err != nil {
		return PoolKeys{}, err
	}
	return completePoolKeys(PoolKeys{
		ProgramID:   programID,
		Address:     pool.PublicKey,
		AmmConfig:   ammConfig,
		TickSpacing: tickSpacing,
		Mint0:       PoolMint{Mint: m0.Mint, TokenProgram: m0.TokenProgram},
		Mint1:       PoolMint{Mint: m1.Mint, TokenProgram: m1.TokenProgram},
	})
}

// PoolKeysFromState builds keys for an existing pool from its decoded account. The token
// programs are the owners of the two mint accounts.
func PoolKeysFromState(programID, address solana.PublicKey, state *PoolState, tokenProgram0, tokenProgram1 solana.PublicKey) (PoolKeys, error) {
	if state.TickSpacing == 0 {
		return PoolKeys{}, invalid("", "pool %s has zero tick spacing", address)
	}
	if !isTokenProgram(tokenProgram0) || !isTokenProgram(tokenProgram1) {
		return PoolKeys{}, invalid("", "pool %s mints have unsupported token programs", address)
	}
	expected, err := GetPoolAddress(programID, state.AmmConfig, state.TokenMint0, state.TokenMint1)
	if err != nil {
		return PoolKeys{}, err
	}
	if !expected.PublicKey.Equals(address) {
		return PoolKeys{}, invalid("", "pool %s does not match derived address %s", address, expected.PublicKey)
	}
	keys := PoolKeys{
		ProgramID:   programID,
		Address:     address,
		AmmConfig:   state.AmmConfig,
		TickSpacing: state.TickSpacing,
		Mint0:       PoolMint{Mint: state.TokenMint0, TokenProgram: tokenProgram0, Vault: state.TokenVault0},
		Mint1:       PoolMint{Mint: state.TokenMint1, TokenProgram: tokenProgram1, Vault: state.TokenVault1},
		Observation: state.ObservationKey,
	}
	return completePoolKeys(keys)
}

// completePoolKeys fills any derived address still missing.
func completePoolKeys(keys PoolKeys) (PoolKeys, error) {
	if keys.Mint0.Vault.IsZero() {
		v, err := GetPoolVaultAddress(keys.ProgramID, keys.Address, keys.Mint0.Mint)
		if err != nil {
			return PoolKeys{}, err
		}
		keys.Mint0.Vault = v.PublicKey
	}
	if keys.Mint1.Vault.IsZero() {
		v, err := GetPoolVaultAddress(keys.ProgramID, keys.Address, keys.Mint1.Mint)
		if err != nil {
			return PoolKeys{}, err
		}
		keys.Mint1.Vault = v.PublicKey
	}
	if keys.Observation.IsZero() {
		o, err := GetObservationAddress(keys.ProgramID, keys.Address)
		if err != nil {
			return PoolKeys{}, err
		}
		keys.Observation = o.PublicKey
	}
	ext, err := GetTickArrayBitmapExtensionAddress(keys.ProgramID, keys.Address)
	if err != nil {
		return PoolKeys{}, err
	}
	keys.BitmapExtension = ext.PublicKey
	return keys, nil
}
