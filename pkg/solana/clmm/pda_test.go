package clmm

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T, tickSpacing uint16) PoolKeys {
	t.Helper()
	a := MintInfo{Mint: solana.NewWallet().PublicKey(), TokenProgram: solana.TokenProgramID}
	b := MintInfo{Mint: solana.NewWallet().PublicKey(), TokenProgram: solana.Token2022ProgramID}
	keys, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, tickSpacing, a, b)
	require.NoError(t, err)
	return keys
}

func TestDerivation(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	t.Run("Derivations Are Idempotent", func(t *testing.T) {
		derivations := map[string]func() (PdaResult, error){
			"pool": func() (PdaResult, error) { return GetPoolAddress(DevnetClmmProgramID, DevnetAmmConfig, mint, owner) },
			"vault": func() (PdaResult, error) { return GetPoolVaultAddress(DevnetClmmProgramID, pool, mint) },
			"tick array": func() (PdaResult, error) { return GetTickArrayAddress(DevnetClmmProgramID, pool, -600) },
			"bitmap extension": func() (PdaResult, error) {
				return GetTickArrayBitmapExtensionAddress(DevnetClmmProgramID, pool)
			},
			"personal position": func() (PdaResult, error) { return GetPersonalPositionAddress(DevnetClmmProgramID, mint) },
			"protocol position": func() (PdaResult, error) {
				return GetProtocolPositionAddress(DevnetClmmProgramID, pool, -10, 10)
			},
			"observation": func() (PdaResult, error) { return GetObservationAddress(DevnetClmmProgramID, pool) },
			"amm config":  func() (PdaResult, error) { return GetAmmConfigAddress(DevnetClmmProgramID, 0) },
			"metadata":    func() (PdaResult, error) { return GetNftMetadataAddress(mint) },
			"ata": func() (PdaResult, error) {
				return GetAssociatedTokenAddress(owner, mint, solana.Token2022ProgramID)
			},
		}
		for name, derive := range derivations {
			first, err := derive()
			require.NoError(t, err, name)
			second, err := derive()
			require.NoError(t, err, name)
			assert.Equal(t, first, second, "%s derivation should be stable", name)
			assert.False(t, first.PublicKey.IsZero(), name)
		}
	})

	t.Run("Tick Array Seeds Use Big Endian", func(t *testing.T) {
		assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xc4}, i32ToBytes(-60))
		assert.Equal(t, []byte{0x00, 0x00, 0x02, 0x58}, i32ToBytes(600))

		low, err := GetTickArrayAddress(DevnetClmmProgramID, pool, -600)
		require.NoError(t, err)
		high, err := GetTickArrayAddress(DevnetClmmProgramID, pool, 0)
		require.NoError(t, err)
		assert.NotEqual(t, low.PublicKey, high.PublicKey)
	})

	t.Run("Protocol Position Depends On Range", func(t *testing.T) {
		a, err := GetProtocolPositionAddress(DevnetClmmProgramID, pool, -10, 10)
		require.NoError(t, err)
		b, err := GetProtocolPositionAddress(DevnetClmmProgramID, pool, -10, 20)
		require.NoError(t, err)
		assert.NotEqual(t, a.PublicKey, b.PublicKey)
	})

	t.Run("Legacy ATA Matches solana-go", func(t *testing.T) {
		ours, err := GetAssociatedTokenAddress(owner, mint, solana.TokenProgramID)
		require.NoError(t, err)
		theirs, _, err := solana.FindAssociatedTokenAddress(owner, mint)
		require.NoError(t, err)
		assert.Equal(t, theirs, ours.PublicKey)
	})

	t.Run("Token Program Changes ATA", func(t *testing.T) {
		legacy, err := GetAssociatedTokenAddress(owner, mint, solana.TokenProgramID)
		require.NoError(t, err)
		ext, err := GetAssociatedTokenAddress(owner, mint, solana.Token2022ProgramID)
		require.NoError(t, err)
		assert.NotEqual(t, legacy.PublicKey, ext.PublicKey)
	})
}

func TestNewPoolKeys(t *testing.T) {
	a := MintInfo{Mint: solana.NewWallet().PublicKey(), TokenProgram: solana.TokenProgramID}
	b := MintInfo{Mint: solana.NewWallet().PublicKey(), TokenProgram: solana.Token2022ProgramID}

	t.Run("Mint Order Is Canonical", func(t *testing.T) {
		ab, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, 10, a, b)
		require.NoError(t, err)
		ba, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, 10, b, a)
		require.NoError(t, err)

		assert.Equal(t, ab, ba)
		assert.Negative(t, compareKeys(ab.Mint0.Mint, ab.Mint1.Mint))
	})

	t.Run("Token Programs Follow Their Mints", func(t *testing.T) {
		keys, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, 10, a, b)
		require.NoError(t, err)
		for _, m := range []PoolMint{keys.Mint0, keys.Mint1} {
			if m.Mint.Equals(a.Mint) {
				assert.Equal(t, solana.TokenProgramID, m.TokenProgram)
			} else {
				assert.Equal(t, solana.Token2022ProgramID, m.TokenProgram)
			}
		}
	})

	t.Run("Derived Addresses", func(t *testing.T) {
		keys, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, 10, a, b)
		require.NoError(t, err)

		pool, err := GetPoolAddress(DevnetClmmProgramID, DevnetAmmConfig, keys.Mint0.Mint, keys.Mint1.Mint)
		require.NoError(t, err)
		vault0, err := GetPoolVaultAddress(DevnetClmmProgramID, pool.PublicKey, keys.Mint0.Mint)
		require.NoError(t, err)
		ext, err := GetTickArrayBitmapExtensionAddress(DevnetClmmProgramID, pool.PublicKey)
		require.NoError(t, err)

		assert.Equal(t, pool.PublicKey, keys.Address)
		assert.Equal(t, vault0.PublicKey, keys.Mint0.Vault)
		assert.Equal(t, ext.PublicKey, keys.BitmapExtension)
	})

	t.Run("Rejects Identical Mints", func(t *testing.T) {
		_, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, 10, a, a)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Rejects Zero Spacing", func(t *testing.T) {
		_, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, 0, a, b)
		assert.Error(t, err)
	})

	t.Run("Rejects Unknown Token Program", func(t *testing.T) {
		bad := MintInfo{Mint: solana.NewWallet().PublicKey(), TokenProgram: solana.SystemProgramID}
		_, err := NewPoolKeys(DevnetClmmProgramID, DevnetAmmConfig, 10, a, bad)
		assert.Error(t, err)
	})
}

func compareKeys(a, b solana.PublicKey) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
