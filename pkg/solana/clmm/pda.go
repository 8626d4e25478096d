package clmm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// PdaResult represents the result of PDA derivation
type PdaResult struct {
	PublicKey solana.PublicKey `json:"address"`
	Nonce     uint8            `json:"bump"`
}

// i32ToBytes encodes a tick or start index the way the CLMM program seeds it (big-endian).
func i32ToBytes(num int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(num))
	return b
}

func u16ToBytes(num uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, num)
	return b
}

func findProgramAddress(name string, seeds [][]byte, programID solana.PublicKey) (PdaResult, error) {
	pda, nonce, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return PdaResult{}, &DerivationError{Seed: name, Err: err}
	}
	return PdaResult{PublicKey: pda, Nonce: nonce}, nil
}

// GetPoolAddress derives the pool state account; mint0 and mint1 must already be in canonical order.
func GetPoolAddress(programID, ammConfig, mint0, mint1 solana.PublicKey) (PdaResult, error) {
	return findProgramAddress("pool", [][]byte{
		poolSeed,
		ammConfig.Bytes(),
		mint0.Bytes(),
		mint1.Bytes(),
	}, programID)
}

// GetPoolVaultAddress derives the pool's token vault for mint.
func GetPoolVaultAddress(programID, pool, mint solana.PublicKey) (PdaResult, error) {
	return findProgramAddress("pool vault", [][]byte{
		poolVaultSeed,
		pool.Bytes(),
		mint.Bytes(),
	}, programID)
}

// GetTickArrayAddress derives the tick array account starting at startIndex.
func GetTickArrayAddress(programID, pool solana.PublicKey, startIndex int32) (PdaResult, error) {
	return findProgramAddress("tick array", [][]byte{
		tickArraySeed,
		pool.Bytes(),
		i32ToBytes(startIndex),
	}, programID)
}

// GetTickArrayBitmapExtensionAddress derives the pool's bitmap extension account.
func GetTickArrayBitmapExtensionAddress(programID, pool solana.PublicKey) (PdaResult, error) {
	return findProgramAddress("tick array bitmap extension", [][]byte{
		bitmapExtensionSeed,
		pool.Bytes(),
	}, programID)
}

// GetPersonalPositionAddress derives the position state owned by the position NFT.
func GetPersonalPositionAddress(programID, nftMint solana.PublicKey) (PdaResult, error) {
	return findProgramAddress("personal position", [][]byte{
		positionSeed,
		nftMint.Bytes(),
	}, programID)
}

// GetProtocolPositionAddress derives the aggregate position shared by every NFT on the same range.
func GetProtocolPositionAddress(programID, pool solana.PublicKey, tickLower, tickUpper int32) (PdaResult, error) {
	return findProgramAddress("protocol position", [][]byte{
		positionSeed,
		pool.Bytes(),
		i32ToBytes(tickLower),
		i32ToBytes(tickUpper),
	}, programID)
}

func GetObservationAddress(programID, pool solana.PublicKey) (PdaResult, error) {
	return findProgramAddress("observation", [][]byte{
		observationSeed,
		pool.Bytes(),
	}, programID)
}

func GetAmmConfigAddress(programID solana.PublicKey, index uint16) (PdaResult, error) {
	return findProgramAddress("amm config", [][]byte{
		ammConfigSeed,
		u16ToBytes(index),
	}, programID)
}

// GetNftMetadataAddress derives the token-metadata account of the position NFT.
func GetNftMetadataAddress(nftMint solana.PublicKey) (PdaResult, error) {
	return findProgramAddress("nft metadata", [][]byte{
		metadataSeed,
		MetadataProgramID.Bytes(),
		nftMint.Bytes(),
	}, MetadataProgramID)
}

// GetAssociatedTokenAddress derives owner's associated account for mint under tokenProgram
// (legacy SPL Token or Token-2022).
func GetAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (PdaResult, error) {
	return findProgramAddress("associated token account", [][]byte{
		owner.Bytes(),
		tokenProgram.Bytes(),
		mint.Bytes(),
	}, solana.SPLAssociatedTokenAccountProgramID)
}
