package clmm

import (
	"github.com/gagliardetto/solana-go"
)

const (
	// TickArraySize is the number of ticks stored in one tick array account.
	TickArraySize = 60
	// TickArrayBitmapSize is the number of tick arrays tracked by the pool's inline bitmap per side.
	TickArrayBitmapSize = 512
	// ExtensionTickArrayBitmapSize is the number of bitmap pages per side in the extension account.
	ExtensionTickArrayBitmapSize = 14

	MinTick int32 = -443636
	MaxTick int32 = 443636

	// DefaultComputeUnits is the compute-unit ceiling placed in front of every proxy instruction.
	DefaultComputeUnits uint32 = 400000
)

// Program ids
var (
	DevnetClmmProgramID = solana.MustPublicKeyFromBase58("devi51mZmdwUJGU9hjN27vEz64Gps7uUefqxg27EAtH")
	DevnetAmmConfig     = solana.MustPublicKeyFromBase58("CQYbhr6amxUER4p5SC44C63R4qw4NFc9Z4Db9vF4tZwG")
	ProxyProgramID      = solana.MustPublicKeyFromBase58("FZVj5H8DrZ6jwRpEwmN4reLN1khdUEKiD54oBkcjfYfN")

	MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	MemoProgramID     = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
)

// PDA seeds
var (
	poolSeed            = []byte("pool")
	poolVaultSeed       = []byte("pool_vault")
	tickArraySeed       = []byte("tick_array")
	bitmapExtensionSeed = []byte("pool_tick_array_bitmap_extension")
	positionSeed        = []byte("position")
	observationSeed     = []byte("observation")
	ammConfigSeed       = []byte("amm_config")
	metadataSeed        = []byte("metadata")
)

// Anchor discriminators of the proxy program instructions.
var (
	proxyInitializeDiscriminator        = [8]byte{185, 41, 170, 16, 237, 245, 76, 134}
	proxyOpenPositionDiscriminator      = [8]byte{132, 25, 14, 151, 120, 136, 194, 196}
	proxyIncreaseLiquidityDiscriminator = [8]byte{226, 97, 26, 222, 75, 125, 88, 92}
	proxyDecreaseLiquidityDiscriminator = [8]byte{197, 58, 211, 99, 115, 200, 109, 92}
	proxyClosePositionDiscriminator     = [8]byte{188, 254, 167, 206, 227, 160, 46, 228}
)

// Anchor discriminators of the CLMM accounts decoded by this package.
var (
	poolStateDiscriminator        = [8]byte{247, 237, 227, 245, 215, 195, 222, 70}
	personalPositionDiscriminator = [8]byte{70, 111, 150, 126, 230, 15, 25, 117}
)
