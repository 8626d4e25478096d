package clmm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// accountField is one slot of an instruction's fixed account list.
type accountField struct {
	name     string
	key      solana.PublicKey
	writable bool
	signer   bool
}

// zeroKeySlots may legitimately hold the all-zero key: the system program id is
// 11111111111111111111111111111111.
var zeroKeySlots = map[string]bool{
	"system_program": true,
}

// accountList is implemented by the typed account structs below. Each returns its slots in
// the exact order the proxy program declares them.
type accountList interface {
	fields() []accountField
}

// instructionArgs is implemented by the typed argument structs below.
type instructionArgs interface {
	discriminator() [8]byte
	encode(enc *bin.Encoder) error
}

// ProxyInstruction is a fully populated call into the proxy program.
type ProxyInstruction struct {
	Op   Op
	Args instructionArgs

	programID               solana.PublicKey
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func (inst *ProxyInstruction) ProgramID() solana.PublicKey {
	return inst.programID
}

func (inst *ProxyInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.AccountMetaSlice
}

// Data serializes the discriminator followed by the Borsh-encoded arguments.
func (inst *ProxyInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	disc := inst.Args.discriminator()
	if _, err := buf.Write(disc[:]); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}
	if err := inst.Args.encode(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("failed to encode %s args: %w", inst.Op, err)
	}
	return buf.Bytes(), nil
}

// newProxyInstruction checks that every slot is populated, then lays out the accounts
// followed by the remaining accounts.
func newProxyInstruction(programID solana.PublicKey, op Op, accounts accountList, args instructionArgs, remaining ...*solana.AccountMeta) (*ProxyInstruction, error) {
	if programID.IsZero() {
		return nil, invalid(op, "proxy program id is not set")
	}
	fields := accounts.fields()
	metas := make(solana.AccountMetaSlice, 0, len(fields)+len(remaining))
	for _, f := range fields {
		if f.key.IsZero() && !zeroKeySlots[f.name] {
			return nil, invalid(op, "account %s is missing", f.name)
		}
		metas = append(metas, solana.NewAccountMeta(f.key, f.writable, f.signer))
	}
	for _, r := range remaining {
		if r == nil || r.PublicKey.IsZero() {
			return nil, invalid(op, "remaining account is missing")
		}
		metas = append(metas, r)
	}

	return &ProxyInstruction{
		Op:               op,
		Args:             args,
		programID:        programID,
		AccountMetaSlice: metas,
	}, nil
}

func writeUint128(enc *bin.Encoder, v uint128.Uint128) error {
	if err := enc.WriteUint64(v.Lo, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint64(v.Hi, binary.LittleEndian)
}

// InitializeAccounts are the accounts of proxy_initialize.
type InitializeAccounts struct {
	ClmmProgram      solana.PublicKey
	PoolCreator      solana.PublicKey
	AmmConfig        solana.PublicKey
	PoolState        solana.PublicKey
	TokenMint0       solana.PublicKey
	TokenMint1       solana.PublicKey
	TokenVault0      solana.PublicKey
	TokenVault1      solana.PublicKey
	ObservationState solana.PublicKey
	TickArrayBitmap  solana.PublicKey
	TokenProgram0    solana.PublicKey
	TokenProgram1    solana.PublicKey
	SystemProgram    solana.PublicKey
	Rent             solana.PublicKey
}

func (a InitializeAccounts) fields() []accountField {
	return []accountField{
		{"clmm_program", a.ClmmProgram, false, false},
		{"pool_creator", a.PoolCreator, true, true},
		{"amm_config", a.AmmConfig, false, false},
		{"pool_state", a.PoolState, true, false},
		{"token_mint_0", a.TokenMint0, false, false},
		{"token_mint_1", a.TokenMint1, false, false},
		{"token_vault_0", a.TokenVault0, true, false},
		{"token_vault_1", a.TokenVault1, true, false},
		{"observation_state", a.ObservationState, true, false},
		{"tick_array_bitmap", a.TickArrayBitmap, true, false},
		{"token_program_0", a.TokenProgram0, false, false},
		{"token_program_1", a.TokenProgram1, false, false},
		{"system_program", a.SystemProgram, false, false},
		{"rent", a.Rent, false, false},
	}
}

type InitializeArgs struct {
	SqrtPriceX64 uint128.Uint128
	OpenTime     uint64
}

func (InitializeArgs) discriminator() [8]byte { return proxyInitializeDiscriminator }

func (a InitializeArgs) encode(enc *bin.Encoder) error {
	if err := writeUint128(enc, a.SqrtPriceX64); err != nil {
		return err
	}
	return enc.WriteUint64(a.OpenTime, binary.LittleEndian)
}

// OpenPositionAccounts are the accounts of proxy_open_position.
type OpenPositionAccounts struct {
	ClmmProgram            solana.PublicKey
	Payer                  solana.PublicKey
	PositionNftOwner       solana.PublicKey
	PositionNftMint        solana.PublicKey
	PositionNftAccount     solana.PublicKey
	MetadataAccount        solana.PublicKey
	PoolState              solana.PublicKey
	ProtocolPosition       solana.PublicKey
	TickArrayLower         solana.PublicKey
	TickArrayUpper         solana.PublicKey
	PersonalPosition       solana.PublicKey
	TokenAccount0          solana.PublicKey
	TokenAccount1          solana.PublicKey
	TokenVault0            solana.PublicKey
	TokenVault1            solana.PublicKey
	Rent                   solana.PublicKey
	SystemProgram          solana.PublicKey
	TokenProgram           solana.PublicKey
	AssociatedTokenProgram solana.PublicKey
	MetadataProgram        solana.PublicKey
	TokenProgram2022       solana.PublicKey
	Vault0Mint             solana.PublicKey
	Vault1Mint             solana.PublicKey
}

func (a OpenPositionAccounts) fields() []accountField {
	return []accountField{
		{"clmm_program", a.ClmmProgram, false, false},
		{"payer", a.Payer, true, true},
		{"position_nft_owner", a.PositionNftOwner, false, false},
		{"position_nft_mint", a.PositionNftMint, true, true},
		{"position_nft_account", a.PositionNftAccount, true, false},
		{"metadata_account", a.MetadataAccount, true, false},
		{"pool_state", a.PoolState, true, false},
		{"protocol_position", a.ProtocolPosition, true, false},
		{"tick_array_lower", a.TickArrayLower, true, false},
		{"tick_array_upper", a.TickArrayUpper, true, false},
		{"personal_position", a.PersonalPosition, true, false},
		{"token_account_0", a.TokenAccount0, true, false},
		{"token_account_1", a.TokenAccount1, true, false},
		{"token_vault_0", a.TokenVault0, true, false},
		{"token_vault_1", a.TokenVault1, true, false},
		{"rent", a.Rent, false, false},
		{"system_program", a.SystemProgram, false, false},
		{"token_program", a.TokenProgram, false, false},
		{"associated_token_program", a.AssociatedTokenProgram, false, false},
		{"metadata_program", a.MetadataProgram, false, false},
		{"token_program_2022", a.TokenProgram2022, false, false},
		{"vault_0_mint", a.Vault0Mint, false, false},
		{"vault_1_mint", a.Vault1Mint, false, false},
	}
}

type OpenPositionArgs struct {
	TickLowerIndex           int32
	TickUpperIndex           int32
	TickArrayLowerStartIndex int32
	TickArrayUpperStartIndex int32
	Liquidity                uint128.Uint128
	Amount0Max               uint64
	Amount1Max               uint64
	WithMetadata             bool
}

func (OpenPositionArgs) discriminator() [8]byte { return proxyOpenPositionDiscriminator }

func (a OpenPositionArgs) encode(enc *bin.Encoder) error {
	for _, v := range []int32{a.TickLowerIndex, a.TickUpperIndex, a.TickArrayLowerStartIndex, a.TickArrayUpperStartIndex} {
		if err := enc.WriteInt32(v, binary.LittleEndian); err != nil {
			return err
		}
	}
	if err := writeUint128(enc, a.Liquidity); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Amount0Max, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Amount1Max, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteBool(a.WithMetadata)
}

// IncreaseLiquidityAccounts are the accounts of proxy_increase_liquidity.
type IncreaseLiquidityAccounts struct {
	ClmmProgram      solana.PublicKey
	NftOwner         solana.PublicKey
	NftAccount       solana.PublicKey
	PoolState        solana.PublicKey
	ProtocolPosition solana.PublicKey
	PersonalPosition solana.PublicKey
	TickArrayLower   solana.PublicKey
	TickArrayUpper   solana.PublicKey
	TokenAccount0    solana.PublicKey
	TokenAccount1    solana.PublicKey
	TokenVault0      solana.PublicKey
	TokenVault1      solana.PublicKey
	TokenProgram     solana.PublicKey
	TokenProgram2022 solana.PublicKey
	Vault0Mint       solana.PublicKey
	Vault1Mint       solana.PublicKey
}

func (a IncreaseLiquidityAccounts) fields() []accountField {
	return []accountField{
		{"clmm_program", a.ClmmProgram, false, false},
		{"nft_owner", a.NftOwner, false, true},
		{"nft_account", a.NftAccount, false, false},
		{"pool_state", a.PoolState, true, false},
		{"protocol_position", a.ProtocolPosition, true, false},
		{"personal_position", a.PersonalPosition, true, false},
		{"tick_array_lower", a.TickArrayLower, true, false},
		{"tick_array_upper", a.TickArrayUpper, true, false},
		{"token_account_0", a.TokenAccount0, true, false},
		{"token_account_1", a.TokenAccount1, true, false},
		{"token_vault_0", a.TokenVault0, true, false},
		{"token_vault_1", a.TokenVault1, true, false},
		{"token_program", a.TokenProgram, false, false},
		{"token_program_2022", a.TokenProgram2022, false, false},
		{"vault_0_mint", a.Vault0Mint, false, false},
		{"vault_1_mint", a.Vault1Mint, false, false},
	}
}

type IncreaseLiquidityArgs struct {
	Liquidity  uint128.Uint128
	Amount0Max uint64
	Amount1Max uint64
	BaseFlag   *bool
}

func (IncreaseLiquidityArgs) discriminator() [8]byte { return proxyIncreaseLiquidityDiscriminator }

func (a IncreaseLiquidityArgs) encode(enc *bin.Encoder) error {
	if err := writeUint128(enc, a.Liquidity); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Amount0Max, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Amount1Max, binary.LittleEndian); err != nil {
		return err
	}
	// Option<bool>
	if a.BaseFlag == nil {
		return enc.WriteBool(false)
	}
	if err := enc.WriteBool(true); err != nil {
		return err
	}
	return enc.WriteBool(*a.BaseFlag)
}

// DecreaseLiquidityAccounts are the accounts of proxy_decrease_liquidity.
type DecreaseLiquidityAccounts struct {
	ClmmProgram            solana.PublicKey
	NftOwner               solana.PublicKey
	NftAccount             solana.PublicKey
	PersonalPosition       solana.PublicKey
	PoolState              solana.PublicKey
	ProtocolPosition       solana.PublicKey
	TokenVault0            solana.PublicKey
	TokenVault1            solana.PublicKey
	TickArrayLower         solana.PublicKey
	TickArrayUpper         solana.PublicKey
	RecipientTokenAccount0 solana.PublicKey
	RecipientTokenAccount1 solana.PublicKey
	TokenProgram           solana.PublicKey
	TokenProgram2022       solana.PublicKey
	MemoProgram            solana.PublicKey
	Vault0Mint             solana.PublicKey
	Vault1Mint             solana.PublicKey
}

func (a DecreaseLiquidityAccounts) fields() []accountField {
	return []accountField{
		{"clmm_program", a.ClmmProgram, false, false},
		{"nft_owner", a.NftOwner, false, true},
		{"nft_account", a.NftAccount, false, false},
		{"personal_position", a.PersonalPosition, true, false},
		{"pool_state", a.PoolState, true, false},
		{"protocol_position", a.ProtocolPosition, true, false},
		{"token_vault_0", a.TokenVault0, true, false},
		{"token_vault_1", a.TokenVault1, true, false},
		{"tick_array_lower", a.TickArrayLower, true, false},
		{"tick_array_upper", a.TickArrayUpper, true, false},
		{"recipient_token_account_0", a.RecipientTokenAccount0, true, false},
		{"recipient_token_account_1", a.RecipientTokenAccount1, true, false},
		{"token_program", a.TokenProgram, false, false},
		{"token_program_2022", a.TokenProgram2022, false, false},
		{"memo_program", a.MemoProgram, false, false},
		{"vault_0_mint", a.Vault0Mint, false, false},
		{"vault_1_mint", a.Vault1Mint, false, false},
	}
}

type DecreaseLiquidityArgs struct {
	Liquidity  uint128.Uint128
	Amount0Min uint64
	Amount1Min uint64
}

func (DecreaseLiquidityArgs) discriminator() [8]byte { return proxyDecreaseLiquidityDiscriminator }

func (a DecreaseLiquidityArgs) encode(enc *bin.Encoder) error {
	if err := writeUint128(enc, a.Liquidity); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Amount0Min, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint64(a.Amount1Min, binary.LittleEndian)
}

// ClosePositionAccounts are the accounts of proxy_close_position.
type ClosePositionAccounts struct {
	ClmmProgram        solana.PublicKey
	NftOwner           solana.PublicKey
	PositionNftMint    solana.PublicKey
	PositionNftAccount solana.PublicKey
	PersonalPosition   solana.PublicKey
	SystemProgram      solana.PublicKey
	TokenProgram       solana.PublicKey
}

func (a ClosePositionAccounts) fields() []accountField {
	return []accountField{
		{"clmm_program", a.ClmmProgram, false, false},
		{"nft_owner", a.NftOwner, true, true},
		{"position_nft_mint", a.PositionNftMint, true, false},
		{"position_nft_account", a.PositionNftAccount, true, false},
		{"personal_position", a.PersonalPosition, true, false},
		{"system_program", a.SystemProgram, false, false},
		{"token_program", a.TokenProgram, false, false},
	}
}

type ClosePositionArgs struct{}

func (ClosePositionArgs) discriminator() [8]byte { return proxyClosePositionDiscriminator }

func (ClosePositionArgs) encode(*bin.Encoder) error { return nil }
