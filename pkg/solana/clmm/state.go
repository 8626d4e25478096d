package clmm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// PoolState is the leading part of the CLMM PoolState account.
type PoolState struct {
	Bump           uint8
	AmmConfig      solana.PublicKey
	Owner          solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	TokenVault0    solana.PublicKey
	TokenVault1    solana.PublicKey
	ObservationKey solana.PublicKey
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16
	Liquidity      uint128.Uint128
	SqrtPriceX64   uint128.Uint128
	TickCurrent    int32
}

const poolStateMinSize = 8 + 1 + 32*7 + 1 + 1 + 2 + 16 + 16 + 4

// DecodePoolState decodes the pool account data fetched from chain.
func DecodePoolState(data []byte) (*PoolState, error) {
	if len(data) < poolStateMinSize {
		return nil, fmt.Errorf("pool state too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], poolStateDiscriminator[:]) {
		return nil, fmt.Errorf("account is not a CLMM pool state")
	}

	offset := 8
	s := &PoolState{}
	s.Bump = data[offset]
	offset++
	for _, key := range []*solana.PublicKey{
		&s.AmmConfig, &s.Owner, &s.TokenMint0, &s.TokenMint1,
		&s.TokenVault0, &s.TokenVault1, &s.ObservationKey,
	} {
		*key = solana.PublicKeyFromBytes(data[offset : offset+32])
		offset += 32
	}
	s.MintDecimals0 = data[offset]
	s.MintDecimals1 = data[offset+1]
	offset += 2
	s.TickSpacing = binary.LittleEndian.Uint16(data[offset:])
	offset += 2
	s.Liquidity = uint128.FromBytes(data[offset : offset+16])
	offset += 16
	s.SqrtPriceX64 = uint128.FromBytes(data[offset : offset+16])
	offset += 16
	s.TickCurrent = int32(binary.LittleEndian.Uint32(data[offset:]))
	return s, nil
}

// PersonalPosition is the leading part of the CLMM PersonalPositionState account,
// the per-NFT position record.
type PersonalPosition struct {
	Bump                    uint8
	NftMint                 solana.PublicKey
	PoolID                  solana.PublicKey
	TickLowerIndex          int32
	TickUpperIndex          int32
	Liquidity               uint128.Uint128
	FeeGrowthInside0LastX64 uint128.Uint128
	FeeGrowthInside1LastX64 uint128.Uint128
	TokenFeesOwed0          uint64
	TokenFeesOwed1          uint64
}

const personalPositionMinSize = 8 + 1 + 32 + 32 + 4 + 4 + 16 + 16 + 16 + 8 + 8

// DecodePersonalPosition decodes the personal position account data fetched from chain.
func DecodePersonalPosition(data []byte) (*PersonalPosition, error) {
	if len(data) < personalPositionMinSize {
		return nil, fmt.Errorf("personal position too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], personalPositionDiscriminator[:]) {
		return nil, fmt.Errorf("account is not a CLMM personal position")
	}

	p := &PersonalPosition{}
	p.Bump = data[8]
	p.NftMint = solana.PublicKeyFromBytes(data[9:41])
	p.PoolID = solana.PublicKeyFromBytes(data[41:73])
	p.TickLowerIndex = int32(binary.LittleEndian.Uint32(data[73:77]))
	p.TickUpperIndex = int32(binary.LittleEndian.Uint32(data[77:81]))
	p.Liquidity = uint128.FromBytes(data[81:97])
	p.FeeGrowthInside0LastX64 = uint128.FromBytes(data[97:113])
	p.FeeGrowthInside1LastX64 = uint128.FromBytes(data[113:129])
	p.TokenFeesOwed0 = binary.LittleEndian.Uint64(data[129:137])
	p.TokenFeesOwed1 = binary.LittleEndian.Uint64(data[137:145])
	return p, nil
}
