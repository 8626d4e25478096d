package models

import (
	"time"
)

// PositionRecord is the audit trail of a position NFT. Liquidity and the tick range are
// the values last confirmed by this service. Retired is set once an open has been
// confirmed, which lets a missing chain account read as closed instead of unopened.
type PositionRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	NftMint     string    `gorm:"type:varchar(44);uniqueIndex;not null" json:"nft_mint"`
	PoolAddress string    `gorm:"type:varchar(44);index;not null" json:"pool_address"`
	Owner       string    `gorm:"type:varchar(44);not null" json:"owner"`
	TickLower   int32     `gorm:"not null" json:"tick_lower"`
	TickUpper   int32     `gorm:"not null" json:"tick_upper"`
	Liquidity   string    `gorm:"type:varchar(40);not null;default:0" json:"liquidity"`
	Phase       string    `gorm:"type:varchar(20);not null" json:"phase"`
	Retired     bool      `gorm:"not null;default:false" json:"retired"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PositionRecord) TableName() string {
	return "clmm_positions"
}
