package models

import (
	"time"
)

// PoolRecord is a CLMM pool initialized through the proxy, kept so the API can list
// the pools it created. Chain state is always re-read before composing a bundle.
type PoolRecord struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Address       string    `gorm:"type:varchar(44);uniqueIndex;not null" json:"address"`
	ProgramID     string    `gorm:"type:varchar(44);not null" json:"program_id"`
	AmmConfig     string    `gorm:"type:varchar(44);not null" json:"amm_config"`
	Mint0         string    `gorm:"type:varchar(44);not null" json:"mint_0"`
	Mint1         string    `gorm:"type:varchar(44);not null" json:"mint_1"`
	TokenProgram0 string    `gorm:"type:varchar(44);not null" json:"token_program_0"`
	TokenProgram1 string    `gorm:"type:varchar(44);not null" json:"token_program_1"`
	TickSpacing   uint16    `gorm:"not null" json:"tick_spacing"`
	SqrtPriceX64  string    `gorm:"type:varchar(40);not null" json:"sqrt_price_x64"`
	Creator       string    `gorm:"type:varchar(44);not null" json:"creator"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (PoolRecord) TableName() string {
	return "clmm_pools"
}
