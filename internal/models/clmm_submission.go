package models

import (
	"time"
)

// Submission is one bundle sent to the chain.
type Submission struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Signature   string     `gorm:"type:varchar(88);uniqueIndex;not null" json:"signature"`
	Op          string     `gorm:"type:varchar(32);not null" json:"op"`
	NftMint     string     `gorm:"type:varchar(44);index" json:"nft_mint,omitempty"`
	PoolAddress string     `gorm:"type:varchar(44);index;not null" json:"pool_address"`
	Status      string     `gorm:"type:varchar(20);index;not null" json:"status"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	Slot        uint64     `json:"slot,omitempty"`
	Liquidity   string     `gorm:"type:varchar(40)" json:"liquidity,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Submission) TableName() string {
	return "clmm_submissions"
}
