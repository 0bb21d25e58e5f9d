package models

import "time"

// Transaction journal statuses.
const (
	TxSubmitted = "submitted"
	TxConfirmed = "confirmed"
	TxFailed    = "failed"
	TxReverted  = "reverted"
)

// TxRecord journals a contract write sent by this node.
type TxRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TxHash    string    `gorm:"size:66;uniqueIndex" json:"tx_hash"`
	Method    string    `gorm:"size:64;index;not null" json:"method"`
	Target    string    `gorm:"size:128;index" json:"target"`
	Account   string    `gorm:"size:42;index;not null" json:"account"`
	Status    string    `gorm:"size:16;index;not null" json:"status"`
	Block     uint64    `json:"block"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
