package models

import "time"

// Pin kinds.
const (
	PinText  = "text"
	PinImage = "image"
	PinJSON  = "json"
)

// PinRecord records content pinned through this node.
type PinRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CID       string    `gorm:"size:128;index;not null" json:"cid"`
	Name      string    `gorm:"size:255" json:"name"`
	Size      int64     `json:"size"`
	Kind      string    `gorm:"size:16;not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
