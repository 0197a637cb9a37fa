package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransferStatus string

const (
	TransferSent   TransferStatus = "sent"
	TransferFailed TransferStatus = "failed"
)

// Transfer records every payout attempt made during settlement. Payouts stay
// fire-and-forget, so failed rows are the trail for out-of-band remediation.
type Transfer struct {
	ID             string         `gorm:"primaryKey;size:64" json:"id"`
	GameID         string         `gorm:"size:64;not null;index" json:"game_id"`
	RecipientID    string         `gorm:"size:64;not null" json:"recipient_id"`
	Amount         float64        `gorm:"not null" json:"amount"`
	IdempotencyKey string         `gorm:"size:128;not null;uniqueIndex" json:"idempotency_key"`
	Status         TransferStatus `gorm:"size:16;not null" json:"status"`
	Detail         datatypes.JSON `json:"detail"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (t *Transfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
