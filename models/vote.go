package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CurrencyUSD is the single supported currency. Payment confirmations in any
// other currency are dropped.
const CurrencyUSD = "usd"

// Vote is written only from a confirmed payment event, never from the submit
// endpoint. The unique index on (game_id, user_id) is what enforces
// one-vote-per-voter; concurrent double submission is rejected by postgres,
// not by application checks.
type Vote struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	AnswerID       string    `gorm:"size:64;not null;index" json:"answer_id"`
	GameID         string    `gorm:"size:64;not null;uniqueIndex:unique_game_id_user_id" json:"game_id"`
	UserID         string    `gorm:"size:64;not null;uniqueIndex:unique_game_id_user_id" json:"user_id"`
	ReceiptID      string    `gorm:"size:64;not null" json:"receipt_id"`
	PaidAmount     float64   `gorm:"not null" json:"paid_amount"`
	ReceivedAmount float64   `gorm:"not null" json:"received_amount"` // net of provider fee
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
