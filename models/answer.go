package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer options are fixed at game creation, between 2 and 20 per game.
type Answer struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	GameID    string    `gorm:"size:64;not null;index" json:"game_id"`
	Answer    string    `gorm:"not null" json:"answer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	MinAnswersPerGame = 2
	MaxAnswersPerGame = 20
)

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
