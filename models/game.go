package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Game lifecycle: open (completed_at null) -> closed (completed_at set)
// -> settled (correct_answer_id set). Transitions are one-directional and
// performed only through conditional updates in the repository.
type Game struct {
	ID              string     `gorm:"primaryKey;size:64" json:"id"`
	Question        string     `gorm:"not null" json:"question"`
	AnswerCost      int        `gorm:"not null" json:"answer_cost"` // price per vote, whole currency units
	ExperienceID    string     `gorm:"size:64;not null;index" json:"experience_id"`
	CreatedByUserID string     `gorm:"size:64;not null" json:"created_by_user_id"`
	CompletedAt     *time.Time `json:"completed_at"`
	CorrectAnswerID *string    `gorm:"size:64" json:"correct_answer_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

func (g *Game) IsOpen() bool {
	return g.CompletedAt == nil && g.CorrectAnswerID == nil
}

func (g *Game) IsSettled() bool {
	return g.CorrectAnswerID != nil
}

// Status derives the lifecycle state for clients.
func (g *Game) Status() string {
	switch {
	case g.CorrectAnswerID != nil:
		return "settled"
	case g.CompletedAt != nil:
		return "closed"
	default:
		return "open"
	}
}
