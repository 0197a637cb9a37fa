package services

import (
	"context"
	"time"

	"github.com/abenezerk/predict-backend/models"
)

// Store is the slice of the repository the services depend on. The repository
// package provides the gorm/postgres implementation; tests substitute an
// in-memory fake with the same compare-and-swap semantics.
type Store interface {
	CreateGameWithAnswers(ctx context.Context, game *models.Game, answers []string) error
	GameByID(ctx context.Context, gameID string) (*models.Game, error)
	GameByAnswerID(ctx context.Context, answerID string) (*models.Game, *models.Answer, error)
	OpenGameByExperience(ctx context.Context, experienceID string) (*models.Game, error)
	LatestGameByExperience(ctx context.Context, experienceID string) (*models.Game, error)
	MarkCompleted(ctx context.Context, gameID string, at time.Time) (bool, error)
	MarkCorrectAnswer(ctx context.Context, gameID, answerID string) (bool, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	VoteByGameAndUser(ctx context.Context, gameID, userID string) (*models.Vote, error)
	TotalPool(ctx context.Context, gameID string) (float64, error)
	VotesByAnswer(ctx context.Context, answerID string) ([]models.Vote, error)
	CreateTransfer(ctx context.Context, transfer *models.Transfer) error
	GameView(ctx context.Context, game *models.Game, userID string) (*models.GameView, error)
}

// Broadcaster pushes refreshed game state to connected viewers. Delivery is
// best-effort; no acknowledgment is awaited.
type Broadcaster interface {
	Publish(experienceID string)
	NotifyUser(experienceID, userID, message string)
}
