package repository

import (
	"context"
	"errors"

	"github.com/abenezerk/predict-backend/models"

	"gorm.io/gorm"
)

// CreateVote inserts a confirmed vote. A second insert for the same
// (game, user) pair trips the unique index and is reported as
// models.ErrDuplicateVote so callers can treat retried confirmations as
// already recorded.
func (r *Repository) CreateVote(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (r *Repository) VoteByGameAndUser(ctx context.Context, gameID, userID string) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &vote, nil
}

// TotalPool sums the net received amounts over all votes of a game.
func (r *Repository) TotalPool(ctx context.Context, gameID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("game_id = ?", gameID).
		Select("COALESCE(SUM(received_amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *Repository) VotesByAnswer(ctx context.Context, answerID string) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("answer_id = ?", answerID).
		Find(&votes).Error
	return votes, err
}

// CreateTransfer records a payout attempt. Duplicate idempotency keys mean
// the transfer was already attempted for this (recipient, game); the record
// is left untouched.
func (r *Repository) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	if err := r.db.WithContext(ctx).Create(transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}
