package repository

import (
	"context"
	"errors"
	"time"

	"github.com/abenezerk/predict-backend/models"

	"gorm.io/gorm"
)

// Repository provides typed read/write operations over the ledger store. All
// state transitions go through the conditional updates below; callers decide
// what a zero-rows-affected result means.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateGameWithAnswers inserts the game and its answer options in a single
// transaction.
func (r *Repository) CreateGameWithAnswers(ctx context.Context, game *models.Game, answers []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		rows := make([]models.Answer, 0, len(answers))
		for _, a := range answers {
			rows = append(rows, models.Answer{GameID: game.ID, Answer: a})
		}
		return tx.Create(&rows).Error
	})
}

func (r *Repository) GameByID(ctx context.Context, gameID string) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// GameByAnswerID resolves an answer option to its owning game.
func (r *Repository) GameByAnswerID(ctx context.Context, answerID string) (*models.Game, *models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).First(&answer, "id = ?", answerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.ErrNotFound
		}
		return nil, nil, err
	}
	game, err := r.GameByID(ctx, answer.GameID)
	if err != nil {
		return nil, nil, err
	}
	return game, &answer, nil
}

// OpenGameByExperience returns the experience's game with completed_at still
// null, or models.ErrNotFound.
func (r *Repository) OpenGameByExperience(ctx context.Context, experienceID string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Where("experience_id = ? AND completed_at IS NULL", experienceID).
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// LatestGameByExperience returns the most recently created game regardless of
// state, for the read path.
func (r *Repository) LatestGameByExperience(ctx context.Context, experienceID string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Where("experience_id = ?", experienceID).
		Order("created_at DESC").
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// MarkCompleted closes bidding with a compare-and-swap on completed_at.
// Returns false when another caller already closed the game; that result is a
// no-op for the caller, never an error.
func (r *Repository) MarkCompleted(ctx context.Context, gameID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND completed_at IS NULL", gameID).
		Update("completed_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkCorrectAnswer settles the game with a compare-and-swap on
// correct_answer_id. Exactly one concurrent caller observes true; settlement
// runs only for that caller.
func (r *Repository) MarkCorrectAnswer(ctx context.Context, gameID, answerID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND correct_answer_id IS NULL", gameID).
		Update("correct_answer_id", answerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GameView loads the game with per-answer vote counts, the pool total, and
// (when userID is non-empty) the caller's own vote flag.
func (r *Repository) GameView(ctx context.Context, game *models.Game, userID string) (*models.GameView, error) {
	type answerRow struct {
		ID        string
		Answer    string
		VoteCount int64
	}
	var rows []answerRow
	err := r.db.WithContext(ctx).
		Table("answers").
		Select("answers.id, answers.answer, COUNT(votes.id) AS vote_count").
		Joins("LEFT JOIN votes ON votes.answer_id = answers.id").
		Where("answers.game_id = ?", game.ID).
		Group("answers.id, answers.answer, answers.created_at").
		Order("answers.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var own *models.Vote
	if userID != "" {
		own, err = r.VoteByGameAndUser(ctx, game.ID, userID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	pool, err := r.TotalPool(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	answers := make([]models.AnswerView, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, models.AnswerView{
			AnswerID:  row.ID,
			Answer:    row.Answer,
			VoteCount: row.VoteCount,
			DidSelect: own != nil && own.AnswerID == row.ID,
		})
	}

	return &models.GameView{
		Game:      *game,
		Status:    game.Status(),
		TotalPool: pool,
		Answers:   answers,
	}, nil
}
