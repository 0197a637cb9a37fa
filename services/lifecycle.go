package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/utils/logger"
)

// Lifecycle enforces the game state machine. Every transition is a single
// conditional update in the store; zero rows affected means another caller
// already performed the transition and this call becomes a silent no-op.
type Lifecycle struct {
	store      Store
	access     AccessChecker
	settlement *Settlement
	hub        Broadcaster
}

func NewLifecycle(store Store, access AccessChecker, settlement *Settlement, hub Broadcaster) *Lifecycle {
	return &Lifecycle{
		store:      store,
		access:     access,
		settlement: settlement,
		hub:        hub,
	}
}

// CreateGame opens a new game for the experience. Only one game per
// experience may have bidding open at a time.
func (l *Lifecycle) CreateGame(ctx context.Context, userID, experienceID, question string, answerCost int, answers []string) (*models.Game, error) {
	if err := l.requireAdmin(ctx, userID, experienceID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is required: %w", models.ErrValidation)
	}
	if answerCost <= 0 {
		return nil, fmt.Errorf("answer cost must be positive: %w", models.ErrValidation)
	}
	if len(answers) < models.MinAnswersPerGame || len(answers) > models.MaxAnswersPerGame {
		return nil, fmt.Errorf("between %d and %d answer options required: %w",
			models.MinAnswersPerGame, models.MaxAnswersPerGame, models.ErrValidation)
	}
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		a = strings.TrimSpace(a)
		if a == "" {
			return nil, fmt.Errorf("answer options cannot be empty: %w", models.ErrValidation)
		}
		if seen[a] {
			return nil, fmt.Errorf("duplicate answer option %q: %w", a, models.ErrValidation)
		}
		seen[a] = true
	}

	if _, err := l.store.OpenGameByExperience(ctx, experienceID); err == nil {
		return nil, fmt.Errorf("a running game is already in progress: %w", models.ErrInvalidState)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	game := &models.Game{
		Question:        question,
		AnswerCost:      answerCost,
		ExperienceID:    experienceID,
		CreatedByUserID: userID,
	}
	if err := l.store.CreateGameWithAnswers(ctx, game, answers); err != nil {
		return nil, err
	}

	logger.Infof("game %s created in experience %s with %d answers", game.ID, experienceID, len(answers))
	l.hub.Publish(experienceID)
	return game, nil
}

// CloseBidding ends the voting window. The conditional update on
// completed_at is the only synchronization; a concurrent duplicate call
// observes zero affected rows and returns without error or broadcast.
func (l *Lifecycle) CloseBidding(ctx context.Context, userID, gameID string) error {
	game, err := l.store.GameByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("game %s: %w", gameID, err)
	}

	if err := l.requireAdmin(ctx, userID, game.ExperienceID); err != nil {
		return err
	}

	if game.CompletedAt != nil {
		// Already closed (or settled). Benign for retry-happy clients.
		return nil
	}

	closed, err := l.store.MarkCompleted(ctx, game.ID, time.Now())
	if err != nil {
		return err
	}
	if !closed {
		return nil
	}

	logger.Infof("game %s bidding closed", game.ID)
	l.hub.Publish(game.ExperienceID)
	return nil
}

// RevealAnswer settles the game on the winning answer. The conditional
// update on correct_answer_id guarantees the settlement engine runs at most
// once per game; payout failures are logged, never propagated, because the
// state transition is authoritative regardless of payout outcome.
func (l *Lifecycle) RevealAnswer(ctx context.Context, userID, answerID string) error {
	game, answer, err := l.store.GameByAnswerID(ctx, answerID)
	if err != nil {
		return fmt.Errorf("answer %s: %w", answerID, err)
	}

	if err := l.requireAdmin(ctx, userID, game.ExperienceID); err != nil {
		return err
	}

	if game.CorrectAnswerID != nil {
		return nil
	}
	if game.CompletedAt == nil {
		return fmt.Errorf("bidding must be closed before revealing: %w", models.ErrInvalidState)
	}

	settled, err := l.store.MarkCorrectAnswer(ctx, game.ID, answer.ID)
	if err != nil {
		return err
	}
	if !settled {
		// Another caller won the race; payout already ran there.
		return nil
	}

	if err := l.settlement.Settle(ctx, game.ID, answer.ID, game.ExperienceID); err != nil {
		logger.Errorf("payout for game %s failed: %v", game.ID, err)
	}

	logger.Infof("game %s settled on answer %s", game.ID, answer.ID)
	l.hub.Publish(game.ExperienceID)
	return nil
}

func (l *Lifecycle) requireAdmin(ctx context.Context, userID, experienceID string) error {
	level, err := l.access.AccessLevel(ctx, userID, experienceID)
	if err != nil {
		return err
	}
	if level != models.LevelAdmin {
		return fmt.Errorf("admin access required: %w", models.ErrForbidden)
	}
	return nil
}
