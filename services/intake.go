package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/utils/logger"
)

// Intake validates vote eligibility and charges the voter. The authoritative
// vote row is only written from the confirmed-payment event; submitting never
// writes, so abandoned checkouts leave no phantom votes behind.
type Intake struct {
	store    Store
	access   AccessChecker
	provider PaymentProvider
	hub      Broadcaster
}

func NewIntake(store Store, access AccessChecker, provider PaymentProvider, hub Broadcaster) *Intake {
	return &Intake{
		store:    store,
		access:   access,
		provider: provider,
		hub:      hub,
	}
}

// SubmitVote checks eligibility and issues a charge for the game's per-vote
// cost. A caller who already voted gets a nil purchase and no error; they are
// never charged twice.
func (i *Intake) SubmitVote(ctx context.Context, userID, answerID string) (*Purchase, error) {
	game, answer, err := i.store.GameByAnswerID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("answer %s: %w", answerID, err)
	}

	if game.CompletedAt != nil || game.CorrectAnswerID != nil {
		return nil, fmt.Errorf("game already completed: %w", models.ErrInvalidState)
	}

	level, err := i.access.AccessLevel(ctx, userID, game.ExperienceID)
	if err != nil {
		return nil, err
	}
	if level == models.LevelAdmin {
		return nil, fmt.Errorf("admins cannot vote: %w", models.ErrForbidden)
	}
	if level != models.LevelMember {
		return nil, fmt.Errorf("no access to experience: %w", models.ErrForbidden)
	}

	if _, err := i.store.VoteByGameAndUser(ctx, game.ID, userID); err == nil {
		// Benign duplicate; the first vote stands.
		return nil, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	purchase, err := i.provider.ChargeUser(ctx, ChargeRequest{
		UserID:   userID,
		Amount:   float64(game.AnswerCost),
		Currency: models.CurrencyUSD,
		Metadata: map[string]string{
			"answerId": answer.ID,
			"gameId":   game.ID,
			"userId":   userID,
		},
	})
	if err != nil {
		return nil, err
	}

	return purchase, nil
}

// RecordConfirmedPayment turns a validated payment-success event into a vote
// row. Malformed events are dropped with a log line; the provider retries on
// its own schedule and a duplicate delivery lands on the unique index, which
// is treated as already recorded rather than an error.
func (i *Intake) RecordConfirmedPayment(ctx context.Context, conf PaymentConfirmation) error {
	if conf.AnswerID == "" {
		return fmt.Errorf("no answerId in metadata for receipt %s: %w", conf.ReceiptID, models.ErrValidation)
	}
	if conf.GameID == "" {
		return fmt.Errorf("no gameId in metadata for receipt %s: %w", conf.ReceiptID, models.ErrValidation)
	}
	if conf.UserID == "" {
		return fmt.Errorf("no payer for receipt %s: %w", conf.ReceiptID, models.ErrValidation)
	}
	if conf.NetAmount == nil {
		return fmt.Errorf("no net amount for receipt %s: %w", conf.ReceiptID, models.ErrValidation)
	}
	if conf.Currency != models.CurrencyUSD {
		return fmt.Errorf("currency %s not supported for receipt %s: %w", conf.Currency, conf.ReceiptID, models.ErrValidation)
	}

	vote := &models.Vote{
		AnswerID:       conf.AnswerID,
		GameID:         conf.GameID,
		UserID:         conf.UserID,
		ReceiptID:      conf.ReceiptID,
		PaidAmount:     conf.Amount,
		ReceivedAmount: *conf.NetAmount,
	}
	if err := i.store.CreateVote(ctx, vote); err != nil {
		if errors.Is(err, models.ErrDuplicateVote) {
			logger.Infof("vote for receipt %s already recorded", conf.ReceiptID)
			return nil
		}
		return err
	}

	logger.Infof("vote recorded: game=%s user=%s paid=%.2f net=%.2f",
		conf.GameID, conf.UserID, conf.Amount, *conf.NetAmount)

	// Best effort from here; a failed broadcast or notification never rolls
	// back the recorded vote.
	go i.afterVote(conf.GameID)
	return nil
}

func (i *Intake) afterVote(gameID string) {
	ctx := context.Background()
	game, err := i.store.GameByID(ctx, gameID)
	if err != nil {
		logger.Errorf("failed to load game %s after vote: %v", gameID, err)
		return
	}

	i.hub.Publish(game.ExperienceID)

	pool, err := i.store.TotalPool(ctx, gameID)
	if err != nil {
		logger.Errorf("failed to load pool for game %s: %v", gameID, err)
		return
	}
	i.hub.NotifyUser(game.ExperienceID, game.CreatedByUserID,
		fmt.Sprintf("New player has submitted their vote! The pot is now at $%.2f", pool))
}
