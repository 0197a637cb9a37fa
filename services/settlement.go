package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/utils/logger"

	"gorm.io/datatypes"
)

const (
	// Winners collectively receive 80% of the fee-adjusted pool. The house
	// takes 10% when there are winners, or the full 80% winners' share when
	// nobody picked the correct answer.
	winnersShare          = 0.8
	houseShareWithWinners = 0.1
	houseShareNoWinners   = 0.8

	// Transfers below one currency unit are skipped, not rounded up; the
	// provider rejects sub-minimum transfers. Skipped amounts are accepted
	// shrinkage, never redistributed.
	minTransferAmount = 1.0
)

// Settlement computes the payout split and issues transfers. It is invoked
// only from the reveal transition, which guarantees at most one run per game;
// the per-recipient idempotency keys guard the provider side on top of that.
type Settlement struct {
	store            Store
	provider         PaymentProvider
	companyAccountID string
}

func NewSettlement(store Store, provider PaymentProvider, companyAccountID string) *Settlement {
	return &Settlement{
		store:            store,
		provider:         provider,
		companyAccountID: companyAccountID,
	}
}

// Settle distributes the game's pool across the winning voters and the
// house. Individual transfer failures are logged and recorded per recipient;
// they never abort sibling transfers.
func (s *Settlement) Settle(ctx context.Context, gameID, winningAnswerID, experienceID string) error {
	pool, err := s.store.TotalPool(ctx, gameID)
	if err != nil {
		return err
	}
	if pool <= 0 {
		// Nothing was collected, nothing to distribute.
		logger.Infof("game %s settled with empty pool", gameID)
		return nil
	}

	fee, err := s.provider.TransferFeePercent(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch transfer fee: %w", err)
	}
	distributable := pool * (100 - fee) / 100

	winners, err := s.store.VotesByAnswer(ctx, winningAnswerID)
	if err != nil {
		return err
	}

	housePct := houseShareWithWinners
	if len(winners) == 0 {
		housePct = houseShareNoWinners
	}
	houseAmount := roundCents(distributable * housePct)

	if len(winners) > 0 {
		perWinner := roundCents(distributable * winnersShare / float64(len(winners)))

		var wg sync.WaitGroup
		for _, w := range winners {
			wg.Add(1)
			go func(v models.Vote) {
				defer wg.Done()
				s.payout(ctx, gameID, v.UserID, perWinner)
			}(w)
		}
		wg.Wait()
	}

	s.payout(ctx, gameID, s.companyAccountID, houseAmount)

	logger.Infof("game %s payout done: pool=%.2f fee=%.1f%% winners=%d house=%.2f",
		gameID, pool, fee, len(winners), houseAmount)
	return nil
}

// payout issues one transfer and records the attempt. The idempotency key is
// deterministic per (recipient, game) so provider-side retries never
// double-pay.
func (s *Settlement) payout(ctx context.Context, gameID, recipientID string, amount float64) {
	if amount < minTransferAmount {
		logger.Infof("skipping transfer of %.2f to %s for game %s: below minimum", amount, recipientID, gameID)
		return
	}

	key := fmt.Sprintf("%s-%s", recipientID, gameID)
	err := s.provider.PayUser(ctx, PayoutRequest{
		RecipientID:    recipientID,
		Amount:         amount,
		Currency:       models.CurrencyUSD,
		IdempotencyKey: key,
		Notes:          "Payout for game",
	})

	record := &models.Transfer{
		GameID:         gameID,
		RecipientID:    recipientID,
		Amount:         amount,
		IdempotencyKey: key,
		Status:         models.TransferSent,
	}
	detail := map[string]string{"currency": models.CurrencyUSD}
	if err != nil {
		logger.Errorf("transfer to %s for game %s failed: %v", recipientID, gameID, err)
		record.Status = models.TransferFailed
		detail["error"] = err.Error()
	}
	if raw, jsonErr := json.Marshal(detail); jsonErr == nil {
		record.Detail = datatypes.JSON(raw)
	}

	if err := s.store.CreateTransfer(ctx, record); err != nil {
		logger.Errorf("failed to record transfer %s: %v", key, err)
	}
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
