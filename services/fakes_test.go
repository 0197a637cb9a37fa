package services_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/services"

	"github.com/google/uuid"
)

// fakeStore mirrors the repository's semantics in memory: conditional updates
// are atomic under the mutex and report whether they changed anything, and
// vote inserts enforce the (game, user) uniqueness constraint.
type fakeStore struct {
	mu          sync.Mutex
	games       map[string]*models.Game
	gameOrder   []string
	answers     map[string]*models.Answer
	answerOrder map[string][]string // gameID -> answer IDs in creation order
	votes       []*models.Vote
	transfers   []*models.Transfer

	completedWrites int
	settledWrites   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:       make(map[string]*models.Game),
		answers:     make(map[string]*models.Answer),
		answerOrder: make(map[string][]string),
	}
}

func (s *fakeStore) CreateGameWithAnswers(ctx context.Context, game *models.Game, answers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if game.ID == "" {
		game.ID = uuid.NewString()
	}
	game.CreatedAt = time.Now()
	s.games[game.ID] = game
	s.gameOrder = append(s.gameOrder, game.ID)
	for _, a := range answers {
		answer := &models.Answer{ID: uuid.NewString(), GameID: game.ID, Answer: a}
		s.answers[answer.ID] = answer
		s.answerOrder[game.ID] = append(s.answerOrder[game.ID], answer.ID)
	}
	return nil
}

func (s *fakeStore) addGame(game *models.Game, answerIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
	s.gameOrder = append(s.gameOrder, game.ID)
	for _, id := range answerIDs {
		s.answers[id] = &models.Answer{ID: id, GameID: game.ID, Answer: "option " + id}
		s.answerOrder[game.ID] = append(s.answerOrder[game.ID], id)
	}
}

func (s *fakeStore) addVote(vote *models.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	s.votes = append(s.votes, vote)
}

func (s *fakeStore) game(id string) models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.games[id]
}

func (s *fakeStore) GameByID(ctx context.Context, gameID string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *game
	return &copied, nil
}

func (s *fakeStore) GameByAnswerID(ctx context.Context, answerID string) (*models.Game, *models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[answerID]
	if !ok {
		return nil, nil, models.ErrNotFound
	}
	game, ok := s.games[answer.GameID]
	if !ok {
		return nil, nil, models.ErrNotFound
	}
	copiedGame := *game
	copiedAnswer := *answer
	return &copiedGame, &copiedAnswer, nil
}

func (s *fakeStore) OpenGameByExperience(ctx context.Context, experienceID string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, game := range s.games {
		if game.ExperienceID == experienceID && game.CompletedAt == nil {
			copied := *game
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) LatestGameByExperience(ctx context.Context, experienceID string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.gameOrder) - 1; i >= 0; i-- {
		game := s.games[s.gameOrder[i]]
		if game.ExperienceID == experienceID {
			copied := *game
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) MarkCompleted(ctx context.Context, gameID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok || game.CompletedAt != nil {
		return false, nil
	}
	game.CompletedAt = &at
	s.completedWrites++
	return true, nil
}

func (s *fakeStore) MarkCorrectAnswer(ctx context.Context, gameID, answerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok || game.CorrectAnswerID != nil {
		return false, nil
	}
	game.CorrectAnswerID = &answerID
	s.settledWrites++
	return true, nil
}

func (s *fakeStore) CreateVote(ctx context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.GameID == vote.GameID && v.UserID == vote.UserID {
			return models.ErrDuplicateVote
		}
	}
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	copied := *vote
	s.votes = append(s.votes, &copied)
	return nil
}

func (s *fakeStore) VoteByGameAndUser(ctx context.Context, gameID, userID string) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.GameID == gameID && v.UserID == userID {
			copied := *v
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) TotalPool(ctx context.Context, gameID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, v := range s.votes {
		if v.GameID == gameID {
			total += v.ReceivedAmount
		}
	}
	return total, nil
}

func (s *fakeStore) VotesByAnswer(ctx context.Context, answerID string) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var votes []models.Vote
	for _, v := range s.votes {
		if v.AnswerID == answerID {
			votes = append(votes, *v)
		}
	}
	return votes, nil
}

func (s *fakeStore) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transfers {
		if t.IdempotencyKey == transfer.IdempotencyKey {
			return nil
		}
	}
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	copied := *transfer
	s.transfers = append(s.transfers, &copied)
	return nil
}

func (s *fakeStore) GameView(ctx context.Context, game *models.Game, userID string) (*models.GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := &models.GameView{Game: *game, Status: game.Status()}
	for _, answerID := range s.answerOrder[game.ID] {
		answer := s.answers[answerID]
		av := models.AnswerView{AnswerID: answer.ID, Answer: answer.Answer}
		for _, v := range s.votes {
			if v.AnswerID == answer.ID {
				av.VoteCount++
				if userID != "" && v.UserID == userID {
					av.DidSelect = true
				}
			}
		}
		view.Answers = append(view.Answers, av)
	}
	for _, v := range s.votes {
		if v.GameID == game.ID {
			view.TotalPool += v.ReceivedAmount
		}
	}
	return view, nil
}

func (s *fakeStore) voteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes)
}

func (s *fakeStore) transferRecords() []models.Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transfer, 0, len(s.transfers))
	for _, t := range s.transfers {
		out = append(out, *t)
	}
	return out
}

// fakeAccess resolves tiers from a static map keyed by user id.
type fakeAccess struct {
	levels map[string]models.AccessLevel
	err    error
}

func (a *fakeAccess) AccessLevel(ctx context.Context, userID, experienceID string) (models.AccessLevel, error) {
	if a.err != nil {
		return models.LevelNone, a.err
	}
	if level, ok := a.levels[userID]; ok {
		return level, nil
	}
	return models.LevelNone, nil
}

// fakeProvider records charges and payouts; failures are injected per
// recipient.
type fakeProvider struct {
	mu      sync.Mutex
	fee     float64
	charges []services.ChargeRequest
	payouts []services.PayoutRequest
	failFor map[string]bool
}

func (p *fakeProvider) ChargeUser(ctx context.Context, req services.ChargeRequest) (*services.Purchase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges = append(p.charges, req)
	return &services.Purchase{ID: fmt.Sprintf("pur_%d", len(p.charges)), CheckoutURL: "https://pay.example/cs"}, nil
}

func (p *fakeProvider) PayUser(ctx context.Context, req services.PayoutRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payouts = append(p.payouts, req)
	if p.failFor[req.RecipientID] {
		return fmt.Errorf("provider rejected transfer to %s", req.RecipientID)
	}
	return nil
}

func (p *fakeProvider) TransferFeePercent(ctx context.Context) (float64, error) {
	return p.fee, nil
}

func (p *fakeProvider) payoutList() []services.PayoutRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]services.PayoutRequest, len(p.payouts))
	copy(out, p.payouts)
	return out
}

func (p *fakeProvider) chargeList() []services.ChargeRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]services.ChargeRequest, len(p.charges))
	copy(out, p.charges)
	return out
}

// fakeHub counts broadcasts and notifications.
type fakeHub struct {
	mu            sync.Mutex
	published     []string
	notifications []string
}

func (h *fakeHub) Publish(experienceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, experienceID)
}

func (h *fakeHub) NotifyUser(experienceID, userID, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, userID+": "+message)
}

func (h *fakeHub) publishCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.published)
}

func (h *fakeHub) notificationCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.notifications)
}
