package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/utils/logger"

	"github.com/gorilla/websocket"
)

// Hub fans refreshed game state out to the viewers of each experience. It
// only holds connection state; game state always comes from the store, so a
// broadcast is a reload of the authoritative view.
type Hub struct {
	store Store

	mu      sync.RWMutex
	viewers map[string]map[string]*Client // experienceID -> userID -> client
}

func NewHub(store Store) *Hub {
	return &Hub{
		store:   store,
		viewers: make(map[string]map[string]*Client),
	}
}

// Join registers a connection and immediately sends the current view so new
// viewers don't wait for the next mutation.
func (h *Hub) Join(experienceID, userID string, conn *websocket.Conn) {
	client := &Client{
		userID: userID,
		conn:   conn,
		hub:    h,
		expID:  experienceID,
		send:   make(chan []byte, 32),
	}

	h.mu.Lock()
	if h.viewers[experienceID] == nil {
		h.viewers[experienceID] = make(map[string]*Client)
	}
	if old, ok := h.viewers[experienceID][userID]; ok {
		old.Close()
	}
	h.viewers[experienceID][userID] = client
	total := len(h.viewers[experienceID])
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	logger.Infof("viewer %s joined experience %s (total=%d)", userID, experienceID, total)
	h.Publish(experienceID)
}

// removeClient drops a departing connection. A reconnect replaces the map
// entry before the old pump's cleanup runs, so only the exact registered
// instance is evicted; a stale cleanup must not take the replacement down.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if clients, ok := h.viewers[c.expID]; ok && clients[c.userID] == c {
		delete(clients, c.userID)
		if len(clients) == 0 {
			delete(h.viewers, c.expID)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// Publish reloads the experience's latest game view and pushes it to every
// connected viewer. Slow consumers get dropped messages, not backpressure.
func (h *Hub) Publish(experienceID string) {
	view, err := h.loadView(experienceID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.Errorf("failed to load view for experience %s: %v", experienceID, err)
		}
		return
	}

	b, err := json.Marshal(view)
	if err != nil {
		logger.Errorf("failed to marshal view for experience %s: %v", experienceID, err)
		return
	}

	for _, c := range h.clientsFor(experienceID) {
		select {
		case c.send <- b:
		default:
			logger.Warnf("dropping update to viewer %s in experience %s", c.userID, experienceID)
		}
	}
}

// NotifyUser pushes a one-off message to a single viewer, best effort.
func (h *Hub) NotifyUser(experienceID, userID, message string) {
	h.mu.RLock()
	client, ok := h.viewers[experienceID][userID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	b, _ := json.Marshal(map[string]string{
		"type":    "notification",
		"message": message,
	})

	select {
	case client.send <- b:
	default:
		logger.Warnf("dropping notification to viewer %s in experience %s", userID, experienceID)
	}
}

// LoadGame is the read path for presentation layers: latest game, per-answer
// counts, and the caller's own vote when userID is set.
func (h *Hub) LoadGame(ctx context.Context, experienceID, userID string) (*models.GameView, error) {
	game, err := h.store.LatestGameByExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	return h.store.GameView(ctx, game, userID)
}

func (h *Hub) loadView(experienceID string) (*models.GameView, error) {
	ctx := context.Background()
	game, err := h.store.LatestGameByExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	// Broadcast view is identity-agnostic; own-vote flags only appear on the
	// per-caller read path.
	return h.store.GameView(ctx, game, "")
}

func (h *Hub) clientsFor(experienceID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.viewers[experienceID]))
	for _, c := range h.viewers[experienceID] {
		clients = append(clients, c)
	}
	return clients
}
