package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CreateGameRequest struct {
	ExperienceID string   `json:"experience_id" binding:"required"`
	Question     string   `json:"question" binding:"required"`
	AnswerCost   int      `json:"answer_cost" binding:"required"`
	Answers      []string `json:"answers" binding:"required"`
}

// CreateGame opens a new game for an experience (admin only)
func (h *Handler) CreateGame(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.Lifecycle.CreateGame(c.Request.Context(), userID, req.ExperienceID, req.Question, req.AnswerCost, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

// CloseBidding ends the voting window (admin only, idempotent)
func (h *Handler) CloseBidding(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	if err := h.Lifecycle.CloseBidding(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// RevealAnswer settles the game on the chosen answer (admin only, idempotent)
func (h *Handler) RevealAnswer(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	if err := h.Lifecycle.RevealAnswer(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "settled"})
}

// LoadGame returns the experience's latest game with aggregate vote counts
// and the caller's own vote
func (h *Handler) LoadGame(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	view, err := h.Hub.LoadGame(c.Request.Context(), c.Param("experience_id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
