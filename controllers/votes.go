package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubmitVote charges the caller for a vote on the answer. Returns the
// purchase handle to complete; the vote is recorded once payment confirms.
func (h *Handler) SubmitVote(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	purchase, err := h.Intake.SubmitVote(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if purchase == nil {
		// Already voted; nothing to pay for.
		c.JSON(http.StatusOK, gin.H{"status": "already_voted"})
		return
	}

	c.JSON(http.StatusOK, purchase)
}
