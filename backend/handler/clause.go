package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClauseSuggester returns improvement suggestions for a clause. It never fails.
type ClauseSuggester interface {
	SuggestClauses(ctx context.Context, clauseType, clauseText string) []string
}

type ClauseHandler struct {
	suggester ClauseSuggester
}

func NewClauseHandler(suggester ClauseSuggester) *ClauseHandler {
	return &ClauseHandler{suggester: suggester}
}

type SuggestionRequest struct {
	ClauseType string `json:"clause_type" binding:"required"`
	Context    string `json:"context" binding:"required"`
}

// Suggest handles POST /api/clauses/suggestions
func (h *ClauseHandler) Suggest(c *gin.Context) {
	var req SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if strings.TrimSpace(req.ClauseType) == "" || strings.TrimSpace(req.Context) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clause_type and context must not be blank"})
		return
	}

	suggestions := h.suggester.SuggestClauses(c.Request.Context(), strings.TrimSpace(req.ClauseType), req.Context)

	c.JSON(http.StatusOK, gin.H{
		"clause_type": req.ClauseType,
		"suggestions": suggestions,
	})
}
