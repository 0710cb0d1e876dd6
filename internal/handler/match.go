package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/aiflow"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/auth"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/matching"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// matchSvc is the interface expected by MatchHandler, satisfied by
// *matching.Service.
type matchSvc interface {
	FindMatches(ctx context.Context, userID string) ([]matching.Match, error)
	FindMatchesAI(ctx context.Context, userID string) ([]aiflow.ScoredMatch, error)
}

// MatchHandler handles partner-matching routes.
type MatchHandler struct {
	matches matchSvc
	tokens  *auth.TokenIssuer
	logger  *zap.Logger
}

func NewMatchHandler(matches matchSvc, tokens *auth.TokenIssuer, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{matches: matches, tokens: tokens, logger: logger}
}

// Register mounts match routes on the provided router group.
func (h *MatchHandler) Register(rg *gin.RouterGroup) {
	protected := rg.Group("", auth.RequireUser(h.tokens))
	{
		protected.GET("/matches", h.FindMatches)
		protected.GET("/matches/ai", h.FindMatchesAI)
	}
}

// FindMatches handles GET /matches — the deterministic mutual-benefit matcher.
func (h *MatchHandler) FindMatches(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)

	matches, err := h.matches.FindMatches(c.Request.Context(), userID)
	if err != nil {
		h.writeMatchError(c, userID, err)
		return
	}
	RecordMatchRun("deterministic")
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// FindMatchesAI handles GET /matches/ai — AI-scored matching.
func (h *MatchHandler) FindMatchesAI(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)

	matches, err := h.matches.FindMatchesAI(c.Request.Context(), userID)
	if err != nil {
		h.writeMatchError(c, userID, err)
		return
	}
	RecordMatchRun("ai")
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *MatchHandler) writeMatchError(c *gin.Context, userID string, err error) {
	switch {
	case errors.Is(err, profiles.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, matching.ErrRosterUnavailable):
		h.logger.Error("roster unavailable", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "user roster is temporarily unavailable"})
	default:
		h.logger.Error("find matches", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "matching failed"})
	}
}
