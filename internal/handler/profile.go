package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/auth"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// profileSvc is the interface expected by ProfileHandler, satisfied by
// *profiles.Service.
type profileSvc interface {
	GetByID(ctx context.Context, id string) (*profiles.UserProfile, error)
	List(ctx context.Context) ([]*profiles.UserProfile, error)
	AddTeachSkill(ctx context.Context, userID, name string) (*profiles.UserProfile, error)
	AddLearnSkill(ctx context.Context, userID, name string) (*profiles.UserProfile, error)
	RemoveTeachSkill(ctx context.Context, userID, name string) (*profiles.UserProfile, error)
	RemoveLearnSkill(ctx context.Context, userID, name string) (*profiles.UserProfile, error)
	CompleteOnboarding(ctx context.Context, userID string) error
}

// ProfileHandler handles profile and skill-list routes.
type ProfileHandler struct {
	profiles profileSvc
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
}

func NewProfileHandler(profiles profileSvc, tokens *auth.TokenIssuer, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, tokens: tokens, logger: logger}
}

// Register mounts profile routes on the provided router group.
func (h *ProfileHandler) Register(rg *gin.RouterGroup) {
	protected := rg.Group("", auth.RequireUser(h.tokens))
	{
		protected.GET("/users", h.ListUsers)
		protected.GET("/users/me", h.GetMe)
		protected.GET("/users/:id", h.GetUser)
		protected.POST("/users/me/skills/:list", h.AddSkill)
		protected.DELETE("/users/me/skills/:list", h.RemoveSkill)
		protected.POST("/users/me/onboarding/complete", h.CompleteOnboarding)
	}
}

type skillRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListUsers handles GET /users — returns the community roster.
func (h *ProfileHandler) ListUsers(c *gin.Context) {
	roster, err := h.profiles.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": roster})
}

// GetMe handles GET /users/me — returns the authenticated user's profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	h.getProfile(c, auth.UserIDFromCtx(c))
}

// GetUser handles GET /users/:id — returns another user's profile.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	h.getProfile(c, c.Param("id"))
}

func (h *ProfileHandler) getProfile(c *gin.Context, id string) {
	p, err := h.profiles.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get profile", zap.String("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// AddSkill handles POST /users/me/skills/:list where :list is "teach" or "learn".
func (h *ProfileHandler) AddSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := auth.UserIDFromCtx(c)

	var (
		p   *profiles.UserProfile
		err error
	)
	switch c.Param("list") {
	case "teach":
		p, err = h.profiles.AddTeachSkill(c.Request.Context(), userID, req.Name)
	case "learn":
		p, err = h.profiles.AddLearnSkill(c.Request.Context(), userID, req.Name)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown skill list"})
		return
	}
	if err != nil {
		h.writeSkillError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemoveSkill handles DELETE /users/me/skills/:list. The skill name comes
// from the "name" query parameter.
func (h *ProfileHandler) RemoveSkill(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}
	userID := auth.UserIDFromCtx(c)

	var (
		p   *profiles.UserProfile
		err error
	)
	switch c.Param("list") {
	case "teach":
		p, err = h.profiles.RemoveTeachSkill(c.Request.Context(), userID, name)
	case "learn":
		p, err = h.profiles.RemoveLearnSkill(c.Request.Context(), userID, name)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown skill list"})
		return
	}
	if err != nil {
		h.writeSkillError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CompleteOnboarding handles POST /users/me/onboarding/complete.
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)
	if err := h.profiles.CompleteOnboarding(c.Request.Context(), userID); err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("complete onboarding", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete onboarding"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "onboarding completed"})
}

func (h *ProfileHandler) writeSkillError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, profiles.ErrEmptySkill):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, profiles.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		h.logger.Error("update skills", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update skills"})
	}
}
