package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/aiflow"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/auth"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/normalize"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// verifyProfileSvc is the profile surface needed by the AI routes.
type verifyProfileSvc interface {
	GetByID(ctx context.Context, id string) (*profiles.UserProfile, error)
	List(ctx context.Context) ([]*profiles.UserProfile, error)
	MarkSkillVerified(ctx context.Context, userID, skillName string) error
}

// AIHandler handles skill suggestion, snippet preview, and certificate
// verification routes backed by the AI gateway.
type AIHandler struct {
	gateway  aiflow.Gateway
	profiles verifyProfileSvc
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
}

func NewAIHandler(gateway aiflow.Gateway, profiles verifyProfileSvc, tokens *auth.TokenIssuer, logger *zap.Logger) *AIHandler {
	return &AIHandler{gateway: gateway, profiles: profiles, tokens: tokens, logger: logger}
}

// Register mounts AI routes on the provided router group.
func (h *AIHandler) Register(rg *gin.RouterGroup) {
	protected := rg.Group("/ai", auth.RequireUser(h.tokens))
	{
		protected.POST("/suggest-skills", h.SuggestSkills)
		protected.POST("/snippet-preview", h.SnippetPreview)
		protected.POST("/verify-certificate", h.VerifyCertificate)
		protected.POST("/verify-certificate/interactive", h.VerifyCertificateInteractive)
	}
}

type suggestSkillsRequest struct {
	Count int `json:"count"`
}

type snippetPreviewRequest struct {
	Snippet string `json:"snippet" binding:"required"`
	Context string `json:"context"`
}

type verifyCertificateRequest struct {
	SkillName string `json:"skillName" binding:"required"`
	ImageData string `json:"imageData" binding:"required"` // base64-encoded
	MIMEType  string `json:"mimeType"  binding:"required"`
	Message   string `json:"message"` // interactive flow only
}

// SuggestSkills handles POST /ai/suggest-skills — suggests skills the user
// might want to learn, drawn from the community's skill pool.
func (h *AIHandler) SuggestSkills(c *gin.Context) {
	var req suggestSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count <= 0 {
		req.Count = 5
	}
	userID := auth.UserIDFromCtx(c)

	p, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.writeProfileError(c, err, "suggest skills")
		return
	}
	roster, err := h.profiles.List(c.Request.Context())
	if err != nil {
		h.writeProfileError(c, err, "suggest skills")
		return
	}

	suggestions, err := h.gateway.SuggestSkills(c.Request.Context(), userSkillNames(p), communitySkills(roster), req.Count)
	if err != nil {
		h.logger.Error("suggest skills", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "skill suggestion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// SnippetPreview handles POST /ai/snippet-preview — renders a rich preview
// of a shared code snippet.
func (h *AIHandler) SnippetPreview(c *gin.Context) {
	var req snippetPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preview, err := h.gateway.GenerateSnippetPreview(c.Request.Context(), req.Snippet, req.Context)
	if err != nil {
		h.logger.Error("snippet preview", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "preview generation failed"})
		return
	}
	c.JSON(http.StatusOK, preview)
}

// VerifyCertificate handles POST /ai/verify-certificate — the single-shot
// verification flow. A VERIFIED outcome marks the skill on the user's
// teach list.
func (h *AIHandler) VerifyCertificate(c *gin.Context) {
	req, cert, p, ok := h.bindVerifyRequest(c)
	if !ok {
		return
	}

	result, err := h.gateway.VerifyCertificate(c.Request.Context(), p.Name, req.SkillName, cert)
	if err != nil {
		h.logger.Error("verify certificate", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "certificate verification failed"})
		return
	}

	if result.Verified {
		if err := h.markVerified(c, p.ID, req.SkillName); err != nil {
			return
		}
		RecordVerification("verified")
	} else {
		RecordVerification("failed")
	}
	c.JSON(http.StatusOK, result)
}

// VerifyCertificateInteractive handles POST /ai/verify-certificate/interactive.
// The model may answer NEEDS_MORE_INFO with a question; the client repeats
// the call with the user's reply in the message field.
func (h *AIHandler) VerifyCertificateInteractive(c *gin.Context) {
	req, cert, p, ok := h.bindVerifyRequest(c)
	if !ok {
		return
	}

	result, err := h.gateway.VerifyCertificateInteractive(c.Request.Context(), p.Name, req.SkillName, cert, req.Message)
	if err != nil {
		h.logger.Error("verify certificate interactive", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "certificate verification failed"})
		return
	}

	if result.Status == aiflow.StatusVerified {
		if err := h.markVerified(c, p.ID, req.SkillName); err != nil {
			return
		}
	}
	RecordVerification(strings.ToLower(string(result.Status)))
	c.JSON(http.StatusOK, result)
}

func (h *AIHandler) bindVerifyRequest(c *gin.Context) (*verifyCertificateRequest, aiflow.CertificateImage, *profiles.UserProfile, bool) {
	var req verifyCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, aiflow.CertificateImage{}, nil, false
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imageData must be base64-encoded"})
		return nil, aiflow.CertificateImage{}, nil, false
	}

	p, err := h.profiles.GetByID(c.Request.Context(), auth.UserIDFromCtx(c))
	if err != nil {
		h.writeProfileError(c, err, "verify certificate")
		return nil, aiflow.CertificateImage{}, nil, false
	}

	return &req, aiflow.CertificateImage{Data: data, MIMEType: req.MIMEType}, p, true
}

func (h *AIHandler) markVerified(c *gin.Context, userID, skillName string) error {
	err := h.profiles.MarkSkillVerified(c.Request.Context(), userID, skillName)
	if err == nil {
		return nil
	}
	if errors.Is(err, profiles.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skill is not on your teach list"})
		return err
	}
	h.logger.Error("mark skill verified", zap.String("user_id", userID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record verification"})
	return err
}

func (h *AIHandler) writeProfileError(c *gin.Context, err error, op string) {
	if errors.Is(err, profiles.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
}

func userSkillNames(p *profiles.UserProfile) []string {
	names := make([]string, 0, len(p.SkillsToTeach)+len(p.SkillsToLearn))
	for _, s := range p.SkillsToTeach {
		names = append(names, s.Name)
	}
	for _, s := range p.SkillsToLearn {
		names = append(names, s.Name)
	}
	return names
}

// communitySkills collects the distinct skill names taught across the roster.
func communitySkills(roster []*profiles.UserProfile) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range roster {
		for _, s := range p.SkillsToTeach {
			key := normalize.Skill(s.Name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s.Name)
		}
	}
	return out
}
