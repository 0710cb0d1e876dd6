package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/auth"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// OAuthProviderConfig holds OAuth client credentials for a single provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// authSvc is the interface expected by AuthHandler, satisfied by *auth.Service.
type authSvc interface {
	Signup(ctx context.Context, name, email, password string) (*profiles.UserProfile, error)
	Login(ctx context.Context, email, password string) (*profiles.UserProfile, error)
	LoginOAuth(ctx context.Context, name, email, photoURL string) (*profiles.UserProfile, bool, error)
}

// AuthHandler handles user authentication routes.
type AuthHandler struct {
	auth        authSvc
	tokens      *auth.TokenIssuer
	oauthCfgs   map[string]*oauth2.Config
	frontendURL string // used to redirect after OAuth callback
	logger      *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
// oauthProviders may be nil or empty to disable OAuth routes.
func NewAuthHandler(
	authSvc authSvc,
	tokens *auth.TokenIssuer,
	oauthProviders map[string]OAuthProviderConfig,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:        authSvc,
		tokens:      tokens,
		oauthCfgs:   buildOAuthConfigs(oauthProviders),
		frontendURL: "http://localhost:3000",
		logger:      logger,
	}
}

// SetFrontendURL sets the base URL of the frontend for OAuth callback redirects.
func (h *AuthHandler) SetFrontendURL(url string) {
	h.frontendURL = url
}

// buildOAuthConfigs converts the raw provider config map into oauth2.Config instances.
func buildOAuthConfigs(providers map[string]OAuthProviderConfig) map[string]*oauth2.Config {
	cfgs := make(map[string]*oauth2.Config)
	for name, p := range providers {
		if p.ClientID == "" || p.ClientSecret == "" {
			continue
		}
		if name != "google" {
			continue
		}
		cfgs[name] = &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return cfgs
}

// Register mounts all auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	{
		a.POST("/signup", h.Signup)
		a.POST("/login", h.Login)
		a.POST("/logout", h.Logout)
		a.GET("/oauth/:provider", h.OAuthRedirect)
		a.GET("/oauth/:provider/callback", h.OAuthCallback)
	}
}

type signupRequest struct {
	Name     string `json:"name"     binding:"required"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup handles POST /auth/signup — creates a new account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, profiles.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, auth.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("signup", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		}
		return
	}

	tok, err := h.tokens.Issue(p.ID, p.Email)
	if err != nil {
		h.logger.Error("issue session token after signup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": p, "token": tok})
}

// Login handles POST /auth/login — authenticates with email/password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tok, err := h.tokens.Issue(p.ID, p.Email)
	if err != nil {
		h.logger.Error("issue session token after login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": p, "token": tok})
}

// Logout handles POST /auth/logout.
// JWTs are stateless so revocation is client-side: the client discards the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out — discard your token client-side"})
}

// OAuthRedirect handles GET /auth/oauth/:provider — redirects to the OAuth provider.
func (h *AuthHandler) OAuthRedirect(c *gin.Context) {
	provider := c.Param("provider")
	cfg, ok := h.oauthCfgs[provider]
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("OAuth provider %q not configured", provider)})
		return
	}

	state, err := h.tokens.IssueOAuthState(provider)
	if err != nil {
		h.logger.Error("generate oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate OAuth state"})
		return
	}

	c.Redirect(http.StatusFound, cfg.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// OAuthCallback handles GET /auth/oauth/:provider/callback.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	cfg, ok := h.oauthCfgs[provider]
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("OAuth provider %q not configured", provider)})
		return
	}

	// Validate state to prevent CSRF
	gotProvider, err := h.tokens.VerifyOAuthState(c.Query("state"))
	if err != nil || gotProvider != provider {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OAuth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		errMsg := c.Query("error_description")
		if errMsg == "" {
			errMsg = c.Query("error")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth authorization failed: " + errMsg})
		return
	}

	oauthToken, err := cfg.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth code exchange failed"})
		return
	}

	email, name, picture, err := fetchGoogleUserInfo(c.Request.Context(), oauthToken.AccessToken)
	if err != nil {
		h.logger.Error("fetch oauth user info", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user info from provider"})
		return
	}

	p, _, err := h.auth.LoginOAuth(c.Request.Context(), name, email, picture)
	if err != nil {
		h.logger.Error("oauth login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process OAuth login"})
		return
	}

	tok, err := h.tokens.Issue(p.ID, p.Email)
	if err != nil {
		h.logger.Error("issue session token after oauth", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	// Redirect the browser to the frontend callback page with the token in the
	// URL fragment (#). Fragments are never sent to the server, so the token
	// stays client-side only.
	c.Redirect(http.StatusFound, h.frontendURL+"/oauth/callback#token="+tok)
}

func fetchGoogleUserInfo(ctx context.Context, accessToken string) (email, name, picture string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", "", "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", "", "", fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", "", "", fmt.Errorf("parse google user info: %w", err)
	}
	return info.Email, info.Name, info.Picture, nil
}
