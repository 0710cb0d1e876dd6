package handler_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/aiflow"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/auth"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/handler"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// ── Stubs ─────────────────────────────────────────────────────────────────

type stubGateway struct {
	aiflow.Gateway
	verifyResult      *aiflow.VerifyResult
	interactiveResult *aiflow.InteractiveVerifyResult
	suggestions       []string
	err               error
}

func (s *stubGateway) SuggestSkills(_ context.Context, _, _ []string, _ int) ([]string, error) {
	return s.suggestions, s.err
}

func (s *stubGateway) VerifyCertificate(_ context.Context, _, _ string, _ aiflow.CertificateImage) (*aiflow.VerifyResult, error) {
	return s.verifyResult, s.err
}

func (s *stubGateway) VerifyCertificateInteractive(_ context.Context, _, _ string, _ aiflow.CertificateImage, _ string) (*aiflow.InteractiveVerifyResult, error) {
	return s.interactiveResult, s.err
}

type stubVerifyProfiles struct {
	profile  *profiles.UserProfile
	verified []string
}

func (s *stubVerifyProfiles) GetByID(_ context.Context, id string) (*profiles.UserProfile, error) {
	if s.profile == nil || s.profile.ID != id {
		return nil, profiles.ErrNotFound
	}
	return s.profile, nil
}

func (s *stubVerifyProfiles) List(_ context.Context) ([]*profiles.UserProfile, error) {
	if s.profile == nil {
		return nil, nil
	}
	return []*profiles.UserProfile{s.profile}, nil
}

func (s *stubVerifyProfiles) MarkSkillVerified(_ context.Context, _, skillName string) error {
	s.verified = append(s.verified, skillName)
	return nil
}

// ── Test setup ────────────────────────────────────────────────────────────

func setupAIRouter(t *testing.T, gw *stubGateway, prof *stubVerifyProfiles) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenIssuer("test-secret", "http://test", time.Hour)
	tok, err := tokens.Issue("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	h := handler.NewAIHandler(gw, prof, tokens, zap.NewNop())

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.Register(v1)
	return r, tok
}

func aliceProfile() *profiles.UserProfile {
	return &profiles.UserProfile{
		ID:   "alice",
		Name: "Alice",
		SkillsToTeach: []profiles.TeachSkill{
			{Name: "Go"},
		},
	}
}

func certBody(message string) string {
	img := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	body := fmt.Sprintf(`{"skillName":"Go","imageData":%q,"mimeType":"image/png"`, img)
	if message != "" {
		body += fmt.Sprintf(`,"message":%q`, message)
	}
	return body + "}"
}

// ── Tests ─────────────────────────────────────────────────────────────────

func TestSuggestSkills_200(t *testing.T) {
	gw := &stubGateway{suggestions: []string{"Rust", "Piano"}}
	router, tok := setupAIRouter(t, gw, &stubVerifyProfiles{profile: aliceProfile()})

	w := doJSON(t, router, http.MethodPost, "/api/v1/ai/suggest-skills", tok, `{"count":2}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyCertificate_VerifiedMarksSkill(t *testing.T) {
	gw := &stubGateway{verifyResult: &aiflow.VerifyResult{Verified: true, Reason: "certificate matches"}}
	prof := &stubVerifyProfiles{profile: aliceProfile()}
	router, tok := setupAIRouter(t, gw, prof)

	w := doJSON(t, router, http.MethodPost, "/api/v1/ai/verify-certificate", tok, certBody(""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(prof.verified) != 1 || prof.verified[0] != "Go" {
		t.Fatalf("expected Go to be marked verified, got %v", prof.verified)
	}
}

func TestVerifyCertificate_FailedDoesNotMarkSkill(t *testing.T) {
	gw := &stubGateway{verifyResult: &aiflow.VerifyResult{Verified: false, Reason: "name mismatch"}}
	prof := &stubVerifyProfiles{profile: aliceProfile()}
	router, tok := setupAIRouter(t, gw, prof)

	w := doJSON(t, router, http.MethodPost, "/api/v1/ai/verify-certificate", tok, certBody(""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(prof.verified) != 0 {
		t.Fatalf("failed verification must not mark skills, got %v", prof.verified)
	}
}

func TestVerifyCertificateInteractive_NeedsMoreInfo(t *testing.T) {
	gw := &stubGateway{interactiveResult: &aiflow.InteractiveVerifyResult{
		Status:        aiflow.StatusNeedsMoreInfo,
		MessageToUser: "The certificate says A. Kumar — is that you?",
	}}
	prof := &stubVerifyProfiles{profile: aliceProfile()}
	router, tok := setupAIRouter(t, gw, prof)

	w := doJSON(t, router, http.MethodPost, "/api/v1/ai/verify-certificate/interactive", tok, certBody(""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(prof.verified) != 0 {
		t.Fatalf("NEEDS_MORE_INFO must not mark skills, got %v", prof.verified)
	}
}

func TestVerifyCertificateInteractive_VerifiedAfterReply(t *testing.T) {
	gw := &stubGateway{interactiveResult: &aiflow.InteractiveVerifyResult{
		Status: aiflow.StatusVerified,
		Reason: "user confirmed the shortened name",
	}}
	prof := &stubVerifyProfiles{profile: aliceProfile()}
	router, tok := setupAIRouter(t, gw, prof)

	w := doJSON(t, router, http.MethodPost, "/api/v1/ai/verify-certificate/interactive", tok,
		certBody("Yes, A. Kumar is me"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(prof.verified) != 1 {
		t.Fatalf("VERIFIED must mark the skill, got %v", prof.verified)
	}
}

func TestVerifyCertificate_BadBase64_400(t *testing.T) {
	router, tok := setupAIRouter(t, &stubGateway{}, &stubVerifyProfiles{profile: aliceProfile()})

	w := doJSON(t, router, http.MethodPost, "/api/v1/ai/verify-certificate", tok,
		`{"skillName":"Go","imageData":"not base64!!","mimeType":"image/png"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
