package aiflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/normalize"
)

// NoopGateway answers every flow deterministically without calling a
// model. Used in development and tests, and whenever no API key is
// configured.
type NoopGateway struct {
	logger *zap.Logger
}

// NewNoopGateway creates a NoopGateway backed by the given logger.
func NewNoopGateway(logger *zap.Logger) *NoopGateway {
	return &NoopGateway{logger: logger}
}

// SuggestSkills returns the first count skills from allSkills the user
// does not already have.
func (g *NoopGateway) SuggestSkills(_ context.Context, userSkills, allSkills []string, count int) ([]string, error) {
	g.logger.Info("skill suggestion (noop)", zap.Int("count", count))

	have := make(map[string]bool, len(userSkills))
	for _, s := range userSkills {
		have[normalize.Skill(s)] = true
	}
	out := make([]string, 0, count)
	for _, s := range allSkills {
		if len(out) == count {
			break
		}
		if !have[normalize.Skill(s)] {
			out = append(out, s)
		}
	}
	return out, nil
}

// MatchSkills returns no matches; the deterministic engine remains the
// fallback ranking.
func (g *NoopGateway) MatchSkills(_ context.Context, _, _ []string, allProfiles []ProfileSkills) ([]ScoredMatch, error) {
	g.logger.Info("ai matching (noop)", zap.Int("profiles", len(allProfiles)))
	return []ScoredMatch{}, nil
}

// GenerateSnippetPreview echoes the snippet back unstyled.
func (g *NoopGateway) GenerateSnippetPreview(_ context.Context, snippet, _ string) (*SnippetPreview, error) {
	g.logger.Info("snippet preview (noop)")
	return &SnippetPreview{RichPreview: snippet}, nil
}

// VerifyCertificate declines: verification needs a real model.
func (g *NoopGateway) VerifyCertificate(_ context.Context, userName, skillToVerify string, _ CertificateImage) (*VerifyResult, error) {
	g.logger.Info("certificate verification (noop — not verified)",
		zap.String("user", userName),
		zap.String("skill", skillToVerify),
	)
	return &VerifyResult{
		Verified: false,
		Reason:   "verification unavailable: no model configured",
	}, nil
}

// VerifyCertificateInteractive declines like VerifyCertificate.
func (g *NoopGateway) VerifyCertificateInteractive(_ context.Context, userName, skillToVerify string, _ CertificateImage, _ string) (*InteractiveVerifyResult, error) {
	g.logger.Info("interactive verification (noop — failed)",
		zap.String("user", userName),
		zap.String("skill", skillToVerify),
	)
	return &InteractiveVerifyResult{
		Status:        StatusFailed,
		MessageToUser: "Certificate verification is not available right now. Please try again later.",
		Reason:        "no model configured",
	}, nil
}
