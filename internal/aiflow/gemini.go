package aiflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/normalize"
)

// DefaultModel is the generative model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// snippet previews are capped at roughly this many words.
const previewWordCap = 200

// GeminiGateway implements Gateway on the Gemini API.
type GeminiGateway struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiGateway creates a GeminiGateway using the given API key.
func NewGeminiGateway(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiGateway, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGateway{client: client, model: model, logger: logger}, nil
}

// SuggestSkills implements Gateway.
func (g *GeminiGateway) SuggestSkills(ctx context.Context, userSkills, allSkills []string, count int) ([]string, error) {
	prompt := fmt.Sprintf(`You suggest skills a user might want to learn next.

User's existing skills: %s
All available skills: %s

Suggest %d skills from the available list that complement the user's
existing skills. Never suggest a skill the user already has.
Respond with a JSON array of skill name strings only.`,
		jsonList(userSkills), jsonList(allSkills), count)

	raw, err := g.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var suggestions []string
	if err := decodeModelJSON(raw, &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	suggestions = dropKnownSkills(suggestions, userSkills)
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return suggestions, nil
}

// dropKnownSkills removes suggestions the user already has. The prompt
// forbids them, but the model's output is not trusted to comply.
func dropKnownSkills(suggestions, userSkills []string) []string {
	have := make(map[string]bool, len(userSkills))
	for _, s := range userSkills {
		have[normalize.Skill(s)] = true
	}
	kept := suggestions[:0]
	for _, s := range suggestions {
		if !have[normalize.Skill(s)] {
			kept = append(kept, s)
		}
	}
	return kept
}

// MatchSkills implements Gateway. The caller validates that the returned
// user IDs exist in the supplied roster.
func (g *GeminiGateway) MatchSkills(ctx context.Context, skillsToLearn, skillsToTeach []string, allProfiles []ProfileSkills) ([]ScoredMatch, error) {
	profilesJSON, err := json.Marshal(allProfiles)
	if err != nil {
		return nil, fmt.Errorf("encode profiles: %w", err)
	}

	prompt := fmt.Sprintf(`You are a skill matching algorithm connecting users for skill swaps.

Requesting user's skills to learn: %s
Requesting user's skills to teach: %s
All user profiles: %s

You MUST only use user IDs present in the profile list; never invent users.
For each profile, determine which of the requester's skills to learn they
can teach, and which of the requester's skills to teach they want to learn.
Include a profile only if both lists are non-empty, with a relevanceScore
reflecting overall complementarity.

Respond with a JSON array of objects with keys userId,
matchedSkillsToLearn, matchedSkillsToTeach, and relevanceScore, sorted
descending by relevanceScore. Return [] if nothing matches.`,
		jsonList(skillsToLearn), jsonList(skillsToTeach), profilesJSON)

	raw, err := g.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var matches []ScoredMatch
	if err := decodeModelJSON(raw, &matches); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	return matches, nil
}

// GenerateSnippetPreview implements Gateway.
func (g *GeminiGateway) GenerateSnippetPreview(ctx context.Context, snippet, snippetContext string) (*SnippetPreview, error) {
	prompt := fmt.Sprintf(`Generate a rich, readable preview of this shared code snippet,
highlighting what it does and anything notable. Keep it under %d words.

Context: %s

Snippet:
%s

Respond with a JSON object: {"richPreview": "..."}`,
		previewWordCap, snippetContext, snippet)

	raw, err := g.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var preview SnippetPreview
	if err := decodeModelJSON(raw, &preview); err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}
	preview.RichPreview = capWords(preview.RichPreview, previewWordCap)
	return &preview, nil
}

// VerifyCertificate implements Gateway.
func (g *GeminiGateway) VerifyCertificate(ctx context.Context, userName, skillToVerify string, cert CertificateImage) (*VerifyResult, error) {
	prompt := fmt.Sprintf(`You are a verification agent. Analyze the attached certificate image.

User name: %s
Skill to verify: %s

Confirm the image is a certificate, that the name on it matches the user,
and that the certified skill or course is highly relevant to the skill to
verify. Respond with a JSON object: {"verified": true|false, "reason": "..."}`,
		userName, skillToVerify)

	raw, err := g.generateWithImage(ctx, prompt, cert)
	if err != nil {
		return nil, err
	}
	var result VerifyResult
	if err := decodeModelJSON(raw, &result); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	return &result, nil
}

// VerifyCertificateInteractive implements Gateway.
func (g *GeminiGateway) VerifyCertificateInteractive(ctx context.Context, userName, skillToVerify string, cert CertificateImage, userMessage string) (*InteractiveVerifyResult, error) {
	var contextLine string
	if userMessage != "" {
		contextLine = fmt.Sprintf("Additional context from the user: %q\n", userMessage)
	}
	prompt := fmt.Sprintf(`You are a verification agent analyzing the attached certificate image.
You may ask the user for clarification when unsure.

User name: %s
Skill to verify: %s
%s
Rules: if the image is not a certificate or clearly mismatches, status is
FAILED. If the name is a partial match (initials, shortened forms) and the
user has not yet confirmed, status is NEEDS_MORE_INFO and messageToUser
must be a clear question. Use the user's context, when present, to resolve
earlier doubts. Only when every check passes is the status VERIFIED.

Respond with a JSON object:
{"status": "VERIFIED"|"FAILED"|"NEEDS_MORE_INFO", "messageToUser": "...", "reason": "..."}`,
		userName, skillToVerify, contextLine)

	raw, err := g.generateWithImage(ctx, prompt, cert)
	if err != nil {
		return nil, err
	}
	var result InteractiveVerifyResult
	if err := decodeModelJSON(raw, &result); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	switch result.Status {
	case StatusVerified, StatusFailed, StatusNeedsMoreInfo:
	default:
		return nil, fmt.Errorf("model returned unknown status %q", result.Status)
	}
	return &result, nil
}

func (g *GeminiGateway) generateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

func (g *GeminiGateway) generateWithImage(ctx context.Context, prompt string, cert CertificateImage) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(cert.Data, cert.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

func jsonList(items []string) string {
	data, _ := json.Marshal(items)
	return string(data)
}

// decodeModelJSON tolerates models that wrap their JSON in code fences.
func decodeModelJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return json.Unmarshal([]byte(strings.TrimSpace(raw)), v)
}

// capWords truncates text to at most n words.
func capWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ") + "…"
}
