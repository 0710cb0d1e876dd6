// Package aiflow defines the gateway to the generative-model flows:
// skill suggestion, AI-assisted matching, snippet previews, and
// certificate verification. The model is a black-box collaborator;
// only the request/response contracts live here.
package aiflow

import "context"

// ProfileSkills is the slice of a user profile the matching flow sees.
type ProfileSkills struct {
	UserID        string   `json:"userId"`
	Name          string   `json:"name"`
	SkillsToLearn []string `json:"skillsToLearn"`
	SkillsToTeach []string `json:"skillsToTeach"`
}

// ScoredMatch is one AI-ranked swap candidate.
type ScoredMatch struct {
	UserID               string   `json:"userId"`
	MatchedSkillsToLearn []string `json:"matchedSkillsToLearn"`
	MatchedSkillsToTeach []string `json:"matchedSkillsToTeach"`
	RelevanceScore       float64  `json:"relevanceScore"`
}

// SnippetPreview is the rendered rich preview of a shared code snippet.
type SnippetPreview struct {
	RichPreview string `json:"richPreview"`
}

// VerifyResult is the outcome of a single-shot certificate check.
type VerifyResult struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
}

// VerifyStatus is the state of an interactive verification exchange.
type VerifyStatus string

const (
	StatusVerified VerifyStatus = "VERIFIED"
	StatusFailed   VerifyStatus = "FAILED"
	// StatusNeedsMoreInfo asks the user a clarifying question. Not
	// terminal: the caller continues by resending with a user message.
	StatusNeedsMoreInfo VerifyStatus = "NEEDS_MORE_INFO"
)

// InteractiveVerifyResult is one turn of the interactive verification
// conversation. Each call is stateless; prior context travels in the
// request's user message.
type InteractiveVerifyResult struct {
	Status        VerifyStatus `json:"status"`
	MessageToUser string       `json:"messageToUser"`
	Reason        string       `json:"reason"`
}

// CertificateImage is an uploaded certificate: raw bytes plus MIME type.
type CertificateImage struct {
	Data     []byte
	MIMEType string
}

// Gateway is the black-box interface to the generative-model flows.
type Gateway interface {
	// SuggestSkills returns up to count skills the user might want to
	// learn, drawn from allSkills and excluding skills they already have.
	SuggestSkills(ctx context.Context, userSkills, allSkills []string, count int) ([]string, error)

	// MatchSkills ranks swap candidates by relevance, descending. Only
	// user IDs present in allProfiles may appear in the result.
	MatchSkills(ctx context.Context, skillsToLearn, skillsToTeach []string, allProfiles []ProfileSkills) ([]ScoredMatch, error)

	// GenerateSnippetPreview renders a rich preview (~200 words max)
	// of a shared code snippet.
	GenerateSnippetPreview(ctx context.Context, snippet, snippetContext string) (*SnippetPreview, error)

	// VerifyCertificate performs a single-shot certificate check.
	VerifyCertificate(ctx context.Context, userName, skillToVerify string, cert CertificateImage) (*VerifyResult, error)

	// VerifyCertificateInteractive runs one turn of the interactive
	// check; userMessage may be empty on the first turn.
	VerifyCertificateInteractive(ctx context.Context, userName, skillToVerify string, cert CertificateImage, userMessage string) (*InteractiveVerifyResult, error)
}
