// Package matching computes mutual-benefit skill-swap candidates: users
// who can teach something the requester wants to learn AND want to learn
// something the requester can teach.
package matching

import (
	"github.com/ItsMeAK-GitH/SkillSwap/internal/normalize"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// Match is a candidate with complementary skill overlap. Skill names
// keep the candidate's original casing.
type Match struct {
	UserID string `json:"user_id"`
	// MatchedSkillsToLearn are skills the candidate can teach that the
	// requester wants to learn.
	MatchedSkillsToLearn []string `json:"matched_skills_to_learn"`
	// MatchedSkillsToTeach are skills the candidate wants to learn that
	// the requester can teach.
	MatchedSkillsToTeach []string `json:"matched_skills_to_teach"`
	// RelevanceScore is only populated by the AI-assisted variant; the
	// deterministic engine computes no ranking.
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// FindMatches computes skill-swap candidates for the requester. Pure:
// no I/O, no side effects, deterministic over its inputs.
//
// Comparison is case-insensitive. A candidate is included only when the
// benefit is mutual — both matched lists non-empty. The requester is
// never their own match.
func FindMatches(requester *profiles.UserProfile, candidates []*profiles.UserProfile) []Match {
	wantToLearn := skillSet(learnNames(requester.SkillsToLearn))
	canTeach := skillSet(teachNames(requester.SkillsToTeach))

	matches := make([]Match, 0)
	for _, cand := range candidates {
		if cand.ID == requester.ID {
			continue
		}

		var theyCanTeach []string
		for _, sk := range cand.SkillsToTeach {
			if wantToLearn[normalize.Skill(sk.Name)] {
				theyCanTeach = append(theyCanTeach, sk.Name)
			}
		}
		var theyWantToLearn []string
		for _, sk := range cand.SkillsToLearn {
			if canTeach[normalize.Skill(sk.Name)] {
				theyWantToLearn = append(theyWantToLearn, sk.Name)
			}
		}

		if len(theyCanTeach) == 0 || len(theyWantToLearn) == 0 {
			continue
		}
		matches = append(matches, Match{
			UserID:               cand.ID,
			MatchedSkillsToLearn: theyCanTeach,
			MatchedSkillsToTeach: theyWantToLearn,
		})
	}
	return matches
}

func skillSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[normalize.Skill(n)] = true
	}
	return set
}

func teachNames(skills []profiles.TeachSkill) []string {
	out := make([]string, len(skills))
	for i, sk := range skills {
		out[i] = sk.Name
	}
	return out
}

func learnNames(skills []profiles.LearnSkill) []string {
	out := make([]string, len(skills))
	for i, sk := range skills {
		out[i] = sk.Name
	}
	return out
}
