package profiles

import "time"

// TeachSkill is a skill a user offers to teach. Verified is set after a
// certificate for the skill passes verification.
type TeachSkill struct {
	Name     string `json:"name"     bson:"name"`
	Verified bool   `json:"verified" bson:"verified"`
}

// LearnSkill is a skill a user wants to learn.
type LearnSkill struct {
	Name string `json:"name" bson:"name"`
}

// UserProfile is a member of the skill-exchange community.
//
// Skill names are unique within each list under case-insensitive
// comparison; the display casing entered by the user is preserved.
type UserProfile struct {
	ID                  string       `json:"id"                   bson:"_id"`
	Name                string       `json:"name"                 bson:"name"`
	Email               string       `json:"email"                bson:"email"`
	PhotoURL            string       `json:"photo_url"            bson:"photo_url"`
	PasswordHash        string       `json:"-"                    bson:"password_hash,omitempty"`
	SkillsToTeach       []TeachSkill `json:"skills_to_teach"      bson:"skills_to_teach"`
	SkillsToLearn       []LearnSkill `json:"skills_to_learn"      bson:"skills_to_learn"`
	OnboardingCompleted bool         `json:"onboarding_completed" bson:"onboarding_completed"`
	CreatedAt           time.Time    `json:"created_at"           bson:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"           bson:"updated_at"`
}
