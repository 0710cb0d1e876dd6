package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/store"
)

// ErrNotFound is returned when a profile lookup finds no matching record.
var ErrNotFound = errors.New("profile not found")

// ErrDuplicateEmail is returned when a signup attempts to reuse a
// registered email address.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository provides CRUD operations for user profiles against the
// users collection.
type Repository struct {
	coll *mongo.Collection
}

// NewRepository creates a Repository backed by the given collection.
func NewRepository(coll *mongo.Collection) *Repository {
	return &Repository{coll: coll}
}

// Create inserts a new profile document. Sets CreatedAt and UpdatedAt.
func (r *Repository) Create(ctx context.Context, p *UserProfile) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.SkillsToTeach == nil {
		p.SkillsToTeach = []TeachSkill{}
	}
	if p.SkillsToLearn == nil {
		p.SkillsToLearn = []LearnSkill{}
	}

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		mapped := store.MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create profile: %w", mapped)
	}
	return nil
}

// GetByID retrieves a profile by its stable identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*UserProfile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves a profile by normalized email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*UserProfile, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*UserProfile, error) {
	var p UserProfile
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		mapped := store.MapError(err)
		if errors.Is(mapped, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", mapped)
	}
	return &p, nil
}

// List returns every profile in the community roster.
func (r *Repository) List(ctx context.Context) ([]*UserProfile, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", store.MapError(err))
	}
	defer cursor.Close(ctx)

	var roster []*UserProfile
	if err := cursor.All(ctx, &roster); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", store.MapError(err))
	}
	return roster, nil
}

// SetTeachSkills replaces the full teach-skill list for a user.
// The service owns the case-insensitive uniqueness rule; the repository
// persists whatever list it is handed.
func (r *Repository) SetTeachSkills(ctx context.Context, userID string, skills []TeachSkill) error {
	return r.setField(ctx, userID, "skills_to_teach", skills)
}

// SetLearnSkills replaces the full learn-skill list for a user.
func (r *Repository) SetLearnSkills(ctx context.Context, userID string, skills []LearnSkill) error {
	return r.setField(ctx, userID, "skills_to_learn", skills)
}

// SetOnboardingCompleted marks the user as having finished onboarding.
func (r *Repository) SetOnboardingCompleted(ctx context.Context, userID string) error {
	return r.setField(ctx, userID, "onboarding_completed", true)
}

func (r *Repository) setField(ctx context.Context, userID, field string, value any) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", store.MapError(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTeachSkillVerified flips the verified flag on a single teach skill.
// The skill name must match the stored casing exactly; callers resolve
// the stored casing first.
func (r *Repository) SetTeachSkillVerified(ctx context.Context, userID, skillName string, verified bool) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "skills_to_teach.name": skillName},
		bson.M{"$set": bson.M{
			"skills_to_teach.$.verified": verified,
			"updated_at":                 time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("set skill verified: %w", store.MapError(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
