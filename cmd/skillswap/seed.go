package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/chat"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/store"
)

// seedCmd populates the database with realistic demo data for development.
// Running twice is safe: profiles that already exist are left untouched.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo users and conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zap.NewNop()
		if err := loadConfig(logger); err != nil {
			return err
		}
		return runSeed(cmd)
	},
}

type seedUser struct {
	name  string
	email string
	teach []string
	learn []string
}

var seedUsers = []seedUser{
	{"Asha Patel", "asha@skillswap.dev", []string{"Go", "Kubernetes"}, []string{"Rust", "Spanish"}},
	{"Ben Okafor", "ben@skillswap.dev", []string{"Rust", "Guitar"}, []string{"Go"}},
	{"Carmen Díaz", "carmen@skillswap.dev", []string{"Spanish", "Photography"}, []string{"Kubernetes", "Guitar"}},
	{"Dev Sharma", "dev@skillswap.dev", []string{"Piano"}, []string{"Photography"}},
}

const seedPassword = "swap-me-123"

func runSeed(cmd *cobra.Command) error {
	ctx := context.Background()
	db, err := store.New(ctx, viper.GetString("database.uri"), viper.GetString("database.name"))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close(context.Background()) //nolint:errcheck

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	cmd.Println("connected to database")

	logger := zap.NewNop()
	profileRepo := profiles.NewRepository(db.Users())
	profileSvc := profiles.NewService(profileRepo, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	ids := make(map[string]string, len(seedUsers))
	for _, u := range seedUsers {
		p, err := profileSvc.Create(ctx, u.name, u.email, "", string(hash))
		if errors.Is(err, profiles.ErrDuplicateEmail) {
			p, err = profileSvc.GetByEmail(ctx, u.email)
			if err != nil {
				return fmt.Errorf("load existing %s: %w", u.email, err)
			}
			cmd.Printf("exists  %s (%s)\n", u.name, p.ID)
			ids[u.email] = p.ID
			continue
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", u.email, err)
		}
		for _, s := range u.teach {
			if _, err := profileSvc.AddTeachSkill(ctx, p.ID, s); err != nil {
				return fmt.Errorf("add teach skill: %w", err)
			}
		}
		for _, s := range u.learn {
			if _, err := profileSvc.AddLearnSkill(ctx, p.ID, s); err != nil {
				return fmt.Errorf("add learn skill: %w", err)
			}
		}
		if err := profileSvc.CompleteOnboarding(ctx, p.ID); err != nil {
			return fmt.Errorf("complete onboarding: %w", err)
		}
		cmd.Printf("created %s (%s)\n", u.name, p.ID)
		ids[u.email] = p.ID
	}

	// A small conversation between the first two users so the chat UI has
	// something to show.
	asha, ben := ids["asha@skillswap.dev"], ids["ben@skillswap.dev"]
	messageRepo := chat.NewMessageRepository(db.Messages())
	chatSvc := chat.NewService(messageRepo, chat.NewMemoryBroker(), viper.GetString("chat.meet_link_base"), logger)

	existing, err := chatSvc.LoadThread(ctx, asha, ben)
	if err != nil {
		return fmt.Errorf("load seed thread: %w", err)
	}
	if len(existing) > 0 {
		cmd.Println("seed conversation already present, skipping")
		cmd.Printf("\nseeded %d users (password: %s)\n", len(seedUsers), seedPassword)
		return nil
	}

	if _, err := chatSvc.SendText(ctx, asha, ben, "Hey Ben! Saw you teach Rust — want to swap for some Go sessions?"); err != nil {
		return fmt.Errorf("seed message: %w", err)
	}
	if _, err := chatSvc.SendText(ctx, ben, asha, "Absolutely, that's exactly what I was looking for."); err != nil {
		return fmt.Errorf("seed message: %w", err)
	}
	if _, err := chatSvc.SendSchedule(ctx, asha, ben, chat.ScheduleDraft{
		Title: "Go and Rust kickoff",
		Date:  time.Date(2026, 9, 5, 17, 0, 0, 0, time.UTC),
	}); err != nil {
		return fmt.Errorf("seed schedule: %w", err)
	}
	cmd.Println("seeded demo conversation")

	cmd.Printf("\nseeded %d users (password: %s)\n", len(seedUsers), seedPassword)
	return nil
}
