package progression

import (
	"time"

	"github.com/julianstephens/questlog/internal/models"
)

// Stats is the snapshot achievements are evaluated against.
type Stats struct {
	Completions   int
	CurrentStreak int
	BestStreak    int
	Level         int
	Coins         int
	ItemsUnlocked int
	LoginStreak   int
}

// AchievementDef is a badge and the predicate that earns it
type AchievementDef struct {
	Type        string
	Name        string
	Description string
	BadgeIcon   string
	Predicate   func(Stats) bool
}

// AllAchievements returns the achievement catalog in display order.
func AllAchievements() []AchievementDef {
	return []AchievementDef{
		// Getting started
		{
			Type: "first_quest", Name: "First Quest", BadgeIcon: "🎯",
			Description: "Complete your first habit",
			Predicate:   func(s Stats) bool { return s.Completions >= 1 },
		},
		{
			Type: "completions_50", Name: "Adventurer", BadgeIcon: "🗺️",
			Description: "Complete 50 habits",
			Predicate:   func(s Stats) bool { return s.Completions >= 50 },
		},
		{
			Type: "completions_250", Name: "Hero of Habit", BadgeIcon: "🛡️",
			Description: "Complete 250 habits",
			Predicate:   func(s Stats) bool { return s.Completions >= 250 },
		},

		// Streaks
		{
			Type: "streak_7", Name: "Week Warrior", BadgeIcon: "🔥",
			Description: "Reach a 7-day streak on any habit",
			Predicate:   func(s Stats) bool { return s.BestStreak >= 7 },
		},
		{
			Type: "streak_30", Name: "Monthly Machine", BadgeIcon: "💪",
			Description: "Reach a 30-day streak on any habit",
			Predicate:   func(s Stats) bool { return s.BestStreak >= 30 },
		},
		{
			Type: "login_7", Name: "Regular", BadgeIcon: "📅",
			Description: "Sign in 7 days in a row",
			Predicate:   func(s Stats) bool { return s.LoginStreak >= 7 },
		},

		// Levels
		{
			Type: "level_5", Name: "Apprentice", BadgeIcon: "⭐",
			Description: "Reach level 5",
			Predicate:   func(s Stats) bool { return s.Level >= 5 },
		},
		{
			Type: "level_10", Name: "Rising Star", BadgeIcon: "🌅",
			Description: "Reach level 10",
			Predicate:   func(s Stats) bool { return s.Level >= 10 },
		},
		{
			Type: "level_25", Name: "Veteran", BadgeIcon: "🎖️",
			Description: "Reach level 25",
			Predicate:   func(s Stats) bool { return s.Level >= 25 },
		},

		// Collection
		{
			Type: "coins_100", Name: "Coin Purse", BadgeIcon: "💰",
			Description: "Hold 100 coins at once",
			Predicate:   func(s Stats) bool { return s.Coins >= 100 },
		},
		{
			Type: "items_5", Name: "Fashionista", BadgeIcon: "👒",
			Description: "Unlock 5 items",
			Predicate:   func(s Stats) bool { return s.ItemsUnlocked >= 5 },
		},
	}
}

// EvaluateAchievements returns achievements whose predicates hold for stats
// and whose type is not already in earned. Already-earned types are skipped,
// so evaluation is idempotent.
func EvaluateAchievements(defs []AchievementDef, stats Stats, earned []models.Achievement, profileID string, now time.Time, newID func() string) []models.Achievement {
	have := make(map[string]bool, len(earned))
	for _, a := range earned {
		have[a.Type] = true
	}

	var out []models.Achievement
	for _, def := range defs {
		if have[def.Type] || def.Predicate == nil || !def.Predicate(stats) {
			continue
		}
		out = append(out, models.Achievement{
			ID:          newID(),
			ProfileID:   profileID,
			Type:        def.Type,
			Name:        def.Name,
			Description: def.Description,
			BadgeIcon:   def.BadgeIcon,
			EarnedAt:    now,
		})
	}
	return out
}
