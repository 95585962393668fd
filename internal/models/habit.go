package models

import (
	"time"

	"github.com/julianstephens/questlog/internal/constants"
)

// Habit represents a recurring behaviour to build or break
type Habit struct {
	ID         string               `json:"id"`
	ProfileID  string               `json:"profile_id"`
	Name       string               `json:"name"`
	Category   constants.Category   `json:"category"`
	HabitType  constants.HabitType  `json:"habit_type"`
	ExpValue   int                  `json:"exp_value"`
	Difficulty constants.Difficulty `json:"difficulty"`
	Streak     int                  `json:"streak"`
	BestStreak int                  `json:"best_streak"`
	Notes      string               `json:"notes,omitempty"`
	IsActive   bool                 `json:"is_active"`
	CreatedAt  time.Time            `json:"created_at"`
}

// IsGood reports whether completing the habit is rewarded.
func (h Habit) IsGood() bool {
	return h.HabitType == constants.HabitGood
}

// HabitLog is an immutable record of a single completion
type HabitLog struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	HabitID     string    `json:"habit_id"`
	CompletedAt time.Time `json:"completed_at"`
	ExpEarned   int       `json:"exp_earned"`
	StreakBonus int       `json:"streak_bonus"`
	Notes       string    `json:"notes,omitempty"`
}

// Exp is the experience the log contributes to analytics totals.
func (l HabitLog) Exp() int {
	return l.ExpEarned + l.StreakBonus
}
