package progression

import (
	"math"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
)

// Reward is the outcome of completing a habit once
type Reward struct {
	BaseExp     int
	StreakBonus int
	SignedTotal int
	CoinDelta   int
}

// DifficultyMultiplier returns the experience multiplier for d.
// Unknown difficulties count as easy.
func DifficultyMultiplier(d constants.Difficulty) float64 {
	switch d {
	case constants.DifficultyMedium:
		return 1.5
	case constants.DifficultyHard:
		return 2.0
	default:
		return 1.0
	}
}

// StreakBonus awards five experience for every full week of streak.
func StreakBonus(streak int) int {
	if streak <= 0 {
		return 0
	}
	return streak / constants.StreakBonusInterval * constants.StreakBonusExp
}

// CalculateReward computes the reward for completing h, using the streak
// value from before this completion. The streak bonus is recorded for every
// habit, but bad habits only cost their base experience and earn no coins.
func CalculateReward(h models.Habit) Reward {
	base := int(math.Round(float64(h.ExpValue) * DifficultyMultiplier(h.Difficulty)))
	bonus := StreakBonus(h.Streak)

	if !h.IsGood() {
		return Reward{
			BaseExp:     base,
			StreakBonus: bonus,
			SignedTotal: -base,
		}
	}

	return Reward{
		BaseExp:     base,
		StreakBonus: bonus,
		SignedTotal: base + bonus,
		CoinDelta:   constants.GoodHabitCoins,
	}
}

// NextStreak returns the habit's streak after one more completion.
func NextStreak(h models.Habit) int {
	if h.IsGood() {
		return h.Streak + 1
	}
	return max(0, h.Streak-1)
}
