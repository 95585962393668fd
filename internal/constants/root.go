package constants

import "time"

// Category groups habits for analytics breakdowns
type Category string

// HabitType marks a habit as one to build or one to break
type HabitType string

// Difficulty scales the experience a habit awards
type Difficulty string

// ItemCategory is the equipment slot a character item occupies
type ItemCategory string

const (
	AppName            = "questlog"
	DefaultKeyringUser = "database-connection"
	SessionKeyringUser = "session-token"
	DefaultConfigDir   = "~/.config/questlog"
	DefaultDBPath      = "~/.config/questlog/questlog.db"
	ConfigFileName     = "config.toml"
	HomeEnvVar         = "QUESTLOG_HOME"
	ConnectionEnvVar   = "QUESTLOG_DB_CONNECTION"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Habit defaults and bounds
	DefaultExpValue = 20
	MinExpValue     = 5
	MaxExpValue     = 50

	// Reward constants
	StreakBonusInterval = 7
	StreakBonusExp      = 5
	GoodHabitCoins      = 5

	// Level constants
	ExpPerLevelUnit    = 100
	MilestoneInterval  = 5
	StartingLevel      = 1
	DefaultTopHabits   = 5
	DefaultWindowDays  = 30
	WeekWindowDays     = 7
	SessionTTL         = 7 * 24 * time.Hour
	DefaultCacheTTL    = 5 * time.Minute
	DefaultCachePrefix = "questlog:"

	// Habit categories
	CategoryHealth       Category = "health"
	CategoryLearning     Category = "learning"
	CategoryProductivity Category = "productivity"
	CategorySelfCare     Category = "self-care"
	CategorySocial       Category = "social"

	// Habit types
	HabitGood HabitType = "good"
	HabitBad  HabitType = "bad"

	// Difficulties
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	// Item categories
	ItemHat       ItemCategory = "hat"
	ItemShirt     ItemCategory = "shirt"
	ItemAccessory ItemCategory = "accessory"
	ItemEffect    ItemCategory = "effect"
	ItemCompanion ItemCategory = "companion"
)

// Categories is the fixed category enumeration in display order.
var Categories = []Category{
	CategoryHealth,
	CategoryLearning,
	CategoryProductivity,
	CategorySelfCare,
	CategorySocial,
}

// ItemCategories lists every equipment slot.
var ItemCategories = []ItemCategory{
	ItemHat,
	ItemShirt,
	ItemAccessory,
	ItemEffect,
	ItemCompanion,
}
