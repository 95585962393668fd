package progression

import (
	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
)

// Event is emitted by the Updater after a completion is persisted.
type Event interface {
	eventName() string
}

// LevelUp is emitted once per completion that raises the character level.
type LevelUp struct {
	ProfileID string
	OldLevel  int
	NewLevel  int
}

// ExpGained carries the signed experience change of a completion so the
// presentation layer can show floating feedback next to the habit.
type ExpGained struct {
	ProfileID string
	HabitID   string
	HabitType constants.HabitType
	Amount    int
}

// ItemsUnlocked is emitted when milestone levels grant free items.
type ItemsUnlocked struct {
	ProfileID string
	Level     int
	Items     []models.CharacterItem
}

// AchievementEarned is emitted for each newly earned achievement.
type AchievementEarned struct {
	Achievement models.Achievement
}

func (LevelUp) eventName() string           { return "level_up" }
func (ExpGained) eventName() string         { return "exp_gained" }
func (ItemsUnlocked) eventName() string     { return "items_unlocked" }
func (AchievementEarned) eventName() string { return "achievement_earned" }

// EventName returns a stable identifier for e, used in logs.
func EventName(e Event) string {
	return e.eventName()
}

// Notifier receives progression events.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Notifiers fans events out to several notifiers in order.
type Notifiers []Notifier

func (n Notifiers) Notify(e Event) {
	for _, x := range n {
		if x != nil {
			x.Notify(e)
		}
	}
}
