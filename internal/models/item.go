package models

import (
	"time"

	"github.com/julianstephens/questlog/internal/constants"
)

// CharacterItem is a cosmetic catalog entry
type CharacterItem struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Category      constants.ItemCategory `json:"category"`
	RequiredLevel int                    `json:"required_level"`
	CoinCost      int                    `json:"coin_cost"`
	SpriteLayer   int                    `json:"sprite_layer"`
	Description   string                 `json:"description,omitempty"`
}

// Catalog indexes items by id.
type Catalog map[string]CharacterItem

// NewCatalog builds a Catalog from a list of items.
func NewCatalog(items []CharacterItem) Catalog {
	c := make(Catalog, len(items))
	for _, it := range items {
		c[it.ID] = it
	}
	return c
}

// Achievement is a badge earned for reaching a milestone
type Achievement struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	Type        string    `json:"achievement_type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BadgeIcon   string    `json:"badge_icon"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Completion is everything a single habit completion writes. Stores
// apply it atomically, keyed by Log.ID.
type Completion struct {
	Log          HabitLog
	Habit        Habit
	Profile      Profile
	Achievements []Achievement
}
