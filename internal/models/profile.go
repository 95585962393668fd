package models

import (
	"slices"
	"time"
)

// Profile holds a character's progression and inventory
type Profile struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	CharacterLevel int        `json:"character_level"`
	TotalExp       int64      `json:"total_exp"`
	CurrentExp     int64      `json:"current_exp"`
	ExpToNext      int64      `json:"exp_to_next"`
	Coins          int        `json:"coins"`
	EquippedItems  []string   `json:"equipped_items"`
	UnlockedItems  []string   `json:"unlocked_items"`
	LoginStreak    int        `json:"login_streak"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HasUnlocked reports whether itemID is in the unlocked set.
func (p Profile) HasUnlocked(itemID string) bool {
	return slices.Contains(p.UnlockedItems, itemID)
}

// HasEquipped reports whether itemID is in the equipped set.
func (p Profile) HasEquipped(itemID string) bool {
	return slices.Contains(p.EquippedItems, itemID)
}

// Clone returns a copy whose item sets can be mutated independently.
func (p Profile) Clone() Profile {
	c := p
	c.EquippedItems = slices.Clone(p.EquippedItems)
	c.UnlockedItems = slices.Clone(p.UnlockedItems)
	if p.LastLogin != nil {
		t := *p.LastLogin
		c.LastLogin = &t
	}
	return c
}

// Account is the credential record backing a profile
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfileID    string    `json:"profile_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an authenticated sign-in
type Session struct {
	Token     string    `json:"token"`
	ProfileID string    `json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
