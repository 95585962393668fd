// Package shop gates item purchases and equipment changes.
//
// Gate functions are pure: they take a profile snapshot and return an
// updated copy, leaving persistence to Service.
package shop

import (
	"errors"
	"slices"

	"github.com/julianstephens/questlog/internal/models"
)

var (
	// ErrInsufficientFunds is returned when the profile cannot pay for an item
	ErrInsufficientFunds = errors.New("not enough coins")
	// ErrLevelTooLow is returned when the character has not reached the item's level
	ErrLevelTooLow = errors.New("character level too low")
	// ErrNotUnlocked is returned when equipping an item the profile does not own
	ErrNotUnlocked = errors.New("item not unlocked")
	// ErrAlreadyUnlocked is returned by Service.Buy for items already owned
	ErrAlreadyUnlocked = errors.New("item already unlocked")
)

// CanAfford reports whether the profile has enough coins for item.
func CanAfford(p models.Profile, item models.CharacterItem) bool {
	return p.Coins >= item.CoinCost
}

// MeetsLevel reports whether the character level satisfies item.
func MeetsLevel(p models.Profile, item models.CharacterItem) bool {
	return p.CharacterLevel >= item.RequiredLevel
}

// Purchase unlocks item and deducts its cost. Funds are checked before
// level. The gate does not check prior ownership.
func Purchase(p models.Profile, item models.CharacterItem) (models.Profile, error) {
	if !CanAfford(p, item) {
		return p, ErrInsufficientFunds
	}
	if !MeetsLevel(p, item) {
		return p, ErrLevelTooLow
	}

	out := p.Clone()
	out.UnlockedItems = append(out.UnlockedItems, item.ID)
	out.Coins -= item.CoinCost
	return out, nil
}

// Equip puts item on, replacing whatever is equipped in the same category.
// Equipped ids that are missing from the catalog are dropped.
func Equip(p models.Profile, item models.CharacterItem, catalog models.Catalog) (models.Profile, error) {
	if !p.HasUnlocked(item.ID) {
		return p, ErrNotUnlocked
	}

	out := p.Clone()
	equipped := make([]string, 0, len(p.EquippedItems)+1)
	for _, id := range p.EquippedItems {
		cur, ok := catalog[id]
		if !ok || cur.Category == item.Category {
			continue
		}
		equipped = append(equipped, id)
	}
	out.EquippedItems = append(equipped, item.ID)
	return out, nil
}

// Unequip removes item from the equipped set. Removing an item that is not
// equipped is a no-op.
func Unequip(p models.Profile, item models.CharacterItem) models.Profile {
	out := p.Clone()
	out.EquippedItems = slices.DeleteFunc(out.EquippedItems, func(id string) bool {
		return id == item.ID
	})
	return out
}

// FreeUnlockCheck returns the free items that become available at level.
func FreeUnlockCheck(level int, catalog []models.CharacterItem) []models.CharacterItem {
	var out []models.CharacterItem
	for _, it := range catalog {
		if it.RequiredLevel == level && it.CoinCost == 0 {
			out = append(out, it)
		}
	}
	return out
}

// MergeUnlocks adds items to the unlocked set, skipping ones already owned.
// It returns the updated profile and the items that were actually added.
func MergeUnlocks(p models.Profile, items []models.CharacterItem) (models.Profile, []models.CharacterItem) {
	out := p.Clone()
	var added []models.CharacterItem
	for _, it := range items {
		if out.HasUnlocked(it.ID) {
			continue
		}
		out.UnlockedItems = append(out.UnlockedItems, it.ID)
		added = append(added, it)
	}
	return out, added
}

// IsRefusal reports whether err is an expected gate refusal rather than a
// system failure.
func IsRefusal(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrLevelTooLow) ||
		errors.Is(err, ErrNotUnlocked) ||
		errors.Is(err, ErrAlreadyUnlocked)
}
