// Package storagetest provides fixtures and a shared conformance suite for
// storage.Provider implementations.
package storagetest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
	"github.com/julianstephens/questlog/internal/storage/sqlite"
)

// Epoch is the fixed clock used by fixtures.
var Epoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// NewSQLite returns an initialized store in a temp dir, closed on cleanup.
func NewSQLite(t testing.TB) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "questlog.db"))
	store.MigrationLog = func(string) {}
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Profile returns a fresh level-1 profile.
func Profile() models.Profile {
	return models.Profile{
		ID:             uuid.NewString(),
		Email:          "hero@example.com",
		CharacterLevel: constants.StartingLevel,
		ExpToNext:      constants.ExpPerLevelUnit,
		EquippedItems:  []string{},
		UnlockedItems:  []string{},
		CreatedAt:      Epoch,
	}
}

// Habit returns an active medium habit owned by profileID.
func Habit(profileID, name string, habitType constants.HabitType) models.Habit {
	return models.Habit{
		ID:         uuid.NewString(),
		ProfileID:  profileID,
		Name:       name,
		Category:   constants.CategoryHealth,
		HabitType:  habitType,
		ExpValue:   constants.DefaultExpValue,
		Difficulty: constants.DifficultyMedium,
		IsActive:   true,
		CreatedAt:  Epoch,
	}
}

// SeedProfile stores p and fails the test on error.
func SeedProfile(t testing.TB, s storage.Provider, p models.Profile) models.Profile {
	t.Helper()
	if err := s.AddProfile(p); err != nil {
		t.Fatalf("AddProfile() failed: %v", err)
	}
	return p
}

// SeedHabit stores h and fails the test on error.
func SeedHabit(t testing.TB, s storage.Provider, h models.Habit) models.Habit {
	t.Helper()
	if err := s.AddHabit(h); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}
	return h
}
