package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

func (s *Store) ApplyCompletion(c models.Completion) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM habit_logs WHERE id = ?`, c.Log.ID).Scan(&exists)
	switch {
	case err == nil:
		return storage.ErrAlreadyApplied
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check habit log: %w", err)
	}

	l := c.Log
	_, err = tx.Exec(`
		INSERT INTO habit_logs (`+storage.HabitLogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ProfileID, l.HabitID, storage.FormatTime(l.CompletedAt), l.ExpEarned, l.StreakBonus, l.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyApplied
		}
		return fmt.Errorf("failed to insert habit log: %w", err)
	}

	if err := updateHabit(tx, c.Habit); err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if err := updateProfile(tx, c.Profile); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	for _, a := range c.Achievements {
		_, err := tx.Exec(`
			INSERT INTO achievements (`+storage.AchievementColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (profile_id, achievement_type) DO NOTHING`,
			a.ID, a.ProfileID, a.Type, a.Name, a.Description, a.BadgeIcon, storage.FormatTime(a.EarnedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert achievement %s: %w", a.Type, err)
		}
	}

	return tx.Commit()
}
