package postgres

import (
	"fmt"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

// ApplyCompletion inserts the log first with ON CONFLICT DO NOTHING, so a
// concurrent replay of the same id sees zero rows and writes nothing else.
func (s *Store) ApplyCompletion(c models.Completion) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	l := c.Log
	res, err := tx.Exec(`
INSERT INTO habit_logs (`+storage.HabitLogColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`,
		l.ID, l.ProfileID, l.HabitID, storage.FormatTime(l.CompletedAt), l.ExpEarned, l.StreakBonus, l.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert habit log: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return storage.ErrAlreadyApplied
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
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (profile_id, achievement_type) DO NOTHING`,
			a.ID, a.ProfileID, a.Type, a.Name, a.Description, a.BadgeIcon, storage.FormatTime(a.EarnedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert achievement %s: %w", a.Type, err)
		}
	}

	return tx.Commit()
}
