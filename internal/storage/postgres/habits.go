package postgres

import (
	"time"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

func (s *Store) AddHabit(h models.Habit) error {
	_, err := s.db.Exec(`
INSERT INTO habits (`+storage.HabitColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		h.ID, h.ProfileID, h.Name, string(h.Category), string(h.HabitType), h.ExpValue, string(h.Difficulty),
		h.Streak, h.BestStreak, h.Notes, h.IsActive, storage.FormatTime(h.CreatedAt),
	)
	return conflict(err, "habit", h.ID)
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+storage.HabitColumns+` FROM habits WHERE id = $1`, id)
	h, err := storage.ScanHabit(row)
	if err != nil {
		return models.Habit{}, storage.NotFound(err, "habit", id)
	}
	return h, nil
}

func (s *Store) GetHabitByName(profileID, name string) (models.Habit, error) {
	row := s.db.QueryRow(`
SELECT `+storage.HabitColumns+` FROM habits
WHERE profile_id = $1 AND LOWER(name) = LOWER($2) AND is_active
ORDER BY created_at LIMIT 1`, profileID, name)
	h, err := storage.ScanHabit(row)
	if err != nil {
		return models.Habit{}, storage.NotFound(err, "habit", name)
	}
	return h, nil
}

func (s *Store) GetHabits(profileID string, includeInactive bool) ([]models.Habit, error) {
	query := `SELECT ` + storage.HabitColumns + ` FROM habits WHERE profile_id = $1`
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.Query(query, profileID)
	if err != nil {
		return nil, err
	}
	return storage.CollectRows(rows, storage.ScanHabit)
}

func (s *Store) UpdateHabit(h models.Habit) error {
	return updateHabit(s.db, h)
}

func updateHabit(db execer, h models.Habit) error {
	res, err := db.Exec(`
UPDATE habits SET
    name = $1, category = $2, habit_type = $3, exp_value = $4, difficulty = $5,
    streak = $6, best_streak = $7, notes = $8, is_active = $9
WHERE id = $10`,
		h.Name, string(h.Category), string(h.HabitType), h.ExpValue, string(h.Difficulty),
		h.Streak, h.BestStreak, h.Notes, h.IsActive,
		h.ID,
	)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "habit", h.ID)
}

func (s *Store) DeactivateHabit(id string) error {
	res, err := s.db.Exec(`UPDATE habits SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "habit", id)
}

func (s *Store) GetHabitLog(id string) (models.HabitLog, error) {
	row := s.db.QueryRow(`SELECT `+storage.HabitLogColumns+` FROM habit_logs WHERE id = $1`, id)
	l, err := storage.ScanHabitLog(row)
	if err != nil {
		return models.HabitLog{}, storage.NotFound(err, "habit log", id)
	}
	return l, nil
}

func (s *Store) GetHabitLogs(profileID string, since time.Time) ([]models.HabitLog, error) {
	rows, err := s.db.Query(`
SELECT `+storage.HabitLogColumns+` FROM habit_logs
WHERE profile_id = $1 AND completed_at >= $2
ORDER BY completed_at DESC, id`, profileID, storage.FormatTime(since))
	if err != nil {
		return nil, err
	}
	return storage.CollectRows(rows, storage.ScanHabitLog)
}

func (s *Store) CountHabitLogs(profileID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM habit_logs WHERE profile_id = $1`, profileID).Scan(&n)
	return n, err
}
