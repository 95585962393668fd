package sqlite

import (
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

func (s *Store) AddHabit(h models.Habit) error {
	_, err := s.db.Exec(`
		INSERT INTO habits (`+storage.HabitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.ProfileID, h.Name, string(h.Category), string(h.HabitType), h.ExpValue, string(h.Difficulty),
		h.Streak, h.BestStreak, h.Notes, h.IsActive, storage.FormatTime(h.CreatedAt),
	)
	return conflict(err, "habit", h.ID)
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+storage.HabitColumns+` FROM habits WHERE id = ?`, id)
	h, err := storage.ScanHabit(row)
	if err != nil {
		return models.Habit{}, storage.NotFound(err, "habit", id)
	}
	return h, nil
}

func (s *Store) GetHabitByName(profileID, name string) (models.Habit, error) {
	row := s.db.QueryRow(`
		SELECT `+storage.HabitColumns+` FROM habits
		WHERE profile_id = ? AND name = ? COLLATE NOCASE AND is_active = 1
		ORDER BY created_at LIMIT 1`, profileID, name)
	h, err := storage.ScanHabit(row)
	if err != nil {
		return models.Habit{}, storage.NotFound(err, "habit", name)
	}
	return h, nil
}

func (s *Store) GetHabits(profileID string, includeInactive bool) ([]models.Habit, error) {
	query := `SELECT ` + storage.HabitColumns + ` FROM habits WHERE profile_id = ?`
	if !includeInactive {
		query += " AND is_active = 1"
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
			name = ?, category = ?, habit_type = ?, exp_value = ?, difficulty = ?,
			streak = ?, best_streak = ?, notes = ?, is_active = ?
		WHERE id = ?`,
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
	res, err := s.db.Exec(`UPDATE habits SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "habit", id)
}
