package sqlite

import (
	"time"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

func (s *Store) GetHabitLog(id string) (models.HabitLog, error) {
	row := s.db.QueryRow(`SELECT `+storage.HabitLogColumns+` FROM habit_logs WHERE id = ?`, id)
	l, err := storage.ScanHabitLog(row)
	if err != nil {
		return models.HabitLog{}, storage.NotFound(err, "habit log", id)
	}
	return l, nil
}

func (s *Store) GetHabitLogs(profileID string, since time.Time) ([]models.HabitLog, error) {
	rows, err := s.db.Query(`
		SELECT `+storage.HabitLogColumns+` FROM habit_logs
		WHERE profile_id = ? AND completed_at >= ?
		ORDER BY completed_at DESC, id`, profileID, storage.FormatTime(since))
	if err != nil {
		return nil, err
	}
	return storage.CollectRows(rows, storage.ScanHabitLog)
}

func (s *Store) CountHabitLogs(profileID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM habit_logs WHERE profile_id = ?`, profileID).Scan(&n)
	return n, err
}
