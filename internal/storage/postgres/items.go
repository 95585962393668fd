package postgres

import (
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

func (s *Store) GetCatalog() ([]models.CharacterItem, error) {
	rows, err := s.db.Query(`
SELECT ` + storage.ItemColumns + ` FROM character_items
ORDER BY required_level, coin_cost, id`)
	if err != nil {
		return nil, err
	}
	return storage.CollectRows(rows, storage.ScanItem)
}

func (s *Store) GetItem(id string) (models.CharacterItem, error) {
	row := s.db.QueryRow(`SELECT `+storage.ItemColumns+` FROM character_items WHERE id = $1`, id)
	it, err := storage.ScanItem(row)
	if err != nil {
		return models.CharacterItem{}, storage.NotFound(err, "item", id)
	}
	return it, nil
}

func (s *Store) GetAchievements(profileID string) ([]models.Achievement, error) {
	rows, err := s.db.Query(`
SELECT `+storage.AchievementColumns+` FROM achievements
WHERE profile_id = $1 ORDER BY earned_at, achievement_type`, profileID)
	if err != nil {
		return nil, err
	}
	return storage.CollectRows(rows, storage.ScanAchievement)
}
