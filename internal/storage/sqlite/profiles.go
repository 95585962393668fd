package sqlite

import (
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

func (s *Store) AddProfile(p models.Profile) error {
	return insertProfile(s.db, p)
}

func insertProfile(db execer, p models.Profile) error {
	equipped, err := storage.EncodeIDs(p.EquippedItems)
	if err != nil {
		return err
	}
	unlocked, err := storage.EncodeIDs(p.UnlockedItems)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO profiles (`+storage.ProfileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.CharacterLevel, p.TotalExp, p.CurrentExp, p.ExpToNext, p.Coins,
		equipped, unlocked, p.LoginStreak, storage.NullTime(p.LastLogin), storage.FormatTime(p.CreatedAt),
	)
	return conflict(err, "profile", p.ID)
}

func (s *Store) GetProfile(id string) (models.Profile, error) {
	row := s.db.QueryRow(`SELECT `+storage.ProfileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := storage.ScanProfile(row)
	if err != nil {
		return models.Profile{}, storage.NotFound(err, "profile", id)
	}
	return p, nil
}

func (s *Store) UpdateProfile(p models.Profile) error {
	return updateProfile(s.db, p)
}

// updateProfile writes every mutable profile column through db or a tx.
func updateProfile(db execer, p models.Profile) error {
	equipped, err := storage.EncodeIDs(p.EquippedItems)
	if err != nil {
		return err
	}
	unlocked, err := storage.EncodeIDs(p.UnlockedItems)
	if err != nil {
		return err
	}

	res, err := db.Exec(`
		UPDATE profiles SET
			email = ?, character_level = ?, total_exp = ?, current_exp = ?, exp_to_next = ?,
			coins = ?, equipped_items = ?, unlocked_items = ?, login_streak = ?, last_login = ?
		WHERE id = ?`,
		p.Email, p.CharacterLevel, p.TotalExp, p.CurrentExp, p.ExpToNext,
		p.Coins, equipped, unlocked, p.LoginStreak, storage.NullTime(p.LastLogin),
		p.ID,
	)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "profile", p.ID)
}
