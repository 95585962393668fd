package postgres

import (
	"strings"

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
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Email, p.CharacterLevel, p.TotalExp, p.CurrentExp, p.ExpToNext, p.Coins,
		equipped, unlocked, p.LoginStreak, storage.NullTime(p.LastLogin), storage.FormatTime(p.CreatedAt),
	)
	return conflict(err, "profile", p.ID)
}

func (s *Store) GetProfile(id string) (models.Profile, error) {
	row := s.db.QueryRow(`SELECT `+storage.ProfileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := storage.ScanProfile(row)
	if err != nil {
		return models.Profile{}, storage.NotFound(err, "profile", id)
	}
	return p, nil
}

func (s *Store) UpdateProfile(p models.Profile) error {
	return updateProfile(s.db, p)
}

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
    email = $1, character_level = $2, total_exp = $3, current_exp = $4, exp_to_next = $5,
    coins = $6, equipped_items = $7, unlocked_items = $8, login_streak = $9, last_login = $10
WHERE id = $11`,
		p.Email, p.CharacterLevel, p.TotalExp, p.CurrentExp, p.ExpToNext,
		p.Coins, equipped, unlocked, p.LoginStreak, storage.NullTime(p.LastLogin),
		p.ID,
	)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "profile", p.ID)
}

func (s *Store) AddAccount(a models.Account) error {
	return insertAccount(s.db, a)
}

// CreateAccount stores a new profile and its account together.
func (s *Store) CreateAccount(p models.Profile, a models.Account) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertProfile(tx, p); err != nil {
		return err
	}
	if err := insertAccount(tx, a); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAccount(db execer, a models.Account) error {
	_, err := db.Exec(`
INSERT INTO accounts (`+storage.AccountColumns+`)
VALUES ($1, $2, $3, $4, $5)`,
		a.ID, strings.ToLower(a.Email), a.PasswordHash, a.ProfileID, storage.FormatTime(a.CreatedAt),
	)
	return conflict(err, "account", a.Email)
}

func (s *Store) GetAccountByEmail(email string) (models.Account, error) {
	row := s.db.QueryRow(`SELECT `+storage.AccountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	a, err := storage.ScanAccount(row)
	if err != nil {
		return models.Account{}, storage.NotFound(err, "account", email)
	}
	return a, nil
}

func (s *Store) AddSession(sess models.Session) error {
	_, err := s.db.Exec(`
INSERT INTO sessions (`+storage.SessionColumns+`)
VALUES ($1, $2, $3, $4)`,
		sess.Token, sess.ProfileID, storage.FormatTime(sess.CreatedAt), storage.FormatTime(sess.ExpiresAt),
	)
	return conflict(err, "session", "")
}

func (s *Store) GetSession(token string) (models.Session, error) {
	row := s.db.QueryRow(`SELECT `+storage.SessionColumns+` FROM sessions WHERE token = $1`, token)
	sess, err := storage.ScanSession(row)
	if err != nil {
		return models.Session{}, storage.NotFound(err, "session", "")
	}
	return sess, nil
}

func (s *Store) UpdateSession(sess models.Session) error {
	res, err := s.db.Exec(`UPDATE sessions SET expires_at = $1 WHERE token = $2`,
		storage.FormatTime(sess.ExpiresAt), sess.Token)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "session", "")
}

func (s *Store) DeleteSession(token string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "session", "")
}
