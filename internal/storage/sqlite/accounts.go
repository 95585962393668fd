package sqlite

import (
	"strings"

	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

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
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, strings.ToLower(a.Email), a.PasswordHash, a.ProfileID, storage.FormatTime(a.CreatedAt),
	)
	return conflict(err, "account", a.Email)
}

func (s *Store) GetAccountByEmail(email string) (models.Account, error) {
	row := s.db.QueryRow(`SELECT `+storage.AccountColumns+` FROM accounts WHERE email = ?`, strings.ToLower(email))
	a, err := storage.ScanAccount(row)
	if err != nil {
		return models.Account{}, storage.NotFound(err, "account", email)
	}
	return a, nil
}

func (s *Store) AddSession(sess models.Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (`+storage.SessionColumns+`)
		VALUES (?, ?, ?, ?)`,
		sess.Token, sess.ProfileID, storage.FormatTime(sess.CreatedAt), storage.FormatTime(sess.ExpiresAt),
	)
	return conflict(err, "session", "")
}

func (s *Store) GetSession(token string) (models.Session, error) {
	row := s.db.QueryRow(`SELECT `+storage.SessionColumns+` FROM sessions WHERE token = ?`, token)
	sess, err := storage.ScanSession(row)
	if err != nil {
		return models.Session{}, storage.NotFound(err, "session", "")
	}
	return sess, nil
}

func (s *Store) UpdateSession(sess models.Session) error {
	res, err := s.db.Exec(`UPDATE sessions SET expires_at = ? WHERE token = ?`,
		storage.FormatTime(sess.ExpiresAt), sess.Token)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "session", "")
}

func (s *Store) DeleteSession(token string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return err
	}
	return storage.ExpectOne(res, "session", "")
}
