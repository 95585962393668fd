package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
)

// TimeLayout is the TEXT encoding used for every timestamp column. It is
// fixed-width in UTC so string comparison orders rows chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Column lists shared by the SQL stores, in scan order.
const (
	ProfileColumns     = "id, email, character_level, total_exp, current_exp, exp_to_next, coins, equipped_items, unlocked_items, login_streak, last_login, created_at"
	AccountColumns     = "id, email, password_hash, profile_id, created_at"
	SessionColumns     = "token, profile_id, created_at, expires_at"
	HabitColumns       = "id, profile_id, name, category, habit_type, exp_value, difficulty, streak, best_streak, notes, is_active, created_at"
	HabitLogColumns    = "id, profile_id, habit_id, completed_at, exp_earned, streak_bonus, notes"
	ItemColumns        = "id, name, category, required_level, coin_cost, sprite_layer, description"
	AchievementColumns = "id, profile_id, achievement_type, name, description, badge_icon, earned_at"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// FormatTime encodes t for a timestamp column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullTime encodes an optional timestamp.
func NullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTime(*t), Valid: true}
}

func parseTime(field, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return t, nil
}

// EncodeIDs stores an id set as a JSON array.
func EncodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode item ids: %w", err)
	}
	return string(b), nil
}

func decodeIDs(field, v string) ([]string, error) {
	ids := []string{}
	if v == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(v), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", field, err)
	}
	return ids, nil
}

// NotFound maps sql.ErrNoRows to ErrNotFound and leaves other errors alone.
func NotFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

// ExpectOne returns ErrNotFound when an UPDATE or DELETE touched no rows.
func ExpectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func ScanProfile(s Scanner) (models.Profile, error) {
	var p models.Profile
	var equipped, unlocked, createdAt string
	var lastLogin sql.NullString

	err := s.Scan(&p.ID, &p.Email, &p.CharacterLevel, &p.TotalExp, &p.CurrentExp, &p.ExpToNext,
		&p.Coins, &equipped, &unlocked, &p.LoginStreak, &lastLogin, &createdAt)
	if err != nil {
		return models.Profile{}, err
	}

	if p.EquippedItems, err = decodeIDs("equipped_items", equipped); err != nil {
		return models.Profile{}, err
	}
	if p.UnlockedItems, err = decodeIDs("unlocked_items", unlocked); err != nil {
		return models.Profile{}, err
	}
	if lastLogin.Valid {
		t, err := parseTime("last_login", lastLogin.String)
		if err != nil {
			return models.Profile{}, err
		}
		p.LastLogin = &t
	}
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func ScanAccount(s Scanner) (models.Account, error) {
	var a models.Account
	var createdAt string
	if err := s.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.ProfileID, &createdAt); err != nil {
		return models.Account{}, err
	}
	var err error
	a.CreatedAt, err = parseTime("created_at", createdAt)
	return a, err
}

func ScanSession(s Scanner) (models.Session, error) {
	var sess models.Session
	var createdAt, expiresAt string
	if err := s.Scan(&sess.Token, &sess.ProfileID, &createdAt, &expiresAt); err != nil {
		return models.Session{}, err
	}
	var err error
	if sess.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Session{}, err
	}
	if sess.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

func ScanHabit(s Scanner) (models.Habit, error) {
	var h models.Habit
	var category, habitType, difficulty, createdAt string

	err := s.Scan(&h.ID, &h.ProfileID, &h.Name, &category, &habitType, &h.ExpValue, &difficulty,
		&h.Streak, &h.BestStreak, &h.Notes, &h.IsActive, &createdAt)
	if err != nil {
		return models.Habit{}, err
	}

	h.Category = constants.Category(category)
	h.HabitType = constants.HabitType(habitType)
	h.Difficulty = constants.Difficulty(difficulty)
	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	return h, nil
}

func ScanHabitLog(s Scanner) (models.HabitLog, error) {
	var l models.HabitLog
	var completedAt string
	err := s.Scan(&l.ID, &l.ProfileID, &l.HabitID, &completedAt, &l.ExpEarned, &l.StreakBonus, &l.Notes)
	if err != nil {
		return models.HabitLog{}, err
	}
	if l.CompletedAt, err = parseTime("completed_at", completedAt); err != nil {
		return models.HabitLog{}, fmt.Errorf("habit log %s: %w", l.ID, err)
	}
	return l, nil
}

func ScanItem(s Scanner) (models.CharacterItem, error) {
	var it models.CharacterItem
	var category string
	if err := s.Scan(&it.ID, &it.Name, &category, &it.RequiredLevel, &it.CoinCost, &it.SpriteLayer, &it.Description); err != nil {
		return models.CharacterItem{}, err
	}
	it.Category = constants.ItemCategory(category)
	return it, nil
}

func ScanAchievement(s Scanner) (models.Achievement, error) {
	var a models.Achievement
	var earnedAt string
	if err := s.Scan(&a.ID, &a.ProfileID, &a.Type, &a.Name, &a.Description, &a.BadgeIcon, &earnedAt); err != nil {
		return models.Achievement{}, err
	}
	var err error
	a.EarnedAt, err = parseTime("earned_at", earnedAt)
	return a, err
}

// CollectRows scans every row with scan and closes rows.
func CollectRows[T any](rows *sql.Rows, scan func(Scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
