package storage

import (
	"errors"
	"time"

	"github.com/julianstephens/questlog/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyApplied is returned by ApplyCompletion when a log with the
	// same id has already been written
	ErrAlreadyApplied = errors.New("completion already applied")
	// ErrConflict is returned when a unique key is already taken
	ErrConflict = errors.New("already exists")
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Profiles
	AddProfile(models.Profile) error
	GetProfile(id string) (models.Profile, error)
	UpdateProfile(models.Profile) error

	// Accounts and sessions
	AddAccount(models.Account) error
	// CreateAccount inserts a new profile and its account atomically.
	CreateAccount(models.Profile, models.Account) error
	GetAccountByEmail(email string) (models.Account, error)
	AddSession(models.Session) error
	GetSession(token string) (models.Session, error)
	UpdateSession(models.Session) error
	DeleteSession(token string) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByName(profileID, name string) (models.Habit, error)
	GetHabits(profileID string, includeInactive bool) ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	DeactivateHabit(id string) error

	// Habit logs are append-only and written through ApplyCompletion.
	GetHabitLog(id string) (models.HabitLog, error)
	// GetHabitLogs returns the profile's logs with completed_at >= since,
	// newest first.
	GetHabitLogs(profileID string, since time.Time) ([]models.HabitLog, error)
	CountHabitLogs(profileID string) (int, error)

	// Catalog
	GetCatalog() ([]models.CharacterItem, error)
	GetItem(id string) (models.CharacterItem, error)

	// Achievements
	GetAchievements(profileID string) ([]models.Achievement, error)

	// ApplyCompletion writes the log, habit, profile and any new
	// achievements in a single transaction. It returns ErrAlreadyApplied
	// without writing anything if the log id already exists.
	ApplyCompletion(models.Completion) error

	// Utils
	GetConfigPath() string
}
